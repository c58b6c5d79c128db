package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/Suhaibinator/digwebs/pkg/common"
)

// newTestContext builds a context for a request to path
func newTestContext(method, path string, body io.Reader) *common.Context {
	return common.NewContext(&common.Application{}, httptest.NewRequest(method, path, body))
}

// newContextFromRequest builds a context for an existing request
func newContextFromRequest(r *http.Request) *common.Context {
	return common.NewContext(&common.Application{}, r)
}

// terminal returns a continuation that records whether it ran and answers with text
func terminal(called *bool, text string) common.Next {
	return func() (common.Result, error) {
		*called = true
		return common.Text(text), nil
	}
}

// failing returns a continuation that fails with err
func failing(err error) common.Next {
	return func() (common.Result, error) {
		return common.Empty(), err
	}
}
