package common

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
)

var (
	// ErrBadStatus is returned when a status code or status line is out of range or malformed.
	ErrBadStatus = errors.New("bad response code")
	// ErrBadStatusType is returned when a status is neither an integer nor a string.
	ErrBadStatusType = errors.New("bad type of response code")
)

var statusLineRe = regexp.MustCompile(`^\d\d\d( [\w ]+)?$`)

// statusLine formats code with its reason phrase, or the bare code when no phrase is known.
func statusLine(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return strconv.Itoa(code)
}

// parseStatus validates v and returns the status line it denotes.
func parseStatus(v any) (string, error) {
	switch s := v.(type) {
	case int:
		if s < 100 || s > 999 {
			return "", fmt.Errorf("%w: %d", ErrBadStatus, s)
		}
		return statusLine(s), nil
	case string:
		if !statusLineRe.MatchString(s) {
			return "", fmt.Errorf("%w: %s", ErrBadStatus, s)
		}
		return s, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrBadStatusType, v)
	}
}
