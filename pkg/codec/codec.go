// Package codec provides encoding and decoding functionality for different data formats.
// It covers typed request/response codecs for generic handlers and the body parsers
// a request uses to turn a raw body into a value based on its MIME type.
package codec

import (
	"net/http"
)

// Codec defines an interface for decoding request data and encoding response data.
// T is the request data type and U the response data type.
type Codec[T any, U any] interface {
	// Decode reads the request body and converts it from the wire format into a T.
	Decode(r *http.Request) (T, error)

	// Encode serializes resp into the wire format.
	Encode(resp U) ([]byte, error)

	// ContentType returns the MIME type of encoded responses.
	ContentType() string
}
