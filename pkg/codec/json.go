package codec

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrEmptyBody is returned when a request without a body is decoded.
var ErrEmptyBody = errors.New("empty request body")

// JSONCodec decodes JSON request bodies into T and encodes U responses as JSON.
type JSONCodec[T any, U any] struct {
	strict bool
}

// NewJSONCodec creates a JSONCodec. T is the request type and U the response type.
func NewJSONCodec[T any, U any]() *JSONCodec[T, U] {
	return &JSONCodec[T, U]{}
}

// NewStrictJSONCodec creates a JSONCodec that rejects request fields T does not declare.
func NewStrictJSONCodec[T any, U any]() *JSONCodec[T, U] {
	return &JSONCodec[T, U]{strict: true}
}

// Decode reads a single JSON value from the request body.
func (c *JSONCodec[T, U]) Decode(r *http.Request) (T, error) {
	var data T
	if r.Body == nil || r.Body == http.NoBody {
		return data, ErrEmptyBody
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if c.strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&data); err != nil {
		return data, err
	}
	return data, nil
}

// Encode marshals resp to JSON.
func (c *JSONCodec[T, U]) Encode(resp U) ([]byte, error) {
	return json.Marshal(resp)
}

// ContentType returns "application/json".
func (c *JSONCodec[T, U]) ContentType() string {
	return "application/json"
}
