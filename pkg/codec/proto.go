package codec

import (
	"errors"
	"io"
	"net/http"

	"google.golang.org/protobuf/proto"
)

// ProtoContentType is the MIME type used for Protocol Buffers bodies.
const ProtoContentType = "application/x-protobuf"

// ProtoCodec is a codec that uses Protocol Buffers for marshaling and unmarshaling.
// Because T is usually a pointer type, the codec needs a constructor for fresh request messages.
type ProtoCodec[T proto.Message, U proto.Message] struct {
	newRequest func() T
}

// Decode reads the request body and unmarshals it into a new T.
func (c *ProtoCodec[T, U]) Decode(r *http.Request) (T, error) {
	msg := c.newRequest()

	// Read the request body
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var zero T
		return zero, err
	}
	defer r.Body.Close()

	// Unmarshal the proto
	if err := proto.Unmarshal(body, msg); err != nil {
		var zero T
		return zero, err
	}

	return msg, nil
}

// Encode marshals resp to the Protocol Buffers wire format.
func (c *ProtoCodec[T, U]) Encode(resp U) ([]byte, error) {
	return proto.Marshal(resp)
}

// ContentType returns "application/x-protobuf".
func (c *ProtoCodec[T, U]) ContentType() string {
	return ProtoContentType
}

// NewProtoCodec creates a new ProtoCodec. newRequest must return an empty request message.
func NewProtoCodec[T proto.Message, U proto.Message](newRequest func() T) *ProtoCodec[T, U] {
	return &ProtoCodec[T, U]{newRequest: newRequest}
}

// ProtoParser returns a body Parser that unmarshals into messages created by newMessage.
func ProtoParser[T proto.Message](newMessage func() T) Parser {
	return func(data []byte) (any, error) {
		if newMessage == nil {
			return nil, errors.New("codec: nil protobuf message constructor")
		}
		msg := newMessage()
		if err := proto.Unmarshal(data, msg); err != nil {
			return nil, err
		}
		return msg, nil
	}
}
