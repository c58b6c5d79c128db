package codec

import (
	"encoding/json"
	"mime"
	"net/url"
	"strings"
)

// Parser turns a raw request body into a value.
type Parser func(data []byte) (any, error)

// Parsers maps MIME types to body parsers. Unknown types fall back to Raw.
// A Parsers value is configured at startup and only read afterwards.
type Parsers struct {
	parsers map[string]Parser
}

// NewParsers returns a registry with JSON and urlencoded form parsers installed.
func NewParsers() *Parsers {
	p := &Parsers{parsers: make(map[string]Parser)}
	p.Register("application/json", JSON)
	p.Register("application/x-www-form-urlencoded", Form)
	return p
}

// Register installs parser for mimeType, replacing any previous one.
func (p *Parsers) Register(mimeType string, parser Parser) {
	p.parsers[strings.ToLower(mimeType)] = parser
}

// Lookup returns the parser for a Content-Type header value. Parameters such as
// charset are ignored. Unknown or malformed types yield Raw.
func (p *Parsers) Lookup(contentType string) Parser {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return Raw
	}
	if parser, ok := p.parsers[mediaType]; ok {
		return parser
	}
	return Raw
}

// Parse parses data with the parser registered for contentType.
func (p *Parsers) Parse(contentType string, data []byte) (any, error) {
	return p.Lookup(contentType)(data)
}

// Raw returns the body unchanged.
func Raw(data []byte) (any, error) {
	return data, nil
}

// JSON decodes the body into generic JSON values (maps, slices, float64, ...).
func JSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Form decodes an application/x-www-form-urlencoded body into url.Values.
func Form(data []byte) (any, error) {
	return url.ParseQuery(string(data))
}
