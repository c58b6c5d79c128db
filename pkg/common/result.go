package common

import (
	"bytes"
	"io"
)

// ResultKind identifies which payload a Result carries.
type ResultKind int

const (
	// KindEmpty is a result with no body.
	KindEmpty ResultKind = iota
	// KindText is a string body, written as UTF-8.
	KindText
	// KindBytes is a byte stream body, copied to the client as-is.
	KindBytes
	// KindTemplate is a template name plus model, rendered by the template engine.
	KindTemplate
)

// String returns the name of the kind.
func (k ResultKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// Template is the payload of a KindTemplate result.
type Template struct {
	Name  string
	Model map[string]any
}

// Result is the value a handler returns up the middleware chain.
// It is resolved into a response body once, by the dispatcher.
type Result struct {
	kind     ResultKind
	text     string
	body     io.Reader
	template *Template
}

// Empty returns a result without a body.
func Empty() Result {
	return Result{kind: KindEmpty}
}

// Text returns a result whose body is s encoded as UTF-8.
func Text(s string) Result {
	return Result{kind: KindText, text: s}
}

// Bytes returns a result whose body is b.
func Bytes(b []byte) Result {
	return Result{kind: KindBytes, body: bytes.NewReader(b)}
}

// Stream returns a result whose body is read from r.
// If r is an io.Closer it is closed once the body has been written.
func Stream(r io.Reader) Result {
	if r == nil {
		return Empty()
	}
	return Result{kind: KindBytes, body: r}
}

// Render returns a result that renders the named template with model.
// A nil model is replaced by an empty map so callbacks can extend it.
func Render(name string, model map[string]any) Result {
	if model == nil {
		model = make(map[string]any)
	}
	return Result{kind: KindTemplate, template: &Template{Name: name, Model: model}}
}

// Kind reports which payload the result carries.
func (r Result) Kind() ResultKind {
	return r.kind
}

// Text returns the text payload. It is empty for other kinds.
func (r Result) Text() string {
	return r.text
}

// Body returns the byte stream payload. It is nil for other kinds.
func (r Result) Body() io.Reader {
	return r.body
}

// Template returns the template payload. It is nil for other kinds.
func (r Result) Template() *Template {
	return r.template
}
