package common

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Suhaibinator/digwebs/pkg/codec"
)

func TestRequestAccessors(t *testing.T) {
	req := httptest.NewRequest("GET", "http://localhost:8080/test/a%20b.html?a=1&b=2&b=3", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "text/html")
	req.RemoteAddr = "192.168.0.100:1234"

	r := NewRequest(req, nil)

	if r.Method() != "GET" {
		t.Errorf("Expected method %q, got %q", "GET", r.Method())
	}
	if r.Path() != "/test/a b.html" {
		t.Errorf("Expected path %q, got %q", "/test/a b.html", r.Path())
	}
	if r.QueryString() != "a=1&b=2&b=3" {
		t.Errorf("Expected query string %q, got %q", "a=1&b=2&b=3", r.QueryString())
	}
	if got := r.Query()["b"]; len(got) != 2 || got[1] != "3" {
		t.Errorf("Expected query b to be [2 3], got %v", got)
	}
	if r.Host() != "localhost:8080" {
		t.Errorf("Expected host %q, got %q", "localhost:8080", r.Host())
	}
	if r.RemoteAddr() != "192.168.0.100:1234" {
		t.Errorf("Expected remote addr %q, got %q", "192.168.0.100:1234", r.RemoteAddr())
	}
	if r.Header("user-agent") != "Mozilla/5.0" {
		t.Errorf("Expected user agent %q, got %q", "Mozilla/5.0", r.Header("user-agent"))
	}
	if r.Headers()["ACCEPT"] != "text/html" {
		t.Errorf("Expected ACCEPT header %q, got %q", "text/html", r.Headers()["ACCEPT"])
	}
	if r.Raw() != req {
		t.Error("Expected Raw to return the wrapped request")
	}
}

func TestRequestRemoteAddrDefault(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = ""

	if got := NewRequest(req, nil).RemoteAddr(); got != "0.0.0.0" {
		t.Errorf("Expected remote addr %q, got %q", "0.0.0.0", got)
	}
}

func TestRequestCookies(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "A=123; url=http%3A%2F%2Fwww.example.com%2F")

	r := NewRequest(req, nil)

	if v, ok := r.Cookie("A"); !ok || v != "123" {
		t.Errorf("Expected cookie A to be %q, got %q", "123", v)
	}
	if v, _ := r.Cookie("url"); v != "http://www.example.com/" {
		t.Errorf("Expected cookie url to be %q, got %q", "http://www.example.com/", v)
	}
	if _, ok := r.Cookie("missing"); ok {
		t.Error("Expected missing cookie to be absent")
	}
	if len(r.Cookies()) != 2 {
		t.Errorf("Expected 2 cookies, got %d", len(r.Cookies()))
	}
}

func TestRequestFormInput(t *testing.T) {
	body := "a=1&b=M%20M&c=ABC&c=XYZ&e="
	req := httptest.NewRequest("POST", "/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	r := NewRequest(req, nil)

	if v, ok := r.Get("b"); !ok || v != "M M" {
		t.Errorf("Expected b to be %q, got %q", "M M", v)
	}
	if v := r.Gets("c"); len(v) != 2 || v[0] != "ABC" || v[1] != "XYZ" {
		t.Errorf("Expected c to be [ABC XYZ], got %v", v)
	}
	if _, ok := r.Get("empty"); ok {
		t.Error("Expected missing key to be absent")
	}

	input := r.Input(map[string]string{"x": "2008", "a": "default"})
	if input["x"] != "2008" {
		t.Errorf("Expected default x to be %q, got %q", "2008", input["x"])
	}
	if input["a"] != "1" {
		t.Errorf("Expected a to be %q, got %q", "1", input["a"])
	}
}

func TestRequestMultipartFile(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("name", "Scofield")
	_ = w.WriteField("name", "Lincoln")
	fw, err := w.CreateFormFile("file", "test.txt")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	_, _ = fw.Write([]byte("just a test"))
	_ = w.Close()

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	r := NewRequest(req, nil)

	if v, _ := r.Get("name"); v != "Scofield" {
		t.Errorf("Expected name %q, got %q", "Scofield", v)
	}
	if v := r.Gets("name"); len(v) != 2 {
		t.Errorf("Expected 2 names, got %v", v)
	}

	fh, ok := r.File("file")
	if !ok {
		t.Fatal("Expected uploaded file")
	}
	if fh.Filename != "test.txt" {
		t.Errorf("Expected filename %q, got %q", "test.txt", fh.Filename)
	}
}

func TestRequestParseBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/api", strings.NewReader(`{"name":"John"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	r := NewRequest(req, codec.NewParsers())

	v, err := r.ParseBody()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok || m["name"] != "John" {
		t.Errorf("Expected parsed JSON with name John, got %#v", v)
	}

	// Body is cached after the first read
	raw, err := r.Body()
	if err != nil || string(raw) != `{"name":"John"}` {
		t.Errorf("Expected cached body, got %q (%v)", raw, err)
	}
}

func TestRequestParseBodyWithoutParsers(t *testing.T) {
	req := httptest.NewRequest("POST", "/api", strings.NewReader("raw"))
	req.Header.Set("Content-Type", "application/json")

	v, err := NewRequest(req, nil).ParseBody()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if b, ok := v.([]byte); !ok || string(b) != "raw" {
		t.Errorf("Expected raw bytes, got %#v", v)
	}
}

func TestRequestParseFormBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader("k=v"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	v, err := NewRequest(req, codec.NewParsers()).ParseBody()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if values, ok := v.(url.Values); !ok || values.Get("k") != "v" {
		t.Errorf("Expected form values with k=v, got %#v", v)
	}
}
