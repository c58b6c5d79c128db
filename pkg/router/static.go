package router

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/Suhaibinator/digwebs/pkg/common"
	"github.com/julienschmidt/httprouter"
)

// DefaultMIMEType is used for files whose extension has no known MIME type.
const DefaultMIMEType = "application/octet-stream"

// StaticFileRoute returns the built-in GET route serving /static/* from the document root.
func StaticFileRoute() *Route {
	return &Route{
		method:  "GET",
		path:    "/static/*",
		params:  []string{"file"},
		matcher: &prefixMatcher{prefix: "/static/"},
		handler: ServeFile,
	}
}

// FaviconRoute returns the built-in GET route serving /favicon.ico from the document root.
func FaviconRoute() *Route {
	return &Route{
		method:  "GET",
		path:    "/favicon.ico",
		params:  []string{"file"},
		matcher: &exactMatcher{path: "/favicon.ico"},
		handler: ServeFile,
	}
}

// ServeFile streams the file named by args[0], relative to the document root.
// The path is cleaned first so it cannot leave the root. Missing files and directories
// are a 404; the Content-Type comes from the file extension.
func ServeFile(c *common.Context, args ...string) (common.Result, error) {
	if len(args) == 0 || c.Application == nil {
		return common.Empty(), common.NotFound()
	}

	rel := strings.TrimPrefix(httprouter.CleanPath("/"+args[0]), "/")
	fpath := filepath.Join(c.Application.DocumentRoot, filepath.FromSlash(rel))

	info, err := os.Stat(fpath)
	if err != nil || !info.Mode().IsRegular() {
		return common.Empty(), common.NotFound()
	}

	f, err := os.Open(fpath)
	if err != nil {
		return common.Empty(), common.NotFound()
	}

	c.Response.SetContentType(ContentTypeByExtension(filepath.Ext(fpath)))
	c.Response.SetContentLength(info.Size())
	return common.Stream(f), nil
}

// ContentTypeByExtension returns the MIME type for ext (e.g. ".png"),
// or DefaultMIMEType when it is unknown.
func ContentTypeByExtension(ext string) string {
	if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
		return t
	}
	return DefaultMIMEType
}
