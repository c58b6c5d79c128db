// Package generator scaffolds new digwebs projects.
package generator

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Usage is printed when no project directory is given.
const Usage = "usage: digwebs new <project-dir>\n"

// Directories are created inside every new project.
var Directories = []string{
	"controllers",
	"middlewares",
	"views",
	"test",
	filepath.Join("static", "css"),
	filepath.Join("static", "js"),
	filepath.Join("static", "images"),
	filepath.Join("static", "fonts"),
}

// Options configures Generate.
type Options struct {
	Module string      // Go module path of the project; the directory name when empty
	Logger *zap.Logger // Logger for created paths; no-op when nil
	Out    io.Writer   // Where usage is printed; os.Stdout when nil
}

// project is the data the stub files are rendered with.
type project struct {
	Name   string
	Module string
}

var files = map[string]string{
	"go.mod": `module {{.Module}}

go 1.24.0

require github.com/Suhaibinator/digwebs v0.1.0
`,
	"main.go": `package main

import (
	"log"

	"github.com/Suhaibinator/digwebs/pkg/web"

	_ "{{.Module}}/controllers"
)

func main() {
	config := web.DefaultConfig()
	config.RootPath = "."

	app, err := web.NewApp(config)
	if err != nil {
		log.Fatal(err)
	}
	log.Fatal(app.Run(web.DefaultAddr))
}
`,
	filepath.Join("controllers", "main_controller.go"): `package controllers

import (
	"github.com/Suhaibinator/digwebs/pkg/common"
	"github.com/Suhaibinator/digwebs/pkg/router"
	"github.com/Suhaibinator/digwebs/pkg/web"
)

func init() {
	router.RegisterController(router.Controller{
		Name: "main_controller",
		Routes: []router.Annotated{
			router.Get("/", web.View("index.html", index)),
		},
	})
}

func index(c *common.Context, args ...string) (map[string]any, error) {
	return map[string]any{"title": "{{.Name}}"}, nil
}
`,
	filepath.Join("views", "index.html"): `<!DOCTYPE html>
<html>
<head>
  <title>{{"{{"}}.title{{"}}"}}</title>
  <link rel="stylesheet" href="/static/css/style.css">
</head>
<body>
  <h1>{{"{{"}}.title{{"}}"}}</h1>
</body>
</html>
`,
	filepath.Join("static", "css", "style.css"): `body {
  font-family: sans-serif;
}
`,
	"digwebs.yaml": `addr: 127.0.0.1:9999
root_path: .
template_folder: views
develop_mode: true
log_level: info
enable_trace_id: true
enable_logging: true
`,
}

// Generate creates the project skeleton in dir. When dir is empty it prints Usage and
// returns nil. Existing files are never overwritten; every failure is collected and
// returned together.
func Generate(dir string, opts Options) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if dir == "" {
		_, err := io.WriteString(out, Usage)
		return err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	p := project{Name: filepath.Base(abs), Module: opts.Module}
	if p.Module == "" {
		p.Module = p.Name
	}

	var errs error
	for _, d := range Directories {
		path := filepath.Join(abs, d)
		if err := os.MkdirAll(path, 0o755); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		logger.Info("Create directory", zap.String("path", path))
	}

	for _, name := range sortedFileNames() {
		path := filepath.Join(abs, name)
		if err := writeStub(path, files[name], p); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		logger.Info("Create file", zap.String("path", path))
	}

	return errs
}

// writeStub renders content and writes it to path, which must not exist yet.
func writeStub(path, content string, p project) error {
	tmpl, err := template.New(filepath.Base(path)).Parse(content)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, err = f.Write(buf.Bytes())
	return multierr.Append(err, f.Close())
}

// Files returns the relative paths of the stub files Generate writes.
func Files() []string {
	return sortedFileNames()
}

func sortedFileNames() []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
