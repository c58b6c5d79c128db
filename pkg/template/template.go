// Package template renders named views with a model for digwebs applications.
package template

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrTemplateNotFound is returned when rendering a template that was not loaded.
var ErrTemplateNotFound = errors.New("template not found")

// Engine renders the named template with model.
type Engine interface {
	Render(name string, model map[string]any) ([]byte, error)
}

// Config configures an HTMLEngine.
type Config struct {
	Dir       string           // Directory holding the templates
	Extension string           // File extension of templates, ".html" when empty
	Reload    bool             // Re-read the directory on every render (develop mode)
	Funcs     template.FuncMap // Extra template functions
}

// HTMLEngine renders html/template files loaded from a directory. Templates are named by
// their slash-separated path relative to the directory, e.g. "blog/post.html", and can
// include each other by that name.
type HTMLEngine struct {
	config Config
	funcs  template.FuncMap

	mu      sync.RWMutex
	set     *template.Template
	globals map[string]any
}

// NewHTMLEngine loads every template under config.Dir.
func NewHTMLEngine(config Config) (*HTMLEngine, error) {
	if config.Extension == "" {
		config.Extension = ".html"
	}

	funcs := template.FuncMap{
		"datetime": func(v any) string { return Datetime(v, time.Now()) },
	}
	for name, fn := range config.Funcs {
		funcs[name] = fn
	}

	e := &HTMLEngine{
		config:  config,
		funcs:   funcs,
		globals: make(map[string]any),
	}
	set, err := e.load()
	if err != nil {
		return nil, err
	}
	e.set = set
	return e, nil
}

// load parses the template directory into a new set.
func (e *HTMLEngine) load() (*template.Template, error) {
	set := template.New("").Funcs(e.funcs)
	err := filepath.WalkDir(e.config.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), e.config.Extension) {
			return nil
		}
		rel, err := filepath.Rel(e.config.Dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := set.New(filepath.ToSlash(rel)).Parse(string(content)); err != nil {
			return fmt.Errorf("template %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// SetGlobal makes value available to every template under key.
// Keys in the render model take precedence over globals.
func (e *HTMLEngine) SetGlobal(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.globals[key] = value
}

// Global returns the value stored with SetGlobal.
func (e *HTMLEngine) Global(key string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.globals[key]
	return v, ok
}

// Render executes the named template with the globals and model merged into one map.
func (e *HTMLEngine) Render(name string, model map[string]any) ([]byte, error) {
	e.mu.RLock()
	set := e.set
	data := make(map[string]any, len(e.globals)+len(model))
	for k, v := range e.globals {
		data[k] = v
	}
	e.mu.RUnlock()
	for k, v := range model {
		data[k] = v
	}

	if e.config.Reload {
		fresh, err := e.load()
		if err != nil {
			return nil, err
		}
		set = fresh
		e.mu.Lock()
		e.set = fresh
		e.mu.Unlock()
	}

	t := set.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Datetime formats a Unix timestamp (seconds) or time.Time relative to now:
// minutes, hours or days ago within a week, the calendar date after that.
func Datetime(v any, now time.Time) string {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case int:
		t = time.Unix(int64(x), 0)
	case int64:
		t = time.Unix(x, 0)
	case float64:
		t = time.Unix(int64(x), 0)
	default:
		return fmt.Sprint(v)
	}

	delta := now.Sub(t)
	switch {
	case delta < time.Minute:
		return "1 minute ago"
	case delta < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(delta/time.Minute))
	case delta < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(delta/time.Hour))
	case delta < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(delta/(24*time.Hour)))
	default:
		return t.Format("2006-01-02")
	}
}
