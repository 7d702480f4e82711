package liquid

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// Env is a directory of named Liquid templates, parsed once and
// rendered many times. It implements Loader so {% include %} tags
// resolve against the same set a caller looked up the top-level
// template from, mirroring libliquify's template_t directory of
// compiled Part/Expr arenas keyed by path.
type Env struct {
	templates map[string]*Template
}

// EnvOption configures NewEnv.
type EnvOption func(*envConfig)

type envConfig struct {
	minify bool
}

// WithMinify runs each template's source through tdewolff/minify's HTML
// minifier before parsing, the same minifier xtemplate wires for its own
// template output, with the engine's own `{{ }}` delimiters registered
// as pass-through so minification never mangles an output tag.
func WithMinify() EnvOption {
	return func(c *envConfig) { c.minify = true }
}

// NewEnv reads every ".liquid" file under root on fs and parses it into
// a named Template (the name is the path relative to root, without the
// extension, using "/" separators — "home", "people/index").
func NewEnv(fs afero.Fs, root string, opts ...EnvOption) (*Env, error) {
	cfg := envConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	var m *minify.M
	if cfg.minify {
		m = minify.New()
		m.Add("text/html", &html.Minifier{
			TemplateDelims: [...]string{"{{", "}}"},
		})
	}

	env := &Env{templates: make(map[string]*Template)}
	err := afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(p, ".liquid") {
			return nil
		}
		f, err := fs.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		buf, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		if m != nil {
			var out bytes.Buffer
			if err := m.Minify("text/html", &out, bytes.NewReader(buf)); err != nil {
				return fmt.Errorf("liquid: minify %s: %w", p, err)
			}
			buf = out.Bytes()
		}

		rel := strings.TrimPrefix(p, root)
		rel = strings.TrimPrefix(rel, "/")
		name := strings.TrimSuffix(rel, ".liquid")
		name = path.Clean(name)

		tpl, err := Parse(name, string(buf))
		if err != nil {
			return fmt.Errorf("liquid: parsing %s: %w", p, err)
		}
		env.templates[name] = tpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

// Load implements Loader.
func (e *Env) Load(name string) (*Template, error) {
	tpl, ok := e.templates[name]
	if !ok {
		return nil, fmt.Errorf("liquid: no such template %q", name)
	}
	return tpl, nil
}

// Lookup returns the named template, or false if it isn't registered.
func (e *Env) Lookup(name string) (*Template, bool) {
	tpl, ok := e.templates[name]
	return tpl, ok
}
