package htmlserial

import (
	"context"
	"fmt"

	"github.com/quiltlod/quilt/liquid"
	"github.com/quiltlod/quilt/model"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
)

// Config configures the HTML serialiser.
type Config struct {
	// BaseURI is the server's external base URI, used to decide whether
	// a subject/object URI should be rendered as a site-relative link.
	BaseURI string
}

// New returns a registry.SerializeFunc that renders req's model through
// env's error/home/index/item templates, selected per selectTemplate.
// types is the full registered-serialiser list, used to build the
// "links" (alternate representations) section of the dictionary.
func New(env *liquid.Env, types []registry.Type, cfg Config) registry.SerializeFunc {
	return func(ctx context.Context, req *request.Request, m *model.Model) ([]byte, error) {
		name := selectTemplate(req, env)
		tpl, ok := env.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("htmlserial: no template available (wanted %q)", name)
		}
		dict := buildDict(req, types, cfg.BaseURI)
		out, err := tpl.RenderString(dict, env)
		if err != nil {
			return nil, fmt.Errorf("htmlserial: rendering %q: %w", name, err)
		}
		return []byte(out), nil
	}
}

// selectTemplate picks which template should render req, mirroring
// html_template's status/home/index/item precedence with graceful
// fallback to whichever templates actually loaded.
func selectTemplate(req *request.Request, env *liquid.Env) string {
	if req.Status != 200 {
		if _, ok := env.Lookup("error"); ok {
			return "error"
		}
	}
	if req.Home {
		if _, ok := env.Lookup("home"); ok {
			return "home"
		}
	}
	if req.Home || req.Index {
		if _, ok := env.Lookup("index"); ok {
			return "index"
		}
	}
	if _, ok := env.Lookup("item"); ok {
		return "item"
	}
	if _, ok := env.Lookup("index"); ok {
		return "index"
	}
	return "home"
}
