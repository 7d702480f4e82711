package liquid

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func render(t *testing.T, src string, ctx Context) string {
	t.Helper()
	tpl, err := Parse("t", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := tpl.RenderString(ctx, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out
}

func TestRenderPlainText(t *testing.T) {
	got := render(t, "hello world", nil)
	if got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderOutputVar(t *testing.T) {
	got := render(t, "hello {{ name }}!", Context{"name": "Alice"})
	if got != "hello Alice!" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderDottedPath(t *testing.T) {
	got := render(t, "{{ page.title }}", Context{
		"page": map[string]any{"title": "Widget"},
	})
	if got != "Widget" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderFilters(t *testing.T) {
	got := render(t, "{{ name | upcase }}", Context{"name": "bob"})
	if got != "BOB" {
		t.Fatalf("got %q", got)
	}
	got = render(t, `{{ tag | escape }}`, Context{"tag": "<b>"})
	if got != "&lt;b&gt;" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderIfElse(t *testing.T) {
	got := render(t, "{% if flag %}yes{% else %}no{% endif %}", Context{"flag": true})
	if got != "yes" {
		t.Fatalf("got %q", got)
	}
	got = render(t, "{% if flag %}yes{% else %}no{% endif %}", Context{"flag": false})
	if got != "no" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderIfElsif(t *testing.T) {
	const src = "{% if a %}A{% elsif b %}B{% else %}C{% endif %}"
	if got := render(t, src, Context{"a": false, "b": true}); got != "B" {
		t.Fatalf("got %q", got)
	}
	if got := render(t, src, Context{"a": false, "b": false}); got != "C" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderComparisonOperators(t *testing.T) {
	if got := render(t, "{% if n == 3 %}eq{% else %}ne{% endif %}", Context{"n": 3.0}); got != "eq" {
		t.Fatalf("got %q", got)
	}
	if got := render(t, "{% if n > 3 %}gt{% else %}le{% endif %}", Context{"n": 5.0}); got != "gt" {
		t.Fatalf("got %q", got)
	}
	if got := render(t, "{% if not flag %}yes{% endif %}", Context{"flag": false}); got != "yes" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderForLoop(t *testing.T) {
	got := render(t, "{% for item in items %}[{{ item }}]{% endfor %}", Context{
		"items": []any{"a", "b", "c"},
	})
	if got != "[a][b][c]" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderForLoopOverMaps(t *testing.T) {
	got := render(t, "{% for p in people %}{{ p.name }};{% endfor %}", Context{
		"people": []map[string]any{{"name": "A"}, {"name": "B"}},
	})
	if got != "A;B;" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderForLoopOverOrderedMapReverseInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("first", "A")
	m.Set("second", "B")
	m.Set("third", "C")
	got := render(t, "{% for v in m %}[{{ v }}]{% endfor %}", Context{"m": m})
	if got != "[C][B][A]" {
		t.Fatalf("expected reverse insertion order, got %q", got)
	}
}

func TestRenderForLoopOverPlainMapIteratesValues(t *testing.T) {
	got := render(t, "{% for v in m %}{{ v }}{% endfor %}", Context{
		"m": map[string]any{"only": "X"},
	})
	if got != "X" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderNestedIfInsideFor(t *testing.T) {
	got := render(t, `{% for n in items %}{% if n == 2 %}two{% else %}other{% endif %};{% endfor %}`, Context{
		"items": []any{1.0, 2.0, 3.0},
	})
	if got != "other;two;other;" {
		t.Fatalf("got %q", got)
	}
}

func TestEnvLoadsAndIncludes(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/tpl/header.liquid", []byte("<h1>{{ title }}</h1>"), 0o644)
	afero.WriteFile(fs, "/tpl/page.liquid", []byte(`{% include "header" %}body`), 0o644)

	env, err := NewEnv(fs, "/tpl")
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}

	page, ok := env.Lookup("page")
	if !ok {
		t.Fatal("expected page template to be loaded")
	}
	out, err := page.RenderString(Context{"title": "Hi"}, env)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<h1>Hi</h1>body" {
		t.Fatalf("got %q", out)
	}
}

func TestIncludeCapsRecursionDepth(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/tpl/loop.liquid", []byte(`x{% include "loop" %}`), 0o644)

	env, err := NewEnv(fs, "/tpl")
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	tpl, ok := env.Lookup("loop")
	if !ok {
		t.Fatal("expected loop template to be loaded")
	}
	out, err := tpl.RenderString(nil, env)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "max depth") {
		t.Fatalf("expected an inline max-depth message, got %q", out)
	}
	if n := strings.Count(out[:strings.Index(out, "[include")], "x"); n != maxIncludeDepth+1 {
		t.Fatalf("expected %d levels of recursion before the cap, got %d in %q", maxIncludeDepth+1, n, out)
	}
}

func TestEnvMinifiesOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/tpl/home.liquid", []byte("<p>\n   {{ name }}   \n</p>"), 0o644)

	env, err := NewEnv(fs, "/tpl", WithMinify())
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	tpl, ok := env.Lookup("home")
	if !ok {
		t.Fatal("expected home template")
	}
	out, err := tpl.RenderString(Context{"name": "X"}, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "\n   ") {
		t.Fatalf("expected minified whitespace, got %q", out)
	}
}

func TestParseUnknownFilterErrors(t *testing.T) {
	tpl, err := Parse("t", "{{ x | bogus }}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := tpl.RenderString(Context{"x": "y"}, nil); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}

func TestParseUnterminatedOutputErrors(t *testing.T) {
	if _, err := Parse("t", "{{ x"); err == nil {
		t.Fatal("expected parse error for unterminated output tag")
	}
}
