package liquid

import (
	"fmt"
	"html"
	"strings"
)

// applyFilter implements the filter-escape.c/filter-case.c set: escape
// (HTML-entity encode), downcase, upcase. These are the only filters
// that produce usable output in a serialised response; the other
// filter-*.c no-ops are deliberately not ported. Unknown filters are
// rejected rather than silently passed through, since a template that
// names a nonexistent filter is a template bug worth surfacing.
func applyFilter(name string, v any, args []any) (any, error) {
	switch name {
	case "escape", "h":
		return html.EscapeString(stringify(v)), nil
	case "downcase":
		return strings.ToLower(stringify(v)), nil
	case "upcase":
		return strings.ToUpper(stringify(v)), nil
	default:
		return nil, fmt.Errorf("liquid: unknown filter %q", name)
	}
}
