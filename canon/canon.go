// Package canon builds canonical URIs for resources served by Quilt,
// in several projections (abstract, concrete, subject, request), with
// a stable query-parameter ordering and selective percent-encoding.
//
// This is a direct port of bbcarchdev/quilt's libquilt/canon.c: a
// Builder plays the role of QUILTCANON, and String(Options) plays the
// role of quilt_canon_str with the same projection-bitmask precedence.
package canon

import (
	"fmt"
	"sort"
	"strings"
)

// Options is a bitmask selecting a canonical-URI projection.
type Options uint

const (
	// Default emits base+path+query with no forced extension.
	Default Options = 0
	// NoAbsolute omits the base (scheme+authority).
	NoAbsolute Options = 1 << iota
	// NoPath omits the path.
	NoPath
	// Name includes the resource name segment when present.
	Name
	// NoExt omits any extension, even an explicit one.
	NoExt
	// ForceExt always includes an extension (overrides NoExt).
	ForceExt
	// NoParams omits query parameters.
	NoParams
	// Fragment appends "#fragment" when a fragment is set.
	Fragment
	// UserSupplied prefers the raw user-agent-supplied path/query.
	UserSupplied
)

const (
	// Subject is the projection used for a resource's identity: no
	// extension, no params, but with fragment.
	Subject = NoExt | NoParams | Fragment
	// Abstract is the projection for an abstract document URI: no
	// extension.
	Abstract = NoExt
	// Concrete is the projection used for Content-Location: forced
	// extension plus resource name.
	Concrete = ForceExt | Name
	// Request approximates the original request URI.
	Request = UserSupplied
)

// Param is a single query parameter name/value pair.
type Param struct {
	Name  string
	Value string
}

// Builder accumulates the components of a canonical URI and serialises
// them under a chosen Options projection.
type Builder struct {
	base         string
	path         string
	name         string
	defaultExt   string
	explicitExt  string
	fragment     string
	userPath     string
	userQuery    string
	params       []Param
}

// New returns an empty Builder.
func New() *Builder { return &Builder{} }

// Clone returns a deep copy of b.
func (b *Builder) Clone() *Builder {
	c := *b
	c.params = append([]Param(nil), b.params...)
	return &c
}

// SetBase sets the scheme+authority, stripping any trailing query,
// fragment, or slash.
func (b *Builder) SetBase(base string) {
	if idx := strings.IndexAny(base, "?#"); idx >= 0 {
		base = base[:idx]
	}
	b.base = strings.TrimRight(base, "/")
}

// SetPath sets the resource path, stripping a trailing slash.
func (b *Builder) SetPath(path string) { b.path = strings.TrimRight(path, "/") }

// SetName sets the resource "name" segment, used for index documents.
func (b *Builder) SetName(name string) { b.name = name }

// SetDefaultExt sets the MIME type's preferred/default extension.
func (b *Builder) SetDefaultExt(ext string) { b.defaultExt = ext }

// SetExplicitExt sets the user-requested extension.
func (b *Builder) SetExplicitExt(ext string) { b.explicitExt = ext }

// SetFragment sets the fragment, without a leading '#'.
func (b *Builder) SetFragment(fragment string) { b.fragment = strings.TrimPrefix(fragment, "#") }

// SetUserPath sets the raw user-agent-supplied path, for USERSUPPLIED projections.
func (b *Builder) SetUserPath(path string) { b.userPath = path }

// SetUserQuery sets the raw user-agent-supplied query string, for USERSUPPLIED projections.
func (b *Builder) SetUserQuery(query string) { b.userQuery = query }

// ResetParams discards all query parameters.
func (b *Builder) ResetParams() { b.params = nil }

// AddParam appends a query parameter; duplicates by name are allowed.
func (b *Builder) AddParam(name, value string) {
	b.params = append(b.params, Param{Name: name, Value: encodeParamValue(value)})
	b.sortParams()
}

// SetParam replaces all values for name with a single value. A nil
// value deletes every entry with that name.
func (b *Builder) SetParam(name string, value *string) {
	b.deleteParam(name)
	if value != nil {
		b.params = append(b.params, Param{Name: name, Value: encodeParamValue(*value)})
		b.sortParams()
	}
}

// SetParamMulti replaces all values for name with the given values.
func (b *Builder) SetParamMulti(name string, values []string) {
	b.deleteParam(name)
	for _, v := range values {
		b.params = append(b.params, Param{Name: name, Value: encodeParamValue(v)})
	}
	b.sortParams()
}

func (b *Builder) deleteParam(name string) {
	out := b.params[:0]
	for _, p := range b.params {
		if p.Name != name {
			out = append(out, p)
		}
	}
	b.params = out
}

func (b *Builder) sortParams() {
	sort.SliceStable(b.params, func(i, j int) bool {
		if b.params[i].Name != b.params[j].Name {
			return b.params[i].Name < b.params[j].Name
		}
		return b.params[i].Value < b.params[j].Value
	})
}

// String serialises the canonical URI under the given projection.
func (b *Builder) String(opts Options) string {
	// FORCEEXT overrides NOEXT.
	if opts&ForceExt != 0 {
		opts &^= NoExt
	}
	// If there's an explicit extension (or FORCEEXT with a default
	// extension), ensure the name is included.
	if opts&NoExt == 0 && (b.explicitExt != "" || (opts&ForceExt != 0 && b.defaultExt != "")) {
		opts |= Name
	}

	var sb strings.Builder
	if opts&NoAbsolute == 0 && b.base != "" {
		sb.WriteString(b.base)
	}
	sb.WriteByte('/')

	if opts&UserSupplied != 0 && opts&NoPath == 0 && b.userPath != "" {
		sb.WriteString(strings.TrimPrefix(b.userPath, "/"))
	} else {
		wrotePath := false
		if opts&NoPath == 0 && b.path != "" {
			sb.WriteString(strings.TrimPrefix(b.path, "/"))
			wrotePath = true
		}
		if opts&Name != 0 && b.name != "" {
			if wrotePath {
				sb.WriteByte('/')
			}
			sb.WriteString(b.name)
		}
		if opts&ForceExt != 0 {
			if b.defaultExt != "" {
				sb.WriteByte('.')
				sb.WriteString(b.defaultExt)
			} else if b.explicitExt != "" {
				sb.WriteByte('.')
				sb.WriteString(b.explicitExt)
			}
		} else if opts&NoExt == 0 && b.explicitExt != "" {
			sb.WriteByte('.')
			sb.WriteString(b.explicitExt)
		}
	}

	if opts&UserSupplied != 0 && opts&NoParams == 0 && b.userQuery != "" {
		sb.WriteByte('?')
		sb.WriteString(b.userQuery)
	} else if opts&NoParams == 0 && len(b.params) > 0 {
		sb.WriteByte('?')
		for i, p := range b.params {
			if i > 0 {
				sb.WriteByte('&')
			}
			fmt.Fprintf(&sb, "%s=%s", p.Name, p.Value)
		}
	}

	if opts&Fragment != 0 && b.fragment != "" {
		sb.WriteByte('#')
		sb.WriteString(b.fragment)
	}
	return sb.String()
}

// encodeParamValue selectively percent-encodes a value that is assumed
// to already be URL-encoded by the client: '%' is only encoded if not
// already followed by two hex digits; '&', '#', and space are always
// encoded (space as '+'); non-printable or >127 bytes are encoded.
func encodeParamValue(src string) string {
	var sb strings.Builder
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case ch == ' ':
			sb.WriteByte('+')
		case ch == '&' || ch == '#':
			fmt.Fprintf(&sb, "%%%02X", ch)
		case ch == '%':
			if i+2 < len(src) && isHex(src[i+1]) && isHex(src[i+2]) {
				sb.WriteByte(ch)
			} else {
				sb.WriteString("%25")
			}
		case ch < 0x20 || ch >= 0x7f:
			fmt.Fprintf(&sb, "%%%02X", ch)
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

func isHex(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
