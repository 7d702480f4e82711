package jsonld

import (
	"sort"

	"github.com/quiltlod/quilt/model"
)

const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// Config seeds the JSON-LD context, mirroring the [namespaces],
// [jsonld:aliases], [jsonld:datatypes], and [jsonld:containers]
// configuration sections jsonld_ns_cb/jsonld_aliases_cb/
// jsonld_datatypes_cb read.
type Config struct {
	// Namespaces maps a prefix to its URI, copied into @context verbatim.
	Namespaces map[string]string
	// Aliases maps a short name to the predicate URI it stands for.
	Aliases map[string]string
	// Datatypes maps an alias (or predicate URI) to the datatype written
	// as that entry's "@type".
	Datatypes map[string]string
	// Containers maps an alias (or predicate URI) to the container kind
	// ("@set", "@list", or "@language") written as that entry's "@container".
	Containers map[string]string
	// BaseGraph, if set, is emitted as @context's "@base" and is
	// stripped from every URI emitted elsewhere in the document.
	BaseGraph string
}

// buildContext assembles the @context object from cfg, in the same
// namespaces-then-aliases-then-datatypes-then-containers order
// quilt_config_get_all iterates ini sections.
func buildContext(cfg Config) *omap {
	ctx := newOmap()
	if cfg.BaseGraph != "" {
		ctx.Set("@base", cfg.BaseGraph)
	}
	for _, k := range sortedKeys(cfg.Namespaces) {
		ctx.Set(k, cfg.Namespaces[k])
	}
	for _, k := range sortedKeys(cfg.Aliases) {
		contextSet(ctx, k, cfg.Aliases[k], "")
	}
	for _, k := range sortedKeys(cfg.Datatypes) {
		contextSet(ctx, k, "", cfg.Datatypes[k])
	}
	for _, k := range sortedKeys(cfg.Containers) {
		contextSetContainer(ctx, k, cfg.Containers[k])
	}
	return ctx
}

// contextSet adds or updates a declarator entry, mirroring
// jsonld_context_set: never replaces a sibling field, so a name can be
// aliased and typed in separate config sections.
func contextSet(ctx *omap, name, uri, datatype string) {
	obj := declaratorFor(ctx, name)
	if uri != "" {
		obj.Set("@id", uri)
	}
	if datatype != "" {
		obj.Set("@type", datatype)
	}
	ctx.Set(name, obj)
}

func contextSetContainer(ctx *omap, name, container string) {
	obj := declaratorFor(ctx, name)
	obj.Set("@container", container)
	ctx.Set(name, obj)
}

func declaratorFor(ctx *omap, name string) *omap {
	if existing, ok := ctx.Get(name); ok {
		if o, ok := existing.(*omap); ok {
			return o
		}
	}
	return newOmap()
}

// predicateLocate returns the context key declaring predicate (matching
// either the key itself or its "@id"), mirroring jsonld_predicate_locate.
func predicateLocate(ctx *omap, predicate string) (key string, declarator *omap, ok bool) {
	for _, k := range ctx.Keys() {
		if len(k) > 0 && k[0] == '@' {
			continue
		}
		v, _ := ctx.Get(k)
		obj, isObj := v.(*omap)
		if !isObj {
			continue
		}
		if k == predicate {
			return k, obj, true
		}
		if id, hasID := obj.Get("@id"); hasID {
			if s, isStr := id.(string); isStr && s == predicate {
				return k, obj, true
			}
		}
	}
	return "", nil, false
}

// predicateDatatype returns the declared "@type" for predicate, if any;
// @id/@type predicates are always "@id", mirroring jsonld_predicate_datatype.
func predicateDatatype(ctx *omap, predicate string) (string, bool) {
	if predicate == "@id" || predicate == "@type" {
		return "@id", true
	}
	_, obj, ok := predicateLocate(ctx, predicate)
	if !ok {
		return "", false
	}
	if t, ok := obj.Get("@type"); ok {
		if s, isStr := t.(string); isStr {
			return s, true
		}
	}
	return "", false
}

// predicateContainer returns the declared "@container" for predicate, if any.
func predicateContainer(ctx *omap, predicate string) (string, bool) {
	_, obj, ok := predicateLocate(ctx, predicate)
	if !ok {
		return "", false
	}
	if c, ok := obj.Get("@container"); ok {
		if s, isStr := c.(string); isStr {
			return s, true
		}
	}
	return "", false
}

// relStr strips basegraph's prefix from uri, leaving a host-relative
// form, mirroring jsonld_relstr.
func relStr(basegraph, uri string) string {
	if basegraph != "" && len(uri) >= len(basegraph) && uri[:len(basegraph)] == basegraph {
		return uri[len(basegraph)-1:]
	}
	return uri
}

// uriKey contracts and aliases uri for use as an @id value or property
// key, mirroring jsonld_uri_contractstr: rdf:type always becomes
// "@type"; otherwise the URI is made host-relative, contracted against
// the namespace table, then matched against any context alias (an
// alias may name either the contracted or the uncontracted form).
func uriKey(ctx *omap, m *model.Model, basegraph, uri string) string {
	if uri == rdfType {
		return "@type"
	}
	rel := relStr(basegraph, uri)
	contracted := m.ContractURI(rel)
	if alias, _, ok := predicateLocate(ctx, contracted); ok {
		return alias
	}
	if alias, _, ok := predicateLocate(ctx, rel); ok {
		return alias
	}
	return contracted
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
