// Package jsonld is the JSON-LD serialiser: it groups a request's model
// by named graph, collates each graph's triples by subject, and encodes
// the result as a JSON-LD document with a configurable @context.
//
// Grounded on original_source/serialisers/jsonld.c (context
// construction, per-graph emission, subject collation, URI
// contraction/aliasing, value encoding) and serialisers/jsonld/jsonld.c
// (the subject-only recursive-inlining pass).
package jsonld

import (
	"context"
	"encoding/json"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/quiltlod/quilt/model"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
)

const maxInlineDepth = 8

type subjectAccum struct {
	id        string
	entry     *omap
	propOrder []string
	propTerms map[string][]rdf.Term
}

type encoder struct {
	ctx       *omap
	model     *model.Model
	basegraph string
}

// New returns a registry.SerializeFunc that encodes req's model as
// JSON-LD per cfg.
func New(cfg Config) registry.SerializeFunc {
	return func(_ context.Context, req *request.Request, m *model.Model) ([]byte, error) {
		enc := &encoder{ctx: buildContext(cfg), model: m, basegraph: cfg.BaseGraph}
		root := newOmap()
		root.Set("@context", enc.ctx)

		subjectRel := ""
		if req.Subject != "" {
			subjectRel = relStr(cfg.BaseGraph, req.Subject)
		}

		byGraph, graphOrder := groupByGraph(m.Quads())

		var rootTopicID string
		rootSet, graphs, idToEntry := []*omap{}, []*omap{}, map[string]*omap{}

		for _, gkey := range graphOrder {
			quads := byGraph[gkey]
			accums, order := enc.collateSubjects(quads)

			isDefault := gkey == ""
			var set []*omap
			for _, subjRel := range order {
				acc := accums[subjRel]
				entry := enc.finalizeEntry(acc)
				idToEntry[acc.id] = entry
				if isDefault && rootTopicID == "" && subjRel == subjectRel && subjectRel != "" {
					mergeIntoRoot(root, entry)
					rootTopicID = acc.id
					continue
				}
				set = append(set, entry)
			}
			if isDefault {
				rootSet = append(rootSet, set...)
				continue
			}
			if len(set) == 0 {
				continue
			}
			graphObj := newOmap()
			graphObj.Set("@id", uriKey(enc.ctx, m, cfg.BaseGraph, gkey))
			arr := make([]any, len(set))
			for i, s := range set {
				arr[i] = s
			}
			graphObj.Set("@graph", arr)
			graphs = append(graphs, graphObj)
		}

		if rootTopicID != "" {
			removed := map[string]bool{rootTopicID: true}
			enc.inlineWalk(root, idToEntry, removed, 0)
			rootSet = filterRemoved(rootSet, removed)
		}

		if len(rootSet) > 0 {
			arr := make([]any, len(rootSet))
			for i, s := range rootSet {
				arr[i] = s
			}
			root.Set("@set", arr)
		}
		if len(graphs) > 0 {
			arr := make([]any, len(graphs))
			for i, g := range graphs {
				arr[i] = g
			}
			root.Set("@graph", arr)
		}

		return json.MarshalIndent(root, "", "  ")
	}
}

// groupByGraph buckets quads by their graph's string form ("" for the
// default graph), preserving first-seen graph order.
func groupByGraph(quads []rdf.Quad) (map[string][]rdf.Quad, []string) {
	byGraph := map[string][]rdf.Quad{}
	var order []string
	for _, q := range quads {
		key := ""
		if q.G != nil {
			key = q.G.String()
		}
		if _, ok := byGraph[key]; !ok {
			order = append(order, key)
		}
		byGraph[key] = append(byGraph[key], q)
	}
	return byGraph, order
}

// collateSubjects groups quads into per-subject property accumulators,
// mirroring jsonld_serialize_stream's kv hash of subject -> entry.
func (e *encoder) collateSubjects(quads []rdf.Quad) (map[string]*subjectAccum, []string) {
	accums := map[string]*subjectAccum{}
	var order []string
	for _, q := range quads {
		subjIRI, ok := q.S.(rdf.IRI)
		if !ok {
			continue
		}
		subjRel := relStr(e.basegraph, subjIRI.Value)
		acc, seen := accums[subjRel]
		if !seen {
			acc = &subjectAccum{
				id:        uriKey(e.ctx, e.model, e.basegraph, subjIRI.Value),
				propTerms: map[string][]rdf.Term{},
			}
			accums[subjRel] = acc
			order = append(order, subjRel)
		}
		key := uriKey(e.ctx, e.model, e.basegraph, q.P.Value)
		if _, ok := acc.propTerms[key]; !ok {
			acc.propOrder = append(acc.propOrder, key)
		}
		acc.propTerms[key] = append(acc.propTerms[key], q.O)
	}
	return accums, order
}

// finalizeEntry builds the ordered "@id"/properties object for one
// subject, applying container (@set/@list/@language) and
// single-vs-array-vs-dedup-array value rules.
func (e *encoder) finalizeEntry(acc *subjectAccum) *omap {
	entry := newOmap()
	entry.Set("@id", acc.id)
	for _, key := range acc.propOrder {
		terms := acc.propTerms[key]
		container, hasContainer := predicateContainer(e.ctx, key)
		switch {
		case hasContainer && container == "@language":
			langMap := newOmap()
			for _, t := range terms {
				if lit, ok := t.(rdf.Literal); ok && lit.Lang != "" {
					langMap.Set(lit.Lang, lit.Lexical)
				}
			}
			entry.Set(key, langMap)
		case hasContainer && (container == "@set" || container == "@list"):
			arr := make([]any, len(terms))
			for i, t := range terms {
				arr[i] = e.nodeValue(t, key)
			}
			entry.Set(key, arr)
		default:
			values := make([]any, 0, len(terms))
			for _, t := range terms {
				values = append(values, e.nodeValue(t, key))
			}
			values = dedupJSON(values)
			if len(values) == 1 {
				entry.Set(key, values[0])
			} else {
				entry.Set(key, values)
			}
		}
	}
	return entry
}

// mergeIntoRoot folds a topic subject's fields directly into root,
// mirroring jsonld_serialize_stream's "entry = info->root" branch.
func mergeIntoRoot(root, entry *omap) {
	if _, ok := root.Get("@id"); !ok {
		root.Set("@id", mustGet(entry, "@id"))
	}
	for _, key := range entry.Keys() {
		if key == "@id" {
			continue
		}
		v, _ := entry.Get(key)
		root.Set(key, v)
	}
}

func mustGet(o *omap, key string) any {
	v, _ := o.Get(key)
	return v
}

// inlineWalk recursively inlines any bare-URI-string property value
// (a reference from a predicate whose context declares @type: @id)
// that names another collated subject, up to maxInlineDepth, mirroring
// spec.md's subject-only recursive inlining.
func (e *encoder) inlineWalk(node *omap, idToEntry map[string]*omap, removed map[string]bool, depth int) {
	if depth >= maxInlineDepth {
		return
	}
	for _, key := range node.Keys() {
		if key == "@id" || key == "@type" {
			continue
		}
		v, _ := node.Get(key)
		switch val := v.(type) {
		case string:
			if target, ok := idToEntry[val]; ok && !removed[val] {
				removed[val] = true
				node.Set(key, target)
				e.inlineWalk(target, idToEntry, removed, depth+1)
			}
		case []any:
			for i, item := range val {
				s, ok := item.(string)
				if !ok {
					continue
				}
				target, ok := idToEntry[s]
				if !ok || removed[s] {
					continue
				}
				removed[s] = true
				val[i] = target
				e.inlineWalk(target, idToEntry, removed, depth+1)
			}
		}
	}
}

func filterRemoved(set []*omap, removed map[string]bool) []*omap {
	out := set[:0]
	for _, s := range set {
		id, _ := s.Get("@id")
		if idStr, ok := id.(string); ok && removed[idStr] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// dedupJSON removes values that marshal to identical JSON, preserving
// first-seen order, mirroring spec.md's "de-duplicated using JSON-value
// equality" rule.
func dedupJSON(values []any) []any {
	seen := map[string]bool{}
	out := make([]any, 0, len(values))
	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			out = append(out, v)
			continue
		}
		if seen[string(b)] {
			continue
		}
		seen[string(b)] = true
		out = append(out, v)
	}
	return out
}
