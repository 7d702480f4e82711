// Package model provides Quilt's in-memory RDF graph facade: a thin,
// mutable wrapper over github.com/geoknoesis/rdf-go's quad model with
// the convenience constructors and lookups that bbcarchdev/quilt's
// libquilt/librdf.c exposed to engines and serialisers (quilt_st_create,
// quilt_model_isempty, quilt_uri_contract, quilt_model_find_double, ...).
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
)

// XSD datatype IRIs used by the literal constructors below.
const (
	XSDString  = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDDouble  = "http://www.w3.org/2001/XMLSchema#double"
	XSDBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

// namespace is one entry in the prefix-contraction table.
type namespace struct {
	prefix string
	uri    string
}

// defaultNamespaces mirrors the fixed table quilt_uri_contract() walks
// in librdf.c, extended with the common LOD vocabularies spec.md's
// serialisers reference.
var defaultNamespaces = []namespace{
	{"rdf", "http://www.w3.org/1999/02/22-rdf-syntax-ns#"},
	{"rdfs", "http://www.w3.org/2000/01/rdf-schema#"},
	{"owl", "http://www.w3.org/2002/07/owl#"},
	{"xsd", "http://www.w3.org/2001/XMLSchema#"},
	{"dcterms", "http://purl.org/dc/terms/"},
	{"foaf", "http://xmlns.com/foaf/0.1/"},
	{"skos", "http://www.w3.org/2004/02/skos/core#"},
	{"void", "http://rdfs.org/ns/void#"},
	{"geo", "http://www.w3.org/2003/01/geo/wgs84_pos#"},
}

// Model is an in-memory, mutable quad store; the graph built by each
// engine invocation and consumed by each serialiser.
type Model struct {
	quads      []rdf.Quad
	namespaces []namespace
}

// New returns an empty Model seeded with the default namespace table.
func New() *Model {
	return &Model{namespaces: append([]namespace(nil), defaultNamespaces...)}
}

// AddNamespace registers (or replaces) a prefix mapping used by
// ContractURI and by serialisers that print qname-style output.
func (m *Model) AddNamespace(prefix, uri string) {
	for i, ns := range m.namespaces {
		if ns.prefix == prefix {
			m.namespaces[i].uri = uri
			return
		}
	}
	m.namespaces = append(m.namespaces, namespace{prefix: prefix, uri: uri})
}

// Namespaces returns the registered prefix table.
func (m *Model) Namespaces() map[string]string {
	out := make(map[string]string, len(m.namespaces))
	for _, ns := range m.namespaces {
		out[ns.prefix] = ns.uri
	}
	return out
}

// IRI constructs an rdf.IRI term.
func IRI(value string) rdf.IRI { return rdf.IRI{Value: value} }

// Literal constructs a plain (untyped/xsd:string) literal.
func Literal(value string) rdf.Literal { return rdf.Literal{Lexical: value} }

// LangLiteral constructs a language-tagged literal.
func LangLiteral(value, lang string) rdf.Literal {
	return rdf.Literal{Lexical: value, Lang: lang}
}

// TypedLiteral constructs a datatyped literal.
func TypedLiteral(value, datatype string) rdf.Literal {
	return rdf.Literal{Lexical: value, Datatype: rdf.IRI{Value: datatype}}
}

// IntLiteral constructs an xsd:integer literal, mirroring
// quilt_node_create_int.
func IntLiteral(value int) rdf.Literal {
	return TypedLiteral(strconv.Itoa(value), XSDInteger)
}

// BlankNode constructs an rdf.BlankNode term; an empty id is replaced
// by "b" followed by the model's current quad count, so two calls with
// no quad added in between yield the same identifier.
func (m *Model) BlankNode(id string) rdf.BlankNode {
	if id == "" {
		id = fmt.Sprintf("b%d", len(m.quads))
	}
	return rdf.BlankNode{ID: id}
}

// Add appends a triple to the default graph.
func (m *Model) Add(s rdf.Term, p rdf.IRI, o rdf.Term) {
	m.quads = append(m.quads, rdf.Triple{S: s, P: p, O: o}.ToQuad())
}

// AddInGraph appends a quad scoped to a named graph.
func (m *Model) AddInGraph(s rdf.Term, p rdf.IRI, o rdf.Term, graph rdf.Term) {
	m.quads = append(m.quads, rdf.Triple{S: s, P: p, O: o}.ToQuadInGraph(graph))
}

// AddURI is the convenience form of Add for (subject, predicate, object-IRI)
// triples, mirroring quilt_st_create_uri.
func (m *Model) AddURI(subject, predicate, object string) {
	m.Add(IRI(subject), IRI(predicate), IRI(object))
}

// AddLiteral is the convenience form of Add for a literal object,
// mirroring quilt_st_create_literal.
func (m *Model) AddLiteral(subject, predicate, value, lang string) {
	if lang != "" {
		m.Add(IRI(subject), IRI(predicate), LangLiteral(value, lang))
	} else {
		m.Add(IRI(subject), IRI(predicate), Literal(value))
	}
}

// AddQuad appends an already-constructed quad verbatim.
func (m *Model) AddQuad(q rdf.Quad) { m.quads = append(m.quads, q) }

// Quads returns all quads currently in the model, in insertion order.
func (m *Model) Quads() []rdf.Quad { return m.quads }

// Len returns the number of quads in the model.
func (m *Model) Len() int { return len(m.quads) }

// IsEmpty reports whether the model has no statements, mirroring
// quilt_model_isempty.
func (m *Model) IsEmpty() bool { return len(m.quads) == 0 }

// Find returns every quad matching the given components; a nil
// term/predicate in a slot matches anything in that slot. This is the
// Go-level equivalent of librdf_model_find_statements as used by
// quilt_model_find_double and friends.
func (m *Model) Find(subject rdf.Term, predicate *rdf.IRI, object rdf.Term) []rdf.Quad {
	var out []rdf.Quad
	for _, q := range m.quads {
		if subject != nil && q.S.String() != subject.String() {
			continue
		}
		if predicate != nil && q.P.Value != predicate.Value {
			continue
		}
		if object != nil && q.O.String() != object.String() {
			continue
		}
		out = append(out, q)
	}
	return out
}

// FindDouble looks for a single (subject, predicate, literal) statement
// and parses its object as an xsd:decimal/xsd:double/xsd:integer value,
// mirroring quilt_model_find_double. An untyped literal is also parsed.
// ok is false if no matching numeric or untyped literal parses as a number.
func (m *Model) FindDouble(subject, predicate string) (value float64, ok bool) {
	pred := IRI(predicate)
	for _, q := range m.Find(IRI(subject), &pred, nil) {
		lit, isLit := q.O.(rdf.Literal)
		if !isLit {
			continue
		}
		switch lit.Datatype.Value {
		case XSDDecimal, XSDDouble, XSDInteger, "":
			if v, err := strconv.ParseFloat(lit.Lexical, 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// FindString looks for the first (subject, predicate, literal) object
// and returns its lexical form.
func (m *Model) FindString(subject, predicate string) (value string, ok bool) {
	pred := IRI(predicate)
	for _, q := range m.Find(IRI(subject), &pred, nil) {
		if lit, isLit := q.O.(rdf.Literal); isLit {
			return lit.Lexical, true
		}
	}
	return "", false
}

// ContractURI attempts to rewrite a URI into prefix:suffix form using
// the registered namespace table, mirroring quilt_uri_contract; the
// longest matching namespace URI wins. Returns the original URI
// unchanged if no namespace matches.
func (m *Model) ContractURI(uri string) string {
	var best namespace
	for _, ns := range m.namespaces {
		if len(ns.uri) > len(best.uri) && strings.HasPrefix(uri, ns.uri) {
			best = ns
		}
	}
	if best.prefix == "" {
		return uri
	}
	return best.prefix + ":" + uri[len(best.uri):]
}

// Subjects returns the distinct subjects present in the model, in
// first-seen order, as their string form.
func (m *Model) Subjects() []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range m.quads {
		key := q.S.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// SortedByKey returns a copy of the model's quads sorted by
// (subject, predicate, object, graph) string form, for deterministic
// serialisation order.
func (m *Model) SortedByKey() []rdf.Quad {
	out := append([]rdf.Quad(nil), m.quads...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.S.String() != b.S.String() {
			return a.S.String() < b.S.String()
		}
		if a.P.Value != b.P.Value {
			return a.P.Value < b.P.Value
		}
		if a.O.String() != b.O.String() {
			return a.O.String() < b.O.String()
		}
		var ga, gb string
		if a.G != nil {
			ga = a.G.String()
		}
		if b.G != nil {
			gb = b.G.String()
		}
		return ga < gb
	})
	return out
}

// Merge appends every quad from other into m.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	m.quads = append(m.quads, other.quads...)
}
