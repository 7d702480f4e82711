package jsonld

import (
	"strconv"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
)

const (
	xsdBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
	xsdDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	xsdFloat   = "http://www.w3.org/2001/XMLSchema#float"
	xsdDouble  = "http://www.w3.org/2001/XMLSchema#double"
)

// xsdIntegerTypes are the xsd datatypes jsonld_node encodes as a JSON
// Number via strtoll, rather than strtod.
var xsdIntegerTypes = map[string]bool{
	"http://www.w3.org/2001/XMLSchema#integer":            true,
	"http://www.w3.org/2001/XMLSchema#long":                true,
	"http://www.w3.org/2001/XMLSchema#unsignedLong":        true,
	"http://www.w3.org/2001/XMLSchema#int":                 true,
	"http://www.w3.org/2001/XMLSchema#unsignedInt":          true,
	"http://www.w3.org/2001/XMLSchema#short":                true,
	"http://www.w3.org/2001/XMLSchema#unsignedShort":        true,
	"http://www.w3.org/2001/XMLSchema#byte":                 true,
	"http://www.w3.org/2001/XMLSchema#unsignedByte":          true,
	"http://www.w3.org/2001/XMLSchema#nonPositiveInteger":   true,
	"http://www.w3.org/2001/XMLSchema#negativeInteger":      true,
	"http://www.w3.org/2001/XMLSchema#nonNegativeInteger":   true,
	"http://www.w3.org/2001/XMLSchema#positiveInteger":      true,
}

// nodeValue converts an RDF term into the JSON value it should take as
// the value of predicateKey, mirroring jsonld_node's resource/literal
// branches.
func (e *encoder) nodeValue(term rdf.Term, predicateKey string) any {
	declaredType, hasDeclared := predicateDatatype(e.ctx, predicateKey)

	switch n := term.(type) {
	case rdf.IRI:
		if hasDeclared && declaredType == "@id" {
			return uriKey(e.ctx, e.model, e.basegraph, n.Value)
		}
		obj := newOmap()
		obj.Set("@id", uriKey(e.ctx, e.model, e.basegraph, n.Value))
		return obj

	case rdf.Literal:
		if n.Datatype.Value == "" {
			if n.Lang != "" {
				obj := newOmap()
				obj.Set("@value", n.Lexical)
				obj.Set("@language", n.Lang)
				return obj
			}
			return n.Lexical
		}
		dt := n.Datatype.Value
		switch dt {
		case xsdBoolean:
			switch n.Lexical {
			case "true", "1":
				return true
			case "false", "0":
				return false
			}
		case xsdDecimal, xsdFloat, xsdDouble:
			if f, err := strconv.ParseFloat(n.Lexical, 64); err == nil {
				return f
			}
		default:
			if xsdIntegerTypes[dt] {
				if iv, err := strconv.ParseInt(n.Lexical, 10, 64); err == nil {
					return iv
				}
			}
		}
		if hasDeclared && declaredType == dt {
			return n.Lexical
		}
		relDT := relStr(e.basegraph, dt)
		if hasDeclared && declaredType == relDT {
			return n.Lexical
		}
		contracted := uriKey(e.ctx, e.model, e.basegraph, dt)
		if hasDeclared && declaredType == contracted {
			return n.Lexical
		}
		obj := newOmap()
		obj.Set("@value", n.Lexical)
		obj.Set("@type", contracted)
		return obj

	case rdf.BlankNode:
		obj := newOmap()
		obj.Set("@id", "_:"+n.ID)
		return obj

	default:
		return strings.TrimSpace(term.String())
	}
}
