package serial

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/quiltlod/quilt/model"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
)

const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// Text returns the plain-text serialiser: it groups the model's quads
// by graph context, then by subject within each context, and prints
// "According to <ctx>:" followed by one paragraph per subject.
//
// Grounded on original_source/serialisers/text.c's text_process()
// walk: contexts in first-seen order, subjects de-duplicated within a
// context via a small in-memory set, predicates printed in the order
// encountered.
func Text() registry.SerializeFunc {
	return func(_ context.Context, req *request.Request, m *model.Model) ([]byte, error) {
		var buf bytes.Buffer
		byGraph, graphOrder := groupByGraph(m.Quads())

		for _, gkey := range graphOrder {
			ctxName := gkey
			if ctxName == "" {
				ctxName = "the default graph"
			}
			fmt.Fprintf(&buf, "According to %s:\n", ctxName)

			subjects, bySubject := collateBySubject(byGraph[gkey])
			seen := map[string]bool{}
			for _, subj := range subjects {
				if seen[subj] {
					continue
				}
				seen[subj] = true
				writeSubjectParagraph(&buf, subj, bySubject[subj])
			}
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	}
}

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

func collateBySubject(quads []rdf.Quad) ([]string, map[string][]rdf.Quad) {
	bySubject := map[string][]rdf.Quad{}
	var order []string
	for _, q := range quads {
		key := q.S.String()
		if _, ok := bySubject[key]; !ok {
			order = append(order, key)
		}
		bySubject[key] = append(bySubject[key], q)
	}
	return order, bySubject
}

func writeSubjectParagraph(buf *bytes.Buffer, subject string, quads []rdf.Quad) {
	var types []string
	var others []rdf.Quad
	for _, q := range quads {
		if q.P.Value == rdfType {
			types = append(types, q.O.String())
		} else {
			others = append(others, q)
		}
	}
	sort.Strings(types)

	fmt.Fprintf(buf, "  %s is a %s:\n", subject, strings.Join(types, ", "))
	for _, q := range others {
		fmt.Fprintf(buf, "    %s: %s\n", q.P.Value, literalOrURI(q.O))
	}
}

func literalOrURI(term rdf.Term) string {
	if lit, ok := term.(rdf.Literal); ok {
		return lit.Lexical
	}
	return term.String()
}
