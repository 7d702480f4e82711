// Package serial registers the RDF-library-backed serialisers (Turtle,
// RDF/XML, N-Triples, N-Quads) and the plain-text serialiser. RDFFormat
// hands every quad to the RDF library's writer as-is; no namespace
// prefixes are passed to the writer, so URIs are written in full.
//
// Grounded on original_source/serialisers/model.c (the thin wrapper
// that hands the in-memory model to librdf's serialiser for each
// syntax) and serialisers/common.c (shared namespace-prefix setup).
package serial

import (
	"bytes"
	"context"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/quiltlod/quilt/model"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
)

// RDFFormat is a serialiser backed directly by rdf-go's Writer for a
// fixed Format, mirroring serialisers/model.c's syntax-name table
// (quilt_rdf_model_serialize picks the librdf syntax by name).
func RDFFormat(format rdf.Format) registry.SerializeFunc {
	return func(_ context.Context, req *request.Request, m *model.Model) ([]byte, error) {
		var buf bytes.Buffer
		w, err := rdf.NewWriter(&buf, format)
		if err != nil {
			return nil, err
		}
		for _, q := range m.Quads() {
			if err := w.Write(rdf.Statement(q)); err != nil {
				return nil, err
			}
		}
		if err := w.Flush(); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}
