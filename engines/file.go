package engines

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/quiltlod/quilt/quilterr"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
	"github.com/spf13/afero"
)

// File returns an engine that reads Turtle files from root: "/foo/bar"
// maps to "<root>/foo/bar.ttl", and the home resource maps to
// "<root>/index.ttl". A missing file is a 404; a parse failure is a
// 503 (the upstream data is broken, not the request).
//
// Grounded on original_source/engines/file.c, generalised from a raw
// *FILE to an afero.Fs root the way infogulch-xtemplate's providers/fs.go
// generalises static-file serving to an injected filesystem.
func File(fs afero.Fs, root string) registry.EngineFunc {
	return func(ctx context.Context, req *request.Request) error {
		name := "index"
		if !req.Home {
			name = strings.TrimLeft(req.Path, "/")
			req.Canonical.SetPath(req.Path)
		}
		req.Canonical.SetFragment("id")

		pathname := root + "/" + name + ".ttl"
		f, err := fs.Open(pathname)
		if err != nil {
			notFound := quilterr.NotFound(fmt.Errorf("engines: file: opening %s: %w", pathname, err))
			AnnotateError(req.Model, req.Subject, notFound)
			return notFound
		}
		defer f.Close()
		buf, err := io.ReadAll(f)
		if err != nil {
			internal := quilterr.Internal(fmt.Errorf("engines: file: reading %s: %w", pathname, err))
			AnnotateError(req.Model, req.Subject, internal)
			return internal
		}

		stmts, err := rdf.ReadAll(ctx, bytes.NewReader(buf), rdf.FormatTurtle)
		if err != nil {
			upstream := quilterr.New(503, quilterr.KindUpstream, fmt.Errorf("engines: file: parsing %s as turtle: %w", pathname, err))
			AnnotateError(req.Model, req.Subject, upstream)
			return upstream
		}
		for _, s := range stmts {
			req.Model.AddQuad(rdf.Quad(s))
		}
		return nil
	}
}
