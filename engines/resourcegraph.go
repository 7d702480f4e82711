// Package engines implements Quilt's four built-in request engines:
// resourcegraph (a single named-graph dump), coref (Spindle-style
// coreference index/item browsing), file (static Turtle-on-disk), and
// s3 (HTTP GET against an object-storage bucket).
package engines

import (
	"context"
	"fmt"

	"github.com/quiltlod/quilt/quilterr"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
	"github.com/quiltlod/quilt/sparqlc"
)

// ResourceGraph returns an engine translating the request subject into
// a single named-graph dump: `SELECT * WHERE { GRAPH <subject> { ?s ?p
// ?o } }`, 404 if the resulting model is empty.
//
// Grounded on original_source/engines/resourcegraph.c.
func ResourceGraph(client *sparqlc.Client) registry.EngineFunc {
	return func(ctx context.Context, req *request.Request) error {
		query := fmt.Sprintf("SELECT * WHERE { GRAPH <%s> { ?s ?p ?o } }", req.Subject)
		if err := client.QueryRDF(ctx, query, req.Model); err != nil {
			return err
		}
		if req.Model.IsEmpty() {
			err := quilterr.NotFound(fmt.Errorf("engines: no graph <%s>", req.Subject))
			AnnotateError(req.Model, req.Subject, err)
			return err
		}
		return nil
	}
}
