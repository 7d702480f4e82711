package engines

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/afero"

	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/sparqlc"
)

// original_source/engines/*.c has no bulk-generation code of its own:
// quilt_request_bulk dispatches to a single plugin-supplied callback,
// but none of the four built-in engines ever registered one. The
// generators below are therefore original, grounded not on a direct
// port but on the query/access pattern each engine already uses to
// answer a single request, widened to "all of them".

// ResourceGraphBulk enumerates every named graph in the store, so that
// bulk generation can walk the same graphs ResourceGraph serves one
// at a time.
func ResourceGraphBulk(client *sparqlc.Client) registry.BulkFunc {
	return func(ctx context.Context) ([]string, error) {
		return client.QueryColumn(ctx, "SELECT DISTINCT ?g WHERE { GRAPH ?g { ?s ?p ?o } }", "g")
	}
}

// CorefBulk enumerates every subject classified under any configured
// index, the union of what corefIndex would return for each entry in
// turn, deduplicated.
func CorefBulk(client *sparqlc.Client, indices []IndexConfig) registry.BulkFunc {
	if indices == nil {
		indices = DefaultIndices
	}
	return func(ctx context.Context) ([]string, error) {
		seen := make(map[string]bool)
		var subjects []string
		for _, idx := range indices {
			filter := ""
			if idx.ClassURI != "" {
				filter = fmt.Sprintf("FILTER ( ?class = <%s> )", idx.ClassURI)
			}
			query := fmt.Sprintf("SELECT DISTINCT ?s WHERE { GRAPH ?g { ?s <%s> ?class . %s } }", rdfType, filter)
			found, err := client.QuerySubjects(ctx, query)
			if err != nil {
				return nil, fmt.Errorf("engines: coref bulk: index %q: %w", idx.Path, err)
			}
			for _, s := range found {
				if seen[s] {
					continue
				}
				seen[s] = true
				subjects = append(subjects, s)
			}
		}
		return subjects, nil
	}
}

// FileBulk walks root for *.ttl files and maps each back to the
// subject URI File would have served it under: the inverse of File's
// "<root>/foo/bar.ttl" naming, with "index.ttl" mapping to baseURI
// itself.
func FileBulk(filesystem afero.Fs, root, baseURI string) registry.BulkFunc {
	return func(ctx context.Context) ([]string, error) {
		var subjects []string
		err := afero.Walk(filesystem, root, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			if !strings.HasSuffix(path, ".ttl") {
				return nil
			}
			rel := strings.TrimPrefix(strings.TrimPrefix(path, root), "/")
			rel = strings.TrimSuffix(rel, ".ttl")
			if rel == "index" {
				subjects = append(subjects, baseURI)
				return nil
			}
			subjects = append(subjects, strings.TrimSuffix(baseURI, "/")+"/"+rel)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("engines: file bulk: walking %s: %w", root, err)
		}
		return subjects, nil
	}
}

// S3Bulk lists every object in the configured bucket and maps its key
// back to the subject URI S3 would have served it under, the inverse
// of S3's "/"+req.Path-as-key mapping.
func S3Bulk(client *minio.Client, cfg S3Config, baseURI string) registry.BulkFunc {
	return func(ctx context.Context) ([]string, error) {
		var subjects []string
		for obj := range client.ListObjects(ctx, cfg.Bucket, minio.ListObjectsOptions{Recursive: true}) {
			if obj.Err != nil {
				return nil, fmt.Errorf("engines: s3 bulk: listing %s: %w", cfg.Bucket, obj.Err)
			}
			subjects = append(subjects, strings.TrimSuffix(baseURI, "/")+"/"+obj.Key)
		}
		return subjects, nil
	}
}
