package engines

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/minio/minio-go/v7"
	"github.com/quiltlod/quilt/quilterr"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
)

// S3Config configures the S3-backed engine.
type S3Config struct {
	// Bucket is the S3 bucket name to read objects from.
	Bucket string
}

// S3 returns an engine that fetches an RDF document from an S3-style
// object store: the request path (minus a leading slash) is the
// object key, the upstream Content-Type selects the parser, and a
// non-200 upstream status propagates as the response status.
//
// Grounded on the S3BUCKET code paths in original_source/engines/coref.c
// (coref_item_s3/coref_s3_write), reimplemented against
// github.com/minio/minio-go/v7 — the real S3-compatible client the
// antflydb-antfly-go pack uses (libaf/s3/minio.go) — rather than the
// original's hand-rolled libcurl wrapper, since minio-go is a real,
// already-grounded dependency available in the examples pack.
func S3(client *minio.Client, cfg S3Config) registry.EngineFunc {
	return func(ctx context.Context, req *request.Request) error {
		path := "/" + strings.TrimLeft(req.Path, "/")
		if strings.ContainsAny(path, ".%") {
			err := quilterr.NotFound(fmt.Errorf("engines: s3: rejecting path %q", path))
			AnnotateError(req.Model, req.Subject, err)
			return err
		}
		key := strings.TrimPrefix(path, "/")

		obj, err := client.GetObject(ctx, cfg.Bucket, key, minio.GetObjectOptions{})
		if err != nil {
			upstream := quilterr.Upstream(502, fmt.Errorf("engines: s3: GetObject %s/%s: %w", cfg.Bucket, key, err))
			AnnotateError(req.Model, req.Subject, upstream)
			return upstream
		}
		defer obj.Close()

		info, err := obj.Stat()
		if err != nil {
			wrapped := fmt.Errorf("engines: s3: stat %s/%s: %w", cfg.Bucket, key, err)
			var failed *quilterr.Status
			switch code := minio.ToErrorResponse(err).StatusCode; code {
			case 404:
				failed = quilterr.NotFound(wrapped)
			case 0:
				failed = quilterr.Upstream(502, wrapped)
			default:
				failed = quilterr.Upstream(code, wrapped)
			}
			AnnotateError(req.Model, req.Subject, failed)
			return failed
		}
		if info.ContentType == "" {
			internal := quilterr.Internal(fmt.Errorf("engines: s3: %s/%s: upstream did not send a Content-Type", cfg.Bucket, key))
			AnnotateError(req.Model, req.Subject, internal)
			return internal
		}

		buf, err := io.ReadAll(obj)
		if err != nil {
			upstream := quilterr.Upstream(502, fmt.Errorf("engines: s3: reading %s/%s: %w", cfg.Bucket, key, err))
			AnnotateError(req.Model, req.Subject, upstream)
			return upstream
		}

		format, ok := rdf.ParseFormat(info.ContentType)
		if !ok {
			internal := quilterr.Internal(fmt.Errorf("engines: s3: unrecognised content-type %q for %s/%s", info.ContentType, cfg.Bucket, key))
			AnnotateError(req.Model, req.Subject, internal)
			return internal
		}
		stmts, err := rdf.ReadAll(ctx, bytes.NewReader(buf), format)
		if err != nil {
			internal := quilterr.Internal(fmt.Errorf("engines: s3: parsing %s/%s as %s: %w", cfg.Bucket, key, info.ContentType, err))
			AnnotateError(req.Model, req.Subject, internal)
			return internal
		}
		for _, s := range stmts {
			req.Model.AddQuad(rdf.Quad(s))
		}
		return nil
	}
}
