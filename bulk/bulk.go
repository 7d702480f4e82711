// Package bulk reimplements bbcarchdev/quilt's bulk-generation mode:
// a named collection is walked and every subject it yields is driven
// through the request pipeline as if it were a GET, with the
// serialised body written to a filesystem target instead of an HTTP
// response.
//
// Grounded on original_source/libquilt/libquilt.h's quilt_bulk_fn/
// QUILTBULK plug-in contract and quilt_request_bulk_item, generalised
// from a raw *FILE target to an afero.Fs the way infogulch-xtemplate's
// build.go targets a filesystem for its static-asset pipeline.
package bulk

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"

	"github.com/quiltlod/quilt/pipeline"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
)

// Encoding names an alternate compressed form written alongside the
// plain output file, mirroring infogulch-xtemplate's build.go
// alternate-encoding pairs for static assets.
type Encoding string

const (
	EncodingBrotli Encoding = "br"
	EncodingZstd   Encoding = "zst"
)

// Options configures one bulk run.
type Options struct {
	// BaseURI is the server's external base, stripped from each
	// subject URI to compute its request path and output path.
	BaseURI string
	// Accept is the MIME type requested for every item, e.g. "text/turtle".
	Accept string
	// EngineName is the single registered engine every subject is
	// dispatched to.
	EngineName string
	// DefaultLimit seeds each generated request's result-set limit.
	DefaultLimit int
	// Offset and Limit window the subject list gen returns, matching
	// quilt_request_bulk_item's offset/limit pair.
	Offset int
	Limit  int
	// Encodings lists alternate compressed outputs to write alongside
	// the plain file for each item.
	Encodings []Encoding
}

// Result records one subject's outcome, for the caller's summary/log
// output (quilt-cli -b prints one line per Result).
type Result struct {
	JobID   string
	Subject string
	Path    string
	Status  int
	Err     error
}

// Run walks gen's subject list, windows it by opts.Offset/opts.Limit,
// and drives each subject through p, writing the serialised body to
// fs. A per-subject failure is recorded in its Result and does not
// stop the run, matching the original's "skip and continue logging"
// bulk-generation behaviour.
func Run(ctx context.Context, p *pipeline.Pipeline, gen registry.BulkFunc, fs afero.Fs, opts Options) ([]Result, error) {
	subjects, err := gen(ctx)
	if err != nil {
		return nil, fmt.Errorf("bulk: generating subject list: %w", err)
	}

	start, end := window(len(subjects), opts.Offset, opts.Limit)
	subjects = subjects[start:end]

	selectEngine := func(*request.Request) (string, bool) { return opts.EngineName, true }

	results := make([]Result, 0, len(subjects))
	for _, subject := range subjects {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}
		results = append(results, runOne(ctx, p, fs, subject, opts, selectEngine))
	}
	return results, nil
}

func runOne(ctx context.Context, p *pipeline.Pipeline, fs afero.Fs, subject string, opts Options, selectEngine pipeline.EngineSelector) Result {
	res := Result{JobID: ksuid.New().String(), Subject: subject}

	req := request.New("GET", pathFromSubject(opts.BaseURI, subject), "")
	req.BaseURI = opts.BaseURI
	req.Subject = subject
	req.BaseGraph = subject
	if opts.DefaultLimit > 0 {
		req.DefaultLimit = opts.DefaultLimit
	}

	body, err := p.Run(ctx, req, opts.Accept, selectEngine)
	res.Status = req.Status
	if err != nil {
		res.Err = fmt.Errorf("bulk: item %s: %w", subject, err)
		return res
	}

	res.Path = outputPath(subject, req.CanonExt)
	if err := writeFile(fs, res.Path, body); err != nil {
		res.Err = fmt.Errorf("bulk: item %s: writing %s: %w", subject, res.Path, err)
		return res
	}
	for _, enc := range opts.Encodings {
		if err := writeEncoded(fs, res.Path, body, enc); err != nil {
			res.Err = fmt.Errorf("bulk: item %s: encoding %s: %w", subject, enc, err)
			return res
		}
	}
	return res
}

// window clamps [offset, offset+limit) to [0, n), mirroring
// quilt_request_bulk_item's own limit/offset clamping. limit<=0 means
// "no limit": the whole remainder after offset.
func window(n, offset, limit int) (start, end int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	if limit <= 0 {
		return offset, n
	}
	end = offset + limit
	if end > n {
		end = n
	}
	return offset, end
}

// pathFromSubject strips base from subject to get the pipeline
// request path NORMALISE_URI/BUILD_CANON expect.
func pathFromSubject(base, subject string) string {
	rel := strings.TrimPrefix(subject, base)
	return strings.TrimPrefix(rel, "/")
}

// outputPath turns a subject URI into a relative filesystem path,
// defaulting to "index"+ext for the bare base URI and appending ext
// (e.g. ".ttl") for the negotiated type, matching engines.File's own
// "<name>.ttl" convention in reverse.
func outputPath(subject, ext string) string {
	u, err := url.Parse(subject)
	name := subject
	if err == nil {
		name = strings.Trim(u.Path, "/")
	}
	if name == "" {
		name = "index"
	}
	if ext != "" {
		name = name + "." + ext
	}
	return path.Clean(name)
}

func writeFile(fs afero.Fs, name string, body []byte) error {
	if err := fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fs, name, body, 0o644)
}

func writeEncoded(fs afero.Fs, name string, body []byte, enc Encoding) error {
	encoded, ext, err := encode(body, enc)
	if err != nil {
		return err
	}
	return writeFile(fs, name+"."+ext, encoded)
}

func encode(body []byte, enc Encoding) (out []byte, ext string, err error) {
	var buf strings.Builder
	switch enc {
	case EncodingBrotli:
		w := brotli.NewWriter(&buf)
		if _, err := w.Write(body); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return []byte(buf.String()), string(EncodingBrotli), nil
	case EncodingZstd:
		w, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(body); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return []byte(buf.String()), string(EncodingZstd), nil
	default:
		return nil, "", fmt.Errorf("bulk: unknown encoding %q", enc)
	}
}
