package bulk

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/quiltlod/quilt/model"
	"github.com/quiltlod/quilt/pipeline"
	"github.com/quiltlod/quilt/registry"
	"github.com/quiltlod/quilt/request"
)

func newTestPipeline() *pipeline.Pipeline {
	reg := registry.New()
	reg.RegisterSerializer(registry.Type{MIMEType: "text/turtle", Extensions: []string{"ttl"}, Qs: 1.0}, func(ctx context.Context, req *request.Request, m *model.Model) ([]byte, error) {
		return []byte("# " + req.Subject + "\n"), nil
	})
	reg.RegisterEngine("echo", func(ctx context.Context, req *request.Request) error {
		req.Model.AddURI(req.Subject, "http://ex/p", "http://ex/o")
		return nil
	})
	reg.RegisterEngine("broken", func(ctx context.Context, req *request.Request) error {
		return errors.New("boom")
	})
	return pipeline.New(reg)
}

func TestRunWritesOneFilePerSubject(t *testing.T) {
	p := newTestPipeline()
	fs := afero.NewMemMapFs()
	gen := func(ctx context.Context) ([]string, error) {
		return []string{"https://example.org/things/a", "https://example.org/things/b"}, nil
	}

	results, err := Run(context.Background(), p, gen, fs, Options{
		BaseURI:      "https://example.org",
		Accept:       "text/turtle",
		EngineName:   "echo",
		DefaultLimit: 20,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected per-item error: %v", r.Err)
		}
		if r.Status != 200 {
			t.Fatalf("expected status 200, got %d", r.Status)
		}
		if ok, _ := afero.Exists(fs, r.Path); !ok {
			t.Fatalf("expected output file %s to exist", r.Path)
		}
	}
	if results[0].Path != "things/a.ttl" {
		t.Fatalf("unexpected path: %s", results[0].Path)
	}
}

func TestRunWindowsSubjectList(t *testing.T) {
	p := newTestPipeline()
	fs := afero.NewMemMapFs()
	gen := func(ctx context.Context) ([]string, error) {
		return []string{"https://ex/a", "https://ex/b", "https://ex/c", "https://ex/d"}, nil
	}

	results, err := Run(context.Background(), p, gen, fs, Options{
		BaseURI:    "https://example.org",
		Accept:     "text/turtle",
		EngineName: "echo",
		Offset:     1,
		Limit:      2,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 windowed results, got %d", len(results))
	}
	if results[0].Subject != "https://ex/b" || results[1].Subject != "https://ex/c" {
		t.Fatalf("unexpected window: %+v", results)
	}
}

func TestRunRecordsPerItemErrorsAndContinues(t *testing.T) {
	p := newTestPipeline()
	fs := afero.NewMemMapFs()
	gen := func(ctx context.Context) ([]string, error) {
		return []string{"https://example.org/a", "https://example.org/b"}, nil
	}

	results, err := Run(context.Background(), p, gen, fs, Options{
		BaseURI:    "https://example.org",
		Accept:     "text/turtle",
		EngineName: "broken",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, r := range results {
		if r.Err == nil {
			t.Fatal("expected per-item error from broken engine")
		}
		if r.Status != 500 {
			t.Fatalf("expected status 500, got %d", r.Status)
		}
	}
}

func TestRunWritesAlternateEncodings(t *testing.T) {
	p := newTestPipeline()
	fs := afero.NewMemMapFs()
	gen := func(ctx context.Context) ([]string, error) {
		return []string{"https://example.org/a"}, nil
	}

	results, err := Run(context.Background(), p, gen, fs, Options{
		BaseURI:    "https://example.org",
		Accept:     "text/turtle",
		EngineName: "echo",
		Encodings:  []Encoding{EncodingBrotli, EncodingZstd},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	for _, ext := range []string{".ttl.br", ".ttl.zst"} {
		name := "a" + ext
		if ok, _ := afero.Exists(fs, name); !ok {
			t.Fatalf("expected alternate-encoding file %s to exist", name)
		}
	}
}

func TestWindowClampsOutOfRange(t *testing.T) {
	if start, end := window(5, -1, 0); start != 0 || end != 5 {
		t.Fatalf("expected full range, got [%d,%d)", start, end)
	}
	if start, end := window(5, 10, 3); start != 5 || end != 5 {
		t.Fatalf("expected empty range past n, got [%d,%d)", start, end)
	}
	if start, end := window(5, 1, 100); start != 1 || end != 5 {
		t.Fatalf("expected limit clamped to n, got [%d,%d)", start, end)
	}
}
