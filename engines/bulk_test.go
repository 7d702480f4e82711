package engines

import (
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/quiltlod/quilt/sparqlc"
)

func TestResourceGraphBulkListsDistinctGraphs(t *testing.T) {
	srv := sparqlJSONServer(t, `{"head":{"vars":["g"]},"results":{"bindings":[
		{"g":{"type":"uri","value":"http://ex/g1"}},
		{"g":{"type":"uri","value":"http://ex/g2"}}
	]}}`)
	defer srv.Close()

	gen := ResourceGraphBulk(sparqlc.New(srv.URL))
	subjects, err := gen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subjects) != 2 || subjects[0] != "http://ex/g1" || subjects[1] != "http://ex/g2" {
		t.Fatalf("unexpected subjects: %v", subjects)
	}
}

func TestCorefBulkUnionsIndicesAndDedupes(t *testing.T) {
	srv := sparqlJSONServer(t, `{"head":{"vars":["s"]},"results":{"bindings":[
		{"s":{"type":"uri","value":"http://ex/person/1"}}
	]}}`)
	defer srv.Close()

	indices := []IndexConfig{
		{Path: "people", Title: "People", ClassURI: "http://xmlns.com/foaf/0.1/Person"},
		{Path: "agents", Title: "Agents", ClassURI: "http://xmlns.com/foaf/0.1/Agent"},
	}
	gen := CorefBulk(sparqlc.New(srv.URL), indices)
	subjects, err := gen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subjects) != 1 || subjects[0] != "http://ex/person/1" {
		t.Fatalf("expected a single deduped subject, got %v", subjects)
	}
}

func TestFileBulkWalksTreeAndMapsSubjects(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/data/index.ttl", []byte("# home"), 0o644)
	afero.WriteFile(fs, "/data/things/widget.ttl", []byte("# widget"), 0o644)
	afero.WriteFile(fs, "/data/things/gadget.ttl", []byte("# gadget"), 0o644)
	afero.WriteFile(fs, "/data/README.md", []byte("not turtle"), 0o644)

	gen := FileBulk(fs, "/data", "http://ex/")
	subjects, err := gen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]bool{
		"http://ex/":              true,
		"http://ex/things/widget": true,
		"http://ex/things/gadget": true,
	}
	if len(subjects) != len(want) {
		t.Fatalf("expected %d subjects, got %v", len(want), subjects)
	}
	for _, s := range subjects {
		if !want[s] {
			t.Fatalf("unexpected subject %q", s)
		}
	}
}
