package engines

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quiltlod/quilt/canon"
	"github.com/quiltlod/quilt/request"
	"github.com/quiltlod/quilt/sparqlc"
	"github.com/spf13/afero"
)

func newTestCanon() *canon.Builder { return canon.New() }

func sparqlJSONServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.Write([]byte(body))
	}))
}

func TestResourceGraphNotFoundOnEmptyModel(t *testing.T) {
	srv := sparqlJSONServer(t, `{"head":{"vars":[]},"results":{"bindings":[]}}`)
	defer srv.Close()

	eng := ResourceGraph(sparqlc.New(srv.URL))
	req := request.New("GET", "things/widget", "")
	req.Subject = "http://ex/things/widget"

	err := eng(context.Background(), req)
	if err == nil {
		t.Fatal("expected not-found error for empty graph")
	}
}

func TestResourceGraphPopulatesModel(t *testing.T) {
	srv := sparqlJSONServer(t, `{"head":{"vars":["s","p","o"]},"results":{"bindings":[
		{"s":{"type":"uri","value":"http://ex/s"},"p":{"type":"uri","value":"http://ex/p"},"o":{"type":"uri","value":"http://ex/o"}}
	]}}`)
	defer srv.Close()

	eng := ResourceGraph(sparqlc.New(srv.URL))
	req := request.New("GET", "things/widget", "")
	req.Subject = "http://ex/things/widget"

	if err := eng(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Model.Len() != 1 {
		t.Fatalf("expected 1 quad, got %d", req.Model.Len())
	}
}

func TestCorefHomeListsIndices(t *testing.T) {
	eng := Coref(sparqlc.New("http://unused"), DefaultIndices)
	req := request.New("GET", "", "")
	req.Home = true

	if err := eng(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Model.IsEmpty() {
		t.Fatal("expected home dispatch to populate index listing")
	}
}

func TestCorefIndexByPath(t *testing.T) {
	srv := sparqlJSONServer(t, `{"head":{"vars":["s"]},"results":{"bindings":[
		{"s":{"type":"uri","value":"http://ex/person/1"}}
	]}}`)
	defer srv.Close()

	eng := Coref(sparqlc.New(srv.URL), DefaultIndices)
	req := request.New("GET", "people", "")
	req.BaseURI = "http://ex"

	if err := eng(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.Index {
		t.Fatal("expected index mode to be set for /people")
	}
	if req.IndexTitle != "People" {
		t.Fatalf("expected title People, got %q", req.IndexTitle)
	}
}

func TestCorefItemNotFoundOnEmpty(t *testing.T) {
	srv := sparqlJSONServer(t, `{"head":{"vars":[]},"results":{"bindings":[]}}`)
	defer srv.Close()

	eng := Coref(sparqlc.New(srv.URL), DefaultIndices)
	req := request.New("GET", "person/1", "")
	req.Subject = "http://ex/person/1"

	err := eng(context.Background(), req)
	if err == nil {
		t.Fatal("expected not-found for empty item graph")
	}
}

func TestFileEngineServesIndexAndItem(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/data/index.ttl", []byte(`
		@prefix ex: <http://ex/> .
		ex:home ex:label "Home" .
	`), 0o644)
	afero.WriteFile(fs, "/data/things/widget.ttl", []byte(`
		@prefix ex: <http://ex/> .
		ex:widget ex:label "Widget" .
	`), 0o644)

	eng := File(fs, "/data")

	homeReq := request.New("GET", "", "")
	homeReq.Home = true
	homeReq.BaseURI = "http://ex/"
	homeReq.Canonical = newTestCanon()
	if err := eng(context.Background(), homeReq); err != nil {
		t.Fatalf("unexpected error for home: %v", err)
	}
	if homeReq.Model.IsEmpty() {
		t.Fatal("expected home model to be populated")
	}

	itemReq := request.New("GET", "things/widget", "")
	itemReq.BaseURI = "http://ex/"
	itemReq.Canonical = newTestCanon()
	if err := eng(context.Background(), itemReq); err != nil {
		t.Fatalf("unexpected error for item: %v", err)
	}
	if itemReq.Model.IsEmpty() {
		t.Fatal("expected item model to be populated")
	}
}

func TestFileEngineMissingFileIs404(t *testing.T) {
	fs := afero.NewMemMapFs()
	eng := File(fs, "/data")
	req := request.New("GET", "missing", "")
	req.Canonical = newTestCanon()

	if err := eng(context.Background(), req); err == nil {
		t.Fatal("expected not-found error for missing file")
	}
}
