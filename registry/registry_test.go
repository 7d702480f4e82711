package registry

import (
	"context"
	"testing"

	"github.com/quiltlod/quilt/model"
	"github.com/quiltlod/quilt/request"
)

func noopSerialize(ctx context.Context, req *request.Request, m *model.Model) ([]byte, error) {
	return nil, nil
}

func TestRegisterSerializerThenMatchMIMEAndExt(t *testing.T) {
	r := New()
	r.RegisterSerializer(Type{MIMEType: "text/turtle", Extensions: []string{"ttl"}, Qs: 1.0, Visible: true}, noopSerialize)

	typ, fn, ok := r.MatchMIME("TEXT/TURTLE")
	if !ok || fn == nil {
		t.Fatal("expected case-insensitive MIME match")
	}
	if typ.MIMEType != "text/turtle" {
		t.Fatalf("unexpected type: %+v", typ)
	}

	_, _, ok = r.MatchExt("TTL")
	if !ok {
		t.Fatal("expected case-insensitive extension match")
	}
}

func TestRegisterSerializerReplacesExisting(t *testing.T) {
	r := New()
	r.RegisterSerializer(Type{MIMEType: "text/turtle", Extensions: []string{"ttl"}, Qs: 0.5}, noopSerialize)
	r.RegisterSerializer(Type{MIMEType: "text/turtle", Extensions: []string{"turtle"}, Qs: 1.0}, noopSerialize)

	if len(r.Types()) != 1 {
		t.Fatalf("expected replacement in place, got %d types", len(r.Types()))
	}
	typ, _, _ := r.MatchMIME("text/turtle")
	if typ.Qs != 1.0 {
		t.Fatalf("expected replaced qs 1.0, got %v", typ.Qs)
	}
}

func TestMatchExtFirstRegisteredWinsTies(t *testing.T) {
	r := New()
	r.RegisterSerializer(Type{MIMEType: "text/turtle", Extensions: []string{"rdf"}}, noopSerialize)
	r.RegisterSerializer(Type{MIMEType: "application/rdf+xml", Extensions: []string{"rdf"}}, noopSerialize)

	typ, _, ok := r.MatchExt("rdf")
	if !ok || typ.MIMEType != "text/turtle" {
		t.Fatalf("expected first-registered type to win, got %+v", typ)
	}
}

func TestRegisterEngineRejectsDuplicate(t *testing.T) {
	r := New()
	if err := r.RegisterEngine("file", func(ctx context.Context, req *request.Request) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.RegisterEngine("file", func(ctx context.Context, req *request.Request) error { return nil }); err == nil {
		t.Fatal("expected duplicate engine registration to fail")
	}
}

func TestNegotiateTypeUsesRegisteredQs(t *testing.T) {
	r := New()
	r.RegisterSerializer(Type{MIMEType: "text/turtle", Qs: 1.0}, noopSerialize)
	r.RegisterSerializer(Type{MIMEType: "application/ld+json", Qs: 0.9}, noopSerialize)

	got := r.NegotiateType("application/ld+json, text/turtle;q=0.5")
	if got != "application/ld+json" {
		t.Fatalf("expected application/ld+json to win, got %q", got)
	}
}

func TestVisibleTypesFiltersHidden(t *testing.T) {
	r := New()
	r.RegisterSerializer(Type{MIMEType: "text/turtle", Visible: true}, noopSerialize)
	r.RegisterSerializer(Type{MIMEType: "application/rdf+xml", Visible: false}, noopSerialize)

	visible := r.VisibleTypes()
	if len(visible) != 1 || visible[0].MIMEType != "text/turtle" {
		t.Fatalf("unexpected visible types: %+v", visible)
	}
}

func TestBulkRegistrationAndLookup(t *testing.T) {
	r := New()
	err := r.RegisterBulk("resourcegraph", func(ctx context.Context) ([]string, error) {
		return []string{"http://ex/a", "http://ex/b"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn, ok := r.Bulk("resourcegraph")
	if !ok {
		t.Fatal("expected bulk generator to be found")
	}
	subjects, err := fn(context.Background())
	if err != nil || len(subjects) != 2 {
		t.Fatalf("unexpected result: %v %v", subjects, err)
	}
	names := r.BulkNames()
	if len(names) != 1 || names[0] != "resourcegraph" {
		t.Fatalf("unexpected names: %v", names)
	}
}
