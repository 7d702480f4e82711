package model

import "testing"

func TestAddAndIsEmpty(t *testing.T) {
	m := New()
	if !m.IsEmpty() {
		t.Fatal("expected new model to be empty")
	}
	m.AddURI("http://ex/s", "http://ex/p", "http://ex/o")
	if m.IsEmpty() {
		t.Fatal("expected non-empty model after Add")
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 quad, got %d", m.Len())
	}
}

func TestFindDoubleParsesDecimal(t *testing.T) {
	m := New()
	m.Add(IRI("http://ex/s"), IRI("http://ex/score"), TypedLiteral("3.5", XSDDecimal))
	v, ok := m.FindDouble("http://ex/s", "http://ex/score")
	if !ok || v != 3.5 {
		t.Fatalf("got (%v, %v), want (3.5, true)", v, ok)
	}
}

func TestFindDoubleMissing(t *testing.T) {
	m := New()
	if _, ok := m.FindDouble("http://ex/s", "http://ex/missing"); ok {
		t.Fatal("expected ok=false for missing statement")
	}
}

func TestContractURILongestPrefixWins(t *testing.T) {
	m := New()
	m.AddNamespace("ex", "http://example.org/")
	m.AddNamespace("exterm", "http://example.org/terms/")
	got := m.ContractURI("http://example.org/terms/Name")
	if got != "exterm:Name" {
		t.Fatalf("got %q, want exterm:Name", got)
	}
}

func TestContractURINoMatchReturnsOriginal(t *testing.T) {
	m := New()
	uri := "http://unrelated.example/x"
	if got := m.ContractURI(uri); got != uri {
		t.Fatalf("got %q, want unchanged %q", got, uri)
	}
}

func TestContractURIBuiltinNamespace(t *testing.T) {
	m := New()
	got := m.ContractURI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	if got != "rdf:type" {
		t.Fatalf("got %q, want rdf:type", got)
	}
}

func TestSubjectsFirstSeenOrderDeduped(t *testing.T) {
	m := New()
	m.AddURI("http://ex/a", "http://ex/p", "http://ex/1")
	m.AddURI("http://ex/b", "http://ex/p", "http://ex/2")
	m.AddURI("http://ex/a", "http://ex/p", "http://ex/3")
	subs := m.Subjects()
	if len(subs) != 2 || subs[0] != "http://ex/a" || subs[1] != "http://ex/b" {
		t.Fatalf("unexpected subjects: %v", subs)
	}
}

func TestSortedByKeyDeterministic(t *testing.T) {
	m := New()
	m.AddURI("http://ex/b", "http://ex/p", "http://ex/2")
	m.AddURI("http://ex/a", "http://ex/p", "http://ex/1")
	sorted := m.SortedByKey()
	if sorted[0].S.String() != "http://ex/a" {
		t.Fatalf("expected sorted order, got %v", sorted)
	}
}

func TestMergeAppendsQuads(t *testing.T) {
	m1 := New()
	m1.AddURI("http://ex/a", "http://ex/p", "http://ex/1")
	m2 := New()
	m2.AddURI("http://ex/b", "http://ex/p", "http://ex/2")
	m1.Merge(m2)
	if m1.Len() != 2 {
		t.Fatalf("expected 2 quads after merge, got %d", m1.Len())
	}
}

func TestAddLiteralWithAndWithoutLang(t *testing.T) {
	m := New()
	m.AddLiteral("http://ex/s", "http://ex/label", "hello", "en")
	m.AddLiteral("http://ex/s", "http://ex/note", "plain", "")
	if v, ok := m.FindString("http://ex/s", "http://ex/label"); !ok || v != "hello" {
		t.Fatalf("got (%q, %v)", v, ok)
	}
}
