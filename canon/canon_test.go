package canon

import (
	"strings"
	"testing"
)

func newTestBuilder() *Builder {
	b := New()
	b.SetBase("https://example.org")
	b.SetPath("/things/widget")
	b.SetName("index")
	b.SetDefaultExt("ttl")
	return b
}

func TestCanonicalOrderingUnderParamPermutation(t *testing.T) {
	b1 := newTestBuilder()
	b1.AddParam("b", "2")
	b1.AddParam("a", "1")

	b2 := newTestBuilder()
	b2.AddParam("a", "1")
	b2.AddParam("b", "2")

	s1 := b1.String(Default)
	s2 := b2.String(Default)
	if s1 != s2 {
		t.Fatalf("expected param order to be stable regardless of insertion order: %q vs %q", s1, s2)
	}
	if !strings.Contains(s1, "?a=1&b=2") {
		t.Fatalf("expected sorted query string, got %q", s1)
	}
}

func TestCanonicalOrderingTieBreakByValue(t *testing.T) {
	b := New()
	b.SetBase("https://example.org")
	b.SetPath("/x")
	b.AddParam("a", "2")
	b.AddParam("a", "1")
	s := b.String(Default)
	if !strings.Contains(s, "?a=1&a=2") {
		t.Fatalf("expected value tie-break ascending, got %q", s)
	}
}

func TestProjectionIdempotence(t *testing.T) {
	b := newTestBuilder()
	b.AddParam("a", "1")
	for _, opts := range []Options{Default, Subject, Abstract, Concrete, Request} {
		first := b.String(opts)
		second := b.String(opts)
		if first != second {
			t.Fatalf("projection %v not idempotent: %q != %q", opts, first, second)
		}
	}
}

func TestSubjectProjectionDropsExtAndParamsKeepsFragment(t *testing.T) {
	b := newTestBuilder()
	b.SetExplicitExt("json")
	b.AddParam("a", "1")
	b.SetFragment("id")
	got := b.String(Subject)
	if strings.Contains(got, ".json") {
		t.Fatalf("subject projection must drop extension, got %q", got)
	}
	if strings.Contains(got, "?") {
		t.Fatalf("subject projection must drop params, got %q", got)
	}
	if !strings.HasSuffix(got, "#id") {
		t.Fatalf("subject projection must keep fragment, got %q", got)
	}
}

func TestConcreteProjectionForcesExtAndName(t *testing.T) {
	b := newTestBuilder()
	got := b.String(Concrete)
	want := "https://example.org/things/widget/index.ttl"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestConcreteProjectionPrefersExplicitExtWhenNoDefault(t *testing.T) {
	b := New()
	b.SetBase("https://example.org")
	b.SetPath("/things/widget")
	b.SetExplicitExt("json")
	got := b.String(Concrete)
	want := "https://example.org/things/widget.json"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestExplicitExtForcesNameInclusion(t *testing.T) {
	b := newTestBuilder()
	b.SetExplicitExt("json")
	got := b.String(Default)
	if !strings.Contains(got, "index") {
		t.Fatalf("explicit extension should force name segment to appear, got %q", got)
	}
	if !strings.HasSuffix(got, ".json") {
		t.Fatalf("expected explicit extension suffix, got %q", got)
	}
}

func TestNoAbsoluteOmitsBase(t *testing.T) {
	b := newTestBuilder()
	got := b.String(NoAbsolute)
	if strings.Contains(got, "example.org") {
		t.Fatalf("expected base to be omitted, got %q", got)
	}
	if !strings.HasPrefix(got, "/things/widget") {
		t.Fatalf("expected path-only URI, got %q", got)
	}
}

func TestUserSuppliedPrefersRawPathAndQuery(t *testing.T) {
	b := newTestBuilder()
	b.SetUserPath("/raw/path")
	b.SetUserQuery("x=y")
	b.AddParam("a", "1")
	got := b.String(Request)
	if !strings.Contains(got, "/raw/path") {
		t.Fatalf("expected raw user path, got %q", got)
	}
	if !strings.Contains(got, "?x=y") {
		t.Fatalf("expected raw user query, got %q", got)
	}
	if strings.Contains(got, "a=1") {
		t.Fatalf("expected constructed params suppressed under USERSUPPLIED, got %q", got)
	}
}

func TestParamValueSelectiveEncoding(t *testing.T) {
	b := New()
	b.SetBase("https://example.org")
	b.SetPath("/x")
	b.AddParam("q", "a b&c#d%20e%zz")
	got := b.String(Default)
	// space -> '+', '&' and '#' always encoded, '%20' preserved (valid hex
	// pair), '%zz' is not a valid hex pair so '%' itself gets encoded.
	want := "https://example.org/x?q=a+b%26c%23d%20e%25zz"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSetParamReplacesAndDeletesWithNil(t *testing.T) {
	b := New()
	b.SetBase("https://example.org")
	b.SetPath("/x")
	v := "1"
	b.SetParam("a", &v)
	b.SetParam("a", nil)
	got := b.String(Default)
	if strings.Contains(got, "?") {
		t.Fatalf("expected no query string after deleting param, got %q", got)
	}
}

func TestResetParams(t *testing.T) {
	b := New()
	b.SetBase("https://example.org")
	b.SetPath("/x")
	b.AddParam("a", "1")
	b.ResetParams()
	got := b.String(Default)
	if strings.Contains(got, "?") {
		t.Fatalf("expected no query string after ResetParams, got %q", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := newTestBuilder()
	b.AddParam("a", "1")
	c := b.Clone()
	c.AddParam("b", "2")
	if strings.Contains(b.String(Default), "b=2") {
		t.Fatal("mutating clone must not affect original")
	}
}
