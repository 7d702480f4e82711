package negotiate

import "testing"

func TestNegotiateTotality(t *testing.T) {
	n := New()
	n.Add("text/turtle", 1.0)
	n.Add("application/ld+json", 0.8)
	got := n.NegotiateType("*/*")
	if got == "" {
		t.Fatal("expected a match for */* when at least one offer has qs > 0")
	}
}

func TestNegotiateTieBreakExactBeatsPrefixBeatsWildcard(t *testing.T) {
	n := New()
	n.Add("text/turtle", 1.0)
	n.Add("text/plain", 1.0)
	got := n.NegotiateType("text/*, text/turtle, */*")
	if got != "text/turtle" {
		t.Fatalf("expected exact match to win, got %q", got)
	}

	n2 := New()
	n2.Add("text/turtle", 1.0)
	n2.Add("text/plain", 1.0)
	got2 := n2.NegotiateType("text/*, */*")
	if got2 != "text/turtle" {
		t.Fatalf("expected prefix wildcard to beat full wildcard, got %q", got2)
	}
}

func TestNegotiateSingleLevel(t *testing.T) {
	n := New()
	n.Add("en", 1.0)
	n.Add("fr", 1.0)
	got := n.Negotiate("fr;q=0.9, en;q=0.8")
	if got != "fr" {
		t.Fatalf("expected fr to win on higher client q, got %q", got)
	}
}

func TestNegotiateNoMatch(t *testing.T) {
	n := New()
	n.Add("text/turtle", 1.0)
	if got := n.NegotiateType("application/json"); got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestParseQFixedPoint(t *testing.T) {
	cases := map[string]float64{
		"1":      1,
		"1.0":    1,
		"0":      0,
		"0.5":    0.5,
		"0.123":  0.123,
		"0.1234": 0.123,
		"":       1,
		"abc":    1,
	}
	for in, want := range cases {
		if got := parseQ(in); got != want {
			t.Errorf("parseQ(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAddReplacesQsKeepsOrder(t *testing.T) {
	n := New()
	n.Add("text/turtle", 0.1)
	n.Add("text/plain", 1.0)
	n.Add("text/turtle", 1.0) // replace qs, should keep original registration order
	got := n.NegotiateType("*/*")
	if got != "text/turtle" {
		t.Fatalf("expected first-registered offer to win wildcard tie, got %q", got)
	}
}

func TestQsClamped(t *testing.T) {
	n := New()
	n.Add("a", 5)
	n.Add("b", -5)
	if got := n.Negotiate("a"); got != "a" {
		t.Fatalf("expected clamp to allow exact match, got %q", got)
	}
	if got := n.Negotiate("b"); got != "" {
		t.Fatalf("expected qs<=0 offer to never match, got %q", got)
	}
}
