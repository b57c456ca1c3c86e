package vendorcode

import (
	"errors"
	"math/rand"
	"testing"
)

func newTestGenerator() *Generator {
	return NewWithSource(rand.NewSource(1))
}

func mustGenerate(t *testing.T, g *Generator, name string, taken map[string]struct{}) string {
	t.Helper()
	code, err := g.Generate(name, taken)
	if err != nil {
		t.Fatalf("Generate(%q): %v", name, err)
	}
	return code
}

func TestBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme", "ACME"},
		{"Acme Corporation", "ACME"},
		{"a & b", "AB"},
		{"42 Shops", "42SH"},
		{"Ümlaut", "MLAU"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Base(tt.in); got != tt.want {
			t.Errorf("Base(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerate_DerivedFromName(t *testing.T) {
	g := newTestGenerator()
	code := mustGenerate(t, g, "Acme", map[string]struct{}{})
	if code != "ACME" {
		t.Errorf("expected ACME, got %s", code)
	}
}

func TestGenerate_SequentialSameName(t *testing.T) {
	g := newTestGenerator()
	taken := map[string]struct{}{}

	first := mustGenerate(t, g, "Acme", taken)
	taken[first] = struct{}{}
	second := mustGenerate(t, g, "Acme", taken)

	if first == second {
		t.Fatalf("expected distinct codes, got %s twice", first)
	}
	if first != "ACME" {
		t.Errorf("first code should be the derived base, got %s", first)
	}
	if second != "AC01" {
		t.Errorf("collision should yield prefix+suffix AC01, got %s", second)
	}
}

func TestGenerate_SuffixExhaustionFallsBackToRandom(t *testing.T) {
	g := newTestGenerator()
	taken := map[string]struct{}{"ACME": {}}
	for i := 1; i <= 99; i++ {
		taken["AC"+twoDigits(i)] = struct{}{}
	}

	code := mustGenerate(t, g, "Acme", taken)
	if len(code) != CodeLength {
		t.Fatalf("expected %d-char code, got %q", CodeLength, code)
	}
	if _, clash := taken[code]; clash {
		t.Errorf("fallback code %s collides with taken set", code)
	}
}

func TestGenerate_SaturatedSpaceReturnsError(t *testing.T) {
	taken := make(map[string]struct{}, len(alphanum)*len(alphanum)*len(alphanum)*len(alphanum))
	for _, a := range alphanum {
		for _, b := range alphanum {
			for _, c := range alphanum {
				for _, d := range alphanum {
					taken[string([]rune{a, b, c, d})] = struct{}{}
				}
			}
		}
	}

	g := newTestGenerator()
	code, err := g.Generate("Acme", taken)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got code=%q err=%v", code, err)
	}
	if code != "" {
		t.Errorf("exhausted generation should return empty code, got %q", code)
	}
}

func TestGenerate_SkipsReserved(t *testing.T) {
	g := newTestGenerator()
	code := mustGenerate(t, g, "Test", map[string]struct{}{})
	if code == "TEST" {
		t.Fatal("reserved code TEST must not be assigned")
	}
	if code != "TE01" {
		t.Errorf("expected TE01 after reserved base, got %s", code)
	}
}

func TestGenerate_PadsShortNames(t *testing.T) {
	g := newTestGenerator()
	code := mustGenerate(t, g, "ab", map[string]struct{}{})
	if len(code) != CodeLength {
		t.Fatalf("expected padded %d-char code, got %q", CodeLength, code)
	}
	if code[:2] != "AB" {
		t.Errorf("padded code should keep derived prefix, got %s", code)
	}
}

func TestIsReserved(t *testing.T) {
	for _, code := range []string{"0000", "AAAA", "TEST", "DEMO", "NULL", "NONE", "XXXX", "ZZZZ"} {
		if !IsReserved(code) {
			t.Errorf("%s should be reserved", code)
		}
	}
	if IsReserved("ACME") {
		t.Error("ACME should not be reserved")
	}
}
