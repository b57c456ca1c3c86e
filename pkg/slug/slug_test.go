package slug

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spec example", "Acme & Sons, Inc.", "acme-sons-inc"},
		{"already slug", "acme-sons-inc", "acme-sons-inc"},
		{"uppercase", "NORTHWIND", "northwind"},
		{"unicode stripped", "Café Ümlaut", "caf-mlaut"},
		{"leading trailing junk", "  --Hello World--  ", "hello-world"},
		{"digits kept", "Shop 24/7", "shop-24-7"},
		{"only junk", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Make(tt.in); got != tt.want {
				t.Errorf("Make(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMake_Idempotent(t *testing.T) {
	inputs := []string{"Acme & Sons, Inc.", "Hello World", "a--b"}
	for _, in := range inputs {
		once := Make(in)
		if twice := Make(once); twice != once {
			t.Errorf("Make not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}
