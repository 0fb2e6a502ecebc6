package slug

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Sunny Meadows Care":    "sunny-meadows-care",
		"  Anna's  Pflege  ":    "annas-pflege",
		"Haus_am-See / Nord":    "haus-am-see-nord",
		"---":                   "",
		"Café Noir":             "caf-noir",
		"24/7 Home Care GmbH.":  "247-home-care-gmbh",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateSecureSuffix_InvalidLength(t *testing.T) {
	t.Parallel()

	if _, err := GenerateSecureSuffix(0); err == nil {
		t.Fatalf("expected error for invalid length")
	}
}

func TestGenerateSecureSuffix_LengthAndAlphabet(t *testing.T) {
	t.Parallel()

	suffix, err := GenerateSecureSuffix(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suffix) != 10 {
		t.Fatalf("expected suffix length 10, got %d", len(suffix))
	}

	for i := 0; i < len(suffix); i++ {
		if strings.IndexByte(alphabet, suffix[i]) == -1 {
			t.Fatalf("suffix contains invalid character %q", suffix[i])
		}
	}
}

func TestForName_UniqueWithinSmallBatch(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		s, err := ForName("Sunny Meadows Care")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(s, "sunny-meadows-care-") {
			t.Fatalf("unexpected slug shape: %s", s)
		}
		if _, exists := seen[s]; exists {
			t.Fatalf("duplicate slug generated in small batch: %s", s)
		}
		seen[s] = struct{}{}
	}
}
