package validate

import "testing"

func TestRequired(t *testing.T) {
	if Required("  ") {
		t.Fatalf("blank input must not pass Required")
	}
	if !Required("x") {
		t.Fatalf("non-blank input must pass Required")
	}
}

func TestMaxLenCountsRunes(t *testing.T) {
	if !MaxLen("привет", 6) {
		t.Fatalf("6 cyrillic runes must fit in 6")
	}
	if MaxLen("привет!", 6) {
		t.Fatalf("7 runes must not fit in 6")
	}
}

func TestParseAgeRange(t *testing.T) {
	min, max, err := ParseAgeRange(" 25 - 35 ", 18, 110)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if min != 25 || max != 35 {
		t.Fatalf("unexpected range: got %d-%d want 25-35", min, max)
	}

	for _, raw := range []string{"35-25", "10-30", "25-200", "abc", "25", "25:35"} {
		if _, _, err := ParseAgeRange(raw, 18, 110); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
