package textnorm

import "testing"

func TestFold(t *testing.T) {
	cases := map[string]string{
		"  Credit Union ": "Credit Union",
		"Crédit Agricole": "Credit Agricole",
		"Škoda Bank":      "Skoda Bank",
		"Plain & Co.":     "Plain & Co.",
		"":                "",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}
