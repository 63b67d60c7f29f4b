package partition

import "testing"

func TestDayKey(t *testing.T) {
	cases := map[string]string{
		"2022/01/15 08:30": "2022_01_15",
		"2022/01/15":       "2022_01_15",
		" 2022/12/31 23:59": "2022_12_31",
		"2022/13/01 00:00": Unknown, // invalid month
		"2022/02/30 00:00": Unknown, // invalid day
		"bad-date":         Unknown,
		"2022/1/5 08:30":   Unknown, // unpadded, fails the 10-char parse
		"":                 Unknown,
		"2022":             Unknown,
	}
	for in, want := range cases {
		if got := DayKey(in); got != want {
			t.Errorf("DayKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeyDisabled(t *testing.T) {
	if got := Key("2022/01/15 08:30", false); got != All {
		t.Fatalf("Key disabled = %q, want %q", got, All)
	}
	if got := Key("2022/01/15 08:30", true); got != "2022_01_15" {
		t.Fatalf("Key enabled = %q, want 2022_01_15", got)
	}
}

// The deriver decides file placement, so it must be deterministic.
func TestDayKeyPure(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := DayKey("2022/01/15 08:30"); got != "2022_01_15" {
			t.Fatalf("run %d: DayKey = %q", i, got)
		}
	}
}
