package resource

import "testing"

func TestNormalizeIdempotent(t *testing.T) {
	cases := []string{
		"./bg/room.png",
		"assets/bg/room.png",
		"bg/../bg/room.png",
		"../../escape/room.png",
		"bg//room.png",
		"bg/./room.png",
	}
	for _, c := range cases {
		once := Normalize(c)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", c, once, twice)
		}
	}
}

func TestNormalizeStripsAssetsPrefix(t *testing.T) {
	got := Normalize("assets/bg/room.png")
	want := Normalize("bg/room.png")
	if got != want {
		t.Errorf("Normalize(%q) = %q, want %q", "assets/bg/room.png", got, want)
	}
}

func TestNormalizeNeverEscapesRoot(t *testing.T) {
	got := Normalize("../../../etc/passwd")
	if got != "etc/passwd" {
		t.Errorf("Normalize underflow = %q, want %q", got, "etc/passwd")
	}
}

func TestNormalizeDotSlashPrefix(t *testing.T) {
	got := Normalize("./bg/room.png")
	if got != "bg/room.png" {
		t.Errorf("Normalize(%q) = %q", "./bg/room.png", got)
	}
}
