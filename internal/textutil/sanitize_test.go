package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"  Grand Hotel  ": "Grand_Hotel",
		"Tower A/B":       "Tower_A-B",
		`Floor\3:West*`:   "Floor-3-West",
		`"Lobby" <1>?|`:   "Lobby_1",
		"巡房紀錄":            "巡房紀錄",
		"../..":           "",
	}
	for in, want := range tests {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
