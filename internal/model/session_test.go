package model

import "testing"

func TestTrackDedupeKey(t *testing.T) {
	tests := []struct {
		name          string
		title, artist string
		want          string
	}{
		{"plain", "Midnight Drive", "Nova", "midnight drive|nova"},
		{"case folded", "MIDNIGHT Drive", "nOvA", "midnight drive|nova"},
		{"trimmed", "  Midnight Drive ", " Nova ", "midnight drive|nova"},
		{"inner spaces kept", "Midnight  Drive", "Nova", "midnight  drive|nova"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrackDedupeKey(tt.title, tt.artist); got != tt.want {
				t.Errorf("TrackDedupeKey(%q, %q) = %q, want %q", tt.title, tt.artist, got, tt.want)
			}
		})
	}
}

func TestTrackDedupeKeyDistinguishesArtists(t *testing.T) {
	a := TrackDedupeKey("Midnight Drive", "Nova")
	b := TrackDedupeKey("Midnight Drive", "Kai")
	if a == b {
		t.Error("same title by different artists must not collide")
	}
}
