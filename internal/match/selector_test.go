package match

import (
	"testing"

	"tunegrab/internal/model"
)

func candidates(durations ...string) []model.SearchCandidate {
	out := make([]model.SearchCandidate, len(durations))
	for i, d := range durations {
		out[i] = model.SearchCandidate{ID: d, Duration: d}
	}
	return out
}

func TestSelectBestEmpty(t *testing.T) {
	if _, ok := SelectBest(nil, 120); ok {
		t.Error("SelectBest(nil) returned a candidate")
	}
	if _, ok := SelectBest([]model.SearchCandidate{}, 120); ok {
		t.Error("SelectBest(empty) returned a candidate")
	}
}

func TestSelectBestSingle(t *testing.T) {
	c := model.SearchCandidate{ID: "only", Duration: "99:99"}
	got, ok := SelectBest([]model.SearchCandidate{c}, 1)
	if !ok || got.ID != "only" {
		t.Errorf("SelectBest(single) = %+v, %v; want the sole candidate regardless of duration", got, ok)
	}
}

func TestSelectBestFirstWithinTolerance(t *testing.T) {
	// 2:00, 2:10 and 5:00 against a 125s target: 2:00 is off by 5s and comes
	// first, so it wins even though 2:10 also qualifies.
	cands := candidates("2:00", "2:10", "5:00")
	got, ok := SelectBest(cands, 125)
	if !ok || got.ID != "2:00" {
		t.Errorf("SelectBest = %q, want first within tolerance %q", got.ID, "2:00")
	}

	// Reordered so the qualifying 2:10 comes before 2:00: first match wins,
	// not closest match.
	cands = candidates("5:00", "2:10", "2:00")
	got, _ = SelectBest(cands, 125)
	if got.ID != "2:10" {
		t.Errorf("SelectBest = %q, want first-match-within-tolerance %q", got.ID, "2:10")
	}
}

func TestSelectBestExactToleranceExcluded(t *testing.T) {
	// A delta of exactly 10s is not within tolerance.
	cands := candidates("2:10", "2:05")
	got, _ := SelectBest(cands, 120)
	if got.ID != "2:05" {
		t.Errorf("SelectBest = %q, want %q (10s delta must not qualify)", got.ID, "2:05")
	}
}

func TestSelectBestFallbackToFirst(t *testing.T) {
	cands := candidates("10:00", "20:00", "30:00")
	got, ok := SelectBest(cands, 125)
	if !ok || got.ID != "10:00" {
		t.Errorf("SelectBest = %q, want provider-order fallback %q", got.ID, "10:00")
	}
}

func TestSelectBestMalformedDurations(t *testing.T) {
	// Malformed durations parse to 0s and lose to a valid in-tolerance one.
	cands := []model.SearchCandidate{
		{ID: "junk", Duration: "n/a"},
		{ID: "good", Duration: "2:05"},
	}
	got, _ := SelectBest(cands, 125)
	if got.ID != "good" {
		t.Errorf("SelectBest = %q, want %q", got.ID, "good")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"0:30", 30},
		{"3:05", 185},
		{"1:02:03", 3723},
		{"185", 185},
		{" 2:00 ", 120},
		{"", 0},
		{"n/a", 0},
		{"-1:30", 0},
		{"1:2:3:4", 0},
		{"abc:def", 0},
	}

	for _, tt := range tests {
		if got := ParseDuration(tt.input); got != tt.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
