// Package match picks the best source candidate for a track by comparing
// candidate durations against the track's target duration. Pure logic, no I/O.
package match

import (
	"strconv"
	"strings"

	"tunegrab/internal/model"
)

// toleranceSeconds is the maximum absolute duration delta for a candidate to
// be considered a match.
const toleranceSeconds = 10

// SelectBest returns the first candidate whose duration is within the
// tolerance of targetSeconds. Candidates arrive in provider relevance order,
// so when nothing is within tolerance the first candidate is the fallback.
// The second return is false only when candidates is empty.
func SelectBest(candidates []model.SearchCandidate, targetSeconds int) (model.SearchCandidate, bool) {
	if len(candidates) == 0 {
		return model.SearchCandidate{}, false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	for _, c := range candidates {
		delta := ParseDuration(c.Duration) - targetSeconds
		if delta < 0 {
			delta = -delta
		}
		if delta < toleranceSeconds {
			return c, true
		}
	}

	return candidates[0], true
}

// ParseDuration converts a candidate duration into seconds. Supported forms
// are "M:SS", "H:MM:SS" and bare seconds. Malformed input yields 0, which
// biases the candidate toward rejection by the tolerance check.
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
