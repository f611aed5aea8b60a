package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/log"
)

const defaultConfidenceThreshold = 0.7

// Enricher looks up missing track metadata: it normalizes the track's
// title/artist into a search query, asks the provider chain, scores the
// results and returns the best match when confident enough.
type Enricher struct {
	provider  Provider
	log       *log.Logger
	threshold float64
}

// NewEnricher creates a new Enricher with the given provider.
// If threshold is 0, the default (0.7) is used.
func NewEnricher(p Provider, logger *log.Logger, threshold float64) *Enricher {
	if threshold <= 0 {
		threshold = defaultConfidenceThreshold
	}
	return &Enricher{
		provider:  p,
		log:       logger,
		threshold: threshold,
	}
}

// BestMatch returns the most plausible provider match for the given
// title/artist pair. The second return is false when no result clears the
// confidence threshold or the lookup fails; lookups are best-effort and
// never propagate errors.
func (e *Enricher) BestMatch(ctx context.Context, title, artist string) (TrackInfo, bool) {
	query := NormalizeQuery(title, artist)
	if query.Title == "" {
		return TrackInfo{}, false
	}

	results, err := e.provider.Search(ctx, query)
	if err != nil {
		e.log.Debug("metadata search failed", "title", query.Title, "artist", query.Artist, "err", err)
		return TrackInfo{}, false
	}
	if len(results) == 0 {
		return TrackInfo{}, false
	}

	best := results[0]
	best.Confidence = score(query, best)
	for _, result := range results[1:] {
		result.Confidence = score(query, result)
		if result.Confidence > best.Confidence {
			best = result
		}
	}

	e.log.Debug("best metadata match", "title", best.Title, "artist", best.Artist, "confidence", best.Confidence)

	if best.Confidence < e.threshold {
		return TrackInfo{}, false
	}
	return best, true
}

// DownloadArtwork fetches artwork bytes from the given URL.
func DownloadArtwork(ctx context.Context, artworkURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create artwork request: %w", err)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artwork data: %w", err)
	}
	return data, nil
}

// score computes a similarity score (0.0-1.0) between the query and a result.
func score(query SearchQuery, result TrackInfo) float64 {
	titleScore := similarity(normalize(query.Title), normalize(result.Title))
	artistScore := similarity(normalize(query.Artist), normalize(result.Artist))

	if query.Artist == "" {
		return titleScore
	}
	// Weight: 60% title, 40% artist
	return titleScore*0.6 + artistScore*0.4
}

// similarity returns how similar two strings are (0.0-1.0).
// Uses both token overlap and compact string comparison to handle cases
// like "theweeknd" vs "the weeknd".
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	// Check compact (no-space) equality first: handles "theweeknd" == "the weeknd"
	compactA := strings.ReplaceAll(a, " ", "")
	compactB := strings.ReplaceAll(b, " ", "")
	if compactA == compactB {
		return 1.0
	}

	// Token overlap
	tokensA := tokenize(a)
	tokensB := tokenize(b)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	setB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		setB[t] = true
	}

	matches := 0
	for _, t := range tokensA {
		if setB[t] {
			matches++
		}
	}

	maxLen := len(tokensA)
	if len(tokensB) > maxLen {
		maxLen = len(tokensB)
	}
	return float64(matches) / float64(maxLen)
}

// normalize lowercases and strips non-alphanumeric characters for comparison.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tokenize splits a string into lowercase tokens.
func tokenize(s string) []string {
	fields := strings.Fields(s)
	var result []string
	for _, f := range fields {
		if f != "" {
			result = append(result, f)
		}
	}
	return result
}
