package metadata

import (
	"regexp"
	"strings"
)

// Decoration suffixes that video sources append to track titles. One pattern
// per suffix family, matching both (...) and [...] forms.
var titleCleanupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[\(\[]official\s+(?:music\s+|lyric\s+)?(?:video|audio|visualizer)[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[]lyrics?[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[]visual(?:izer)?[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[]audio[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[](?:hd|hq|4k)[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[](?:explicit|clean)[\)\]]`),
}

// Pattern to extract featuring artists from the title
var featuringPattern = regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:feat\.?|ft\.?|featuring)\s+([^\)\]]+)[\)\]]`)

// Pattern to detect "VEVO" channel suffix in artist name
var vevoPattern = regexp.MustCompile(`(?i)vevo$`)

// Pattern for "Artist - Title" format (common in video titles)
var artistTitleSeparator = regexp.MustCompile(`^(.+?)\s*[-–—]\s*(.+)$`)

// NormalizeQuery takes raw title/artist labels and returns a cleaned SearchQuery.
func NormalizeQuery(title, artist string) SearchQuery {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)

	// Clean VEVO suffix from artist
	artist = vevoPattern.ReplaceAllString(artist, "")
	artist = strings.TrimSpace(artist)

	// If we have no title, nothing useful to clean
	if title == "" {
		return SearchQuery{Title: title, Artist: artist}
	}

	// Remove video-source suffixes from title
	for _, p := range titleCleanupPatterns {
		title = p.ReplaceAllString(title, "")
	}

	// Extract featuring artists (keep them stripped from title for cleaner search)
	title = featuringPattern.ReplaceAllString(title, "")

	// If artist is empty, try to split "Artist - Title" from the title string
	if artist == "" {
		if m := artistTitleSeparator.FindStringSubmatch(title); m != nil {
			artist = strings.TrimSpace(m[1])
			title = strings.TrimSpace(m[2])
		}
	}

	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)

	return SearchQuery{
		Title:  title,
		Artist: artist,
	}
}
