// Package model defines the core data types shared across the download
// pipeline: track descriptors, search candidates, jobs and progress events.
package model

// TrackDescriptor is the logical identity of a song to fetch. It is an
// immutable input: enrichment never mutates a descriptor in place, it
// produces a derived copy via Merged.
type TrackDescriptor struct {
	Title       string `json:"title" yaml:"title"`
	Artist      string `json:"artist" yaml:"artist"`
	Album       string `json:"album,omitempty" yaml:"album,omitempty"`
	Duration    int    `json:"duration,omitempty" yaml:"duration,omitempty"` // target duration in seconds
	SourceURL   string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	ArtworkURL  string `json:"artwork_url,omitempty" yaml:"artwork_url,omitempty"`
	ISRC        string `json:"isrc,omitempty" yaml:"isrc,omitempty"`
	Year        int    `json:"year,omitempty" yaml:"year,omitempty"`
	TrackNumber int    `json:"track_number,omitempty" yaml:"track_number,omitempty"`
	Genre       string `json:"genre,omitempty" yaml:"genre,omitempty"`
}

// Merged returns a copy of t with missing fields filled in from other.
// Fields already present on t are never overwritten.
func (t TrackDescriptor) Merged(other TrackDescriptor) TrackDescriptor {
	out := t
	if out.Album == "" {
		out.Album = other.Album
	}
	if out.Duration == 0 {
		out.Duration = other.Duration
	}
	if out.ArtworkURL == "" {
		out.ArtworkURL = other.ArtworkURL
	}
	if out.ISRC == "" {
		out.ISRC = other.ISRC
	}
	if out.Year == 0 {
		out.Year = other.Year
	}
	if out.TrackNumber == 0 {
		out.TrackNumber = other.TrackNumber
	}
	if out.Genre == "" {
		out.Genre = other.Genre
	}
	return out
}

// NeedsEnrichment reports whether essential tagging fields are missing and a
// metadata provider lookup is worth doing.
func (t TrackDescriptor) NeedsEnrichment() bool {
	return t.Year == 0 || t.TrackNumber == 0
}

// SearchCandidate is one result returned by a text search against the source
// provider. The provider's ordering is preserved; ranking is imposed by the
// match selector.
type SearchCandidate struct {
	ID           string
	Title        string
	ArtistLabel  string
	Duration     string // "M:SS", "H:MM:SS" or bare seconds
	SourceURL    string
	ThumbnailURL string
}

// DownloadResult describes the outcome of a single fetch. It is transient
// and never persisted.
type DownloadResult struct {
	OK    bool
	Path  string
	Bytes int64
}
