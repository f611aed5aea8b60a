package model

// Job is one batch download request: an ordered list of tracks, a destination
// folder name under the output directory, and an optional artwork override
// applied to every track.
type Job struct {
	Tracks     []TrackDescriptor `json:"tracks" yaml:"tracks"`
	Folder     string            `json:"folder" yaml:"folder"`
	ArtworkURL string            `json:"artwork_url,omitempty" yaml:"artwork_url,omitempty"`
}

// Status is the human-readable state carried by progress events.
type Status string

const (
	StatusDownloading  Status = "downloading"
	StatusSkipped      Status = "skipped"
	StatusFailed       Status = "failed"
	StatusSuspended    Status = "suspended"
	StatusLimitReached Status = "limit reached"
	StatusDone         Status = "done"
	StatusCleared      Status = "cleared"
)

// Event is a single progress update emitted by the orchestrator. Completed
// counts are strictly non-decreasing within one job run.
type Event struct {
	Completed int    `json:"completed" yaml:"completed"`
	Total     int    `json:"total" yaml:"total"`
	Status    Status `json:"status" yaml:"status"`
	Detail    string `json:"detail,omitempty" yaml:"detail,omitempty"`
}
