// Package pipeline drives a download job track-by-track: quota gating,
// metadata enrichment, source resolution, fetching, tagging and progress
// reporting. Tracks are processed strictly sequentially within one job; only
// the audio fetch and the artwork download of a single track run concurrently.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"tunegrab/internal/config"
	"tunegrab/internal/fetch"
	"tunegrab/internal/lyrics"
	"tunegrab/internal/match"
	"tunegrab/internal/metadata"
	"tunegrab/internal/model"
	"tunegrab/internal/quota"
	"tunegrab/pkg/utils"
)

const (
	// settleDelay gives the OS time to release file handles after a fetch
	// before the tagger reopens the file.
	settleDelay = 500 * time.Millisecond

	// clearedDelay is how long the final "done" event stays current before
	// the "cleared" event tells consumers to reset their state.
	clearedDelay = 2 * time.Second

	// lookupTimeout bounds metadata and search calls. A timeout is a normal
	// failure, not a fatal one.
	lookupTimeout = 25 * time.Second
)

// fetcher is the slice of the fetch engine the orchestrator needs.
type fetcher interface {
	Fetch(ctx context.Context, locator, destPath string, onProgress fetch.ProgressFunc) (model.DownloadResult, error)
	Search(ctx context.Context, query string) ([]model.SearchCandidate, error)
}

// gate is the slice of the quota gate the orchestrator needs.
type gate interface {
	IsBanned(ctx context.Context) bool
	Remaining(ctx context.Context) int
	RecordUsage(ctx context.Context, kind quota.UsageKind)
}

// enricher resolves missing track metadata.
type enricher interface {
	BestMatch(ctx context.Context, title, artist string) (metadata.TrackInfo, bool)
}

// lyricsFetcher retrieves lyrics for a track.
type lyricsFetcher interface {
	Fetch(ctx context.Context, artist, title, album string) (lyrics.Result, error)
}

// Orchestrator runs one job at a time. A second Run while a job is active is
// a logged no-op.
type Orchestrator struct {
	cfg      config.Config
	gate     gate
	engine   fetcher
	enricher enricher
	lyrics   lyricsFetcher
	log      *log.Logger

	// OnTrackProgress, when set, receives per-track fetch progress. Used by
	// the CLI progress bar; the event channel only carries per-track results.
	OnTrackProgress func(trackIndex int, pct float64)

	mu     sync.Mutex
	active bool

	settleDelay  time.Duration
	clearedDelay time.Duration

	// Tag-write seams, replaceable in tests.
	writeTags    func(path string, info metadata.TrackInfo) error
	writeArtwork func(path string, data []byte) error
	writeLyrics  func(path, text string) error
	fetchArtwork func(ctx context.Context, url string) ([]byte, error)
}

// New creates an Orchestrator. enrich and lyr may be nil to disable
// enrichment and lyrics embedding.
func New(cfg config.Config, g gate, engine fetcher, enrich enricher, lyr lyricsFetcher, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		gate:         g,
		engine:       engine,
		enricher:     enrich,
		lyrics:       lyr,
		log:          logger,
		settleDelay:  settleDelay,
		clearedDelay: clearedDelay,
		writeTags:    metadata.WriteTags,
		writeArtwork: metadata.WriteArtwork,
		writeLyrics:  metadata.WriteLyrics,
		fetchArtwork: metadata.DownloadArtwork,
	}
}

// Run starts the job and returns its event stream. The channel closes when
// the job finishes or aborts. If a job is already active the call is a no-op
// and the returned channel is already closed.
func (o *Orchestrator) Run(ctx context.Context, job model.Job) <-chan model.Event {
	events := make(chan model.Event, len(job.Tracks)+2)

	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		o.log.Warn("a job is already running, ignoring new request", "tracks", len(job.Tracks))
		close(events)
		return events
	}
	o.active = true
	o.mu.Unlock()

	go func() {
		defer close(events)
		defer func() {
			o.mu.Lock()
			o.active = false
			o.mu.Unlock()
		}()
		o.runJob(ctx, job, events)
	}()

	return events
}

func (o *Orchestrator) runJob(ctx context.Context, job model.Job, events chan<- model.Event) {
	total := len(job.Tracks)

	if total == 0 {
		events <- model.Event{Completed: 0, Total: 0, Status: model.StatusDone, Detail: o.remainingDetail(ctx)}
		return
	}

	destDir := filepath.Join(o.cfg.OutputDir, utils.SanitizeFileName(job.Folder))
	if err := utils.EnsureDir(destDir); err != nil {
		o.log.Error("cannot create destination directory", "dir", destDir, "err", err)
		events <- model.Event{Completed: 0, Total: total, Status: model.StatusFailed, Detail: "cannot create destination directory"}
		return
	}

	completed := 0
	for i, track := range job.Tracks {
		if ctx.Err() != nil {
			return
		}

		if o.gate.IsBanned(ctx) {
			o.log.Warn("account suspended, aborting job", "completed", completed, "total", total)
			events <- model.Event{Completed: completed, Total: total, Status: model.StatusSuspended, Detail: "account suspended"}
			return
		}
		if o.gate.Remaining(ctx) <= 0 {
			o.log.Warn("daily limit reached, aborting job", "completed", completed, "total", total)
			events <- model.Event{Completed: completed, Total: total, Status: model.StatusLimitReached, Detail: "daily download limit reached"}
			return
		}

		status, detail := o.processTrack(ctx, i, track, job, destDir)
		completed++
		events <- model.Event{Completed: completed, Total: total, Status: status, Detail: detail}
	}

	events <- model.Event{Completed: completed, Total: total, Status: model.StatusDone, Detail: o.remainingDetail(ctx)}

	select {
	case <-ctx.Done():
		return
	case <-time.After(o.clearedDelay):
	}
	events <- model.Event{Completed: completed, Total: total, Status: model.StatusCleared}
}

// processTrack handles one track end to end and returns its outcome. A track
// failure never aborts the job; ban and quota exhaustion are checked by the
// caller before each track.
func (o *Orchestrator) processTrack(ctx context.Context, index int, track model.TrackDescriptor, job model.Job, destDir string) (model.Status, string) {
	label := trackLabel(track)

	enriched := o.enrich(ctx, track)

	destPath := filepath.Join(destDir, trackFileName(index, track, o.cfg.AudioFormat))
	if _, err := os.Stat(destPath); err == nil {
		o.log.Info("already downloaded, skipping", "track", label)
		return model.StatusSkipped, label
	}

	locator, ok := o.resolveSource(ctx, track, enriched)
	if !ok {
		o.log.Warn("no playable source found", "track", label)
		return model.StatusFailed, label
	}

	var artworkData []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var onProgress fetch.ProgressFunc
		if o.OnTrackProgress != nil {
			onProgress = func(pct float64) { o.OnTrackProgress(index, pct) }
		}
		_, err := o.engine.Fetch(gctx, locator, destPath, onProgress)
		return err
	})
	if artURL := artworkSource(job, enriched); artURL != "" {
		g.Go(func() error {
			data, err := o.fetchArtwork(gctx, artURL)
			if err != nil {
				// Artwork is cosmetic; its failure never fails the track.
				o.log.Debug("artwork download failed", "track", label, "err", err)
				return nil
			}
			artworkData = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.log.Warn("download failed", "track", label, "err", err)
		return model.StatusFailed, label
	}

	select {
	case <-ctx.Done():
		return model.StatusFailed, label
	case <-time.After(o.settleDelay):
	}

	o.applyTags(ctx, destPath, enriched, artworkData, label)

	o.gate.RecordUsage(ctx, quota.KindDownload)
	return model.StatusDownloading, label
}

// enrich fills missing descriptor fields from the metadata provider. The
// original descriptor is never mutated; fields already present win.
func (o *Orchestrator) enrich(ctx context.Context, track model.TrackDescriptor) model.TrackDescriptor {
	if o.enricher == nil || !track.NeedsEnrichment() {
		return track
	}

	lctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	info, ok := o.enricher.BestMatch(lctx, track.Title, track.Artist)
	if !ok {
		return track
	}
	return track.Merged(descriptorFromInfo(info))
}

// resolveSource returns the locator to fetch: the descriptor's own URL when
// it points at a playable item, otherwise the best search candidate.
func (o *Orchestrator) resolveSource(ctx context.Context, track, enriched model.TrackDescriptor) (string, bool) {
	if usableLocator(track.SourceURL) {
		return track.SourceURL, true
	}

	sctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	query := strings.TrimSpace(track.Artist + " " + track.Title)
	candidates, err := o.engine.Search(sctx, query)
	if err != nil {
		o.log.Warn("source search failed", "query", query, "err", err)
		return "", false
	}

	best, ok := match.SelectBest(candidates, enriched.Duration)
	if !ok {
		return "", false
	}
	return best.SourceURL, true
}

// applyTags writes metadata, artwork and lyrics to the finished file. Every
// failure here is logged and swallowed; the audio is already on disk.
func (o *Orchestrator) applyTags(ctx context.Context, path string, track model.TrackDescriptor, artwork []byte, label string) {
	if err := o.writeTags(path, tagInfoFrom(track)); err != nil {
		o.log.Warn("tag write failed", "track", label, "err", err)
	}

	if len(artwork) > 0 {
		if err := o.writeArtwork(path, artwork); err != nil {
			o.log.Warn("artwork write failed", "track", label, "err", err)
		}
	}

	if o.cfg.EmbedLyrics && o.lyrics != nil {
		lctx, cancel := context.WithTimeout(ctx, lookupTimeout)
		defer cancel()
		result, err := o.lyrics.Fetch(lctx, track.Artist, track.Title, track.Album)
		if err != nil {
			o.log.Debug("lyrics fetch failed", "track", label, "err", err)
			return
		}
		if text := result.Best(); text != "" {
			if err := o.writeLyrics(path, text); err != nil {
				o.log.Warn("lyrics write failed", "track", label, "err", err)
			}
		}
	}
}

func (o *Orchestrator) remainingDetail(ctx context.Context) string {
	return fmt.Sprintf("%d downloads remaining today", o.gate.Remaining(ctx))
}

// trackFileName builds the deterministic destination filename:
// "NN - Artist - Title.ext", sanitized for the filesystem.
func trackFileName(index int, track model.TrackDescriptor, ext string) string {
	base := utils.SanitizeFileName(strings.TrimSpace(track.Artist + " - " + track.Title))
	return fmt.Sprintf("%02d - %s.%s", index+1, base, ext)
}

func trackLabel(track model.TrackDescriptor) string {
	return strings.TrimSpace(track.Artist + " - " + track.Title)
}

// usableLocator reports whether a source URL points at a playable item.
// Page-level references (playlists, channels) need a search instead.
func usableLocator(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	p := u.Path
	if strings.Contains(p, "/playlist") || strings.Contains(p, "/channel/") || strings.HasPrefix(p, "/@") {
		return false
	}
	return true
}

// artworkSource picks the artwork URL: the job-wide override wins, then the
// (possibly enriched) descriptor's own URL.
func artworkSource(job model.Job, track model.TrackDescriptor) string {
	if job.ArtworkURL != "" {
		return job.ArtworkURL
	}
	return track.ArtworkURL
}

func descriptorFromInfo(info metadata.TrackInfo) model.TrackDescriptor {
	return model.TrackDescriptor{
		Title:       info.Title,
		Artist:      info.Artist,
		Album:       info.Album,
		Duration:    int(info.Duration.Seconds()),
		ArtworkURL:  info.ArtworkURL,
		ISRC:        info.ISRC,
		Year:        info.Year,
		TrackNumber: info.TrackNumber,
		Genre:       info.Genre,
	}
}

func tagInfoFrom(track model.TrackDescriptor) metadata.TrackInfo {
	return metadata.TrackInfo{
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		TrackNumber: track.TrackNumber,
		Year:        track.Year,
		Genre:       track.Genre,
		ISRC:        track.ISRC,
	}
}
