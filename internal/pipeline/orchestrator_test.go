package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tunegrab/internal/config"
	"tunegrab/internal/fetch"
	"tunegrab/internal/logging"
	"tunegrab/internal/metadata"
	"tunegrab/internal/model"
	"tunegrab/internal/quota"
)

type fakeGate struct {
	mu        sync.Mutex
	banned    bool
	remaining int
	usages    []quota.UsageKind

	// banAfterUsages flips banned once this many usages are recorded.
	banAfterUsages int
}

func (g *fakeGate) IsBanned(_ context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.banned
}

func (g *fakeGate) Remaining(_ context.Context) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.banned {
		return 0
	}
	return g.remaining
}

func (g *fakeGate) RecordUsage(_ context.Context, kind quota.UsageKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.usages = append(g.usages, kind)
	g.remaining--
	if g.banAfterUsages > 0 && len(g.usages) >= g.banAfterUsages {
		g.banned = true
	}
}

func (g *fakeGate) usageCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.usages)
}

type fakeEngine struct {
	mu         sync.Mutex
	fetchErrs  map[string]error // keyed by locator
	candidates []model.SearchCandidate
	searchErr  error
	fetched    []string
	searched   []string
}

func (e *fakeEngine) Fetch(_ context.Context, locator, destPath string, onProgress fetch.ProgressFunc) (model.DownloadResult, error) {
	e.mu.Lock()
	e.fetched = append(e.fetched, locator)
	err := e.fetchErrs[locator]
	e.mu.Unlock()
	if err != nil {
		return model.DownloadResult{}, err
	}
	if onProgress != nil {
		onProgress(100)
	}
	data := make([]byte, 64)
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return model.DownloadResult{}, err
	}
	return model.DownloadResult{OK: true, Path: destPath, Bytes: int64(len(data))}, nil
}

func (e *fakeEngine) Search(_ context.Context, query string) ([]model.SearchCandidate, error) {
	e.mu.Lock()
	e.searched = append(e.searched, query)
	e.mu.Unlock()
	return e.candidates, e.searchErr
}

type fakeEnricher struct {
	info metadata.TrackInfo
	ok   bool
}

func (f *fakeEnricher) BestMatch(_ context.Context, _, _ string) (metadata.TrackInfo, bool) {
	return f.info, f.ok
}

func newTestOrchestrator(t *testing.T, g *fakeGate, e *fakeEngine) *Orchestrator {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	o := New(cfg, g, e, nil, nil, logging.Discard())
	o.settleDelay = time.Millisecond
	o.clearedDelay = time.Millisecond
	o.writeTags = func(string, metadata.TrackInfo) error { return nil }
	o.writeArtwork = func(string, []byte) error { return nil }
	o.writeLyrics = func(string, string) error { return nil }
	o.fetchArtwork = func(context.Context, string) ([]byte, error) { return []byte("img"), nil }
	return o
}

func collect(ch <-chan model.Event) []model.Event {
	var events []model.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func trackURL(n int) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=video%d", n)
}

func TestRunZeroTracks(t *testing.T) {
	g := &fakeGate{remaining: 50}
	o := newTestOrchestrator(t, g, &fakeEngine{})

	events := collect(o.Run(context.Background(), model.Job{Folder: "empty"}))
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d: %v", len(events), events)
	}
	if events[0].Status != model.StatusDone || events[0].Total != 0 {
		t.Errorf("unexpected completion event: %+v", events[0])
	}
}

func TestRunDownloadsAllTracks(t *testing.T) {
	g := &fakeGate{remaining: 50}
	e := &fakeEngine{}
	o := newTestOrchestrator(t, g, e)

	job := model.Job{
		Folder: "mix",
		Tracks: []model.TrackDescriptor{
			{Title: "One", Artist: "A", SourceURL: trackURL(1)},
			{Title: "Two", Artist: "B", SourceURL: trackURL(2)},
		},
	}
	events := collect(o.Run(context.Background(), job))

	// 2 track events + done + cleared
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %v", len(events), events)
	}
	if events[0].Completed != 1 || events[0].Status != model.StatusDownloading {
		t.Errorf("first event: %+v", events[0])
	}
	if events[1].Completed != 2 {
		t.Errorf("second event: %+v", events[1])
	}
	if events[2].Status != model.StatusDone {
		t.Errorf("third event: %+v", events[2])
	}
	if events[3].Status != model.StatusCleared {
		t.Errorf("fourth event: %+v", events[3])
	}
	if g.usageCount() != 2 {
		t.Errorf("expected 2 quota charges, got %d", g.usageCount())
	}
}

func TestRunEventsMonotonic(t *testing.T) {
	g := &fakeGate{remaining: 50}
	e := &fakeEngine{fetchErrs: map[string]error{trackURL(2): fmt.Errorf("boom")}}
	o := newTestOrchestrator(t, g, e)

	job := model.Job{
		Folder: "mix",
		Tracks: []model.TrackDescriptor{
			{Title: "One", Artist: "A", SourceURL: trackURL(1)},
			{Title: "Two", Artist: "B", SourceURL: trackURL(2)},
			{Title: "Three", Artist: "C", SourceURL: trackURL(3)},
		},
	}
	events := collect(o.Run(context.Background(), job))

	last := -1
	for _, ev := range events {
		if ev.Completed < last {
			t.Fatalf("completed count decreased: %v", events)
		}
		last = ev.Completed
	}
}

func TestRunTrackFailureDoesNotAbort(t *testing.T) {
	g := &fakeGate{remaining: 50}
	e := &fakeEngine{fetchErrs: map[string]error{trackURL(1): fmt.Errorf("unavailable")}}
	o := newTestOrchestrator(t, g, e)

	job := model.Job{
		Folder: "mix",
		Tracks: []model.TrackDescriptor{
			{Title: "One", Artist: "A", SourceURL: trackURL(1)},
			{Title: "Two", Artist: "B", SourceURL: trackURL(2)},
		},
	}
	events := collect(o.Run(context.Background(), job))

	if events[0].Status != model.StatusFailed {
		t.Errorf("first event: %+v", events[0])
	}
	if events[1].Status != model.StatusDownloading {
		t.Errorf("second event: %+v", events[1])
	}
	// Only the successful track consumes quota.
	if g.usageCount() != 1 {
		t.Errorf("expected 1 quota charge, got %d", g.usageCount())
	}
}

func TestRunBannedAbortsImmediately(t *testing.T) {
	g := &fakeGate{banned: true, remaining: 50}
	o := newTestOrchestrator(t, g, &fakeEngine{})

	job := model.Job{
		Folder: "mix",
		Tracks: []model.TrackDescriptor{{Title: "One", Artist: "A", SourceURL: trackURL(1)}},
	}
	events := collect(o.Run(context.Background(), job))

	if len(events) != 1 || events[0].Status != model.StatusSuspended {
		t.Fatalf("expected single suspended event, got %v", events)
	}
	if g.usageCount() != 0 {
		t.Error("no quota should be charged on a banned account")
	}
}

func TestRunBanObservedMidJob(t *testing.T) {
	g := &fakeGate{remaining: 50, banAfterUsages: 1}
	o := newTestOrchestrator(t, g, &fakeEngine{})

	job := model.Job{
		Folder: "mix",
		Tracks: []model.TrackDescriptor{
			{Title: "One", Artist: "A", SourceURL: trackURL(1)},
			{Title: "Two", Artist: "B", SourceURL: trackURL(2)},
		},
	}
	events := collect(o.Run(context.Background(), job))

	last := events[len(events)-1]
	if last.Status != model.StatusSuspended {
		t.Fatalf("expected suspended abort after first track, got %v", events)
	}
	if last.Completed != 1 {
		t.Errorf("Completed = %d, want 1", last.Completed)
	}
}

func TestRunQuotaExhaustedAborts(t *testing.T) {
	g := &fakeGate{remaining: 1}
	o := newTestOrchestrator(t, g, &fakeEngine{})

	job := model.Job{
		Folder: "mix",
		Tracks: []model.TrackDescriptor{
			{Title: "One", Artist: "A", SourceURL: trackURL(1)},
			{Title: "Two", Artist: "B", SourceURL: trackURL(2)},
			{Title: "Three", Artist: "C", SourceURL: trackURL(3)},
		},
	}
	events := collect(o.Run(context.Background(), job))

	last := events[len(events)-1]
	if last.Status != model.StatusLimitReached {
		t.Fatalf("expected limit reached abort, got %v", events)
	}
	if last.Completed != 1 {
		t.Errorf("Completed = %d, want 1", last.Completed)
	}
}

func TestRunSkipsExistingFileWithoutQuotaCharge(t *testing.T) {
	g := &fakeGate{remaining: 50}
	e := &fakeEngine{}
	o := newTestOrchestrator(t, g, e)

	track := model.TrackDescriptor{Title: "One", Artist: "A", SourceURL: trackURL(1)}
	destDir := filepath.Join(o.cfg.OutputDir, "mix")
	if err := os.MkdirAll(destDir, 0755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(destDir, trackFileName(0, track, o.cfg.AudioFormat))
	if err := os.WriteFile(existing, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}

	job := model.Job{Folder: "mix", Tracks: []model.TrackDescriptor{track}}
	events := collect(o.Run(context.Background(), job))

	if events[0].Status != model.StatusSkipped {
		t.Errorf("first event: %+v", events[0])
	}
	if events[0].Completed != 1 {
		t.Errorf("skipped track still counts as completed, got %d", events[0].Completed)
	}
	if g.usageCount() != 0 {
		t.Error("skip must not consume quota")
	}
	if len(e.fetched) != 0 {
		t.Error("skip must not fetch")
	}
}

func TestRunSecondJobIsNoOp(t *testing.T) {
	g := &fakeGate{remaining: 50}
	o := newTestOrchestrator(t, g, &fakeEngine{})
	o.clearedDelay = 200 * time.Millisecond

	job := model.Job{
		Folder: "mix",
		Tracks: []model.TrackDescriptor{{Title: "One", Artist: "A", SourceURL: trackURL(1)}},
	}

	first := o.Run(context.Background(), job)

	// Wait for the first track event so the job is definitely active.
	<-first

	second := o.Run(context.Background(), job)
	if events := collect(second); len(events) != 0 {
		t.Errorf("second Run should return a closed, empty channel, got %v", events)
	}

	collect(first)
}

func TestRunSearchesWhenNoDirectLocator(t *testing.T) {
	g := &fakeGate{remaining: 50}
	e := &fakeEngine{
		candidates: []model.SearchCandidate{
			{ID: "v1", Title: "One", ArtistLabel: "A", Duration: "3:00", SourceURL: trackURL(9)},
		},
	}
	o := newTestOrchestrator(t, g, e)

	job := model.Job{
		Folder: "mix",
		Tracks: []model.TrackDescriptor{{Title: "One", Artist: "A", Duration: 180}},
	}
	events := collect(o.Run(context.Background(), job))

	if events[0].Status != model.StatusDownloading {
		t.Fatalf("first event: %+v", events[0])
	}
	if len(e.searched) != 1 || e.searched[0] != "A One" {
		t.Errorf("searched = %v, want [\"A One\"]", e.searched)
	}
	if len(e.fetched) != 1 || e.fetched[0] != trackURL(9) {
		t.Errorf("fetched = %v, want the selected candidate", e.fetched)
	}
}

func TestRunPlaylistLocatorTriggersSearch(t *testing.T) {
	g := &fakeGate{remaining: 50}
	e := &fakeEngine{
		candidates: []model.SearchCandidate{
			{ID: "v1", Title: "One", ArtistLabel: "A", Duration: "3:00", SourceURL: trackURL(9)},
		},
	}
	o := newTestOrchestrator(t, g, e)

	job := model.Job{
		Folder: "mix",
		Tracks: []model.TrackDescriptor{{
			Title:     "One",
			Artist:    "A",
			Duration:  180,
			SourceURL: "https://www.youtube.com/playlist?list=PL123",
		}},
	}
	collect(o.Run(context.Background(), job))

	if len(e.searched) != 1 {
		t.Errorf("playlist link should not be fetched verbatim, searched = %v", e.searched)
	}
}

func TestRunEnrichmentMergesMissingFieldsOnly(t *testing.T) {
	g := &fakeGate{remaining: 50}
	e := &fakeEngine{}
	o := newTestOrchestrator(t, g, e)

	var tagged metadata.TrackInfo
	o.writeTags = func(_ string, info metadata.TrackInfo) error {
		tagged = info
		return nil
	}
	o.enricher = &fakeEnricher{
		info: metadata.TrackInfo{
			Title:       "Wrong Title",
			Album:       "Found Album",
			Year:        1999,
			TrackNumber: 7,
		},
		ok: true,
	}

	job := model.Job{
		Folder: "mix",
		Tracks: []model.TrackDescriptor{{
			Title:     "One",
			Artist:    "A",
			Album:     "Original Album",
			SourceURL: trackURL(1),
		}},
	}
	collect(o.Run(context.Background(), job))

	if tagged.Album != "Original Album" {
		t.Errorf("Album = %q, existing field must not be overwritten", tagged.Album)
	}
	if tagged.Year != 1999 || tagged.TrackNumber != 7 {
		t.Errorf("missing fields not merged: %+v", tagged)
	}
	if tagged.Title != "One" {
		t.Errorf("Title = %q, want original", tagged.Title)
	}
}

func TestUsableLocator(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "watch url", url: "https://www.youtube.com/watch?v=abc", want: true},
		{name: "short url", url: "https://youtu.be/abc", want: true},
		{name: "empty", url: "", want: false},
		{name: "playlist page", url: "https://www.youtube.com/playlist?list=PL1", want: false},
		{name: "channel page", url: "https://www.youtube.com/channel/UC123", want: false},
		{name: "handle page", url: "https://www.youtube.com/@someone", want: false},
		{name: "not a url", url: "just some text", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := usableLocator(tt.url); got != tt.want {
				t.Errorf("usableLocator(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestTrackFileName(t *testing.T) {
	track := model.TrackDescriptor{Title: "What: A Song?", Artist: "AC/DC"}
	got := trackFileName(4, track, "m4a")
	want := "05 - AC_DC - What_ A Song_.m4a"
	if got != want {
		t.Errorf("trackFileName = %q, want %q", got, want)
	}
}
