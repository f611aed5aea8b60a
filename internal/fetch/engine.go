// Package fetch downloads a track's audio to a local file. Two strategies
// exist behind one interface: spawning an external downloader binary and
// streaming directly over HTTP. The engine picks the strategy at construction
// time based on what the host machine has available, and falls back from the
// process strategy to the stream strategy when the former fails.
package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"tunegrab/internal/config"
	"tunegrab/internal/model"
)

// minValidSize is the smallest output file accepted as real audio. Error
// pages and truncated streams come in well under this.
const minValidSize = 10 * 1024

// searchLimit bounds how many candidates a search returns.
const searchLimit = 10

// ProgressFunc receives download progress as a percentage in [0, 100].
type ProgressFunc func(pct float64)

// strategy is one way of turning a locator into an audio file on disk.
type strategy interface {
	name() string
	fetch(ctx context.Context, locator, destPath string, onProgress ProgressFunc) error
	search(ctx context.Context, query string, limit int) ([]model.SearchCandidate, error)
}

// Engine resolves and downloads audio using whichever strategies the host
// supports. primary is always set; fallback is nil when only one strategy
// is available.
type Engine struct {
	primary  strategy
	fallback strategy
	log      *log.Logger
}

// NewEngine builds an Engine from the config. When the configured downloader
// binary is on PATH it becomes the primary strategy with streaming as
// fallback; otherwise streaming is the only strategy.
func NewEngine(cfg config.Config, logger *log.Logger) *Engine {
	stream := newStreamStrategy(cfg.SearchAPIURL)

	binPath, err := exec.LookPath(cfg.DownloaderPath)
	if err != nil {
		logger.Debug("downloader binary not found, using stream strategy only", "binary", cfg.DownloaderPath)
		return &Engine{primary: stream, log: logger}
	}

	proc := newProcessStrategy(binPath, cfg.AudioFormat, cfg.FFmpegDir)
	return &Engine{primary: proc, fallback: stream, log: logger}
}

// Fetch downloads the audio at locator to destPath, reporting progress
// through onProgress. A primary-strategy failure triggers one full retry on
// the fallback strategy; there is no retry beyond that.
func (e *Engine) Fetch(ctx context.Context, locator, destPath string, onProgress ProgressFunc) (model.DownloadResult, error) {
	result, err := e.fetchWith(ctx, e.primary, locator, destPath, onProgress)
	if err == nil {
		return result, nil
	}
	if e.fallback == nil || ctx.Err() != nil {
		return model.DownloadResult{}, err
	}

	e.log.Warn("fetch strategy failed, falling back",
		"from", e.primary.name(), "to", e.fallback.name(), "err", err)

	result, err = e.fetchWith(ctx, e.fallback, locator, destPath, onProgress)
	if err != nil {
		return model.DownloadResult{}, err
	}
	return result, nil
}

// fetchWith runs one strategy attempt and verifies its output. Every failure
// path removes whatever partial file the attempt left behind.
func (e *Engine) fetchWith(ctx context.Context, s strategy, locator, destPath string, onProgress ProgressFunc) (model.DownloadResult, error) {
	if err := s.fetch(ctx, locator, destPath, onProgress); err != nil {
		removePartial(destPath)
		return model.DownloadResult{}, fmt.Errorf("%s fetch failed: %w", s.name(), err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return model.DownloadResult{}, fmt.Errorf("%s fetch produced no output file: %w", s.name(), err)
	}
	if info.Size() < minValidSize {
		removePartial(destPath)
		return model.DownloadResult{}, fmt.Errorf("%s fetch produced %d bytes, below minimum of %d", s.name(), info.Size(), minValidSize)
	}

	return model.DownloadResult{OK: true, Path: destPath, Bytes: info.Size()}, nil
}

// Search returns up to searchLimit candidates for a free-text query, in the
// source's relevance order.
func (e *Engine) Search(ctx context.Context, query string) ([]model.SearchCandidate, error) {
	candidates, err := e.primary.search(ctx, query, searchLimit)
	if err == nil {
		return candidates, nil
	}
	if e.fallback == nil || ctx.Err() != nil {
		return nil, err
	}

	e.log.Warn("search strategy failed, falling back",
		"from", e.primary.name(), "to", e.fallback.name(), "err", err)
	return e.fallback.search(ctx, query, searchLimit)
}

func removePartial(path string) {
	if _, err := os.Stat(path); err == nil {
		os.Remove(path)
	}
}

// latch makes a completion callback single-fire. Both the output scanner and
// the process-exit path can race to signal completion; only the first wins.
type latch struct {
	fired atomic.Bool
}

// fire runs fn if the latch has not fired yet and reports whether it did.
func (l *latch) fire(fn func()) bool {
	if !l.fired.CompareAndSwap(false, true) {
		return false
	}
	if fn != nil {
		fn()
	}
	return true
}
