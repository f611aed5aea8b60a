package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kkdai/youtube/v2"

	"tunegrab/internal/model"
)

// streamStrategy downloads audio directly over HTTP without any external
// binary. Container conversion is out of reach here, so the output keeps the
// source's native audio container.
type streamStrategy struct {
	client youtube.Client
	api    *searchClient
}

func newStreamStrategy(searchAPIURL string) *streamStrategy {
	return &streamStrategy{
		client: youtube.Client{},
		api:    newSearchClient(searchAPIURL),
	}
}

func (s *streamStrategy) name() string { return "stream" }

func (s *streamStrategy) fetch(ctx context.Context, locator, destPath string, onProgress ProgressFunc) error {
	video, err := s.client.GetVideoContext(ctx, locator)
	if err != nil {
		return fmt.Errorf("failed to resolve video: %w", err)
	}

	format := pickAudioFormat(video.Formats)
	if format == nil {
		return errors.New("no audio-only format available")
	}

	rc, size, err := s.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	pw := &progressWriter{total: size, onProgress: onProgress}
	if _, err := io.Copy(io.MultiWriter(out, pw), rc); err != nil {
		return fmt.Errorf("stream copy failed: %w", err)
	}
	return nil
}

func (s *streamStrategy) search(ctx context.Context, query string, limit int) ([]model.SearchCandidate, error) {
	return s.api.Search(ctx, query, limit)
}

// pickAudioFormat chooses an audio-only format, preferring audio/mp4 for
// the widest tagging support, else the highest bitrate available.
func pickAudioFormat(formats youtube.FormatList) *youtube.Format {
	audio := formats.Type("audio")
	if len(audio) == 0 {
		return nil
	}

	for i := range audio {
		if strings.HasPrefix(audio[i].MimeType, "audio/mp4") {
			return &audio[i]
		}
	}

	best := 0
	for i := range audio {
		if audio[i].Bitrate > audio[best].Bitrate {
			best = i
		}
	}
	return &audio[best]
}

// progressWriter converts a byte count into percentage callbacks.
type progressWriter struct {
	total      int64
	written    int64
	onProgress ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.onProgress != nil && w.total > 0 {
		pct := float64(w.written) / float64(w.total) * 100
		if pct > 100 {
			pct = 100
		}
		w.onProgress(pct)
	}
	return len(p), nil
}
