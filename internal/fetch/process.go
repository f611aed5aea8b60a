package fetch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"tunegrab/internal/model"
)

// progressPattern matches the percentage token in downloader output lines
// like "[download]  42.3% of 3.52MiB at 1.21MiB/s".
var progressPattern = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)%`)

// searchPrintFields is the pipe-delimited field template used for text
// search. The field count must match parseSearchLine.
const searchPrintFields = "%(id)s|%(title)s|%(channel)s|%(duration_string)s|%(webpage_url)s|%(thumbnail)s"

// processStrategy shells out to an external downloader binary (yt-dlp or
// compatible) that handles extraction and audio conversion itself.
type processStrategy struct {
	binPath     string
	audioFormat string
	ffmpegDir   string
}

func newProcessStrategy(binPath, audioFormat, ffmpegDir string) *processStrategy {
	return &processStrategy{
		binPath:     binPath,
		audioFormat: audioFormat,
		ffmpegDir:   ffmpegDir,
	}
}

func (s *processStrategy) name() string { return "process" }

func (s *processStrategy) fetch(ctx context.Context, locator, destPath string, onProgress ProgressFunc) error {
	args := []string{
		"--extract-audio",
		"--audio-format", s.audioFormat,
		"-f", "bestaudio[ext=m4a]/bestaudio/best",
		"--newline",
		"--no-part",
		"--no-playlist",
		"-o", destPath,
	}
	if s.ffmpegDir != "" {
		args = append(args, "--ffmpeg-location", s.ffmpegDir)
	}
	args = append(args, locator)

	cmd := exec.CommandContext(ctx, s.binPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open downloader stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start downloader: %w", err)
	}

	// The scanner and the process exit both signal completion; the latch
	// makes sure the 100% callback fires exactly once.
	var done latch
	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			pct, ok := parseProgressLine(scanner.Text())
			if !ok {
				continue
			}
			if pct >= 100 {
				done.fire(func() { reportProgress(onProgress, 100) })
				continue
			}
			if !done.fired.Load() {
				reportProgress(onProgress, pct)
			}
		}
	}()

	waitErr := cmd.Wait()
	<-scanDone

	if waitErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("downloader exited with error: %w\nDetails: %s", waitErr, stderr.String())
	}

	// Exit code zero still needs the file to exist; a post-processing step
	// can fail without changing the exit status on some builds.
	if _, err := os.Stat(destPath); err != nil {
		return fmt.Errorf("downloader reported success but produced no file: %w", err)
	}

	done.fire(func() { reportProgress(onProgress, 100) })
	return nil
}

func (s *processStrategy) search(ctx context.Context, query string, limit int) ([]model.SearchCandidate, error) {
	cmd := exec.CommandContext(ctx, s.binPath,
		"--no-download",
		"--print", searchPrintFields,
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("search failed: %w\nDetails: %s", err, stderr.String())
	}

	var candidates []model.SearchCandidate
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		if c, ok := parseSearchLine(scanner.Text()); ok {
			candidates = append(candidates, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading search output: %w", err)
	}
	return candidates, nil
}

// parseProgressLine extracts a percentage from one line of downloader output.
func parseProgressLine(line string) (float64, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}

// parseSearchLine splits one pipe-delimited print line into a candidate.
// Lines with the wrong field count or an empty ID are skipped.
func parseSearchLine(line string) (model.SearchCandidate, bool) {
	fields := strings.Split(line, "|")
	if len(fields) != 6 || fields[0] == "" {
		return model.SearchCandidate{}, false
	}
	return model.SearchCandidate{
		ID:           fields[0],
		Title:        fields[1],
		ArtistLabel:  fields[2],
		Duration:     fields[3],
		SourceURL:    fields[4],
		ThumbnailURL: fields[5],
	}, true
}

func reportProgress(onProgress ProgressFunc, pct float64) {
	if onProgress != nil {
		onProgress(pct)
	}
}
