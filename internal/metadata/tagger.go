package metadata

import (
	"fmt"
	"strconv"

	"go.senan.xyz/taglib"
)

// WriteTags writes the given TrackInfo metadata to an audio file.
func WriteTags(path string, info TrackInfo) error {
	tags := make(map[string][]string)

	if info.Title != "" {
		tags[taglib.Title] = []string{info.Title}
	}
	if info.Artist != "" {
		tags[taglib.Artist] = []string{info.Artist}
	}
	if info.Album != "" {
		tags[taglib.Album] = []string{info.Album}
	}
	if info.AlbumArtist != "" {
		tags[taglib.AlbumArtist] = []string{info.AlbumArtist}
	}
	if info.TrackNumber > 0 {
		tags[taglib.TrackNumber] = []string{strconv.Itoa(info.TrackNumber)}
	}
	if info.DiscNumber > 0 {
		tags[taglib.DiscNumber] = []string{strconv.Itoa(info.DiscNumber)}
	}
	if info.ReleaseDate != "" {
		tags[taglib.Date] = []string{info.ReleaseDate}
	} else if info.Year > 0 {
		tags[taglib.Date] = []string{strconv.Itoa(info.Year)}
	}
	if info.Genre != "" {
		tags[taglib.Genre] = []string{info.Genre}
	}
	if info.ISRC != "" {
		tags[taglib.ISRC] = []string{info.ISRC}
	}

	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return fmt.Errorf("failed to write tags to %s: %w", path, err)
	}
	return nil
}

// WriteArtwork embeds artwork image data into an audio file.
func WriteArtwork(path string, imageData []byte) error {
	if len(imageData) == 0 {
		return nil
	}
	if err := taglib.WriteImage(path, imageData); err != nil {
		return fmt.Errorf("failed to write artwork to %s: %w", path, err)
	}
	return nil
}

// WriteLyrics embeds lyrics text into an audio file. Synced (LRC) lyrics are
// preferred by players, so callers should pass those when available.
func WriteLyrics(path, text string) error {
	if text == "" {
		return nil
	}
	tags := map[string][]string{taglib.Lyrics: {text}}
	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return fmt.Errorf("failed to write lyrics to %s: %w", path, err)
	}
	return nil
}
