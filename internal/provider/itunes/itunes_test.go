package itunes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tunegrab/internal/metadata"
)

func TestSearch_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("media") != "music" || q.Get("entity") != "song" {
			t.Errorf("unexpected query params: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"resultCount": 1,
			"results": [{
				"trackName": "Blinding Lights",
				"artistName": "The Weeknd",
				"collectionName": "After Hours",
				"primaryGenreName": "Pop",
				"trackNumber": 9,
				"discNumber": 1,
				"trackTimeMillis": 200040,
				"artworkUrl100": "https://example.com/art/100x100bb.jpg",
				"releaseDate": "2020-03-20T12:00:00Z"
			}]
		}`))
	}))
	defer srv.Close()

	c := New()
	c.apiURL = srv.URL

	results, err := c.Search(context.Background(), metadata.SearchQuery{
		Title:  "Blinding Lights",
		Artist: "The Weeknd",
	})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.Title != "Blinding Lights" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Album != "After Hours" {
		t.Errorf("Album = %q", r.Album)
	}
	if r.Genre != "Pop" {
		t.Errorf("Genre = %q", r.Genre)
	}
	if r.TrackNumber != 9 {
		t.Errorf("TrackNumber = %d, want 9", r.TrackNumber)
	}
	if r.Year != 2020 {
		t.Errorf("Year = %d, want 2020", r.Year)
	}
	if r.ArtworkURL != "https://example.com/art/600x600bb.jpg" {
		t.Errorf("ArtworkURL = %q, want 600x600 upgrade", r.ArtworkURL)
	}
	if r.Duration != 200040*time.Millisecond {
		t.Errorf("Duration = %v", r.Duration)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := New()
	results, err := c.Search(context.Background(), metadata.SearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for empty query, got %v", results)
	}
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New()
	c.apiURL = srv.URL

	if _, err := c.Search(context.Background(), metadata.SearchQuery{Title: "test"}); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestBuildTerm(t *testing.T) {
	got := buildTerm(metadata.SearchQuery{Title: "Blinding Lights", Artist: "The Weeknd"})
	if got != "Blinding Lights The Weeknd" {
		t.Errorf("buildTerm() = %q", got)
	}
	if buildTerm(metadata.SearchQuery{}) != "" {
		t.Error("expected empty term for empty query")
	}
}
