package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tunegrab/internal/model"
)

// searchClient queries an Invidious-compatible JSON search API. It exists
// because the stream strategy has no native text search.
type searchClient struct {
	httpClient *http.Client
	baseURL    string
}

func newSearchClient(baseURL string) *searchClient {
	return &searchClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

// Search queries the video search endpoint and maps results to candidates,
// preserving the API's relevance order.
func (c *searchClient) Search(ctx context.Context, query string, limit int) ([]model.SearchCandidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "video")

	reqURL := fmt.Sprintf("%s/api/v1/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", "tunegrab/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, body)
	}

	var items []searchItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	var candidates []model.SearchCandidate
	for _, item := range items {
		if item.VideoID == "" {
			continue
		}
		c := model.SearchCandidate{
			ID:          item.VideoID,
			Title:       item.Title,
			ArtistLabel: item.Author,
			Duration:    fmt.Sprintf("%d", item.LengthSeconds),
			SourceURL:   "https://www.youtube.com/watch?v=" + item.VideoID,
		}
		if len(item.VideoThumbnails) > 0 {
			c.ThumbnailURL = item.VideoThumbnails[0].URL
		}
		candidates = append(candidates, c)
		if len(candidates) >= limit {
			break
		}
	}
	return candidates, nil
}

// Invidious search API response types

type searchItem struct {
	VideoID         string      `json:"videoId"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	LengthSeconds   int         `json:"lengthSeconds"`
	VideoThumbnails []thumbnail `json:"videoThumbnails"`
}

type thumbnail struct {
	URL string `json:"url"`
}
