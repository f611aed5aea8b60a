package quota

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RESTStore talks to a remote quota service over JSON/HTTP. The service
// exposes one document per account:
//
//	GET   {base}/accounts/{id}/quota  -> 200 Record | 404
//	PATCH {base}/accounts/{id}/quota  -> 204, body carries only changed fields
type RESTStore struct {
	baseURL    string
	httpClient *http.Client
}

// NewRESTStore creates a store client for the given base URL.
func NewRESTStore(baseURL string) *RESTStore {
	return &RESTStore{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *RESTStore) recordURL(accountID string) string {
	return fmt.Sprintf("%s/accounts/%s/quota", s.baseURL, url.PathEscape(accountID))
}

// Read fetches the account's record, returning (nil, nil) on 404.
func (s *RESTStore) Read(ctx context.Context, accountID string) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.recordURL(accountID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota read request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quota read request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("quota read returned %d: %s", resp.StatusCode, body)
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode quota record: %w", err)
	}
	return &rec, nil
}

// Apply PATCHes the non-nil fields of m onto the account's record.
func (s *RESTStore) Apply(ctx context.Context, accountID string, m Mutation) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal quota mutation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.recordURL(accountID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create quota write request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("quota write request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("quota write returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
