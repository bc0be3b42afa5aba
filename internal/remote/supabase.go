package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseClient upserts through the PostgREST endpoint of a Supabase project.
type SupabaseClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewSupabaseClient returns a client for the project at baseURL.
func NewSupabaseClient(baseURL, apiKey string) (*SupabaseClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("supabase url is empty")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("supabase api key is empty")
	}
	return &SupabaseClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Upsert posts the batch with merge-duplicates resolution on its conflict keys.
func (c *SupabaseClient) Upsert(ctx context.Context, b Batch) error {
	if b.Len == 0 {
		return nil
	}
	body, err := json.Marshal(b.Rows)
	if err != nil {
		return fmt.Errorf("failed to encode %s rows: %w", b.Table, err)
	}

	params := url.Values{}
	params.Set("on_conflict", strings.Join(b.ConflictKeys, ","))
	endpoint := c.baseURL + "/rest/v1/" + b.Table + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	return c.do(req)
}

// Ping issues a one-row read against the work table.
func (c *SupabaseClient) Ping(ctx context.Context) error {
	endpoint := c.baseURL + "/rest/v1/" + TableWork + "?select=date&limit=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *SupabaseClient) Close() error { return nil }

func (c *SupabaseClient) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *SupabaseClient) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("supabase api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
