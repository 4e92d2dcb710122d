package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"BookAnnotator/internal/ports"
)

const SearXNGName = "searxng"

// SearXNG queries a self-hosted SearXNG instance through its JSON API.
type SearXNG struct {
	client *http.Client
	opts   Options
}

var _ ports.SearchEngine = (*SearXNG)(nil)

// NewSearXNG builds a client for the instance at opts.Endpoint.
func NewSearXNG(client *http.Client, opts Options) *SearXNG {
	opts = opts.withDefaults("")
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &SearXNG{client: client, opts: opts}
}

// Name identifies the engine inside the registry.
func (s *SearXNG) Name() string {
	return SearXNGName
}

// Search returns result URLs in ranking order.
func (s *SearXNG) Search(ctx context.Context, query string) ([]string, error) {
	if s.opts.Endpoint == "" {
		return nil, fmt.Errorf("searxng endpoint is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	searchURL, err := buildSearchURL(strings.TrimSuffix(s.opts.Endpoint, "/")+"/search", query)
	if err != nil {
		return nil, err
	}
	searchURL += "&format=json"

	var payload struct {
		Results []struct {
			URL string `json:"url"`
		} `json:"results"`
	}
	if err := s.get(ctx, searchURL, &payload); err != nil {
		return nil, err
	}

	links := make([]string, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.URL != "" {
			links = append(links, r.URL)
		}
	}
	return links, nil
}

func (s *SearXNG) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept-Language", s.opts.AcceptLanguage)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("searxng error %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
