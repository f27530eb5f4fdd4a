package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"mark-risk-eval/internal/scoring"
)

// Config drives reverse-image-search client behaviour.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	CacheTTL   time.Duration
	MaxResults int
}

// ErrMissingCredentials is returned when the client cannot authenticate.
var ErrMissingCredentials = errors.New("image search client missing api key")

// Client performs reverse image lookups with basic caching. Responses are
// cached by image URL for the configured TTL so repeated evaluations of the
// same product do not burn API quota.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxResults int
	cacheTTL   time.Duration
	cache      sync.Map // map[string]cacheEntry
}

type cacheEntry struct {
	at      time.Time
	summary scoring.ImageSearchSummary
}

// NewClient constructs a reverse-image-search client if configuration is
// valid.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingCredentials
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://serpapi.com/search.json"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 25
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		cacheTTL:   ttl,
	}, nil
}

// Reverse looks the image up and summarizes hits, exact copies, and suspected
// authors for scoring.
func (c *Client) Reverse(ctx context.Context, imageURL string) (scoring.ImageSearchSummary, error) {
	if c == nil {
		return scoring.ImageSearchSummary{}, errors.New("image search client is nil")
	}

	key := strings.TrimSpace(imageURL)
	if key == "" {
		return scoring.ImageSearchSummary{}, errors.New("image url is empty")
	}

	if entry, ok := c.cache.Load(key); ok {
		cached := entry.(cacheEntry)
		if time.Since(cached.at) < c.cacheTTL {
			return cached.summary, nil
		}
		c.cache.Delete(key)
	}

	summary, err := c.performRequest(ctx, key)
	if err != nil {
		return scoring.ImageSearchSummary{}, err
	}

	c.cache.Store(key, cacheEntry{at: time.Now(), summary: summary})
	return summary, nil
}

func (c *Client) performRequest(ctx context.Context, imageURL string) (scoring.ImageSearchSummary, error) {
	params := url.Values{}
	params.Set("engine", "google_reverse_image")
	params.Set("image_url", imageURL)
	params.Set("num", fmt.Sprintf("%d", c.maxResults))
	params.Set("api_key", c.apiKey)

	endpoint := c.baseURL
	if strings.Contains(endpoint, "?") {
		endpoint = endpoint + "&" + params.Encode()
	} else {
		endpoint = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return scoring.ImageSearchSummary{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return scoring.ImageSearchSummary{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// back off for 5 seconds and retry once
		select {
		case <-ctx.Done():
			return scoring.ImageSearchSummary{}, ctx.Err()
		case <-time.After(5 * time.Second):
		}
		resp.Body.Close()
		retryReq, retryErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if retryErr != nil {
			return scoring.ImageSearchSummary{}, retryErr
		}
		retryReq.Header = req.Header.Clone()
		resp, err = c.httpClient.Do(retryReq)
		if err != nil {
			return scoring.ImageSearchSummary{}, err
		}
		defer resp.Body.Close()
	}

	if resp.StatusCode != http.StatusOK {
		return scoring.ImageSearchSummary{}, fmt.Errorf("image search api status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return scoring.ImageSearchSummary{}, fmt.Errorf("decode image search response: %w", err)
	}

	summary := scoring.ImageSearchSummary{
		Source:       "google reverse image",
		TotalResults: payload.SearchInformation.TotalResults,
		ExactMatches: len(payload.ImageSources),
		Checked:      true,
	}
	if summary.TotalResults == 0 {
		summary.TotalResults = len(payload.ImageResults)
	}

	authors := make(map[string]struct{})
	for _, item := range payload.ImageResults {
		author := strings.TrimSpace(item.Author)
		if author == "" {
			author = strings.TrimSpace(item.Source)
		}
		if author == "" {
			continue
		}
		if _, ok := authors[author]; ok {
			continue
		}
		authors[author] = struct{}{}
		summary.PotentialAuthors = append(summary.PotentialAuthors, author)
	}
	for _, src := range payload.ImageSources {
		if link := strings.TrimSpace(src.Link); link != "" {
			summary.KnownSources = append(summary.KnownSources, link)
		}
	}
	return summary, nil
}

type searchResponse struct {
	SearchInformation searchInformation `json:"search_information"`
	ImageResults      []imageResult     `json:"image_results"`
	ImageSources      []imageSource     `json:"image_sources"`
}

type searchInformation struct {
	TotalResults int `json:"total_results"`
}

type imageResult struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Source string `json:"source"`
	Author string `json:"author"`
}

type imageSource struct {
	Link   string `json:"link"`
	Source string `json:"source"`
}
