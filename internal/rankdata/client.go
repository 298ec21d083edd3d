// Package rankdata fetches the keywords an Amazon product ranks for from the
// DataForSEO Labs API.
package rankdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sellerdesk/internal/metrics"
	"sellerdesk/internal/retry"
)

const (
	defaultBaseURL = "https://api.dataforseo.com"
	rankedPath     = "/v3/dataforseo_labs/amazon/ranked_keywords/live"

	// DefaultLimit is the number of ranked keywords requested per ASIN.
	DefaultLimit = 100
)

// RankedItem is one keyword an ASIN ranks for.
type RankedItem struct {
	Keyword      string `json:"keyword"`
	SearchVolume int    `json:"search_volume"`
	RankAbsolute int    `json:"rank_absolute"`
}

// Fetcher returns ranked keywords for an ASIN.
type Fetcher interface {
	FetchRankedKeywords(ctx context.Context, asin, marketplace string, limit int) ([]RankedItem, error)
}

// Options configures Client.
type Options struct {
	BaseURL    string
	Login      string
	Password   string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to DataForSEO with basic auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	login      string
	password   string
	maxRetries int
}

// NewClient creates a rank-data client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		login:      opts.Login,
		password:   opts.Password,
		maxRetries: opts.MaxRetries,
	}
}

type taskRequest struct {
	ASIN         string `json:"asin"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Limit        int    `json:"limit"`
}

type rankedResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
		Result        []struct {
			Items []struct {
				KeywordData struct {
					Keyword     string `json:"keyword"`
					KeywordInfo struct {
						SearchVolume int `json:"search_volume"`
					} `json:"keyword_info"`
				} `json:"keyword_data"`
				RankedSerpElement struct {
					SerpItem struct {
						RankAbsolute int `json:"rank_absolute"`
					} `json:"serp_item"`
				} `json:"ranked_serp_element"`
			} `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

// FetchRankedKeywords returns up to limit keywords asin ranks for in the given
// marketplace.
func (c *Client) FetchRankedKeywords(ctx context.Context, asin, marketplace string, limit int) ([]RankedItem, error) {
	asin = strings.ToUpper(strings.TrimSpace(asin))
	if asin == "" {
		return nil, fmt.Errorf("asin is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	m := MarketplaceFor(marketplace)
	body := []taskRequest{{
		ASIN:         asin,
		LocationCode: m.LocationCode,
		LanguageCode: m.LanguageCode,
		Limit:        limit,
	}}

	var items []RankedItem
	err := retry.Do(ctx, retry.Options{MaxRetries: c.maxRetries, Jitter: 0.25}, func(int) error {
		var resp rankedResponse
		if err := c.post(ctx, rankedPath, body, &resp); err != nil {
			return err
		}
		got, err := flatten(resp)
		if err != nil {
			return err
		}
		items = got
		return nil
	})
	metrics.RecordRankFetch(err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ranked keywords for %s: %w", asin, err)
	}
	return items, nil
}

func flatten(resp rankedResponse) ([]RankedItem, error) {
	if resp.StatusCode != 0 && resp.StatusCode != 20000 {
		return nil, fmt.Errorf("dataforseo status %d: %s", resp.StatusCode, resp.StatusMessage)
	}
	var out []RankedItem
	for _, task := range resp.Tasks {
		if task.StatusCode != 0 && task.StatusCode != 20000 {
			return nil, fmt.Errorf("dataforseo task status %d: %s", task.StatusCode, task.StatusMessage)
		}
		for _, result := range task.Result {
			for _, item := range result.Items {
				kw := strings.TrimSpace(item.KeywordData.Keyword)
				if kw == "" {
					continue
				}
				out = append(out, RankedItem{
					Keyword:      kw,
					SearchVolume: item.KeywordData.KeywordInfo.SearchVolume,
					RankAbsolute: item.RankedSerpElement.SerpItem.RankAbsolute,
				})
			}
		}
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.login, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > 500 {
			msg = msg[:500]
		}
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return retry.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
