package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
)

// RemoteProvider calls the scraper sidecar that owns the browser automation:
// GET {base}/crawl/{provider}?q=&max=
type RemoteProvider struct {
	source     model.Source
	baseURL    string
	httpClient *http.Client
}

func NewRemoteProvider(baseURL string, source model.Source, httpClient *http.Client) *RemoteProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &RemoteProvider{
		source:     source,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// RemoteProviders returns one sidecar-backed provider per source.
func RemoteProviders(cfg *config.CrawlConfig) []Provider {
	client := &http.Client{Timeout: 5 * time.Minute}
	providers := make([]Provider, 0, len(model.Sources()))
	for _, src := range model.Sources() {
		providers = append(providers, NewRemoteProvider(cfg.ScraperBaseURL, src, client))
	}
	return providers
}

func (p *RemoteProvider) Name() model.Source {
	return p.source
}

type remoteResponse struct {
	Reviews    []string        `json:"reviews"`
	StoreImage json.RawMessage `json:"store_image"` // 문자열 또는 배열
}

func (p *RemoteProvider) Crawl(ctx context.Context, query string, maxReviews int) (Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("max", strconv.Itoa(maxReviews))
	requestURL := fmt.Sprintf("%s/crawl/%s?%s", p.baseURL, p.source, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to call scraper: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("scraper returned status %d: %s", resp.StatusCode, string(body))
	}

	var out remoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, fmt.Errorf("failed to parse response: %w", err)
	}

	reviews := make([]string, 0, len(out.Reviews))
	for _, r := range out.Reviews {
		if r = strings.TrimSpace(r); r != "" {
			reviews = append(reviews, r)
		}
	}

	logger.Debug("Scraper responded", map[string]interface{}{
		"provider": p.source,
		"query":    query,
		"reviews":  len(reviews),
	})
	return Result{Reviews: reviews, Images: parseImages(out.StoreImage)}, nil
}

func parseImages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return nonEmpty(list)
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return nonEmpty([]string{single})
	}
	return nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
