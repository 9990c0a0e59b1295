package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/app/repository"
	"github.com/ikkim/lunchmap-backend/internal/crawler"
	"github.com/ikkim/lunchmap-backend/internal/db"
	"github.com/ikkim/lunchmap-backend/pkg/kakao"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupServiceDB(t *testing.T) (*gorm.DB, repository.StoreRepository, repository.ReviewRepository) {
	t.Helper()
	testDB, err := db.SetupTestDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB, repository.NewStoreRepository(testDB), repository.NewReviewRepository(testDB)
}

func testConfig() *config.Config {
	return &config.Config{
		Crawl: config.CrawlConfig{
			MaxReviews:      10,
			StoreWorkers:    5,
			ProviderWorkers: 10,
			StaleDays:       30,
		},
		Search: config.SearchConfig{TopN: 5, RadiusM: 1000},
		LLM:    config.LLMConfig{MaxReviewsPerStore: 60, MaxWorkers: 6},
	}
}

func strPtr(s string) *string { return &s }

// fakeProvider returns canned reviews per query, or fails for queries in failOn.
type fakeProvider struct {
	source  model.Source
	reviews func(query string) []string
	images  []string
	failOn  map[string]bool
	delay   time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (p *fakeProvider) Name() model.Source { return p.source }

func (p *fakeProvider) Crawl(ctx context.Context, query string, maxReviews int) (crawler.Result, error) {
	p.calls.Add(1)
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	if p.failOn[query] {
		return crawler.Result{}, errors.New("provider unavailable")
	}
	var reviews []string
	if p.reviews != nil {
		reviews = p.reviews(query)
	}
	if len(reviews) > maxReviews {
		reviews = reviews[:maxReviews]
	}
	return crawler.Result{Reviews: reviews, Images: p.images}, nil
}

type fakeSearcher struct {
	places []kakao.Place
	err    error

	mu   sync.Mutex
	reqs []kakao.KeywordRequest
}

func (f *fakeSearcher) SearchKeyword(_ context.Context, req kakao.KeywordRequest) ([]kakao.Place, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.places, f.err
}

// fakeLLM answers with reply(prompt); calls is counted.
type fakeLLM struct {
	reply func(prompt string) (string, error)
	calls atomic.Int32
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	if f.reply == nil {
		return `{"one_liner": "무난한 맛집", "rating": 4.2, "complain": ["웨이팅"]}`, nil
	}
	return f.reply(prompt)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

func (r *recordingPublisher) Publish(ev model.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingPublisher) types() []model.ProgressEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ProgressEventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]*model.SearchResult
}

func (c *memoryCache) Get(_ context.Context, key string) (*model.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[key]
	return r, ok
}

func (c *memoryCache) Set(_ context.Context, key string, result *model.SearchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]*model.SearchResult)
	}
	c.items[key] = result
	return nil
}
