package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/crawler"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var dongPattern = regexp.MustCompile(`([가-힣0-9]+동)(?:[^가-힣0-9]|$)`)

// ExtractDong returns the first neighborhood token ("정자동") in text.
func ExtractDong(text string) string {
	m := dongPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// BuildCrawlKeyword narrows a store name for the external search providers:
// "<dong> <first name token>", where dong comes from the address and then the
// search keyword. Without a dong it is the first name token, or the bare name.
func BuildCrawlKeyword(name, address, searchKeyword string) string {
	dong := ExtractDong(address)
	if dong == "" {
		dong = ExtractDong(searchKeyword)
	}

	base := ""
	if fields := strings.Fields(name); len(fields) > 0 {
		base = fields[0]
	}

	if dong != "" {
		return strings.TrimSpace(dong + " " + base)
	}
	if base != "" {
		return base
	}
	return name
}

// CrawlTarget 크롤링 대상 매장
type CrawlTarget struct {
	Name    string // 후보 매장명 (결과 키)
	Keyword string // 외부 검색에 쓰는 정제 키워드
}

// StoreCrawledFunc is called once per finished store, always from the
// goroutine that called CrawlStores.
type StoreCrawledFunc func(name string, rec *model.CrawlRecord)

type CrawlService interface {
	CrawlStores(ctx context.Context, targets []CrawlTarget, onStore StoreCrawledFunc) map[string]*model.CrawlRecord
}

type crawlService struct {
	providers       []crawler.Provider
	storeWorkers    int
	providerWorkers int
	maxReviews      int
	taskTimeout     time.Duration
}

func NewCrawlService(providers []crawler.Provider, cfg *config.CrawlConfig) CrawlService {
	return &crawlService{
		providers:       providers,
		storeWorkers:    max(cfg.StoreWorkers, 1),
		providerWorkers: max(cfg.ProviderWorkers, 1),
		maxReviews:      cfg.MaxReviews,
		taskTimeout:     cfg.TaskTimeout,
	}
}

type crawledStore struct {
	name string
	rec  *model.CrawlRecord
}

// CrawlStores crawls every target with at most storeWorkers stores in flight.
// Every target appears in the result; failed providers leave their source
// empty. Workers only send on the results channel, the accumulator is written
// here alone.
func (s *crawlService) CrawlStores(ctx context.Context, targets []CrawlTarget, onStore StoreCrawledFunc) map[string]*model.CrawlRecord {
	acc := make(map[string]*model.CrawlRecord, len(targets))
	if len(targets) == 0 {
		return acc
	}

	started := time.Now()
	results := make(chan crawledStore)

	go func() {
		var g errgroup.Group
		g.SetLimit(s.storeWorkers)
		for _, t := range targets {
			g.Go(func() error {
				results <- crawledStore{name: t.Name, rec: s.crawlOne(ctx, t)}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	for r := range results {
		acc[r.name] = r.rec
		if onStore != nil {
			onStore(r.name, r.rec)
		}
	}

	logger.Info("Crawl batch finished", map[string]interface{}{
		"stores":      len(targets),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return acc
}

// crawlOne fans a single store out to every provider.
func (s *crawlService) crawlOne(ctx context.Context, t CrawlTarget) *model.CrawlRecord {
	rec := model.NewCrawlRecord()
	outcomes := make(chan crawler.Outcome, len(s.providers))

	var g errgroup.Group
	g.SetLimit(s.providerWorkers)
	for _, p := range s.providers {
		g.Go(func() error {
			outcomes <- crawler.Invoke(ctx, p, t.Keyword, s.maxReviews, s.taskTimeout)
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)

	for out := range outcomes {
		if !out.OK() {
			logger.Warn("Provider crawl failed", map[string]interface{}{
				"store":    t.Name,
				"provider": out.Provider,
				"error":    out.Err.Error(),
			})
			continue
		}
		if _, known := rec.Reviews[out.Provider]; known {
			rec.Reviews[out.Provider] = out.Result.Reviews
		}
		if out.Provider == model.SourceKakao && len(out.Result.Images) > 0 {
			rec.Images = out.Result.Images
		}
	}

	logger.Debug("Store crawled", map[string]interface{}{
		"store":   t.Name,
		"keyword": t.Keyword,
		"kakao":   len(rec.Reviews[model.SourceKakao]),
		"google":  len(rec.Reviews[model.SourceGoogle]),
		"naver":   len(rec.Reviews[model.SourceNaver]),
	})
	return rec
}
