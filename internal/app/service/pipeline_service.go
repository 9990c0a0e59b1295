package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/identity"
	"github.com/ikkim/lunchmap-backend/pkg/kakao"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
)

var (
	ErrNearbySearch     = errors.New("주변 매장 검색에 실패했습니다")
	ErrSearchSuperseded = errors.New("새 검색으로 대체되어 결과가 폐기되었습니다")
	ErrEmptyKeyword     = errors.New("검색어가 비어 있습니다")
)

// nearbyPrefix marks a keyword that searches around the caller's position.
const nearbyPrefix = "근처 "

// PlaceSearcher is the nearby-search collaborator (Kakao Local).
type PlaceSearcher interface {
	SearchKeyword(ctx context.Context, req kakao.KeywordRequest) ([]kakao.Place, error)
}

// ProgressPublisher receives search progress events.
type ProgressPublisher interface {
	Publish(event model.ProgressEvent)
}

// ResultCache stores finished search results.
type ResultCache interface {
	Get(ctx context.Context, key string) (*model.SearchResult, bool)
	Set(ctx context.Context, key string, result *model.SearchResult) error
}

// ImageMirror copies store images somewhere durable and returns the new URLs.
type ImageMirror interface {
	MirrorStoreImages(ctx context.Context, storeName string, urls []string) []string
}

// KeywordQuery 검색 요청
type KeywordQuery struct {
	Keyword        string
	Lat            *float64
	Lon            *float64
	Query          string // 사용자가 입력한 원문 (동 추출 보조)
	StaleDays      *int   // nil이면 설정값
	PerSourceLimit int    // 0 = 전체
}

// FlowResult is the outcome of one keyword batch before summarization.
type FlowResult struct {
	Candidates []model.Candidate
	Results    map[string]*model.StoreResult
	Distances  map[string]*int
	Stale      []string
	Fresh      []string
}

// Names returns candidate names in search rank order.
func (f *FlowResult) Names() []string {
	names := make([]string, 0, len(f.Candidates))
	for _, c := range f.Candidates {
		names = append(names, c.Name)
	}
	return names
}

type PipelineService interface {
	RunKeywordFlow(ctx context.Context, q KeywordQuery) (*FlowResult, error)
	Search(ctx context.Context, session string, q KeywordQuery) (*model.SearchResult, error)
	Cancel(session string)
}

type PipelineDeps struct {
	Searcher  PlaceSearcher
	Freshness FreshnessService
	Crawl     CrawlService
	Merge     MergeService
	Reviews   ReviewService
	Summary   SummaryService
	Sessions  *SessionRegistry
	Progress  ProgressPublisher // optional
	Cache     ResultCache       // optional
	Mirror    ImageMirror       // optional
}

type pipelineService struct {
	deps           PipelineDeps
	topN           int
	radiusM        int
	staleDays      int
	perSourceLimit int
}

func NewPipelineService(deps PipelineDeps, cfg *config.Config) PipelineService {
	if deps.Sessions == nil {
		deps.Sessions = NewSessionRegistry()
	}
	return &pipelineService{
		deps:           deps,
		topN:           max(cfg.Search.TopN, 1),
		radiusM:        cfg.Search.RadiusM,
		staleDays:      cfg.Crawl.StaleDays,
		perSourceLimit: cfg.Crawl.PerSourceLimit,
	}
}

// RunKeywordFlow: nearby search → freshness → crawl stale → merge → read back.
// Only a failed nearby search is returned as an error.
func (s *pipelineService) RunKeywordFlow(ctx context.Context, q KeywordQuery) (*FlowResult, error) {
	return s.runKeywordFlow(ctx, q, "", 0)
}

func (s *pipelineService) runKeywordFlow(ctx context.Context, q KeywordQuery, session string, gen uint64) (*FlowResult, error) {
	log := logger.WithComponent("pipeline").WithContext(map[string]interface{}{
		"keyword": q.Keyword,
	})

	candidates, err := s.searchCandidates(ctx, q)
	if err != nil {
		return nil, err
	}

	flow := &FlowResult{
		Candidates: candidates,
		Distances:  make(map[string]*int, len(candidates)),
	}
	byName := make(map[string]model.Candidate, len(candidates))
	for _, c := range candidates {
		byName[c.Name] = c
		flow.Distances[c.Name] = c.DistanceM
	}
	names := flow.Names()
	s.publish(model.ProgressEvent{Type: model.EventCandidates, Session: session, Generation: gen, Stores: names, Count: len(names)})
	log.Info("Candidates found", map[string]interface{}{"count": len(names)})

	staleDays := s.staleDays
	if q.StaleDays != nil {
		staleDays = *q.StaleDays
	}
	stale, fresh, err := s.deps.Freshness.Partition(ctx, candidates, staleDays)
	if err != nil {
		return nil, err
	}
	for _, c := range stale {
		flow.Stale = append(flow.Stale, c.Name)
	}
	for _, c := range fresh {
		flow.Fresh = append(flow.Fresh, c.Name)
	}

	if len(stale) > 0 {
		hint := q.Keyword
		if ExtractDong(hint) == "" && q.Query != "" {
			hint = q.Query
		}
		targets := make([]CrawlTarget, 0, len(stale))
		for _, c := range stale {
			targets = append(targets, CrawlTarget{
				Name:    c.Name,
				Keyword: BuildCrawlKeyword(c.Name, c.Address, hint),
			})
		}
		s.publish(model.ProgressEvent{Type: model.EventCrawlStarted, Session: session, Generation: gen, Stores: flow.Stale, Count: len(targets)})

		records := s.deps.Crawl.CrawlStores(ctx, targets, func(name string, rec *model.CrawlRecord) {
			s.publish(model.ProgressEvent{Type: model.EventStoreCrawled, Session: session, Generation: gen, Store: name, Count: countReviews(rec)})
		})

		// 검색 결과의 주소/좌표를 병합 직전에 주입
		for name, rec := range records {
			c, ok := byName[name]
			if !ok {
				continue
			}
			rec.Address = identity.WithCoords{Text: c.Address, Coord: c.Coord}
			if s.deps.Mirror != nil && len(rec.Images) > 0 {
				rec.Images = s.deps.Mirror.MirrorStoreImages(ctx, name, rec.Images)
			}
		}

		report := s.deps.Merge.Merge(ctx, records)
		s.publish(model.ProgressEvent{Type: model.EventPersisted, Session: session, Generation: gen, Count: len(report.StoreIDs)})
	}

	perSourceLimit := s.perSourceLimit
	if q.PerSourceLimit > 0 {
		perSourceLimit = q.PerSourceLimit
	}
	rows, err := s.deps.Reviews.FetchReviews(names, perSourceLimit)
	if err != nil {
		// 읽기 실패도 빈 결과로 응답한다
		log.Error("Failed to read reviews back", err)
		rows = nil
	}
	flow.Results = s.deps.Reviews.Shape(rows, names, byName)

	log.Info("Keyword flow finished", map[string]interface{}{
		"stores": len(flow.Results),
		"stale":  len(flow.Stale),
		"fresh":  len(flow.Fresh),
	})
	return flow, nil
}

func (s *pipelineService) searchCandidates(ctx context.Context, q KeywordQuery) ([]model.Candidate, error) {
	kw := strings.TrimSpace(q.Keyword)
	if kw == "" {
		return nil, ErrEmptyKeyword
	}

	req := kakao.KeywordRequest{Query: kw}
	if strings.HasPrefix(kw, nearbyPrefix) {
		req.Query = strings.TrimSpace(strings.Replace(kw, "근처", "", 1))
		req.Lat = q.Lat
		req.Lon = q.Lon
		req.RadiusM = s.radiusM
	}

	places, err := s.deps.Searcher.SearchKeyword(ctx, req)
	if err != nil {
		logger.Error("Nearby search failed", err, map[string]interface{}{
			"keyword": kw,
		})
		return nil, fmt.Errorf("%w: %v", ErrNearbySearch, err)
	}

	candidates := make([]model.Candidate, 0, s.topN)
	seen := make(map[string]struct{})
	for _, p := range places {
		if len(candidates) == s.topN {
			break
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		candidates = append(candidates, model.Candidate{
			Name:      name,
			Address:   p.Address,
			Coord:     identity.NewCoordinate(p.Lat, p.Lon),
			DistanceM: p.DistanceM,
		})
	}
	return candidates, nil
}

// Search runs a full batch (flow + summaries) for a client session. The work
// is detached from ctx so a superseded or disconnected search still finishes
// and persists; only its output is discarded.
func (s *pipelineService) Search(ctx context.Context, session string, q KeywordQuery) (*model.SearchResult, error) {
	if session == "" {
		session = uuid.NewString()
	}
	gen := s.deps.Sessions.Begin(session)
	key := cacheKey(q)

	if s.deps.Cache != nil {
		if cached, ok := s.deps.Cache.Get(ctx, key); ok {
			logger.Debug("Search served from cache", map[string]interface{}{"keyword": q.Keyword})
			s.deps.Sessions.Finish(session, gen)
			s.publish(model.ProgressEvent{Type: model.EventDone, Session: session, Generation: gen, Count: len(cached.Stores)})
			return cached, nil
		}
	}

	work := context.WithoutCancel(ctx)
	flow, err := s.runKeywordFlow(work, q, session, gen)
	if err != nil {
		s.deps.Sessions.Finish(session, gen)
		return nil, err
	}

	summaries := s.deps.Summary.SummarizeAll(work, flow.Results, func(name string, _ model.Summary) {
		s.publish(model.ProgressEvent{Type: model.EventSummarized, Session: session, Generation: gen, Store: name})
	})

	if !s.deps.Sessions.IsCurrent(session, gen) {
		logger.Info("Search superseded, discarding result", map[string]interface{}{
			"session":    session,
			"generation": gen,
		})
		s.publish(model.ProgressEvent{Type: model.EventDiscarded, Session: session, Generation: gen})
		return nil, ErrSearchSuperseded
	}

	s.deps.Sessions.Finish(session, gen)

	result := &model.SearchResult{
		Stores:    flow.Results,
		Summaries: summaries,
		Distances: flow.Distances,
		Order:     flow.Names(),
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(work, key, result); err != nil {
			logger.Warn("Failed to cache search result", map[string]interface{}{"error": err.Error()})
		}
	}
	s.publish(model.ProgressEvent{Type: model.EventDone, Session: session, Generation: gen, Count: len(result.Stores)})
	return result, nil
}

func (s *pipelineService) Cancel(session string) {
	if session == "" {
		return
	}
	s.deps.Sessions.Cancel(session)
	logger.Info("Search cancelled", map[string]interface{}{"session": session})
}

func (s *pipelineService) publish(ev model.ProgressEvent) {
	if s.deps.Progress == nil || ev.Session == "" {
		return
	}
	ev.Timestamp = time.Now().UTC()
	s.deps.Progress.Publish(ev)
}

func countReviews(rec *model.CrawlRecord) int {
	n := 0
	for _, reviews := range rec.Reviews {
		n += len(reviews)
	}
	return n
}

// cacheKey identifies a search. Coordinates only matter for nearby searches
// and are rounded to ~100m so nearby callers share entries.
func cacheKey(q KeywordQuery) string {
	kw := identity.NormalizeText(q.Keyword)
	coords := "-"
	if strings.HasPrefix(strings.TrimSpace(q.Keyword), nearbyPrefix) && q.Lat != nil && q.Lon != nil {
		coords = fmt.Sprintf("%.3f,%.3f", math.Round(*q.Lat*1000)/1000, math.Round(*q.Lon*1000)/1000)
	}
	stale := "-"
	if q.StaleDays != nil {
		stale = fmt.Sprint(*q.StaleDays)
	}
	return fmt.Sprintf("%s|%s|%s|%d", kw, coords, stale, q.PerSourceLimit)
}
