package scheduler

import (
	"context"
	"sync"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/service"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// KeywordRunner runs one keyword batch (search, crawl stale stores, merge).
type KeywordRunner interface {
	RunKeywordFlow(ctx context.Context, q service.KeywordQuery) (*service.FlowResult, error)
}

// RefreshScheduler 등록된 키워드의 리뷰를 주기적으로 갱신
type RefreshScheduler struct {
	cron     *cron.Cron
	runner   KeywordRunner
	spec     string
	keywords []string

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex // 실행이 겹치지 않도록
}

func NewRefreshScheduler(runner KeywordRunner, cfg *config.SchedulerConfig) *RefreshScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &RefreshScheduler{
		cron:     cron.New(),
		runner:   runner,
		spec:     cfg.RefreshCron,
		keywords: cfg.RefreshKeywords,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 스케줄러 시작. 키워드가 없으면 아무것도 등록하지 않는다.
func (s *RefreshScheduler) Start() error {
	if len(s.keywords) == 0 {
		logger.Info("Refresh scheduler disabled (no keywords)", nil)
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(s.ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for review refresh", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Refresh scheduler started", map[string]interface{}{
		"spec":     s.spec,
		"keywords": len(s.keywords),
	})
	return nil
}

// RunOnce refreshes every keyword in order. A failing keyword is logged and
// the rest still run. A tick that fires while the previous one is still
// running is skipped.
func (s *RefreshScheduler) RunOnce(ctx context.Context) {
	if !s.mu.TryLock() {
		logger.Warn("Previous refresh still running, skipping", nil)
		return
	}
	defer s.mu.Unlock()

	logger.Info("Starting scheduled review refresh", map[string]interface{}{
		"keywords": len(s.keywords),
	})

	refreshed := 0
	for _, kw := range s.keywords {
		if ctx.Err() != nil {
			return
		}
		flow, err := s.runner.RunKeywordFlow(ctx, service.KeywordQuery{Keyword: kw})
		if err != nil {
			logger.Error("Scheduled refresh failed", err, map[string]interface{}{
				"keyword": kw,
			})
			continue
		}
		refreshed++
		logger.Info("Keyword refreshed", map[string]interface{}{
			"keyword": kw,
			"stale":   len(flow.Stale),
			"fresh":   len(flow.Fresh),
		})
	}

	logger.Info("Scheduled review refresh finished", map[string]interface{}{
		"refreshed": refreshed,
		"total":     len(s.keywords),
	})
}

// Stop 스케줄러 중지. 진행 중인 갱신은 취소된다.
func (s *RefreshScheduler) Stop() {
	logger.Info("Stopping refresh scheduler...", nil)
	s.cancel()
	<-s.cron.Stop().Done()
	logger.Info("Refresh scheduler stopped", nil)
}
