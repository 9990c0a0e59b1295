package service

import (
	"context"
	"time"

	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/app/repository"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
)

// IsStale reports whether a store needs a re-crawl. Unknown age (new store or
// no reviews) is always stale; otherwise only strictly older than staleDays.
func IsStale(age *float64, staleDays int) bool {
	return age == nil || *age > float64(staleDays)
}

type FreshnessService interface {
	Partition(ctx context.Context, candidates []model.Candidate, staleDays int) (stale, fresh []model.Candidate, err error)
}

type freshnessService struct {
	storeRepo repository.StoreRepository
	now       func() time.Time
}

func NewFreshnessService(storeRepo repository.StoreRepository) FreshnessService {
	return &freshnessService{
		storeRepo: storeRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Partition splits candidates by freshness, preserving input order in both
// halves. A failed age lookup counts as stale so the store still gets crawled.
// The only error returned is ctx cancellation.
func (s *freshnessService) Partition(ctx context.Context, candidates []model.Candidate, staleDays int) ([]model.Candidate, []model.Candidate, error) {
	stale := make([]model.Candidate, 0, len(candidates))
	fresh := make([]model.Candidate, 0, len(candidates))
	now := s.now()

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		age, err := s.storeRepo.LatestAge(c.Name, now)
		if err != nil {
			logger.Warn("Freshness lookup failed, treating store as stale", map[string]interface{}{
				"store": c.Name,
				"error": err.Error(),
			})
			stale = append(stale, c)
			continue
		}

		if IsStale(age, staleDays) {
			stale = append(stale, c)
		} else {
			fresh = append(fresh, c)
		}
	}

	logger.Info("Freshness partition", map[string]interface{}{
		"stale":      len(stale),
		"fresh":      len(fresh),
		"stale_days": staleDays,
	})
	return stale, fresh, nil
}
