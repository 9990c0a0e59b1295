package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/app/repository"
	"github.com/ikkim/lunchmap-backend/internal/db"
	"github.com/ikkim/lunchmap-backend/internal/identity"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
	"gorm.io/gorm"
)

// MergeReport 병합 결과. 실패한 매장은 Failed에만 남는다.
type MergeReport struct {
	StoreIDs map[string]uint
	Failed   map[string]error
}

type MergeService interface {
	Merge(ctx context.Context, records map[string]*model.CrawlRecord) *MergeReport
}

type mergeService struct {
	db         *gorm.DB
	storeRepo  repository.StoreRepository
	reviewRepo repository.ReviewRepository
	now        func() time.Time
}

func NewMergeService(gdb *gorm.DB, storeRepo repository.StoreRepository, reviewRepo repository.ReviewRepository) MergeService {
	return &mergeService{
		db:         gdb,
		storeRepo:  storeRepo,
		reviewRepo: reviewRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Merge writes each store and its reviews in one transaction. A failing store
// is rolled back and skipped; the rest still commit. The WAL is checkpointed
// once after the batch.
func (s *mergeService) Merge(ctx context.Context, records map[string]*model.CrawlRecord) *MergeReport {
	report := &MergeReport{
		StoreIDs: make(map[string]uint, len(records)),
		Failed:   make(map[string]error),
	}
	if len(records) == 0 {
		return report
	}

	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	now := s.now()
	for _, name := range names {
		rec := records[name]
		if rec == nil {
			continue
		}

		id, err := s.mergeOne(ctx, name, rec, now)
		if err != nil {
			logger.Error("Failed to merge store, skipping", err, map[string]interface{}{
				"store": name,
			})
			report.Failed[name] = err
			continue
		}
		report.StoreIDs[name] = id
	}

	if err := db.Checkpoint(s.db); err != nil {
		logger.Warn("WAL checkpoint failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Merge finished", map[string]interface{}{
		"merged": len(report.StoreIDs),
		"failed": len(report.Failed),
	})
	return report
}

func (s *mergeService) mergeOne(ctx context.Context, name string, rec *model.CrawlRecord, now time.Time) (uint, error) {
	resolved := identity.Resolve(rec.Address)

	var storeID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := s.storeRepo.WithTx(tx).Upsert(repository.StoreUpsert{
			Name:    name,
			Address: resolved.Address,
			Lat:     resolved.Lat,
			Lng:     resolved.Lng,
			Images:  rec.Images,
		}, now)
		if err != nil {
			return fmt.Errorf("upsert store: %w", err)
		}
		storeID = id

		reviews := s.reviewRepo.WithTx(tx)
		for _, src := range model.Sources() {
			for _, text := range rec.Reviews[src] {
				if strings.TrimSpace(text) == "" {
					continue
				}
				if err := reviews.Upsert(id, src, text, now); err != nil {
					return fmt.Errorf("upsert %s review: %w", src, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return storeID, nil
}
