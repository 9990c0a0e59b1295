package repository

import (
	"time"

	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/identity"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository interface {
	WithTx(tx *gorm.DB) ReviewRepository
	Upsert(storeID uint, source model.Source, text string, now time.Time) error
	FetchForStores(names []string, perSourceLimit int) ([]model.ReviewRow, error)
	CountByStore(storeID uint) (int64, error)
	FindByStore(storeID uint) ([]model.Review, error)
	ExportRows() ([]ExportRow, error)
}

// ExportRow is one review joined with its store, in export order.
type ExportRow struct {
	StoreName string
	Address   *string
	Img1      *string
	Source    model.Source
	Review    string
	FirstSeen time.Time
	LastSeen  time.Time
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) WithTx(tx *gorm.DB) ReviewRepository {
	return &reviewRepository{db: tx}
}

// Upsert records one observation of a review. A repeat observation of the
// same normalized text only refreshes last_seen, which never moves backwards.
func (r *reviewRepository) Upsert(storeID uint, source model.Source, text string, now time.Time) error {
	review := model.Review{
		StoreID:    storeID,
		Source:     source,
		Review:     text,
		ReviewHash: identity.ReviewHash(storeID, string(source), text),
		FirstSeen:  now,
		LastSeen:   now,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "review_hash"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"source":    gorm.Expr("excluded.source"),
			"review":    gorm.Expr("excluded.review"),
			"last_seen": gorm.Expr("CASE WHEN excluded.last_seen > reviews.last_seen THEN excluded.last_seen ELSE reviews.last_seen END"),
		}),
	}).Omit(clause.Associations).Create(&review).Error
	if err != nil {
		logger.Error("Failed to upsert review", err, map[string]interface{}{
			"store_id": storeID,
			"source":   source,
		})
		return err
	}
	return nil
}

// FetchForStores reads every review of the named stores ordered by
// (store name, source, last_seen desc). A positive perSourceLimit keeps only
// the newest N rows per (store, source).
func (r *reviewRepository) FetchForStores(names []string, perSourceLimit int) ([]model.ReviewRow, error) {
	var rows []model.ReviewRow
	if len(names) == 0 {
		return rows, nil
	}

	err := r.db.Table("reviews").
		Select("stores.name AS store_name, stores.address, stores.lat, stores.lng, " +
			"stores.img1, stores.img2, stores.img3, reviews.source, reviews.review, reviews.last_seen").
		Joins("JOIN stores ON reviews.store_id = stores.id").
		Where("stores.name IN ?", names).
		Order("stores.name ASC, reviews.source ASC, reviews.last_seen DESC").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to fetch reviews for stores", err, map[string]interface{}{
			"stores": len(names),
		})
		return nil, err
	}

	if perSourceLimit > 0 {
		rows = capPerSource(rows, perSourceLimit)
	}

	logger.Debug("Reviews fetched", map[string]interface{}{
		"stores": len(names),
		"rows":   len(rows),
	})
	return rows, nil
}

// capPerSource relies on the query order: rows of one (store, source) group
// are contiguous and newest first.
func capPerSource(rows []model.ReviewRow, limit int) []model.ReviewRow {
	type groupKey struct {
		store  string
		source model.Source
	}
	seen := make(map[groupKey]int)
	out := rows[:0]
	for _, row := range rows {
		src := row.Source
		if src == "" {
			src = "UNKNOWN"
		}
		k := groupKey{row.StoreName, src}
		if seen[k] >= limit {
			continue
		}
		seen[k]++
		out = append(out, row)
	}
	return out
}

func (r *reviewRepository) CountByStore(storeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Review{}).Where("store_id = ?", storeID).Count(&count).Error
	return count, err
}

func (r *reviewRepository) FindByStore(storeID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.Where("store_id = ?", storeID).Order("source ASC, last_seen DESC").Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) ExportRows() ([]ExportRow, error) {
	var rows []ExportRow
	err := r.db.Table("reviews").
		Select("stores.name AS store_name, stores.address, stores.img1, reviews.source, " +
			"reviews.review, reviews.first_seen, reviews.last_seen").
		Joins("JOIN stores ON reviews.store_id = stores.id").
		Order("stores.name ASC, reviews.source ASC, reviews.last_seen DESC").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to read reviews for export", err)
		return nil, err
	}
	return rows, nil
}
