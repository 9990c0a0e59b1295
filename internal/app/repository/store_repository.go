package repository

import (
	"errors"
	"time"

	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/identity"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoreUpsert carries the already-resolved attributes of one store.
type StoreUpsert struct {
	Name    string
	Address *string
	Lat     *float64
	Lng     *float64
	Images  []string
}

type StoreRepository interface {
	WithTx(tx *gorm.DB) StoreRepository
	Upsert(in StoreUpsert, now time.Time) (uint, error)
	FindByKey(storeKey string) (*model.Store, error)
	FindByNames(names []string) ([]model.Store, error)
	FindAll() ([]model.Store, error)
	LatestAge(name string, now time.Time) (*float64, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

// WithTx returns a repository bound to tx so store and review writes for one
// crawl result share a transaction.
func (r *storeRepository) WithTx(tx *gorm.DB) StoreRepository {
	return &storeRepository{db: tx}
}

// Upsert inserts or updates the row keyed by StoreKey(name, address).
// Name and address are overwritten; coordinates and images are only replaced
// by non-null values so a thin re-crawl never erases known data.
func (r *storeRepository) Upsert(in StoreUpsert, now time.Time) (uint, error) {
	address := ""
	if in.Address != nil {
		address = *in.Address
	}
	key := identity.StoreKey(in.Name, address)

	store := model.Store{
		Name:      in.Name,
		Address:   in.Address,
		Lat:       in.Lat,
		Lng:       in.Lng,
		StoreKey:  key,
		CreatedAt: now,
		UpdatedAt: now,
	}
	slots := []**string{&store.Img1, &store.Img2, &store.Img3}
	for i, img := range in.Images {
		if i >= len(slots) {
			break
		}
		if img == "" {
			continue
		}
		v := img
		*slots[i] = &v
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":       gorm.Expr("excluded.name"),
			"address":    gorm.Expr("excluded.address"),
			"lat":        gorm.Expr("COALESCE(excluded.lat, stores.lat)"),
			"lng":        gorm.Expr("COALESCE(excluded.lng, stores.lng)"),
			"img1":       gorm.Expr("COALESCE(excluded.img1, stores.img1)"),
			"img2":       gorm.Expr("COALESCE(excluded.img2, stores.img2)"),
			"img3":       gorm.Expr("COALESCE(excluded.img3, stores.img3)"),
			"updated_at": now,
		}),
	}).Create(&store).Error
	if err != nil {
		logger.Error("Failed to upsert store", err, map[string]interface{}{
			"name": in.Name,
		})
		return 0, err
	}

	// the conflict path does not reliably report the existing id
	var ids []uint
	if err := r.db.Model(&model.Store{}).Where("store_key = ?", key).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	id := ids[0]

	logger.Debug("Store upserted", map[string]interface{}{
		"store_id": id,
		"name":     in.Name,
	})
	return id, nil
}

func (r *storeRepository) FindByKey(storeKey string) (*model.Store, error) {
	var store model.Store
	if err := r.db.Where("store_key = ?", storeKey).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindByNames(names []string) ([]model.Store, error) {
	var stores []model.Store
	if len(names) == 0 {
		return stores, nil
	}
	if err := r.db.Where("name IN ?", names).Order("name ASC, updated_at DESC").Find(&stores).Error; err != nil {
		logger.Error("Failed to find stores by name", err, map[string]interface{}{
			"count": len(names),
		})
		return nil, err
	}
	return stores, nil
}

func (r *storeRepository) FindAll() ([]model.Store, error) {
	var stores []model.Store
	if err := r.db.Order("name ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// LatestAge returns how many days ago the store's newest review was last
// seen, or nil when the store is unknown or has no reviews.
func (r *storeRepository) LatestAge(name string, now time.Time) (*float64, error) {
	var latest model.Review
	err := r.db.Model(&model.Review{}).
		Select("reviews.last_seen").
		Joins("JOIN stores ON stores.id = reviews.store_id").
		Where("stores.name = ?", name).
		Order("reviews.last_seen DESC").
		Take(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to read latest review age", err, map[string]interface{}{
			"name": name,
		})
		return nil, err
	}

	age := now.Sub(latest.LastSeen).Hours() / 24
	return &age, nil
}
