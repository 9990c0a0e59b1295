package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/app/repository"
	"github.com/ikkim/lunchmap-backend/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func crawlRecord(addr identity.Address, reviews map[model.Source][]string, images ...string) *model.CrawlRecord {
	rec := model.NewCrawlRecord()
	rec.Address = addr
	rec.Images = images
	for src, list := range reviews {
		rec.Reviews[src] = list
	}
	return rec
}

func TestMergeService_Merge(t *testing.T) {
	testDB, stores, reviews := setupServiceDB(t)
	svc := NewMergeService(testDB, stores, reviews)

	lat, lng := 37.367, 127.108
	records := map[string]*model.CrawlRecord{
		"A": crawlRecord(
			identity.WithCoords{Text: "경기 성남시 분당구 정자동 1", Coord: identity.Coordinate{Lat: &lat, Lng: &lng}},
			map[model.Source][]string{
				model.SourceKakao:  {"맛있어요", "  ", "맛있어요"},
				model.SourceGoogle: {"Great food"},
			},
			"https://img/1.jpg",
		),
		"B": crawlRecord(identity.PlainText{Text: "서울 중구 (37.5, 126.9)"}, nil),
		"C": nil,
	}

	report := svc.Merge(context.Background(), records)
	require.Len(t, report.StoreIDs, 2)
	assert.Empty(t, report.Failed)

	a, err := stores.FindByKey(identity.StoreKey("A", "경기 성남시 분당구 정자동 1"))
	require.NoError(t, err)
	require.NotNil(t, a.Lat)
	assert.Equal(t, 37.367, *a.Lat)
	assert.Equal(t, []string{"https://img/1.jpg"}, a.Images())

	count, err := reviews.CountByStore(report.StoreIDs["A"])
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	b, err := stores.FindByKey(identity.StoreKey("B", "서울 중구 (37.5, 126.9)"))
	require.NoError(t, err)
	require.NotNil(t, b.Lat)
	assert.Equal(t, 37.5, *b.Lat)
	assert.Equal(t, 126.9, *b.Lng)
}

// flakyReviewRepo fails any review whose text is "boom".
type flakyReviewRepo struct {
	repository.ReviewRepository
}

func (r flakyReviewRepo) WithTx(tx *gorm.DB) repository.ReviewRepository {
	return flakyReviewRepo{r.ReviewRepository.WithTx(tx)}
}

func (r flakyReviewRepo) Upsert(storeID uint, source model.Source, text string, now time.Time) error {
	if text == "boom" {
		return errors.New("disk I/O error")
	}
	return r.ReviewRepository.Upsert(storeID, source, text, now)
}

func TestMergeService_FailedStoreIsRolledBackAndSkipped(t *testing.T) {
	testDB, stores, reviews := setupServiceDB(t)
	svc := NewMergeService(testDB, stores, flakyReviewRepo{reviews})

	records := map[string]*model.CrawlRecord{
		"good": crawlRecord(identity.PlainText{Text: "addr 1"}, map[model.Source][]string{model.SourceNaver: {"fine"}}),
		"bad":  crawlRecord(identity.PlainText{Text: "addr 2"}, map[model.Source][]string{model.SourceNaver: {"ok", "boom"}}),
	}

	report := svc.Merge(context.Background(), records)
	assert.Contains(t, report.StoreIDs, "good")
	require.Contains(t, report.Failed, "bad")

	all, err := stores.FindAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "good", all[0].Name)
}

func TestMergeService_Empty(t *testing.T) {
	testDB, stores, reviews := setupServiceDB(t)
	report := NewMergeService(testDB, stores, reviews).Merge(context.Background(), nil)
	assert.Empty(t, report.StoreIDs)
	assert.Empty(t, report.Failed)
}
