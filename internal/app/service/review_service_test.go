package service

import (
	"testing"
	"time"

	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/app/repository"
	"github.com/ikkim/lunchmap-backend/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService_Shape(t *testing.T) {
	svc := NewReviewService(nil, nil)
	addr := "서울 중구"
	lat, lng := 37.56, 126.99
	img := "https://img/1.jpg"

	rows := []model.ReviewRow{
		{StoreName: "A", Address: &addr, Lat: &lat, Lng: &lng, Img1: &img, Source: model.SourceKakao, Review: "k1"},
		{StoreName: "A", Address: &addr, Lat: &lat, Lng: &lng, Img1: &img, Source: model.SourceKakao, Review: "k2"},
		{StoreName: "A", Address: &addr, Source: "NAVER", Review: "n1"},
		{StoreName: "A", Address: &addr, Source: "yelp", Review: "ignored"},
	}
	candLat, candLng := 37.1, 127.1
	candidates := map[string]model.Candidate{
		"B": {Name: "B", Address: "경기 성남시", Coord: identity.Coordinate{Lat: &candLat, Lng: &candLng}},
	}

	out := svc.Shape(rows, []string{"A", "B", "C"}, candidates)
	require.Len(t, out, 3)

	a := out["A"]
	assert.Equal(t, &addr, a.Address)
	assert.Equal(t, []string{"https://img/1.jpg"}, a.StoreImage)
	assert.Equal(t, []string{"k1", "k2"}, a.Kakao.Reviews)
	assert.Equal(t, []string{"n1"}, a.Naver.Reviews)
	assert.Empty(t, a.Google.Reviews)
	assert.Equal(t, 3, a.ReviewCount())

	b := out["B"]
	require.NotNil(t, b.Address)
	assert.Equal(t, "경기 성남시", *b.Address)
	assert.Equal(t, 37.1, *b.Lat)
	assert.NotNil(t, b.Kakao)
	assert.NotNil(t, b.Google)
	assert.NotNil(t, b.Naver)

	c := out["C"]
	assert.Nil(t, c.Address)
	assert.Equal(t, 0, c.ReviewCount())
}

func TestReviewService_FetchAndStoreCards(t *testing.T) {
	_, stores, reviews := setupServiceDB(t)
	svc := NewReviewService(stores, reviews)
	now := time.Now().UTC()

	id, err := stores.Upsert(repository.StoreUpsert{Name: "A", Address: strPtr("X"), Images: []string{"https://img/a.jpg"}}, now)
	require.NoError(t, err)
	require.NoError(t, reviews.Upsert(id, model.SourceGoogle, "g1", now))

	rows, err := svc.FetchReviews([]string{"A"}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "g1", rows[0].Review)

	cards, err := svc.StoreCards([]string{"A", "missing"})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, []string{"https://img/a.jpg"}, cards["A"].StoreImage)
	assert.Empty(t, cards["A"].Kakao.Reviews)
}
