package service

import (
	"strings"

	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/app/repository"
)

type ReviewService interface {
	FetchReviews(names []string, perSourceLimit int) ([]model.ReviewRow, error)
	Shape(rows []model.ReviewRow, names []string, candidates map[string]model.Candidate) map[string]*model.StoreResult
	StoreCards(names []string) (map[string]*model.StoreResult, error)
}

type reviewService struct {
	storeRepo  repository.StoreRepository
	reviewRepo repository.ReviewRepository
}

func NewReviewService(storeRepo repository.StoreRepository, reviewRepo repository.ReviewRepository) ReviewService {
	return &reviewService{
		storeRepo:  storeRepo,
		reviewRepo: reviewRepo,
	}
}

func (s *reviewService) FetchReviews(names []string, perSourceLimit int) ([]model.ReviewRow, error) {
	return s.reviewRepo.FetchForStores(names, perSourceLimit)
}

// Shape groups rows into one StoreResult per store. Store attributes come from
// the store's first row; reviews keep row order. Every name in names gets an
// entry, filled from its candidate when it has no stored rows.
func (s *reviewService) Shape(rows []model.ReviewRow, names []string, candidates map[string]model.Candidate) map[string]*model.StoreResult {
	results := make(map[string]*model.StoreResult, len(names))

	for _, row := range rows {
		res, ok := results[row.StoreName]
		if !ok {
			res = model.NewStoreResult()
			res.Address = row.Address
			res.Lat = row.Lat
			res.Lng = row.Lng
			for _, img := range []*string{row.Img1, row.Img2, row.Img3} {
				if img != nil && *img != "" {
					res.StoreImage = append(res.StoreImage, *img)
				}
			}
			results[row.StoreName] = res
		}

		// 알 수 없는 출처는 버린다
		if bucket := res.Bucket(model.Source(strings.ToLower(string(row.Source)))); bucket != nil {
			bucket.Reviews = append(bucket.Reviews, row.Review)
		}
	}

	for _, name := range names {
		if _, ok := results[name]; ok {
			continue
		}
		res := model.NewStoreResult()
		if c, ok := candidates[name]; ok {
			if c.Address != "" {
				addr := c.Address
				res.Address = &addr
			}
			res.Lat = c.Coord.Lat
			res.Lng = c.Coord.Lng
		}
		results[name] = res
	}

	return results
}

// StoreCards returns stored attributes (address, coordinates, images) for a
// curated list of names, without reviews. Unknown names are omitted.
func (s *reviewService) StoreCards(names []string) (map[string]*model.StoreResult, error) {
	stores, err := s.storeRepo.FindByNames(names)
	if err != nil {
		return nil, err
	}

	cards := make(map[string]*model.StoreResult, len(stores))
	for i := range stores {
		st := &stores[i]
		// 같은 이름이 여러 주소에 있으면 최근 갱신된 것
		if _, seen := cards[st.Name]; seen {
			continue
		}
		card := model.NewStoreResult()
		card.Address = st.Address
		card.Lat = st.Lat
		card.Lng = st.Lng
		card.StoreImage = append(card.StoreImage, st.Images()...)
		cards[st.Name] = card
	}
	return cards, nil
}
