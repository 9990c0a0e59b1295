package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/lunchmap-backend/internal/app/service"
	apperrors "github.com/ikkim/lunchmap-backend/internal/errors"
	"github.com/ikkim/lunchmap-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

// GetReviews 저장된 리뷰 조회 (크롤링/요약 없음)
// GET /api/v1/reviews?name=A&name=B&per_source_limit=
func (ctrl *ReviewController) GetReviews(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	names := queryNames(c)
	fields := make(map[string]string)
	if len(names) == 0 {
		fields["name"] = "매장명을 하나 이상 지정해주세요"
	}
	limit, _ := parseLimit(c, fields)
	if len(fields) > 0 {
		apperrors.RespondWithValidationError(c, fields)
		return
	}

	rows, err := ctrl.reviewService.FetchReviews(names, limit)
	if err != nil {
		log.Error("Failed to fetch reviews", err, map[string]interface{}{
			"names": len(names),
		})
		apperrors.ParseAndRespond(c, err, "review")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stores": ctrl.reviewService.Shape(rows, names, nil),
	})
}

// GetGoodStores 추천 매장 카드 (주소/이미지)
// GET /api/v1/stores/good?name=A&name=B
func (ctrl *ReviewController) GetGoodStores(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	names := queryNames(c)
	if len(names) == 0 {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "매장명을 하나 이상 지정해주세요")
		return
	}

	cards, err := ctrl.reviewService.StoreCards(names)
	if err != nil {
		log.Error("Failed to load store cards", err)
		apperrors.ParseAndRespond(c, err, "store")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stores": cards,
		"count":  len(cards),
	})
}

// queryNames accepts repeated ?name= and comma separated values.
func queryNames(c *gin.Context) []string {
	var names []string
	seen := make(map[string]bool)
	for _, raw := range c.QueryArray("name") {
		for _, part := range strings.Split(raw, ",") {
			name := strings.TrimSpace(part)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
