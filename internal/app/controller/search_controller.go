package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/lunchmap-backend/internal/app/service"
	apperrors "github.com/ikkim/lunchmap-backend/internal/errors"
	"github.com/ikkim/lunchmap-backend/internal/middleware"
)

type SearchController struct {
	pipeline service.PipelineService
}

func NewSearchController(pipeline service.PipelineService) *SearchController {
	return &SearchController{pipeline: pipeline}
}

// Search 키워드 검색 → 리뷰 수집 → 요약
// GET /api/v1/search?keyword=&lat=&lon=&session=&stale_days=&per_source_limit=
func (ctrl *SearchController) Search(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	q, fields := parseKeywordQuery(c)
	if len(fields) > 0 {
		apperrors.RespondWithValidationError(c, fields)
		return
	}

	// 세션이 없으면 새로 발급해서 돌려준다 (WebSocket 구독용)
	session := strings.TrimSpace(c.Query("session"))
	if session == "" {
		session = uuid.NewString()
	}

	result, err := ctrl.pipeline.Search(c.Request.Context(), session, q)
	if err != nil {
		log.Warn("Search failed", map[string]interface{}{
			"keyword": q.Keyword,
			"session": session,
			"error":   err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "search")
		return
	}

	log.Info("Search completed", map[string]interface{}{
		"keyword": q.Keyword,
		"stores":  len(result.Stores),
	})

	c.JSON(http.StatusOK, gin.H{
		"session":   session,
		"stores":    result.Stores,
		"summaries": result.Summaries,
		"distances": result.Distances,
		"order":     result.Order,
	})
}

// Cancel 진행 중인 검색의 결과를 폐기
// POST /api/v1/search/cancel?session=
func (ctrl *SearchController) Cancel(c *gin.Context) {
	session := strings.TrimSpace(c.Query("session"))
	if session == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "session이 필요합니다")
		return
	}

	ctrl.pipeline.Cancel(session)
	c.JSON(http.StatusOK, gin.H{
		"session":   session,
		"cancelled": true,
	})
}

func parseKeywordQuery(c *gin.Context) (service.KeywordQuery, map[string]string) {
	fields := make(map[string]string)
	q := service.KeywordQuery{
		Keyword: strings.TrimSpace(c.Query("keyword")),
		Query:   strings.TrimSpace(c.Query("q")),
	}
	if q.Keyword == "" {
		fields["keyword"] = "검색어를 입력해주세요"
	}

	q.Lat = parseOptionalFloat(c.Query("lat"), "lat", -90, 90, fields)
	q.Lon = parseOptionalFloat(c.Query("lon"), "lon", -180, 180, fields)
	if (q.Lat == nil) != (q.Lon == nil) {
		fields["lat"] = "lat과 lon은 함께 지정해야 합니다"
	}

	if v := c.Query("stale_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fields["stale_days"] = "0 이상의 정수여야 합니다"
		} else {
			q.StaleDays = &n
		}
	}

	if limit, ok := parseLimit(c, fields); ok {
		q.PerSourceLimit = limit
	}
	return q, fields
}

func parseOptionalFloat(raw, name string, lo, hi float64, fields map[string]string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < lo || f > hi {
		fields[name] = "좌표 값이 유효하지 않습니다"
		return nil
	}
	return &f
}

func parseLimit(c *gin.Context, fields map[string]string) (int, bool) {
	v := c.Query("per_source_limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		fields["per_source_limit"] = "0 이상의 정수여야 합니다"
		return 0, false
	}
	return n, true
}
