package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/lunchmap-backend/internal/errors"
	"github.com/ikkim/lunchmap-backend/internal/middleware"
	"github.com/ikkim/lunchmap-backend/pkg/kakao"
)

type RegionResolver interface {
	RegionOf(ctx context.Context, lat, lon float64) (kakao.Region, error)
}

type LocationController struct {
	resolver RegionResolver
}

func NewLocationController(resolver RegionResolver) *LocationController {
	return &LocationController{resolver: resolver}
}

// GetLocation 현위치 구/동 조회
// GET /api/v1/location?lat=&lon=
func (ctrl *LocationController) GetLocation(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	fields := make(map[string]string)
	lat := parseOptionalFloat(c.Query("lat"), "lat", -90, 90, fields)
	lon := parseOptionalFloat(c.Query("lon"), "lon", -180, 180, fields)
	if lat == nil && fields["lat"] == "" {
		fields["lat"] = "필수 항목입니다"
	}
	if lon == nil && fields["lon"] == "" {
		fields["lon"] = "필수 항목입니다"
	}
	if len(fields) > 0 {
		apperrors.RespondWithValidationError(c, fields)
		return
	}

	region, err := ctrl.resolver.RegionOf(c.Request.Context(), *lat, *lon)
	if err != nil {
		log.Error("Failed to resolve region", err, map[string]interface{}{
			"lat": *lat,
			"lon": *lon,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.InternalExternalAPI, "현위치를 확인할 수 없습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gu":   region.Gu,
		"dong": region.Dong,
	})
}
