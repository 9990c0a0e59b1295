package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/lunchmap-backend/pkg/kakao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	region kakao.Region
	err    error
	calls  int
}

func (f *fakeResolver) RegionOf(ctx context.Context, lat, lon float64) (kakao.Region, error) {
	f.calls++
	return f.region, f.err
}

func setupLocationControllerTest(r *fakeResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/location", NewLocationController(r).GetLocation)
	return router
}

func TestLocationController_GetLocation(t *testing.T) {
	r := &fakeResolver{region: kakao.Region{Gu: "분당구", Dong: "정자동"}}
	router := setupLocationControllerTest(r)

	w := doRequest(router, http.MethodGet, "/location?lat=37.367&lon=127.108")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "분당구", body["gu"])
	assert.Equal(t, "정자동", body["dong"])
}

func TestLocationController_Validation(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"Missing both", "/location"},
		{"Missing lon", "/location?lat=37.3"},
		{"Out of range", "/location?lat=95&lon=127"},
		{"Not a number", "/location?lat=abc&lon=127"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeResolver{}
			w := doRequest(setupLocationControllerTest(r), http.MethodGet, tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, r.calls)
		})
	}
}

func TestLocationController_UpstreamFailure(t *testing.T) {
	r := &fakeResolver{err: errors.New("failed to call Kakao API: timeout")}
	w := doRequest(setupLocationControllerTest(r), http.MethodGet, "/location?lat=37.3&lon=127.1")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "timeout")
}
