package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/lunchmap-backend/pkg/logger"
	"github.com/ikkim/lunchmap-backend/pkg/util"
)

const (
	DefaultBaseURL = "https://dapi.kakao.com"
	keywordPath    = "/v2/local/search/keyword.json"
	regionPath     = "/v2/local/geo/coord2regioncode.json"
	pageSize       = 15
)

// Client is a thin Kakao Local API client (keyword search, coord→region).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the client at another host (tests, proxies).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// KeywordRequest 키워드 장소 검색 조건
type KeywordRequest struct {
	Query    string
	Lat      *float64 // 기준 좌표 (없으면 키워드 검색만)
	Lon      *float64
	RadiusM  int
	Sort     string // accuracy | distance
	MaxPages int
}

// Place 검색 결과 장소
type Place struct {
	ID          string
	Name        string
	Address     string
	RoadAddress string
	Category    string
	Phone       string
	PlaceURL    string
	Lat         float64
	Lon         float64
	DistanceM   *int // 기준 좌표가 있을 때만
}

type keywordResponse struct {
	Documents []struct {
		ID              string `json:"id"`
		PlaceName       string `json:"place_name"`
		AddressName     string `json:"address_name"`
		RoadAddressName string `json:"road_address_name"`
		CategoryName    string `json:"category_name"`
		Phone           string `json:"phone"`
		PlaceURL        string `json:"place_url"`
		X               string `json:"x"` // longitude
		Y               string `json:"y"` // latitude
	} `json:"documents"`
	Meta struct {
		TotalCount int  `json:"total_count"`
		IsEnd      bool `json:"is_end"`
	} `json:"meta"`
}

// SearchKeyword runs the keyword search. With a reference coordinate the
// search is restricted to RadiusM around it and places come back nearest
// first; otherwise they keep Kakao's order.
func (c *Client) SearchKeyword(ctx context.Context, req KeywordRequest) ([]Place, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("kakao keyword search: empty query")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("KAKAO_API_KEY not set in environment")
	}

	order := req.Sort
	if order == "" {
		order = "accuracy"
	}
	maxPages := req.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	hasOrigin := req.Lat != nil && req.Lon != nil

	var places []Place
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("query", req.Query)
		params.Set("page", strconv.Itoa(page))
		params.Set("size", strconv.Itoa(pageSize))
		params.Set("sort", order)
		if hasOrigin {
			params.Set("x", strconv.FormatFloat(*req.Lon, 'f', -1, 64))
			params.Set("y", strconv.FormatFloat(*req.Lat, 'f', -1, 64))
			if req.RadiusM > 0 {
				params.Set("radius", strconv.Itoa(req.RadiusM))
			}
		}

		var result keywordResponse
		if err := c.get(ctx, keywordPath, params, &result); err != nil {
			return nil, err
		}

		for _, doc := range result.Documents {
			lat, errLat := strconv.ParseFloat(doc.Y, 64)
			lon, errLon := strconv.ParseFloat(doc.X, 64)
			if errLat != nil || errLon != nil {
				logger.Warn("Skipping place with malformed coordinates", map[string]interface{}{
					"place": doc.PlaceName,
				})
				continue
			}
			p := Place{
				ID:          doc.ID,
				Name:        doc.PlaceName,
				Address:     doc.AddressName,
				RoadAddress: doc.RoadAddressName,
				Category:    doc.CategoryName,
				Phone:       doc.Phone,
				PlaceURL:    doc.PlaceURL,
				Lat:         lat,
				Lon:         lon,
			}
			if hasOrigin {
				d := util.DistanceMeters(*req.Lat, *req.Lon, lat, lon)
				p.DistanceM = &d
			}
			places = append(places, p)
		}

		if result.Meta.IsEnd {
			break
		}
	}

	if hasOrigin {
		sort.SliceStable(places, func(i, j int) bool {
			return distanceOrMax(places[i]) < distanceOrMax(places[j])
		})
	}

	logger.Debug("Kakao keyword search completed", map[string]interface{}{
		"query":  req.Query,
		"places": len(places),
	})
	return places, nil
}

// 거리 없는 장소는 맨 뒤로
const unknownDistanceM = 999999

func distanceOrMax(p Place) int {
	if p.DistanceM == nil {
		return unknownDistanceM
	}
	return *p.DistanceM
}

// Region 좌표의 구/동
type Region struct {
	Gu   string
	Dong string
}

type regionResponse struct {
	Documents []struct {
		RegionType  string `json:"region_type"`
		Region2Name string `json:"region_2depth_name"`
		Region3Name string `json:"region_3depth_name"`
	} `json:"documents"`
}

// RegionOf resolves the gu/dong of a coordinate, preferring the legal (B)
// region over the administrative (H) one. A coordinate outside any region
// yields an empty Region and no error.
func (c *Client) RegionOf(ctx context.Context, lat, lon float64) (Region, error) {
	if c.apiKey == "" {
		return Region{}, fmt.Errorf("KAKAO_API_KEY not set in environment")
	}

	params := url.Values{}
	params.Set("x", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("input_coord", "WGS84")

	var result regionResponse
	if err := c.get(ctx, regionPath, params, &result); err != nil {
		return Region{}, err
	}

	for _, want := range []string{"B", "H"} {
		for _, doc := range result.Documents {
			if doc.RegionType == want {
				return Region{Gu: doc.Region2Name, Dong: doc.Region3Name}, nil
			}
		}
	}
	return Region{}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("KakaoAK %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Kakao API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kakao API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
