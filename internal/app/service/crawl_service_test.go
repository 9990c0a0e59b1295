package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/internal/crawler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCrawlKeyword(t *testing.T) {
	tests := []struct {
		name, store, address, keyword, want string
	}{
		{"Dong from address", "정자 삼겹살 본점", "경기 성남시 분당구 정자동 1", "근처 삼겹살", "정자동 정자"},
		{"Dong from keyword", "육전식당 4호점", "서울 중구 충무로 2", "신당동 고기", "신당동 육전식당"},
		{"Address wins over keyword", "가게", "서울 종로구 관철동 1", "신당동 고기", "관철동 가게"},
		{"Numbered dong", "을지면옥", "서울 중구 을지로3가 2동", "", "2동 을지면옥"},
		{"No dong anywhere", "을지면옥 본점", "서울 중구 충무로14길 2-1", "냉면", "을지면옥"},
		{"Dong glued to suffix is ignored", "가게", "정자동에서 가까움", "", "가게"},
		{"Blank name", "   ", "", "", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildCrawlKeyword(tt.store, tt.address, tt.keyword))
		})
	}
}

func TestExtractDong(t *testing.T) {
	assert.Equal(t, "정자동", ExtractDong("분당구 정자동"))
	assert.Equal(t, "", ExtractDong("분당구"))
	assert.Equal(t, "", ExtractDong(""))
}

func newProviders(failGoogleFor string) (*fakeProvider, *fakeProvider, *fakeProvider) {
	kakao := &fakeProvider{
		source:  model.SourceKakao,
		reviews: func(q string) []string { return []string{"kakao: " + q} },
		images:  []string{"https://img/k1.jpg", "https://img/k2.jpg"},
	}
	google := &fakeProvider{
		source:  model.SourceGoogle,
		reviews: func(q string) []string { return []string{"google: " + q} },
		failOn:  map[string]bool{failGoogleFor: true},
	}
	naver := &fakeProvider{
		source:  model.SourceNaver,
		reviews: func(q string) []string { return []string{"naver: " + q} },
	}
	return kakao, google, naver
}

func TestCrawlService_CrawlStores(t *testing.T) {
	kakao, google, naver := newProviders("B kw")
	svc := NewCrawlService([]crawler.Provider{kakao, google, naver}, &testConfig().Crawl)

	targets := []CrawlTarget{{Name: "A", Keyword: "A kw"}, {Name: "B", Keyword: "B kw"}, {Name: "C", Keyword: "C kw"}}

	var seen []string
	records := svc.CrawlStores(context.Background(), targets, func(name string, rec *model.CrawlRecord) {
		seen = append(seen, name)
	})

	require.Len(t, records, 3)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, seen)

	a := records["A"]
	assert.Equal(t, []string{"kakao: A kw"}, a.Reviews[model.SourceKakao])
	assert.Equal(t, []string{"google: A kw"}, a.Reviews[model.SourceGoogle])
	assert.Equal(t, []string{"naver: A kw"}, a.Reviews[model.SourceNaver])
	assert.Equal(t, []string{"https://img/k1.jpg", "https://img/k2.jpg"}, a.Images)
	assert.Nil(t, a.Address)

	// google 실패는 B의 다른 출처에 영향을 주지 않는다
	b := records["B"]
	assert.Empty(t, b.Reviews[model.SourceGoogle])
	assert.NotNil(t, b.Reviews[model.SourceGoogle])
	assert.Equal(t, []string{"kakao: B kw"}, b.Reviews[model.SourceKakao])
	assert.Equal(t, []string{"naver: B kw"}, b.Reviews[model.SourceNaver])

	assert.Equal(t, int32(3), kakao.calls.Load())
}

func TestCrawlService_BoundedStoreWorkers(t *testing.T) {
	kakao := &fakeProvider{source: model.SourceKakao, delay: 20 * time.Millisecond}
	cfg := config.CrawlConfig{StoreWorkers: 2, ProviderWorkers: 10, MaxReviews: 10}
	svc := NewCrawlService([]crawler.Provider{kakao}, &cfg)

	targets := make([]CrawlTarget, 0, 8)
	for i := 0; i < 8; i++ {
		targets = append(targets, CrawlTarget{Name: fmt.Sprintf("store-%d", i), Keyword: fmt.Sprintf("kw-%d", i)})
	}

	records := svc.CrawlStores(context.Background(), targets, nil)
	assert.Len(t, records, 8)
	assert.LessOrEqual(t, kakao.peak.Load(), int32(2))
	assert.Equal(t, int32(8), kakao.calls.Load())
}

func TestCrawlService_BoundedProviderWorkers(t *testing.T) {
	// 같은 provider를 세 번 등록해 한 매장 안의 동시 호출 수를 잰다
	shared := &fakeProvider{source: model.SourceKakao, delay: 20 * time.Millisecond}
	cfg := config.CrawlConfig{StoreWorkers: 1, ProviderWorkers: 1, MaxReviews: 10}
	svc := NewCrawlService([]crawler.Provider{shared, shared, shared}, &cfg)

	records := svc.CrawlStores(context.Background(), []CrawlTarget{
		{Name: "A", Keyword: "A"},
		{Name: "B", Keyword: "B"},
	}, nil)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(1), shared.peak.Load())
	assert.Equal(t, int32(6), shared.calls.Load())
}

func TestCrawlService_TaskTimeoutIsContained(t *testing.T) {
	slow := &fakeProvider{source: model.SourceGoogle, delay: 500 * time.Millisecond,
		reviews: func(string) []string { return []string{"too late"} }}
	fast := &fakeProvider{source: model.SourceNaver,
		reviews: func(string) []string { return []string{"on time"} }}

	cfg := config.CrawlConfig{StoreWorkers: 1, ProviderWorkers: 2, MaxReviews: 10, TaskTimeout: 30 * time.Millisecond}
	svc := NewCrawlService([]crawler.Provider{slow, fast}, &cfg)

	records := svc.CrawlStores(context.Background(), []CrawlTarget{{Name: "A", Keyword: "A"}}, nil)
	require.Contains(t, records, "A")
	assert.Empty(t, records["A"].Reviews[model.SourceGoogle])
	assert.Equal(t, []string{"on time"}, records["A"].Reviews[model.SourceNaver])
}

func TestCrawlService_NoTargets(t *testing.T) {
	svc := NewCrawlService(nil, &testConfig().Crawl)
	assert.Empty(t, svc.CrawlStores(context.Background(), nil, nil))
}
