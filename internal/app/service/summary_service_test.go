package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeResult(kakao, google, naver []string) *model.StoreResult {
	res := model.NewStoreResult()
	res.Kakao.Reviews = kakao
	res.Google.Reviews = google
	res.Naver.Reviews = naver
	return res
}

func TestGatherReviews(t *testing.T) {
	t.Run("Round robin across sources", func(t *testing.T) {
		res := storeResult([]string{"k1", "k2", "k3"}, []string{"g1"}, []string{"n1", "n2"})
		assert.Equal(t, []string{"k1", "g1", "n1", "k2", "n2", "k3"}, GatherReviews(res, 60))
	})

	t.Run("Dedupe and drop blanks", func(t *testing.T) {
		res := storeResult([]string{" 맛있어요 ", ""}, []string{"맛있어요", "친절"}, nil)
		assert.Equal(t, []string{"맛있어요", "친절"}, GatherReviews(res, 60))
	})

	t.Run("Limit", func(t *testing.T) {
		res := storeResult([]string{"k1", "k2"}, []string{"g1", "g2"}, []string{"n1"})
		assert.Equal(t, []string{"k1", "g1", "n1"}, GatherReviews(res, 3))
	})

	t.Run("Generic bucket joins the rotation", func(t *testing.T) {
		res := storeResult([]string{"k1"}, nil, nil)
		res.Reviews = []string{"r1", "r2"}
		assert.Equal(t, []string{"k1", "r1", "r2"}, GatherReviews(res, 60))
	})

	t.Run("Nil result", func(t *testing.T) {
		assert.Empty(t, GatherReviews(nil, 60))
	})
}

func TestParseLLMOutput(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOK bool
	}{
		{"Strict JSON", `{"one_liner": "좋아요", "rating": 4.5}`, true},
		{"Wrapped in prose", "결과는 다음과 같습니다:\n```json\n{\"rating\": 4}\n```", true},
		{"No JSON", "죄송하지만 요약할 수 없습니다", false},
		{"Broken JSON", `{"rating": 4,`, false},
		{"Array is not an object", `[1, 2]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLLMOutput(tt.raw)
			if tt.wantOK {
				assert.NotNil(t, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestSanitize_Rating(t *testing.T) {
	tests := []struct {
		name   string
		rating interface{}
		want   float64
	}{
		{"Above range", 7.2, 5.0},
		{"Below range", -1.0, 1.0},
		{"Not numeric", "abc", 3.0},
		{"Numeric string", " 4.26 ", 4.3},
		{"Rounded", 3.14159, 3.1},
		{"Null", nil, 3.0},
		{"Object", map[string]interface{}{}, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(map[string]interface{}{"rating": tt.rating}, "x")
			assert.Equal(t, tt.want, got.Rating)
		})
	}
}

func TestSanitize_Fields(t *testing.T) {
	parsed := map[string]interface{}{
		"one_liner": "  가성비 좋은 고깃집  ",
		"complain":  []interface{}{"웨이팅", "", "  ", 3, "주차", "a", "b", "c", "d", "e"},
	}

	got := Sanitize(parsed, "리뷰 다섯글자")
	assert.Equal(t, "가성비 좋은 고깃집", got.OneLiner)
	assert.Equal(t, 3.0, got.Rating)
	assert.Equal(t, []string{"웨이팅", "주차", "a", "b", "c", "d"}, got.Complain)
	assert.Equal(t, 7, got.RawTextLen)

	fallback := Sanitize(nil, "abc")
	assert.Equal(t, model.Summary{Rating: 3.0, Complain: []string{}, RawTextLen: 3}, fallback)

	wrongTypes := Sanitize(map[string]interface{}{"one_liner": 12, "complain": "웨이팅"}, "")
	assert.Equal(t, "", wrongTypes.OneLiner)
	assert.Empty(t, wrongTypes.Complain)
}

func TestSummaryService_SummarizeAll(t *testing.T) {
	client := &fakeLLM{reply: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "[매장명]\nbroken"):
			return "모르겠어요", nil
		case strings.Contains(prompt, "[매장명]\ndown"):
			return "", errors.New("connection refused")
		}
		return "```json\n{\"one_liner\": \"괜찮은 집\", \"rating\": 9, \"complain\": [\"비쌈\"]}\n```", nil
	}}
	svc := NewSummaryService(client, &config.LLMConfig{MaxReviewsPerStore: 60, MaxWorkers: 2})

	results := map[string]*model.StoreResult{
		"good":   storeResult([]string{"맛있다"}, nil, nil),
		"broken": storeResult(nil, []string{"별로"}, nil),
		"down":   storeResult(nil, nil, []string{"그럭저럭"}),
		"empty":  model.NewStoreResult(),
	}

	var done []string
	out := svc.SummarizeAll(context.Background(), results, func(name string, _ model.Summary) {
		done = append(done, name)
	})
	require.Len(t, out, 4)
	assert.ElementsMatch(t, []string{"good", "broken", "down", "empty"}, done)

	assert.Equal(t, model.Summary{OneLiner: "괜찮은 집", Rating: 5.0, Complain: []string{"비쌈"}, RawTextLen: 3}, out["good"])
	assert.Equal(t, model.Summary{Rating: 3.0, Complain: []string{}, RawTextLen: 2}, out["broken"])
	assert.Equal(t, model.Summary{Rating: 3.0, Complain: []string{}, RawTextLen: 4}, out["down"])
	assert.Equal(t, model.Summary{Rating: 3.0, Complain: []string{}, RawTextLen: 0}, out["empty"])

	// 빈 매장은 LLM을 호출하지 않는다
	assert.Equal(t, int32(3), client.calls.Load())
}

func TestSummaryService_EmptyTextSkipsLLM(t *testing.T) {
	client := &fakeLLM{}
	svc := NewSummaryService(client, &config.LLMConfig{MaxReviewsPerStore: 60, MaxWorkers: 6})

	out := svc.SummarizeAll(context.Background(), map[string]*model.StoreResult{
		"A": storeResult([]string{"  "}, []string{""}, nil),
	}, nil)

	assert.Equal(t, model.DefaultSummary(0), out["A"])
	assert.Equal(t, int32(0), client.calls.Load())
}
