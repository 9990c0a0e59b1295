package service

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/pkg/llm"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRating = 3.0
	minRating     = 1.0
	maxRating     = 5.0
	maxComplaints = 6
)

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// GatherReviews takes reviews round-robin from kakao, google, naver and the
// generic bucket, dropping blanks and exact (trimmed) duplicates, until limit.
func GatherReviews(res *model.StoreResult, limit int) []string {
	if res == nil || limit <= 0 {
		return []string{}
	}

	var buckets [][]string
	for _, src := range model.Sources() {
		if b := res.Bucket(src); b != nil {
			buckets = append(buckets, b.Reviews)
		} else {
			buckets = append(buckets, nil)
		}
	}
	if len(res.Reviews) > 0 {
		buckets = append(buckets, res.Reviews)
	}

	idx := make([]int, len(buckets))
	seen := make(map[string]struct{})
	out := make([]string, 0, limit)

	remaining := func() bool {
		for k, b := range buckets {
			if idx[k] < len(b) {
				return true
			}
		}
		return false
	}

	for len(out) < limit && remaining() {
		for k, b := range buckets {
			if idx[k] >= len(b) {
				continue
			}
			rv := strings.TrimSpace(b[idx[k]])
			idx[k]++
			if rv == "" {
				continue
			}
			if _, dup := seen[rv]; dup {
				continue
			}
			seen[rv] = struct{}{}
			out = append(out, rv)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// ParseLLMOutput parses the model's reply as a JSON object, falling back to
// the widest {...} span in the text. Returns nil when neither parses.
func ParseLLMOutput(raw string) map[string]interface{} {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && parsed != nil {
		return parsed
	}

	span := jsonObjectPattern.FindString(raw)
	if span == "" {
		return nil
	}
	parsed = nil
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return nil
	}
	return parsed
}

// Sanitize coerces an LLM payload into a Summary. rawText is the review text
// that was sent; its rune length is reported as RawTextLen.
func Sanitize(parsed map[string]interface{}, rawText string) model.Summary {
	out := model.DefaultSummary(utf8.RuneCountInString(rawText))
	if parsed == nil {
		return out
	}

	if s, ok := parsed["one_liner"].(string); ok {
		out.OneLiner = strings.TrimSpace(s)
	}

	if v, ok := parsed["rating"]; ok {
		out.Rating = coerceRating(v)
	}

	if list, ok := parsed["complain"].([]interface{}); ok {
		for _, item := range list {
			s, ok := item.(string)
			if !ok || strings.TrimSpace(s) == "" {
				continue
			}
			out.Complain = append(out.Complain, s)
			if len(out.Complain) == maxComplaints {
				break
			}
		}
	}
	return out
}

func coerceRating(v interface{}) float64 {
	var r float64
	switch val := v.(type) {
	case float64:
		r = val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return defaultRating
		}
		r = f
	case bool:
		if val {
			r = 1
		}
	default:
		return defaultRating
	}
	if math.IsNaN(r) {
		return defaultRating
	}
	r = math.Max(minRating, math.Min(maxRating, r))
	return math.Round(r*10) / 10
}

// SummarizedFunc is called once per finished store from the goroutine that
// called SummarizeAll.
type SummarizedFunc func(name string, summary model.Summary)

type SummaryService interface {
	SummarizeAll(ctx context.Context, results map[string]*model.StoreResult, onDone SummarizedFunc) map[string]model.Summary
}

type summaryService struct {
	client     llm.Client
	maxReviews int
	maxWorkers int
}

func NewSummaryService(client llm.Client, cfg *config.LLMConfig) SummaryService {
	return &summaryService{
		client:     client,
		maxReviews: cfg.MaxReviewsPerStore,
		maxWorkers: max(cfg.MaxWorkers, 1),
	}
}

type storeSummary struct {
	name    string
	summary model.Summary
}

// SummarizeAll produces one Summary per store. Stores with no review text get
// the default without an LLM call; LLM failures degrade to the default too.
func (s *summaryService) SummarizeAll(ctx context.Context, results map[string]*model.StoreResult, onDone SummarizedFunc) map[string]model.Summary {
	out := make(map[string]model.Summary, len(results))
	if len(results) == 0 {
		return out
	}

	started := time.Now()
	done := make(chan storeSummary)

	go func() {
		var g errgroup.Group
		g.SetLimit(s.maxWorkers)
		for name, res := range results {
			g.Go(func() error {
				done <- storeSummary{name: name, summary: s.summarizeOne(ctx, name, res)}
				return nil
			})
		}
		_ = g.Wait()
		close(done)
	}()

	for r := range done {
		out[r.name] = r.summary
		if onDone != nil {
			onDone(r.name, r.summary)
		}
	}

	logger.Info("Summaries generated", map[string]interface{}{
		"stores":      len(out),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return out
}

func (s *summaryService) summarizeOne(ctx context.Context, name string, res *model.StoreResult) model.Summary {
	text := strings.Join(GatherReviews(res, s.maxReviews), "\n")
	if strings.TrimSpace(text) == "" {
		return model.DefaultSummary(0)
	}

	raw, err := s.client.Generate(ctx, llm.BuildSummaryPrompt(name, text))
	if err != nil {
		logger.Warn("LLM call failed, using default summary", map[string]interface{}{
			"store": name,
			"error": err.Error(),
		})
		return model.DefaultSummary(utf8.RuneCountInString(text))
	}

	parsed := ParseLLMOutput(raw)
	if parsed == nil {
		logger.Warn("LLM output was not JSON, using default summary", map[string]interface{}{
			"store":   name,
			"raw_len": len(raw),
		})
	}
	return Sanitize(parsed, text)
}
