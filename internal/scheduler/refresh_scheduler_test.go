package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu      sync.Mutex
	queries []string
	failOn  string
}

func (r *recordingRunner) RunKeywordFlow(ctx context.Context, q service.KeywordQuery) (*service.FlowResult, error) {
	r.mu.Lock()
	r.queries = append(r.queries, q.Keyword)
	r.mu.Unlock()
	if q.Keyword == r.failOn {
		return nil, errors.New("search down")
	}
	return &service.FlowResult{Stale: []string{"A"}}, nil
}

func TestRefreshScheduler_RunOnce(t *testing.T) {
	runner := &recordingRunner{failOn: "판교 파스타"}
	s := NewRefreshScheduler(runner, &config.SchedulerConfig{
		RefreshCron:     "0 4 * * *",
		RefreshKeywords: []string{"정자동 고기집", "판교 파스타", "서현 국밥"},
	})

	s.RunOnce(context.Background())

	assert.Equal(t, []string{"정자동 고기집", "판교 파스타", "서현 국밥"}, runner.queries)
}

func TestRefreshScheduler_CancelledContext(t *testing.T) {
	runner := &recordingRunner{}
	s := NewRefreshScheduler(runner, &config.SchedulerConfig{
		RefreshCron:     "0 4 * * *",
		RefreshKeywords: []string{"a", "b"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.RunOnce(ctx)
	assert.Empty(t, runner.queries)
}

func TestRefreshScheduler_Start(t *testing.T) {
	t.Run("Disabled without keywords", func(t *testing.T) {
		s := NewRefreshScheduler(&recordingRunner{}, &config.SchedulerConfig{RefreshCron: "not a spec"})
		require.NoError(t, s.Start())
		s.Stop()
	})

	t.Run("Invalid spec", func(t *testing.T) {
		s := NewRefreshScheduler(&recordingRunner{}, &config.SchedulerConfig{
			RefreshCron:     "not a spec",
			RefreshKeywords: []string{"a"},
		})
		assert.Error(t, s.Start())
	})

	t.Run("Valid spec", func(t *testing.T) {
		s := NewRefreshScheduler(&recordingRunner{}, &config.SchedulerConfig{
			RefreshCron:     "@every 1h",
			RefreshKeywords: []string{"a"},
		})
		require.NoError(t, s.Start())
		s.Stop()
	})
}
