package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/lunchmap-backend/internal/app/model"
)

// Result 한 출처에서 한 매장에 대해 수집한 결과
type Result struct {
	Reviews []string
	Images  []string // kakao만 채움
}

// Provider is one review source. Implementations must honor ctx when they
// can; Invoke contains the ones that don't.
type Provider interface {
	Name() model.Source
	Crawl(ctx context.Context, query string, maxReviews int) (Result, error)
}

// CollaboratorError is a contained provider failure. It never aborts a batch;
// the caller substitutes an empty result.
type CollaboratorError struct {
	Provider model.Source
	Query    string
	Err      error
	Panicked bool
	TimedOut bool
}

func (e *CollaboratorError) Error() string {
	switch {
	case e.Panicked:
		return fmt.Sprintf("%s crawl %q panicked: %v", e.Provider, e.Query, e.Err)
	case e.TimedOut:
		return fmt.Sprintf("%s crawl %q timed out: %v", e.Provider, e.Query, e.Err)
	}
	return fmt.Sprintf("%s crawl %q failed: %v", e.Provider, e.Query, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Outcome is either a Result or a CollaboratorError, never both.
type Outcome struct {
	Provider model.Source
	Result   Result
	Err      *CollaboratorError
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Invoke runs one provider call with an optional deadline. Errors, panics and
// an expired deadline all come back as a CollaboratorError. On expiry the
// provider goroutine is abandoned, not interrupted; its late result is dropped.
func Invoke(ctx context.Context, p Provider, query string, maxReviews int, timeout time.Duration) Outcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type reply struct {
		result Result
		err    error
		panic  bool
	}
	done := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("%v", r), panic: true}
			}
		}()
		res, err := p.Crawl(ctx, query, maxReviews)
		done <- reply{result: res, err: err}
	}()

	fail := func(err error) Outcome {
		return Outcome{Provider: p.Name(), Err: &CollaboratorError{Provider: p.Name(), Query: query, Err: err}}
	}

	select {
	case r := <-done:
		if r.panic {
			out := fail(r.err)
			out.Err.Panicked = true
			return out
		}
		if r.err != nil {
			out := fail(r.err)
			out.Err.TimedOut = errors.Is(r.err, context.DeadlineExceeded)
			return out
		}
		return Outcome{Provider: p.Name(), Result: normalize(r.result)}
	case <-ctx.Done():
		out := fail(ctx.Err())
		out.Err.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		return out
	}
}

// normalize guarantees non-nil slices and caps images to what a store row keeps.
func normalize(r Result) Result {
	if r.Reviews == nil {
		r.Reviews = []string{}
	}
	if len(r.Images) > model.MaxStoreImages {
		r.Images = r.Images[:model.MaxStoreImages]
	}
	return r
}
