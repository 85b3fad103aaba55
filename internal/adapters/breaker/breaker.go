// Package breaker guards a ports.DataSource with a circuit breaker so a
// failing database is answered fast instead of piling up requests.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/ports"
	"github.com/samirrijal/coursemate/internal/pkg/metrics"
)

// Settings configures the breaker.
type Settings struct {
	// Name labels the breaker in logs and metrics.
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic reset period of the failure counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens it.
	FailureThreshold uint32
}

// DataSource wraps another DataSource. Acquire and every session call count
// toward the same breaker.
type DataSource struct {
	next ports.DataSource
	cb   *gobreaker.CircuitBreaker[any]
}

// Wrap returns next guarded by a breaker configured with s.
func Wrap(next ports.DataSource, s Settings) *DataSource {
	if s.Name == "" {
		s.Name = "datasource"
	}
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	metrics.BreakerState.WithLabelValues(s.Name).Set(float64(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			slog.Warn("circuit breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: isSuccessful,
	})
	return &DataSource{next: next, cb: cb}
}

// isSuccessful keeps caller-side outcomes from tripping the breaker.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrSpotNotFound) ||
		errors.Is(err, context.Canceled)
}

// State reports the current breaker state.
func (d *DataSource) State() gobreaker.State {
	return d.cb.State()
}

// Acquire implements ports.DataSource.
func (d *DataSource) Acquire(ctx context.Context) (ports.DataSession, error) {
	sess, err := execute(d.cb, "acquire", func() (ports.DataSession, error) {
		return d.next.Acquire(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &session{next: sess, cb: d.cb}, nil
}

type session struct {
	next ports.DataSession
	cb   *gobreaker.CircuitBreaker[any]
}

func (s *session) Release() { s.next.Release() }

func (s *session) TagsForUser(ctx context.Context, userID string) ([]string, error) {
	return execute(s.cb, "tags_for_user", func() ([]string, error) {
		return s.next.TagsForUser(ctx, userID)
	})
}

func (s *session) QueryByTagsAndRegion(ctx context.Context, tags []string, region string, excludeIDs []string) ([]domain.SentimentRecord, error) {
	return execute(s.cb, "query_evidence", func() ([]domain.SentimentRecord, error) {
		return s.next.QueryByTagsAndRegion(ctx, tags, region, excludeIDs)
	})
}

func (s *session) PopularInRegion(ctx context.Context, region string, excludeIDs []string, limit int) ([]domain.PopularSpot, error) {
	return execute(s.cb, "popular_in_region", func() ([]domain.PopularSpot, error) {
		return s.next.PopularInRegion(ctx, region, excludeIDs, limit)
	})
}

func (s *session) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	return execute(s.cb, "get_spot", func() (*domain.Spot, error) {
		return s.next.GetByID(ctx, id)
	})
}

func (s *session) GetByIDs(ctx context.Context, ids []string) ([]domain.Spot, error) {
	return execute(s.cb, "get_spots", func() ([]domain.Spot, error) {
		return s.next.GetByIDs(ctx, ids)
	})
}

// execute runs fn through cb. A rejected call surfaces as a DataAccessError
// wrapping the gobreaker sentinel.
func execute[T any](cb *gobreaker.CircuitBreaker[any], op string, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, &domain.DataAccessError{Op: op, Err: err}
	}
	v, _ := res.(T)
	return v, err
}
