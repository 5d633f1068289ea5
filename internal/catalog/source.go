package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned when the configuration store refuses reads.
var ErrUnavailable = errors.New("shipping configuration unavailable")

// Source yields the configuration snapshot for one quote computation.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Static always returns the same snapshot.
type Static struct {
	snap Snapshot
}

func NewStatic(snap Snapshot) *Static { return &Static{snap: snap.Clone()} }

func (s *Static) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.snap.Clone(), nil
}

// Live holds a snapshot that can be replaced while quotes are being computed.
// Readers always receive a private copy.
type Live struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewLive validates snap and returns a holder for it.
func NewLive(snap Snapshot) (*Live, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &Live{snap: snap.Clone()}, nil
}

// Update swaps in a new snapshot. An invalid snapshot leaves the current one
// in place.
func (l *Live) Update(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap = snap.Clone()
	l.mu.Lock()
	l.snap = snap
	l.mu.Unlock()
	return nil
}

func (l *Live) Snapshot(ctx context.Context) (Snapshot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap.Clone(), nil
}

// BreakerSettings configures the circuit breaker used by Guarded.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	OnStateChange    func(name string, from, to gobreaker.State)
}

// DefaultBreakerSettings trips after five consecutive failures and probes
// again after thirty seconds.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Guarded wraps a Source with a circuit breaker. While the breaker is open
// reads fail immediately with ErrUnavailable.
type Guarded struct {
	next Source
	cb   *gobreaker.CircuitBreaker
}

func NewGuarded(next Source, settings BreakerSettings) *Guarded {
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Context cancellation says nothing about the health of the store.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: settings.OnStateChange,
	})
	return &Guarded{next: next, cb: cb}
}

func (g *Guarded) Snapshot(ctx context.Context) (Snapshot, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.Snapshot(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Snapshot{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return Snapshot{}, err
	}
	return res.(Snapshot), nil
}

// State exposes the breaker state for health reporting.
func (g *Guarded) State() gobreaker.State { return g.cb.State() }
