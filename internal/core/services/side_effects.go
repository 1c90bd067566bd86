package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

// breakerRegistry keeps one circuit breaker per collaborator. A breaker
// opens after five consecutive failures and probes again after 30s.
type breakerRegistry struct {
	mu       sync.Mutex
	log      *logger.Logger
	breakers map[string]*gobreaker.CircuitBreaker
}

func newBreakerRegistry(log *logger.Logger) *breakerRegistry {
	return &breakerRegistry{
		log:      log,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (r *breakerRegistry) get(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			r.log.Warnw("side_effect_breaker_state", "collaborator", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about the collaborator.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	r.breakers[name] = cb
	return cb
}

// sideEffects runs collaborator calls whose failure must never reach the
// caller: errors and panics are logged and dropped.
type sideEffects struct {
	log      *logger.Logger
	breakers *breakerRegistry
}

func newSideEffects(log *logger.Logger, withBreakers bool) *sideEffects {
	s := &sideEffects{log: log}
	if withBreakers {
		s.breakers = newBreakerRegistry(log)
	}
	return s
}

// bestEffort calls fn under the breaker for collaborator. keysAndValues are
// appended to the warning logged on failure.
func (s *sideEffects) bestEffort(ctx context.Context, collaborator, op string, fn func(context.Context) error, keysAndValues ...any) {
	if id := logger.RequestID(ctx); id != "" {
		keysAndValues = append(keysAndValues, "request_id", id)
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("side_effect_panic", append([]any{"collaborator", collaborator, "op", op, "panic", r}, keysAndValues...)...)
		}
	}()

	var err error
	if s.breakers != nil {
		_, err = s.breakers.get(collaborator).Execute(func() (interface{}, error) {
			return nil, fn(ctx)
		})
	} else {
		err = fn(ctx)
	}
	if err != nil {
		s.log.Warnw("side_effect_failed", append([]any{"collaborator", collaborator, "op", op, "error", err}, keysAndValues...)...)
	}
}
