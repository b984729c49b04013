package modelhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"bookmark-analyzer/internal/domain"
)

// Prober answers whether an endpoint candidate is usable right now.
type Prober interface {
	Probe(ctx context.Context, endpoint domain.EndpointCandidate) error
}

// connectionState is the single shared mutable value of the engine: the
// endpoint currently trusted, plus the last resolution error. Only the
// resolver writes it.
type connectionState struct {
	mu      sync.RWMutex
	working *domain.EndpointCandidate
	lastErr string
}

// EndpointResolver walks an ordered candidate list, probing each with its
// dialect's adapter, and remembers the first one that answers coherently.
// Concurrent resolution attempts collapse into one probe sweep via
// singleflight; stale reads of the working endpoint are acceptable.
type EndpointResolver struct {
	candidates []domain.EndpointCandidate
	prober     Prober
	state      connectionState
	group      singleflight.Group
	logger     *slog.Logger
}

// NewEndpointResolver builds a resolver over the candidate list, probed in
// the given order.
func NewEndpointResolver(candidates []domain.EndpointCandidate, prober Prober, logger *slog.Logger) *EndpointResolver {
	return &EndpointResolver{
		candidates: candidates,
		prober:     prober,
		logger:     logger,
	}
}

// Resolve returns the working endpoint, probing the candidate list only when
// none is remembered. It is safe to call from any number of goroutines.
func (r *EndpointResolver) Resolve(ctx context.Context) (*domain.EndpointCandidate, error) {
	if ep := r.Working(); ep != nil {
		return ep, nil
	}

	result, err, _ := r.group.Do("resolve", func() (any, error) {
		// Re-check under the flight: another caller may have just resolved.
		if ep := r.Working(); ep != nil {
			return ep, nil
		}
		return r.probeAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.EndpointCandidate), nil
}

func (r *EndpointResolver) probeAll(ctx context.Context) (*domain.EndpointCandidate, error) {
	var lastErr error
	for _, candidate := range r.candidates {
		err := r.prober.Probe(ctx, candidate)
		if err == nil {
			r.setWorking(candidate)
			r.logger.Info("endpoint_resolved",
				slog.String("endpoint", candidate.BaseURL),
				slog.String("dialect", string(candidate.Dialect)))
			return r.Working(), nil
		}
		lastErr = err
		r.logger.Debug("endpoint_probe_failed",
			slog.String("endpoint", candidate.BaseURL),
			slog.String("dialect", string(candidate.Dialect)),
			slog.String("error", err.Error()))
	}

	msg := "no candidate endpoints configured"
	if lastErr != nil {
		if errors.Is(lastErr, domain.ErrNoModelLoaded) {
			msg = lastErr.Error()
		} else {
			msg = fmt.Sprintf("model server unreachable: %v", lastErr)
		}
	}
	r.setFailed(msg)
	return nil, fmt.Errorf("%w: %s", domain.ErrNoEndpoint, msg)
}

// Invalidate drops the remembered endpoint so the next Resolve re-probes.
func (r *EndpointResolver) Invalidate() {
	r.state.mu.Lock()
	r.state.working = nil
	r.state.mu.Unlock()
	r.logger.Info("endpoint_invalidated")
}

// Working returns a copy of the remembered endpoint, or nil.
func (r *EndpointResolver) Working() *domain.EndpointCandidate {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	if r.state.working == nil {
		return nil
	}
	ep := *r.state.working
	return &ep
}

// LastError describes the most recent resolution failure.
func (r *EndpointResolver) LastError() string {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	return r.state.lastErr
}

func (r *EndpointResolver) setWorking(candidate domain.EndpointCandidate) {
	r.state.mu.Lock()
	r.state.working = &candidate
	r.state.lastErr = ""
	r.state.mu.Unlock()
}

func (r *EndpointResolver) setFailed(msg string) {
	r.state.mu.Lock()
	r.state.working = nil
	r.state.lastErr = msg
	r.state.mu.Unlock()
}

var _ domain.EndpointSource = (*EndpointResolver)(nil)
