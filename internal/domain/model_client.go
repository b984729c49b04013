package domain

import "context"

// ModelCaller sends one prompt to a resolved endpoint and returns the raw
// model text. Implementations own the wire dialect; callers own retries.
type ModelCaller interface {
	Generate(ctx context.Context, endpoint EndpointCandidate, prompt string) (string, error)
}

// EndpointSource yields the currently trusted model endpoint. Resolve is
// idempotent and cheap once an endpoint is known; Invalidate forces the next
// Resolve to re-probe the candidate list.
type EndpointSource interface {
	Resolve(ctx context.Context) (*EndpointCandidate, error)
	Invalidate()
	// LastError describes why resolution last failed, distinguishing an
	// unreachable server from one with no model loaded.
	LastError() string
}
