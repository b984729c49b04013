package domain

import "errors"

// Dialect tags which local-model wire protocol an endpoint speaks.
type Dialect string

const (
	// DialectChat is the chat-completion shape (messages list, choices[0].message).
	DialectChat Dialect = "chat"
	// DialectCompletion is the legacy single-prompt completion shape.
	DialectCompletion Dialect = "completion"
	// DialectGenerate is the generate shape ({model, prompt, stream:false}).
	DialectGenerate Dialect = "generate"
)

// EndpointCandidate is one probe-able model server address bound to a dialect.
type EndpointCandidate struct {
	BaseURL string  `json:"base_url"`
	Dialect Dialect `json:"dialect"`
	Model   string  `json:"model"`
}

// ErrNoModelLoaded reports a server that answered but has no model loaded.
// It is a protocol-level failure: retrying the same request cannot help, the
// endpoint must be re-resolved.
var ErrNoModelLoaded = errors.New("server reachable but no model loaded")

// ErrNoEndpoint reports that no candidate endpoint answered a probe.
var ErrNoEndpoint = errors.New("no model endpoint available")
