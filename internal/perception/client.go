// Package perception is the boundary to the hosted text-generation service.
// The assistant treats a provider as an opaque Client; everything
// provider-specific (transport, auth, payload shape) stays behind it.
package perception

import (
	"context"
	"errors"
)

// Message is one prior turn of conversation handed to the provider.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Client is the text-generation gateway. One call per user turn; the caller
// guarantees a single in-flight request.
type Client interface {
	// Complete sends the system instruction, prior history, and the new
	// user text, returning the raw model response.
	Complete(ctx context.Context, system string, history []Message, userText string) (string, error)
}

// ErrMissingCredentials marks failures that look like an absent or rejected
// API key. Hosts show a distinct message for these so the user knows to fix
// configuration rather than retry.
var ErrMissingCredentials = errors.New("missing or invalid API credentials")

// IsCredentialError reports whether err is credential-shaped.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrMissingCredentials)
}
