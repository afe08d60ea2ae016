// Package gateway defines the uniform contract every payment rail
// implements. Session and reconciler code depends only on this contract;
// adding a rail means adding an implementation, not touching callers.
package gateway

import (
	"context"
)

// Gateway names.
const (
	NameCardRail = "cardrail"
	NameCliq     = "cliq"
)

// Gateway is the capability set of one external settlement rail.
//
// Implementations must redact PAN/CVV/secrets before logging anything,
// bound every HTTP call with a timeout, and echo the caller's reference in
// the rail's merchant-reference field so webhooks stay resolvable even
// when the rail's own transaction id changes between calls.
type Gateway interface {
	Name() string

	// Initiate starts a charge. RedirectURL is set when the rail requires
	// strong customer authentication before settling.
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)

	Authorize(ctx context.Context, req InitiateRequest) (*OperationResponse, error)
	Capture(ctx context.Context, externalID string, amount Amount) (*OperationResponse, error)
	Void(ctx context.Context, externalID string) (*OperationResponse, error)
	Refund(ctx context.Context, externalID string, amount Amount) (*OperationResponse, error)

	// Tokenize exchanges raw card data for a reusable token. The raw card
	// number never leaves this call; callers persist only the token and
	// the display fields.
	Tokenize(ctx context.Context, card CardData, customerRef string) (*TokenizedCard, error)

	// ParseWebhookPayload normalizes a rail-native notification into the
	// fixed status vocabulary.
	ParseWebhookPayload(raw []byte) (*WebhookPayload, error)

	// VerifySignature authenticates a webhook delivery. getHeader looks
	// up a request header by name; rails differ in which header carries
	// the signature and how it is encoded.
	VerifySignature(rawBody []byte, getHeader func(string) string) bool
}

// Registry holds the configured rails keyed by name.
type Registry struct {
	rails map[string]Gateway
}

func NewRegistry(rails ...Gateway) *Registry {
	r := &Registry{rails: make(map[string]Gateway, len(rails))}
	for _, g := range rails {
		r.rails[g.Name()] = g
	}
	return r
}

// Get returns the rail registered under name, or false.
func (r *Registry) Get(name string) (Gateway, bool) {
	g, ok := r.rails[name]
	return g, ok
}
