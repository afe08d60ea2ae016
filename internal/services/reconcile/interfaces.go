package reconcile

import (
	"context"

	"qrpay/internal/gateway"
)

// Service turns an asynchronous, unordered, possibly-duplicated rail
// notification into at most one state transition.
type Service interface {
	// Process verifies, normalizes and applies one webhook delivery.
	// The returned Outcome tells the handler what to acknowledge; an
	// error is returned only for faults where a rail retry could succeed
	// (storage down) or must be rejected outright (bad signature,
	// malformed payload).
	Process(ctx context.Context, railName string, rawBody []byte, getHeader func(string) string) (*Outcome, error)
}

// Outcome describes how a delivery was applied.
type Outcome struct {
	Status    gateway.Status
	Reference string

	// Duplicate means the delivery had already been applied; nothing
	// changed and the rail should not retry.
	Duplicate bool

	// UnknownReference means no session or transaction matched; logged
	// and acknowledged so the rail stops redelivering.
	UnknownReference bool

	// Conflict means a different external id had already completed the
	// target; held for manual review, acknowledged.
	Conflict bool

	// Anomalous means the settlement was recorded against a session that
	// had already reached a terminal state locally.
	Anomalous bool
}
