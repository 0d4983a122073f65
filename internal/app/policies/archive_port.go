package policies

import "context"

// GatewayArchiver stores raw provider payloads for reconciliation disputes.
// Best-effort: archive failures are logged and never fail the operation that
// produced the payload.
type GatewayArchiver interface {
	Archive(ctx context.Context, txRef, event string, payload []byte) error
}
