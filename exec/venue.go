package exec

import "context"

// Venue is the execution collaborator: it accepts a finalized order
// intent and answers status polls. Signing and transport live behind
// this interface, outside the core.
type Venue interface {
	PlaceOrder(ctx context.Context, intent OrderIntent) (orderID string, err error)
	OrderStatus(ctx context.Context, orderID string) (StatusReport, error)
	CancelOrder(ctx context.Context, orderID string) error
}
