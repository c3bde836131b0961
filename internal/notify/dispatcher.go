// Package notify carries the "new order" side-channel to the selling
// employee: placement appends an event to a Redis Stream outbox, the relay
// forwards it to Kafka, and a delivery worker consumes the topic. The order
// lifecycle never blocks on anything past the outbox append, and even that
// failure is reported, not fatal, to the placement.
package notify

import "context"

// Dispatcher accepts an order-summary event for eventual delivery to the
// employee. Implementations must not make delivery a placement concern:
// returning an error only means the event was not durably queued.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}
