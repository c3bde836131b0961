package notify

import (
	"context"

	rd "github.com/redis/go-redis/v9"
)

// Outbox is the Dispatcher used in the request path: one XADD into a Redis
// Stream. The relay drains the stream into Kafka asynchronously, so the
// request never waits on the broker.
type Outbox struct {
	rdb    *rd.Client
	stream string
}

func NewOutbox(rdb *rd.Client, stream string) *Outbox {
	return &Outbox{rdb: rdb, stream: stream}
}

func (o *Outbox) Dispatch(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	return o.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: o.stream,
		Values: ev.streamFields(),
	}).Err()
}
