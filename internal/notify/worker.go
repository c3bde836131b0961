package notify

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Worker consumes the notifications topic and performs delivery to the
// employee. Delivery here is a structured log line standing in for the real
// channel (mail, push); the consumer group gives redelivery on crash.
type Worker struct {
	r   *kafka.Reader
	log *zap.Logger
}

func NewWorker(brokers []string, topic, groupID string, log *zap.Logger) *Worker {
	return &Worker{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		log: log,
	}
}

func (w *Worker) Close() error { return w.r.Close() }

func (w *Worker) Run(ctx context.Context) {
	for {
		m, err := w.r.ReadMessage(ctx)
		if err != nil {
			return // ctx cancel or broker gone
		}

		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			w.log.Warn("worker unmarshal", zap.Error(err))
			continue
		}
		if err := ev.Validate(); err != nil {
			w.log.Warn("worker drop invalid event", zap.Error(err))
			continue
		}

		w.log.Info("order notification delivered",
			zap.String("event_id", ev.EventID),
			zap.Int64("employee_id", ev.EmployeeID),
			zap.Uint("order_id", ev.OrderID),
			zap.String("item_name", ev.ItemName),
			zap.Int("quantity", ev.Quantity),
			zap.String("customer_name", ev.CustomerName),
		)
	}
}
