package store

import (
	"context"
	"errors"
	"iter"
	"time"

	"gorm.io/gorm"

	"storefront/internal/apperr"
	"storefront/internal/model"
)

// OrderStore persists orders and owns the status state machine. Transitions
// are compare-and-swap updates on the current status, so concurrent writers
// racing on the same order produce exactly one winner.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) WithTx(tx *gorm.DB) *OrderStore {
	return &OrderStore{db: tx}
}

// legalTransitions is the whole state machine: pending resolves once,
// accepted may be acknowledged once, declined and received are terminal.
var legalTransitions = map[model.OrderStatus]model.OrderStatus{
	model.OrderAccepted: model.OrderPending,
	model.OrderDeclined: model.OrderPending,
	model.OrderReceived: model.OrderAccepted,
}

// Create inserts a new pending order.
func (s *OrderStore) Create(ctx context.Context, orderNo string, customerID, employeeID int64, itemID uint, qty int) (*model.Order, error) {
	order := &model.Order{
		OrderNo:    orderNo,
		CustomerID: customerID,
		EmployeeID: employeeID,
		ItemID:     itemID,
		Quantity:   qty,
		Status:     model.OrderPending,
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Get fetches one order.
func (s *OrderStore) Get(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "order %d not found", orderID)
		}
		return nil, err
	}
	return &order, nil
}

// Transition moves the order to next via a conditional update gated on the
// required current status. A zero-row update means the order either moved
// already (already processed) or was never in the required state.
func (s *OrderStore) Transition(ctx context.Context, orderID uint, next model.OrderStatus) error {
	from, ok := legalTransitions[next]
	if !ok {
		return apperr.Newf(apperr.KindInvalidTransition, "no transition to status %q", next)
	}

	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Lost the CAS. Distinguish unknown orders from already-moved ones.
	var order model.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Newf(apperr.KindNotFound, "order %d not found", orderID)
		}
		return err
	}
	if order.Status == from {
		// Should not happen outside a racing delete; report as processed
		// so the caller retries its read.
		return apperr.Newf(apperr.KindAlreadyProcessed, "order %d already processed", orderID)
	}
	if from == model.OrderPending {
		return apperr.Newf(apperr.KindAlreadyProcessed, "order %d already processed", orderID)
	}
	return apperr.Newf(apperr.KindInvalidTransition, "order %d is %s, cannot move to %s", orderID, order.Status, next)
}

// OrderView is one row of a customer's order history, enriched with the
// item name and the selling employee's display name.
type OrderView struct {
	ID           uint              `json:"id"`
	OrderNo      string            `json:"order_no"`
	Quantity     int               `json:"quantity"`
	Status       model.OrderStatus `json:"status"`
	ItemName     string            `json:"item_name"`
	EmployeeName string            `json:"employee_name"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ListByCustomer returns the customer's orders newest-first as a restartable
// sequence: each range over it re-runs the query and scans rows lazily.
// A scan or query failure is yielded once as the error element and ends the
// sequence.
func (s *OrderStore) ListByCustomer(ctx context.Context, customerID int64) iter.Seq2[OrderView, error] {
	return func(yield func(OrderView, error) bool) {
		rows, err := s.db.WithContext(ctx).Model(&model.Order{}).
			Select(`orders.id, orders.order_no, orders.quantity, orders.status, orders.created_at,
				COALESCE(items.name, 'Unknown') AS item_name,
				COALESCE(users.name, 'Unknown') AS employee_name`).
			Joins("LEFT JOIN items ON items.id = orders.item_id").
			Joins("LEFT JOIN users ON users.id = orders.employee_id").
			Where("orders.customer_id = ?", customerID).
			Order("orders.created_at DESC, orders.id DESC").
			Rows()
		if err != nil {
			yield(OrderView{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var v OrderView
			if err := rows.Scan(&v.ID, &v.OrderNo, &v.Quantity, &v.Status, &v.CreatedAt, &v.ItemName, &v.EmployeeName); err != nil {
				yield(OrderView{}, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(OrderView{}, err)
		}
	}
}
