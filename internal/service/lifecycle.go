// Package service implements the order lifecycle: place, accept/decline,
// and the customer's received acknowledgment. It is the only component that
// mutates more than one store per operation, and it owns every invariant:
// stock is reserved before the order exists, the order and its pending
// decision are created together, and a resolution flips the order status,
// consumes the decision, and appends the transaction as one atomic step.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/apperr"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/store"
)

// Decision is the selling employee's call on a pending order.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// status maps the decision to the order's terminal status.
func (d Decision) status() (model.OrderStatus, error) {
	switch d {
	case DecisionAccept:
		return model.OrderAccepted, nil
	case DecisionDecline:
		return model.OrderDeclined, nil
	}
	return "", apperr.Newf(apperr.KindInvalid, "unknown decision %q", d)
}

type Lifecycle struct {
	db           *gorm.DB
	inventory    *store.InventoryStore
	orders       *store.OrderStore
	decisions    *store.DecisionStore
	transactions *store.TransactionStore
	users        *store.UserStore
	dispatcher   notify.Dispatcher
	log          *zap.Logger

	// newOrderNo is swappable in tests to force order-creation failures.
	newOrderNo func() string
}

func NewLifecycle(
	db *gorm.DB,
	inventory *store.InventoryStore,
	orders *store.OrderStore,
	decisions *store.DecisionStore,
	transactions *store.TransactionStore,
	users *store.UserStore,
	dispatcher notify.Dispatcher,
	log *zap.Logger,
) *Lifecycle {
	return &Lifecycle{
		db:           db,
		inventory:    inventory,
		orders:       orders,
		decisions:    decisions,
		transactions: transactions,
		users:        users,
		dispatcher:   dispatcher,
		log:          log,
		newOrderNo:   func() string { return "ORD-" + uuid.New().String() },
	}
}

// Place reserves qty units of the item for the customer, creates the pending
// order together with the employee's pending decision, and queues the
// notification. If anything past the reservation fails, the reservation is
// restocked before the error is returned, so a failed placement leaves no
// trace in inventory. Notification failures are reported in the log only:
// placement success is defined by durable order and inventory state.
func (s *Lifecycle) Place(ctx context.Context, customerID int64, itemID uint, qty int) (*model.Order, error) {
	if qty < 1 {
		return nil, apperr.New(apperr.KindInvalid, "quantity must be at least 1")
	}

	orderNo := s.newOrderNo()

	item, err := s.inventory.Reserve(ctx, itemID, qty)
	if err != nil {
		return nil, err
	}

	customerName, customerEmail := "Unknown", "Unknown"
	if customer, err := s.users.Get(ctx, customerID); err == nil {
		customerName, customerEmail = customer.Name, customer.Email
	}

	var order *model.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		order, txErr = s.orders.WithTx(tx).Create(ctx, orderNo, customerID, item.EmployeeID, item.ID, qty)
		if txErr != nil {
			return txErr
		}
		_, txErr = s.decisions.WithTx(tx).Open(ctx, order, item.Name, customerName, customerEmail)
		return txErr
	})
	if err != nil {
		restocked, restockErr := s.inventory.Restock(ctx, orderNo, item.ID, qty)
		if restockErr != nil {
			s.log.Error("restock after failed placement",
				zap.String("order_no", orderNo), zap.Uint("item_id", item.ID), zap.Error(restockErr))
		} else if !restocked {
			s.log.Warn("restock already applied", zap.String("order_no", orderNo))
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to place order")
	}

	ev := notify.Event{
		EventID:       uuid.New().String(),
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		EmployeeID:    order.EmployeeID,
		ItemName:      item.Name,
		Quantity:      qty,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
	}
	if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
		s.log.Warn("notification dispatch failed",
			zap.Uint("order_id", order.ID), zap.Int64("employee_id", order.EmployeeID), zap.Error(err))
	}

	return order, nil
}

// Resolve applies the employee's accept/decline to a pending order. The
// status compare-and-swap, the decision removal, and the transaction append
// run in one database transaction, so observers never see a resolved order
// without its transaction or a consumed decision without a status change.
// Of two concurrent resolvers, the CAS gives exactly one the win; the other
// gets AlreadyProcessed.
func (s *Lifecycle) Resolve(ctx context.Context, orderID uint, employeeID int64, decision Decision) (*model.Order, error) {
	target, err := decision.status()
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.EmployeeID != employeeID {
		return nil, apperr.Newf(apperr.KindUnauthorized, "order %d is not addressed to you", orderID)
	}
	if order.Status != model.OrderPending {
		return nil, apperr.Newf(apperr.KindAlreadyProcessed, "order %d already processed", orderID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).Transition(ctx, orderID, target); err != nil {
			return err
		}
		if err := s.decisions.WithTx(tx).Resolve(ctx, orderID); err != nil {
			// Decision already consumed: a concurrent resolver won.
			if apperr.KindOf(err) == apperr.KindNotFound {
				return apperr.Newf(apperr.KindAlreadyProcessed, "order %d already processed", orderID)
			}
			return err
		}
		_, err := s.transactions.WithTx(tx).Append(ctx, order, target)
		return err
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to resolve order")
	}

	order.Status = target
	return order, nil
}

// MarkReceived is the customer's acknowledgment that an accepted order
// arrived. It has no ledger effect: received is not a resolution event.
func (s *Lifecycle) MarkReceived(ctx context.Context, orderID uint, customerID int64) (*model.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, apperr.Newf(apperr.KindUnauthorized, "order %d is not yours", orderID)
	}
	if order.Status == model.OrderReceived {
		return nil, apperr.Newf(apperr.KindAlreadyProcessed, "order %d already marked received", orderID)
	}

	if err := s.orders.Transition(ctx, orderID, model.OrderReceived); err != nil {
		return nil, err
	}
	order.Status = model.OrderReceived
	return order, nil
}

// Orders returns the customer's order history, newest first.
func (s *Lifecycle) Orders(ctx context.Context, customerID int64) ([]store.OrderView, error) {
	var out []store.OrderView
	for v, err := range s.orders.ListByCustomer(ctx, customerID) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// OpenDecisions returns the employee's unresolved decision feed.
func (s *Lifecycle) OpenDecisions(ctx context.Context, employeeID int64) ([]model.PendingDecision, error) {
	return s.decisions.ListByEmployee(ctx, employeeID)
}
