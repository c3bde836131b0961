package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storefront/internal/apperr"
	"storefront/internal/model"
)

// DecisionStore is the pending-decision registry: at most one open decision
// per order, removed exactly once when the seller resolves it.
type DecisionStore struct {
	db *gorm.DB
}

func NewDecisionStore(db *gorm.DB) *DecisionStore {
	return &DecisionStore{db: db}
}

func (s *DecisionStore) WithTx(tx *gorm.DB) *DecisionStore {
	return &DecisionStore{db: tx}
}

// Open creates the decision record for a freshly placed order. The unique
// order_id index turns a second open into AlreadyOpen instead of a silent
// duplicate.
func (s *DecisionStore) Open(ctx context.Context, order *model.Order, itemName, customerName, customerEmail string) (*model.PendingDecision, error) {
	d := &model.PendingDecision{
		OrderID:       order.ID,
		EmployeeID:    order.EmployeeID,
		ItemName:      itemName,
		Quantity:      order.Quantity,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
	}
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		if likeUniqueViolation(err) {
			return nil, apperr.Newf(apperr.KindAlreadyOpen, "decision already open for order %d", order.ID)
		}
		return nil, err
	}
	return d, nil
}

// GetByOrder fetches the open decision for an order.
func (s *DecisionStore) GetByOrder(ctx context.Context, orderID uint) (*model.PendingDecision, error) {
	var d model.PendingDecision
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "no open decision for order %d", orderID)
		}
		return nil, err
	}
	return &d, nil
}

// Resolve deletes the decision for orderID. When two resolvers race, the
// delete's row count picks the single winner: the loser gets NotFound.
func (s *DecisionStore) Resolve(ctx context.Context, orderID uint) error {
	res := s.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&model.PendingDecision{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.KindNotFound, "no open decision for order %d", orderID)
	}
	return nil
}

// ListByEmployee returns the employee's open decisions, oldest first, for
// the decision feed.
func (s *DecisionStore) ListByEmployee(ctx context.Context, employeeID int64) ([]model.PendingDecision, error) {
	var list []model.PendingDecision
	err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
