package store

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/apperr"
	"storefront/internal/model"
)

// TransactionStore is the append-only ledger of resolved orders. There is no
// update or delete path; the unique order_id index rejects a second append
// for the same order.
type TransactionStore struct {
	db *gorm.DB
}

func NewTransactionStore(db *gorm.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) WithTx(tx *gorm.DB) *TransactionStore {
	return &TransactionStore{db: tx}
}

// Append records the resolution of order with the given terminal status.
func (s *TransactionStore) Append(ctx context.Context, order *model.Order, status model.OrderStatus) (*model.Transaction, error) {
	if !status.Resolved() {
		return nil, apperr.Newf(apperr.KindInvalid, "transaction status must be accepted or declined, got %q", status)
	}
	txn := &model.Transaction{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		ItemID:     order.ItemID,
		Quantity:   order.Quantity,
		Status:     status,
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		if likeUniqueViolation(err) {
			return nil, apperr.Newf(apperr.KindDuplicateTransaction, "transaction already recorded for order %d", order.ID)
		}
		return nil, err
	}
	return txn, nil
}
