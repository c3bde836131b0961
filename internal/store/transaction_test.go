package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperr"
	"storefront/internal/model"
)

func TestTransactionAppend_RecordsResolution(t *testing.T) {
	db := testDB(t)
	ledger := NewTransactionStore(db)
	order := seedOrder(t, db, 10, 7, 3, 2, model.OrderAccepted)

	txn, err := ledger.Append(context.Background(), order, model.OrderAccepted)
	require.NoError(t, err)
	assert.Equal(t, order.ID, txn.OrderID)
	assert.Equal(t, int64(10), txn.CustomerID)
	assert.Equal(t, uint(3), txn.ItemID)
	assert.Equal(t, 2, txn.Quantity)
	assert.Equal(t, model.OrderAccepted, txn.Status)
}

func TestTransactionAppend_DuplicateOrderRejected(t *testing.T) {
	db := testDB(t)
	ledger := NewTransactionStore(db)
	order := seedOrder(t, db, 10, 7, 3, 2, model.OrderAccepted)
	ctx := context.Background()

	_, err := ledger.Append(ctx, order, model.OrderAccepted)
	require.NoError(t, err)

	_, err = ledger.Append(ctx, order, model.OrderDeclined)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateTransaction, apperr.KindOf(err))

	var count int64
	require.NoError(t, db.Model(&model.Transaction{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTransactionAppend_OnlyResolvedStatuses(t *testing.T) {
	db := testDB(t)
	ledger := NewTransactionStore(db)
	order := seedOrder(t, db, 10, 7, 3, 2, model.OrderPending)

	for _, status := range []model.OrderStatus{model.OrderPending, model.OrderReceived} {
		_, err := ledger.Append(context.Background(), order, status)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	}
}
