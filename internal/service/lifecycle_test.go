package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/apperr"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/store"
)

// fakeDispatcher collects dispatched events and can be told to fail.
type fakeDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
	fail   bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, ev notify.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("dispatch unavailable")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Item{},
		&model.StockCompensation{},
		&model.Order{},
		&model.PendingDecision{},
		&model.Transaction{},
	))
	return db
}

func newTestLifecycle(t *testing.T, db *gorm.DB, d notify.Dispatcher) *Lifecycle {
	t.Helper()
	return NewLifecycle(
		db,
		store.NewInventoryStore(db),
		store.NewOrderStore(db),
		store.NewDecisionStore(db),
		store.NewTransactionStore(db),
		store.NewUserStore(db),
		d,
		zap.NewNop(),
	)
}

func seedUser(t *testing.T, db *gorm.DB, id int64, name string) {
	t.Helper()
	require.NoError(t, db.Create(&model.User{ID: id, Name: name, Email: fmt.Sprintf("%s-%d@example.com", name, id)}).Error)
}

func seedItem(t *testing.T, db *gorm.DB, employeeID int64, name string, qty int) *model.Item {
	t.Helper()
	item := &model.Item{Name: name, EmployeeID: employeeID, Quantity: qty, Price: 2500}
	require.NoError(t, db.Create(item).Error)
	return item
}

func itemQuantity(t *testing.T, db *gorm.DB, itemID uint) int {
	t.Helper()
	var item model.Item
	require.NoError(t, db.First(&item, itemID).Error)
	return item.Quantity
}

// checkDecisionInvariant asserts, for every order, that a live pending
// decision exists if and only if the order is still pending.
func checkDecisionInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var orders []model.Order
	require.NoError(t, db.Find(&orders).Error)
	for _, o := range orders {
		var count int64
		require.NoError(t, db.Model(&model.PendingDecision{}).Where("order_id = ?", o.ID).Count(&count).Error)
		if o.Status == model.OrderPending {
			assert.Equal(t, int64(1), count, "pending order %d must have exactly one open decision", o.ID)
		} else {
			assert.Equal(t, int64(0), count, "resolved order %d must have no open decision", o.ID)
		}
	}
}

// checkLedgerInvariant asserts every resolved order has exactly one
// transaction with matching status and pending orders have none.
func checkLedgerInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var orders []model.Order
	require.NoError(t, db.Find(&orders).Error)
	for _, o := range orders {
		var txns []model.Transaction
		require.NoError(t, db.Where("order_id = ?", o.ID).Find(&txns).Error)
		switch {
		case o.Status == model.OrderPending:
			assert.Empty(t, txns, "pending order %d must have no transaction", o.ID)
		case o.Status.Resolved() || o.Status == model.OrderReceived:
			require.Len(t, txns, 1, "order %d must have exactly one transaction", o.ID)
			want := o.Status
			if want == model.OrderReceived {
				want = model.OrderAccepted
			}
			assert.Equal(t, want, txns[0].Status)
		}
	}
}

func TestPlace_WidgetLifecycle(t *testing.T) {
	db := testDB(t)
	disp := &fakeDispatcher{}
	svc := newTestLifecycle(t, db, disp)
	ctx := context.Background()

	seedUser(t, db, 1, "Erin Seller")
	seedUser(t, db, 2, "Cara Customer")
	item := seedItem(t, db, 1, "Widget", 5)

	order, err := svc.Place(ctx, 2, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, int64(1), order.EmployeeID)
	assert.Equal(t, 2, itemQuantity(t, db, item.ID))
	checkDecisionInvariant(t, db)
	checkLedgerInvariant(t, db)

	// The seller's decision feed carries the placement snapshot.
	feed, err := svc.OpenDecisions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Widget", feed[0].ItemName)
	assert.Equal(t, 3, feed[0].Quantity)
	assert.Equal(t, "Cara Customer", feed[0].CustomerName)

	require.Equal(t, 1, disp.count())
	assert.Equal(t, order.ID, disp.events[0].OrderID)
	assert.Equal(t, int64(1), disp.events[0].EmployeeID)

	resolved, err := svc.Resolve(ctx, order.ID, 1, DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, model.OrderAccepted, resolved.Status)
	checkDecisionInvariant(t, db)
	checkLedgerInvariant(t, db)

	received, err := svc.MarkReceived(ctx, order.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.OrderReceived, received.Status)
	checkLedgerInvariant(t, db)
}

func TestPlace_RejectsNonPositiveQuantity(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})
	item := seedItem(t, db, 1, "Widget", 5)

	for _, qty := range []int{0, -3} {
		_, err := svc.Place(context.Background(), 2, item.ID, qty)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	}
	assert.Equal(t, 5, itemQuantity(t, db, item.ID))
}

func TestPlace_InsufficientStockLeavesNoTrace(t *testing.T) {
	db := testDB(t)
	disp := &fakeDispatcher{}
	svc := newTestLifecycle(t, db, disp)
	item := seedItem(t, db, 1, "Widget", 2)

	_, err := svc.Place(context.Background(), 2, item.ID, 5)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	assert.Equal(t, 2, itemQuantity(t, db, item.ID))
	var orderCount int64
	require.NoError(t, db.Model(&model.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, disp.count())
}

func TestPlace_ItemWithoutSellerRejected(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})
	item := seedItem(t, db, 0, "Orphan", 5)

	_, err := svc.Place(context.Background(), 2, item.ID, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidOwner, apperr.KindOf(err))
	assert.Equal(t, 5, itemQuantity(t, db, item.ID))
}

func TestPlace_DispatchFailureDoesNotFailPlacement(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{fail: true})
	item := seedItem(t, db, 1, "Widget", 5)

	order, err := svc.Place(context.Background(), 2, item.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, 4, itemQuantity(t, db, item.ID))
	checkDecisionInvariant(t, db)
}

func TestPlace_RestocksWhenOrderCreationFails(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})
	ctx := context.Background()
	item := seedItem(t, db, 1, "Widget", 5)

	// First placement succeeds and claims its order number.
	taken, err := svc.Place(ctx, 2, item.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, itemQuantity(t, db, item.ID))

	// Force the next placement to collide on the unique order number so
	// order creation fails after the stock was already reserved.
	svc.newOrderNo = func() string { return taken.OrderNo }

	_, err = svc.Place(ctx, 3, item.ID, 2)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	// The reservation was rolled back and no half-placed order remains.
	assert.Equal(t, 4, itemQuantity(t, db, item.ID))
	var orderCount int64
	require.NoError(t, db.Model(&model.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(1), orderCount)
	checkDecisionInvariant(t, db)
}

func TestResolve_DeclineRecordsTransactionWithoutRestock(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})
	ctx := context.Background()
	item := seedItem(t, db, 1, "Widget", 5)

	order, err := svc.Place(ctx, 2, item.ID, 3)
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, order.ID, 1, DecisionDecline)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDeclined, resolved.Status)

	// Declining does not release the reservation.
	assert.Equal(t, 2, itemQuantity(t, db, item.ID))
	checkDecisionInvariant(t, db)
	checkLedgerInvariant(t, db)
}

func TestResolve_WrongEmployeeUnauthorized(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})
	ctx := context.Background()
	item := seedItem(t, db, 1, "Widget", 5)

	order, err := svc.Place(ctx, 2, item.ID, 1)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, order.ID, 99, DecisionAccept)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	// The order is untouched and still resolvable by its addressee.
	checkDecisionInvariant(t, db)
	_, err = svc.Resolve(ctx, order.ID, 1, DecisionAccept)
	require.NoError(t, err)
}

func TestResolve_AlreadyProcessedHasNoSideEffects(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})
	ctx := context.Background()
	item := seedItem(t, db, 1, "Widget", 5)

	order, err := svc.Place(ctx, 2, item.ID, 1)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, order.ID, 1, DecisionAccept)
	require.NoError(t, err)

	for _, d := range []Decision{DecisionAccept, DecisionDecline} {
		_, err := svc.Resolve(ctx, order.ID, 1, d)
		require.Error(t, err)
		assert.Equal(t, apperr.KindAlreadyProcessed, apperr.KindOf(err))
	}

	var stored model.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, model.OrderAccepted, stored.Status)
	var txnCount int64
	require.NoError(t, db.Model(&model.Transaction{}).Where("order_id = ?", order.ID).Count(&txnCount).Error)
	assert.Equal(t, int64(1), txnCount)
}

func TestResolve_UnknownOrder(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})

	_, err := svc.Resolve(context.Background(), 404, 1, DecisionAccept)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestResolve_ConcurrentCallsHaveOneWinner(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})
	ctx := context.Background()
	item := seedItem(t, db, 1, "Widget", 5)

	order, err := svc.Place(ctx, 2, item.ID, 1)
	require.NoError(t, err)

	decisions := []Decision{DecisionAccept, DecisionDecline}
	outcomes := make([]error, len(decisions))
	var wg sync.WaitGroup
	for i, d := range decisions {
		wg.Add(1)
		go func(i int, d Decision) {
			defer wg.Done()
			_, outcomes[i] = svc.Resolve(ctx, order.ID, 1, d)
		}(i, d)
	}
	wg.Wait()

	wins, losses := 0, 0
	for _, err := range outcomes {
		if err == nil {
			wins++
			continue
		}
		losses++
		assert.Equal(t, apperr.KindAlreadyProcessed, apperr.KindOf(err))
	}
	assert.Equal(t, 1, wins, "exactly one resolver must win")
	assert.Equal(t, 1, losses)

	// One transaction, matching the winner's terminal status.
	var stored model.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.True(t, stored.Status.Resolved())
	var txns []model.Transaction
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&txns).Error)
	require.Len(t, txns, 1)
	assert.Equal(t, stored.Status, txns[0].Status)
	checkDecisionInvariant(t, db)
}

func TestMarkReceived_Authorization(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})
	ctx := context.Background()
	item := seedItem(t, db, 1, "Widget", 5)

	order, err := svc.Place(ctx, 2, item.ID, 1)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, order.ID, 1, DecisionAccept)
	require.NoError(t, err)

	_, err = svc.MarkReceived(ctx, order.ID, 99)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	got, err := svc.MarkReceived(ctx, order.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.OrderReceived, got.Status)

	_, err = svc.MarkReceived(ctx, order.ID, 2)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAlreadyProcessed, apperr.KindOf(err))
}

func TestMarkReceived_RequiresAcceptedOrder(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})
	ctx := context.Background()
	item := seedItem(t, db, 1, "Widget", 5)

	pending, err := svc.Place(ctx, 2, item.ID, 1)
	require.NoError(t, err)
	_, err = svc.MarkReceived(ctx, pending.ID, 2)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	declined, err := svc.Place(ctx, 2, item.ID, 1)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, declined.ID, 1, DecisionDecline)
	require.NoError(t, err)
	_, err = svc.MarkReceived(ctx, declined.ID, 2)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestOrders_ReturnsCustomerHistory(t *testing.T) {
	db := testDB(t)
	svc := newTestLifecycle(t, db, &fakeDispatcher{})
	ctx := context.Background()
	seedUser(t, db, 1, "Erin Seller")
	item := seedItem(t, db, 1, "Widget", 5)

	first, err := svc.Place(ctx, 2, item.ID, 1)
	require.NoError(t, err)
	second, err := svc.Place(ctx, 2, item.ID, 2)
	require.NoError(t, err)

	views, err := svc.Orders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, views, 2)
	ids := []uint{views[0].ID, views[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
	assert.Equal(t, "Widget", views[0].ItemName)
	assert.Equal(t, "Erin Seller", views[0].EmployeeName)

	other, err := svc.Orders(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, other)
}
