package store

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/model"
)

// testDB opens a private in-memory database migrated with the full schema.
// cache=shared with a single pooled connection keeps the database alive for
// the test's lifetime and serializes concurrent access the way a real
// database would.
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

func seedUser(t *testing.T, db *gorm.DB, id int64, name string) *model.User {
	t.Helper()
	u := &model.User{ID: id, Name: name, Email: fmt.Sprintf("%s-%d@example.com", name, id)}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedItem(t *testing.T, db *gorm.DB, employeeID int64, name string, qty int) *model.Item {
	t.Helper()
	item := &model.Item{Name: name, EmployeeID: employeeID, Quantity: qty, Price: 1500}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedOrder(t *testing.T, db *gorm.DB, customerID, employeeID int64, itemID uint, qty int, status model.OrderStatus) *model.Order {
	t.Helper()
	o := &model.Order{
		OrderNo:    "ORD-" + uuid.New().String(),
		CustomerID: customerID,
		EmployeeID: employeeID,
		ItemID:     itemID,
		Quantity:   qty,
		Status:     status,
	}
	require.NoError(t, db.Create(o).Error)
	return o
}
