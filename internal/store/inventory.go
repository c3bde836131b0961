package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storefront/internal/apperr"
	"storefront/internal/model"
)

// InventoryStore is the inventory ledger plus the catalog reads that share
// its storage. Reservation is a single conditional UPDATE so concurrent
// purchases of the same item cannot oversell.
type InventoryStore struct {
	db *gorm.DB
}

func NewInventoryStore(db *gorm.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

// WithTx returns a copy bound to tx.
func (s *InventoryStore) WithTx(tx *gorm.DB) *InventoryStore {
	return &InventoryStore{db: tx}
}

// Reserve decrements the item's available quantity by qty and returns the
// item as it was at reservation time (seller id, name, price). It fails
// without touching stock when the item is unknown, has no seller, or has
// fewer than qty units left.
func (s *InventoryStore) Reserve(ctx context.Context, itemID uint, qty int) (*model.Item, error) {
	var item model.Item
	if err := s.db.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "item %d not found", itemID)
		}
		return nil, err
	}
	if item.EmployeeID == 0 {
		return nil, apperr.Newf(apperr.KindInvalidOwner, "item %d has no associated employee", itemID)
	}

	// Conditional decrement: the WHERE clause re-checks quantity inside the
	// statement, so a stale read above can only make us fail, never oversell.
	res := s.db.WithContext(ctx).Model(&model.Item{}).
		Where("id = ? AND quantity >= ?", itemID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Newf(apperr.KindInsufficientStock, "not enough quantity available for item %d", itemID)
	}

	item.Quantity -= qty
	return &item, nil
}

// Restock returns a reservation to stock after a failed placement. The
// stock_compensations row keyed by orderNo makes the compensation run at
// most once per placement attempt; the repeat call reports restocked=false.
func (s *InventoryStore) Restock(ctx context.Context, orderNo string, itemID uint, qty int) (bool, error) {
	comp := &model.StockCompensation{OrderNo: orderNo, ItemID: itemID, Quantity: qty}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comp).Error; err != nil {
			return err
		}
		return tx.Model(&model.Item{}).
			Where("id = ?", itemID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", qty)).Error
	})
	if err != nil {
		if likeUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns the full catalog.
func (s *InventoryStore) List(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := s.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListForSale returns in-stock items listed by employees other than viewerID,
// matching the storefront view a customer browses.
func (s *InventoryStore) ListForSale(ctx context.Context, viewerID int64) ([]model.Item, error) {
	var items []model.Item
	err := s.db.WithContext(ctx).
		Where("employee_id <> ? AND quantity > 0", viewerID).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem adds a listing for the given employee.
func (s *InventoryStore) CreateItem(ctx context.Context, employeeID int64, name string, qty int, price int64) (*model.Item, error) {
	item := &model.Item{
		Name:       name,
		EmployeeID: employeeID,
		Quantity:   qty,
		Price:      price,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}
