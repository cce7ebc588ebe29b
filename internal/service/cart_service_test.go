package service

import (
	"errors"
	"testing"

	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"

	"gorm.io/gorm"
)

func newTestCartService(db *gorm.DB) *CartService {
	return NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
}

func TestCartUpsertAccumulatesQuantity(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	svc := newTestCartService(db)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	summary, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("items want 1 got %d", len(summary.Items))
	}
	if summary.Items[0].Quantity != 3 {
		t.Fatalf("quantity want 3 got %d", summary.Items[0].Quantity)
	}
	// 1499 x 3
	if got := summary.TotalAmount.String(); got != "4497" {
		t.Fatalf("total want 4497 got %s", got)
	}
}

func TestCartUpsertRejectsInactiveProduct(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	svc := newTestCartService(db)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 1}); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("inactive product want ErrProductNotAvailable got %v", err)
	}
}

func TestCartListPrunesDeactivatedProduct(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	keep := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	gone := createTestProduct(t, db, category.ID, "speaker", "899", "0", 5)
	svc := newTestCartService(db)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: keep.ID, Quantity: 1}); err != nil {
		t.Fatalf("upsert keep failed: %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: gone.ID, Quantity: 1}); err != nil {
		t.Fatalf("upsert gone failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", gone.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	summary, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(summary.Items) != 1 || summary.Items[0].ProductID != keep.ID {
		t.Fatalf("deactivated product should be pruned, got %+v", summary.Items)
	}

	var count int64
	db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&count)
	if count != 1 {
		t.Fatalf("cart rows want 1 got %d", count)
	}
}

func TestCartListUsesMRPWhenNoSellingPrice(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "speaker", "899", "0", 5)
	svc := newTestCartService(db)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	summary, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if got := summary.Items[0].UnitPrice.String(); got != "899" {
		t.Fatalf("unit price want 899 got %s", got)
	}
	if got := summary.TotalAmount.String(); got != "1798" {
		t.Fatalf("total want 1798 got %s", got)
	}
}

func TestCartSetQuantity(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	svc := newTestCartService(db)

	if err := svc.SetQuantity(1, product.ID, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("set quantity on missing item want ErrNotFound got %v", err)
	}

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := svc.SetQuantity(1, product.ID, 5); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	summary, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if summary.Items[0].Quantity != 5 {
		t.Fatalf("quantity want 5 got %d", summary.Items[0].Quantity)
	}

	// 数量置 0 等价删除
	if err := svc.SetQuantity(1, product.ID, 0); err != nil {
		t.Fatalf("set quantity zero failed: %v", err)
	}
	summary, err = svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Fatalf("cart should be empty, got %d items", len(summary.Items))
	}
}

func TestCartClear(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	a := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	b := createTestProduct(t, db, category.ID, "speaker", "899", "0", 5)
	svc := newTestCartService(db)

	for _, p := range []*models.Product{a, b} {
		if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: p.ID, Quantity: 1}); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}
	if err := svc.Clear(1); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	var count int64
	db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&count)
	if count != 0 {
		t.Fatalf("cart rows want 0 got %d", count)
	}
}
