package service

import (
	"errors"
	"testing"

	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"

	"gorm.io/gorm"
)

func newTestProductService(db *gorm.DB) *ProductService {
	return NewProductService(repository.NewProductRepository(db))
}

func newTestCategoryService(db *gorm.DB) *CategoryService {
	return NewCategoryService(repository.NewCategoryRepository(db), repository.NewProductRepository(db))
}

func TestProductCreateValidation(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	svc := newTestProductService(db)

	base := CreateProductInput{
		CategoryID:   category.ID,
		Slug:         "earphones",
		Name:         "无线耳机",
		MRP:          testMoney(t, "1999"),
		SellingPrice: testMoney(t, "1499"),
	}

	if _, err := svc.Create(base); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 同 slug 二次创建被拒
	if _, err := svc.Create(base); !errors.Is(err, ErrSlugExists) {
		t.Fatalf("duplicate slug want ErrSlugExists got %v", err)
	}

	bad := base
	bad.Slug = "overpriced"
	bad.SellingPrice = testMoney(t, "2999")
	if _, err := svc.Create(bad); !errors.Is(err, ErrProductPriceInvalid) {
		t.Fatalf("selling above mrp want ErrProductPriceInvalid got %v", err)
	}

	bad = base
	bad.Slug = "free"
	bad.MRP = testMoney(t, "0")
	if _, err := svc.Create(bad); !errors.Is(err, ErrProductPriceInvalid) {
		t.Fatalf("zero mrp want ErrProductPriceInvalid got %v", err)
	}
}

func TestProductUpdateSlugConflict(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	other := createTestProduct(t, db, category.ID, "speaker", "899", "0", 5)
	svc := newTestProductService(db)

	if _, err := svc.Update(other.ID, CreateProductInput{
		CategoryID:   category.ID,
		Slug:         "earphones",
		Name:         "便携音箱",
		MRP:          testMoney(t, "899"),
		SellingPrice: testMoney(t, "0"),
	}); !errors.Is(err, ErrSlugExists) {
		t.Fatalf("update to taken slug want ErrSlugExists got %v", err)
	}

	// 保持自身 slug 不算冲突
	if _, err := svc.Update(other.ID, CreateProductInput{
		CategoryID:   category.ID,
		Slug:         "speaker",
		Name:         "便携音箱",
		MRP:          testMoney(t, "899"),
		SellingPrice: testMoney(t, "0"),
	}); err != nil {
		t.Fatalf("update with own slug failed: %v", err)
	}
}

func TestProductGetPublicBySlugHidesInactive(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	svc := newTestProductService(db)

	if _, err := svc.GetPublicBySlug("earphones"); err != nil {
		t.Fatalf("get public failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if _, err := svc.GetPublicBySlug("earphones"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("inactive product want ErrNotFound got %v", err)
	}
}

func TestCategoryDeleteRejectedWhenInUse(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	svc := newTestCategoryService(db)

	if err := svc.Delete(category.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("category in use want ErrCategoryInUse got %v", err)
	}

	if err := db.Where("category_id = ?", category.ID).Delete(&models.Product{}).Error; err != nil {
		t.Fatalf("remove products failed: %v", err)
	}
	if err := svc.Delete(category.ID); err != nil {
		t.Fatalf("delete empty category failed: %v", err)
	}
}

func TestCategorySlugConflict(t *testing.T) {
	db := setupServiceDB(t)
	createTestCategory(t, db)
	svc := newTestCategoryService(db)

	if _, err := svc.Create(CreateCategoryInput{Slug: "electronics", Name: "电子产品"}); !errors.Is(err, ErrSlugExists) {
		t.Fatalf("duplicate category slug want ErrSlugExists got %v", err)
	}
	if _, err := svc.Create(CreateCategoryInput{Slug: "lifestyle", Name: "生活方式"}); err != nil {
		t.Fatalf("create category failed: %v", err)
	}
}
