package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/constants"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// setupServiceDB 每个用例独立的内存库，写入全局连接供事务代码使用
func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func testMoney(t *testing.T, value string) models.Money {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse money %s: %v", value, err)
	}
	return models.NewMoneyFromDecimal(d)
}

func createTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()
	category := &models.Category{Slug: "electronics", Name: "电子产品", IsActive: true}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return category
}

func createTestProduct(t *testing.T, db *gorm.DB, categoryID uint, slug string, mrp, sellingPrice string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID:    categoryID,
		Slug:          slug,
		Name:          slug,
		MRP:           testMoney(t, mrp),
		SellingPrice:  testMoney(t, sellingPrice),
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product %s failed: %v", slug, err)
	}
	return product
}

func createTestCoupon(t *testing.T, db *gorm.DB, coupon *models.Coupon) *models.Coupon {
	t.Helper()
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon %s failed: %v", coupon.Code, err)
	}
	return coupon
}

func newTestCouponService(db *gorm.DB) *CouponService {
	return NewCouponService(repository.NewCouponRepository(db), repository.NewCouponUsageRepository(db))
}

func newTestOrderService(db *gorm.DB, cfg *config.Config) *OrderService {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return NewOrderService(
		cfg,
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewUserRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewCouponRepository(db),
		repository.NewCouponUsageRepository(db),
		repository.NewCartRepository(db),
		newTestCouponService(db),
		nil,
	)
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func percentCoupon(t *testing.T, db *gorm.DB, code string, percent, minOrder, maxDiscount string) *models.Coupon {
	t.Helper()
	return createTestCoupon(t, db, &models.Coupon{
		Code:           code,
		Type:           constants.CouponTypePercentage,
		Value:          testMoney(t, percent),
		MinOrderAmount: testMoney(t, minOrder),
		MaxDiscount:    testMoney(t, maxDiscount),
		IsActive:       true,
	})
}
