package service

import (
	"errors"
	"testing"
	"time"

	"github.com/storelane/storelane/internal/constants"
	"github.com/storelane/storelane/internal/models"
)

func TestApplyCouponPercentageCappedByMaxDiscount(t *testing.T) {
	db := setupServiceDB(t)
	percentCoupon(t, db, "NEW99", "10", "999", "200")
	svc := newTestCouponService(db)

	// 1499 x 2 = 2998，10% 为 299.80，封顶 200
	result, err := svc.ApplyCoupon(testMoney(t, "2998"), "new99", 1)
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if got := result.DiscountAmount.String(); got != "200" {
		t.Fatalf("discount want 200 got %s", got)
	}
	if got := result.FinalAmount.String(); got != "2798" {
		t.Fatalf("final want 2798 got %s", got)
	}
}

func TestApplyCouponPercentageBelowCap(t *testing.T) {
	db := setupServiceDB(t)
	percentCoupon(t, db, "NEW99", "10", "0", "200")
	svc := newTestCouponService(db)

	result, err := svc.ApplyCoupon(testMoney(t, "1000"), "NEW99", 1)
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if got := result.DiscountAmount.String(); got != "100" {
		t.Fatalf("discount want 100 got %s", got)
	}
}

func TestApplyCouponFixedNeverExceedsSubtotal(t *testing.T) {
	db := setupServiceDB(t)
	createTestCoupon(t, db, &models.Coupon{
		Code:     "FLAT500",
		Type:     constants.CouponTypeFixed,
		Value:    testMoney(t, "500"),
		IsActive: true,
	})
	svc := newTestCouponService(db)

	result, err := svc.ApplyCoupon(testMoney(t, "300"), "FLAT500", 1)
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if got := result.DiscountAmount.String(); got != "300" {
		t.Fatalf("discount want 300 got %s", got)
	}
	if !result.FinalAmount.IsZero() {
		t.Fatalf("final want 0 got %s", result.FinalAmount.String())
	}
}

func TestApplyCouponRuleOrder(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestCouponService(db)
	now := time.Now()

	if _, err := svc.ApplyCoupon(testMoney(t, "1000"), "MISSING", 1); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("missing coupon want ErrCouponNotFound got %v", err)
	}

	createTestCoupon(t, db, &models.Coupon{
		Code: "OFF", Type: constants.CouponTypeFixed, Value: testMoney(t, "10"), IsActive: false,
	})
	if _, err := svc.ApplyCoupon(testMoney(t, "1000"), "OFF", 1); !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("inactive coupon want ErrCouponInactive got %v", err)
	}

	createTestCoupon(t, db, &models.Coupon{
		Code: "SOON", Type: constants.CouponTypeFixed, Value: testMoney(t, "10"),
		IsActive: true, StartsAt: timePtr(now.Add(time.Hour)),
	})
	if _, err := svc.ApplyCoupon(testMoney(t, "1000"), "SOON", 1); !errors.Is(err, ErrCouponNotStarted) {
		t.Fatalf("not started coupon want ErrCouponNotStarted got %v", err)
	}

	createTestCoupon(t, db, &models.Coupon{
		Code: "OLD", Type: constants.CouponTypeFixed, Value: testMoney(t, "10"),
		IsActive: true, EndsAt: timePtr(now.Add(-time.Hour)),
	})
	if _, err := svc.ApplyCoupon(testMoney(t, "1000"), "OLD", 1); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expired coupon want ErrCouponExpired got %v", err)
	}

	createTestCoupon(t, db, &models.Coupon{
		Code: "BIG", Type: constants.CouponTypeFixed, Value: testMoney(t, "10"),
		MinOrderAmount: testMoney(t, "2000"), IsActive: true,
	})
	if _, err := svc.ApplyCoupon(testMoney(t, "1000"), "BIG", 1); !errors.Is(err, ErrCouponMinAmount) {
		t.Fatalf("below min amount want ErrCouponMinAmount got %v", err)
	}

	createTestCoupon(t, db, &models.Coupon{
		Code: "USED", Type: constants.CouponTypeFixed, Value: testMoney(t, "10"),
		UsageLimit: 5, UsedCount: 5, IsActive: true,
	})
	if _, err := svc.ApplyCoupon(testMoney(t, "1000"), "USED", 1); !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("usage limit want ErrCouponUsageLimit got %v", err)
	}
}

func TestApplyCouponPerUserLimit(t *testing.T) {
	db := setupServiceDB(t)
	coupon := createTestCoupon(t, db, &models.Coupon{
		Code: "ONCE", Type: constants.CouponTypeFixed, Value: testMoney(t, "10"),
		PerUserLimit: 1, IsActive: true,
	})
	if err := db.Create(&models.CouponUsage{
		CouponID: coupon.ID, UserID: 7, OrderID: 1, DiscountAmount: testMoney(t, "10"),
	}).Error; err != nil {
		t.Fatalf("seed usage failed: %v", err)
	}
	svc := newTestCouponService(db)

	if _, err := svc.ApplyCoupon(testMoney(t, "1000"), "ONCE", 7); !errors.Is(err, ErrCouponPerUserLimit) {
		t.Fatalf("per user limit want ErrCouponPerUserLimit got %v", err)
	}

	// 其他用户不受影响
	if _, err := svc.ApplyCoupon(testMoney(t, "1000"), "ONCE", 8); err != nil {
		t.Fatalf("other user should pass, got %v", err)
	}

	// 游客预览跳过个人上限
	if _, err := svc.ApplyCoupon(testMoney(t, "1000"), "ONCE", 0); err != nil {
		t.Fatalf("guest preview should pass, got %v", err)
	}
}

func TestNormalizeCouponCode(t *testing.T) {
	if got := NormalizeCouponCode("  new99 "); got != "NEW99" {
		t.Fatalf("normalize want NEW99 got %s", got)
	}
}
