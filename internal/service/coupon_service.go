package service

import (
	"strings"
	"time"

	"github.com/storelane/storelane/internal/constants"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponService 优惠券校验与折扣计算服务
type CouponService struct {
	couponRepo repository.CouponRepository
	usageRepo  repository.CouponUsageRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, usageRepo repository.CouponUsageRepository) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		usageRepo:  usageRepo,
	}
}

// ApplyCouponResult 优惠券应用结果
type ApplyCouponResult struct {
	Coupon         *models.Coupon `json:"coupon"`
	DiscountAmount models.Money   `json:"discount_amount"`
	FinalAmount    models.Money   `json:"final_amount"`
}

// NormalizeCouponCode 规范化优惠码：去空白并统一大写
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ApplyCoupon 校验优惠券并计算折扣
// 规则按固定顺序执行：存在性、启用状态、时间窗口、最低消费、
// 总量上限、个人上限。任一规则不通过立即返回对应错误，
// 后续规则不再执行。userID 为 0 表示游客预览，跳过个人上限校验。
func (s *CouponService) ApplyCoupon(subtotal models.Money, code string, userID uint) (*ApplyCouponResult, error) {
	code = NormalizeCouponCode(code)
	if code == "" {
		return nil, ErrCouponNotFound
	}

	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	if !coupon.IsActive {
		return nil, ErrCouponInactive
	}

	now := time.Now()
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return nil, ErrCouponNotStarted
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return nil, ErrCouponExpired
	}

	if coupon.MinOrderAmount.IsPositive() && subtotal.Decimal.LessThan(coupon.MinOrderAmount.Decimal) {
		return nil, ErrCouponMinAmount
	}

	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return nil, ErrCouponUsageLimit
	}

	if userID != 0 && coupon.PerUserLimit > 0 {
		used, err := s.usageRepo.CountByUser(coupon.ID, userID)
		if err != nil {
			return nil, err
		}
		if used >= int64(coupon.PerUserLimit) {
			return nil, ErrCouponPerUserLimit
		}
	}

	discount := calculateDiscount(coupon, subtotal)
	final := models.NewMoneyFromDecimal(subtotal.Decimal.Sub(discount.Decimal))

	return &ApplyCouponResult{
		Coupon:         coupon,
		DiscountAmount: discount,
		FinalAmount:    final,
	}, nil
}

// calculateDiscount 计算折扣金额
// 百分比类型按小计比例计算并受最大优惠约束；
// 固定类型直接取面值。两种类型最终都不超过小计，应付额不为负。
func calculateDiscount(coupon *models.Coupon, subtotal models.Money) models.Money {
	var discount decimal.Decimal

	switch coupon.Type {
	case constants.CouponTypePercentage:
		discount = subtotal.Decimal.Mul(coupon.Value.Decimal).Div(decimal.NewFromInt(100))
		if coupon.MaxDiscount.IsPositive() && discount.GreaterThan(coupon.MaxDiscount.Decimal) {
			discount = coupon.MaxDiscount.Decimal
		}
	case constants.CouponTypeFixed:
		discount = coupon.Value.Decimal
	default:
		discount = decimal.Zero
	}

	if discount.GreaterThan(subtotal.Decimal) {
		discount = subtotal.Decimal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return models.NewMoneyFromDecimal(discount)
}
