package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/storelane/storelane/internal/http/response"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"
	"github.com/storelane/storelane/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponRequest 创建/更新优惠券请求
// percentage 券按 max_discount 封顶，0 表示不封顶。
type CouponRequest struct {
	Code           string       `json:"code" binding:"required"`
	Type           string       `json:"type" binding:"required"`
	Value          models.Money `json:"value" binding:"required"`
	MinOrderAmount models.Money `json:"min_order_amount"`
	MaxDiscount    models.Money `json:"max_discount"`
	UsageLimit     int          `json:"usage_limit"`
	PerUserLimit   int          `json:"per_user_limit"`
	StartsAt       string       `json:"starts_at"`
	EndsAt         string       `json:"ends_at"`
	IsActive       *bool        `json:"is_active"`
}

func (r *CouponRequest) toServiceInput() (service.CouponInput, error) {
	startsAt, err := parseTimeNullable(r.StartsAt)
	if err != nil {
		return service.CouponInput{}, err
	}
	endsAt, err := parseTimeNullable(r.EndsAt)
	if err != nil {
		return service.CouponInput{}, err
	}
	return service.CouponInput{
		Code:           r.Code,
		Type:           r.Type,
		Value:          r.Value,
		MinOrderAmount: r.MinOrderAmount,
		MaxDiscount:    r.MaxDiscount,
		UsageLimit:     r.UsageLimit,
		PerUserLimit:   r.PerUserLimit,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		IsActive:       r.IsActive,
	}, nil
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间格式无效", err)
		return
	}

	coupon, err := h.CouponAdminService.Create(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "优惠券参数无效", nil)
		default:
			respondError(c, response.CodeInternal, "优惠券创建失败", err)
		}
		return
	}

	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	couponID, ok := parsePathID(c)
	if !ok {
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间格式无效", err)
		return
	}

	coupon, err := h.CouponAdminService.Update(couponID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "优惠券不存在", nil)
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "优惠券参数无效", nil)
		default:
			respondError(c, response.CodeInternal, "优惠券更新失败", err)
		}
		return
	}

	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	couponID, ok := parsePathID(c)
	if !ok {
		return
	}
	if err := h.CouponAdminService.Delete(couponID); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "优惠券不存在", nil)
		default:
			respondError(c, response.CodeInternal, "优惠券删除失败", err)
		}
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetAdminCoupon 获取优惠券详情
func (h *Handler) GetAdminCoupon(c *gin.Context) {
	couponID, ok := parsePathID(c)
	if !ok {
		return
	}
	coupon, err := h.CouponRepo.GetByID(couponID)
	if err != nil {
		respondError(c, response.CodeInternal, "优惠券获取失败", err)
		return
	}
	if coupon == nil {
		respondError(c, response.CodeNotFound, "优惠券不存在", nil)
		return
	}
	response.Success(c, coupon)
}

// GetAdminCoupons 获取优惠券列表
func (h *Handler) GetAdminCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	code := strings.TrimSpace(c.Query("code"))
	var id uint
	if rawID := strings.TrimSpace(c.Query("id")); rawID != "" {
		parsed, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "请求参数无效", err)
			return
		}
		id = uint(parsed)
	}
	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "请求参数无效", err)
			return
		}
		isActive = &parsed
	}

	coupons, total, err := h.CouponAdminService.List(repository.CouponListFilter{
		ID:       id,
		Code:     code,
		IsActive: isActive,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "优惠券获取失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, coupons, pagination)
}

// GetAdminCouponUsages 获取优惠券使用记录列表
// 使用记录只追加不回收，取消订单不会释放已占用的名额。
func (h *Handler) GetAdminCouponUsages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	couponID, _ := strconv.ParseUint(c.Query("coupon_id"), 10, 64)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	usages, total, err := h.CouponAdminService.ListUsages(repository.CouponUsageListFilter{
		Page:     page,
		PageSize: pageSize,
		CouponID: uint(couponID),
		UserID:   uint(userID),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "使用记录获取失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, usages, pagination)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
