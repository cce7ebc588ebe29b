package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/storelane/storelane/internal/http/response"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"
	"github.com/storelane/storelane/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderItemRequest 订单项请求
// 客户端不提交任何金额字段，单价以服务端商品表为准。
type OrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// ShippingRequest 收货信息请求
type ShippingRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// CreateOrderRequest 下单请求
// 登录用户与游客共用同一入口，游客按收货邮箱归属订单。
type CreateOrderRequest struct {
	Items       []OrderItemRequest `json:"items" binding:"required"`
	CouponCode  string             `json:"coupon_code"`
	PaymentType string             `json:"payment_type"`
	Shipping    ShippingRequest    `json:"shipping" binding:"required"`
	FromCart    bool               `json:"from_cart"`
}

func toServiceItems(items []OrderItemRequest) []service.CreateOrderItemInput {
	result := make([]service.CreateOrderItemInput, 0, len(items))
	for _, item := range items {
		result = append(result, service.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return result
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	result, err := h.OrderService.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		UserID:      getOptionalUserID(c),
		Items:       toServiceItems(req.Items),
		CouponCode:  req.CouponCode,
		PaymentType: req.PaymentType,
		Shipping: service.ShippingInput{
			Name:    req.Shipping.Name,
			Email:   req.Shipping.Email,
			Phone:   req.Shipping.Phone,
			Address: req.Shipping.Address,
			City:    req.Shipping.City,
			State:   req.Shipping.State,
			Pincode: req.Shipping.Pincode,
		},
		ClientIP: c.ClientIP(),
		FromCart: req.FromCart,
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}
	response.Success(c, result)
}

// QuoteOrderRequest 订单试算请求
type QuoteOrderRequest struct {
	Items      []OrderItemRequest `json:"items" binding:"required"`
	CouponCode string             `json:"coupon_code"`
}

// QuoteOrder 订单试算
// 服务端计价并预演优惠券规则，不落库、不占用券名额。
func (h *Handler) QuoteOrder(c *gin.Context) {
	var req QuoteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	quote, err := h.OrderService.Quote(toServiceItems(req.Items), req.CouponCode, getOptionalUserID(c))
	if err != nil {
		respondOrderQuoteError(c, err)
		return
	}
	response.Success(c, quote)
}

// ListMyOrders 获取当前用户订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListForUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}
	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, orders, pagination)
}

// GetMyOrder 获取当前用户订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单标识无效", nil)
		return
	}
	order, err := h.OrderService.GetForUser(uint(orderID), userID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}
	response.Success(c, order)
}

// CancelMyOrder 用户取消订单
// 仅允许取消 placed 状态的订单，取消后库存回补。
func (h *Handler) CancelMyOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单标识无效", nil)
		return
	}
	order, err := h.OrderService.CancelOrder(uint(orderID), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrOrderCannotCancel):
			respondError(c, response.CodeBadRequest, "当前状态的订单不可取消", nil)
		default:
			respondError(c, response.CodeInternal, "订单取消失败", err)
		}
		return
	}
	response.Success(c, order)
}

// TrackOrderQuery 订单查询请求
type TrackOrderQuery struct {
	OrderNo string `form:"order_no" binding:"required"`
	Email   string `form:"email" binding:"required"`
}

// TrackOrder 按订单号加邮箱查询订单
// 面向游客的免登录查询入口，两项都匹配才返回。
func (h *Handler) TrackOrder(c *gin.Context) {
	var query TrackOrderQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	order, err := h.OrderService.TrackOrder(query.OrderNo, query.Email)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}
	response.Success(c, trackOrderView(order))
}

// trackOrderView 查询接口仅暴露必要字段，不回传完整收货信息。
func trackOrderView(order *models.Order) gin.H {
	return gin.H{
		"order_no":        order.OrderNo,
		"status":          order.Status,
		"payment_status":  order.PaymentStatus,
		"payment_type":    order.PaymentType,
		"total_amount":    order.TotalAmount,
		"discount_amount": order.DiscountAmount,
		"final_amount":    order.FinalAmount,
		"currency":        order.Currency,
		"tracking_id":     order.TrackingID,
		"items":           order.Items,
		"created_at":      order.CreatedAt,
	}
}
