package admin

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

// AdminOrderDetail 管理端订单详情返回
type AdminOrderDetail struct {
	models.Order
	UserEmail string           `json:"user_email,omitempty"`
	UserName  string           `json:"user_name,omitempty"`
	Payments  []models.Payment `json:"payments,omitempty"`
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间格式无效", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间格式无效", err)
		return
	}
	userID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("user_id")), 10, 64)

	orders, total, err := h.OrderService.ListForAdmin(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        uint(userID),
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		PaymentType:   strings.TrimSpace(c.Query("payment_type")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		Email:         strings.TrimSpace(c.Query("email")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
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

// AdminGetOrder 管理端订单详情
// 附带下单账号信息与该订单的全部支付记录。
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parsePathID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.GetForAdmin(orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		default:
			respondError(c, response.CodeInternal, "订单获取失败", err)
		}
		return
	}

	var email, name string
	if order.UserID != 0 {
		user, err := h.UserRepo.GetByID(order.UserID)
		if err != nil {
			respondError(c, response.CodeInternal, "订单获取失败", err)
			return
		}
		if user != nil {
			email = user.Email
			name = user.Name
		}
	}

	payments, err := h.PaymentRepo.ListByOrderID(order.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}

	response.Success(c, AdminOrderDetail{
		Order:     *order,
		UserEmail: email,
		UserName:  name,
		Payments:  payments,
	})
}

// AdminUpdateOrderStatusRequest 管理端更新订单状态请求
// tracking_id 仅在发货时生效。
type AdminUpdateOrderStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	TrackingID string `json:"tracking_id"`
}

// AdminUpdateOrderStatus 管理端更新订单状态
// 状态流转受白名单约束：placed 到 shipped/cancelled，
// shipped 到 delivered/cancelled，delivered 到 returned。
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	orderID, ok := parsePathID(c)
	if !ok {
		return
	}

	var req AdminUpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	order, err := h.OrderService.UpdateStatusByAdmin(service.UpdateStatusInput{
		OrderID:    orderID,
		Status:     req.Status,
		TrackingID: req.TrackingID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "订单状态流转不合法", nil)
		default:
			respondError(c, response.CodeInternal, "订单更新失败", err)
		}
		return
	}

	response.Success(c, order)
}
