package public

import (
	"errors"
	"strconv"

	"github.com/storelane/storelane/internal/http/response"
	"github.com/storelane/storelane/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCart 获取当前用户购物车
func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	summary, err := h.CartService.ListByUser(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "购物车获取失败", err)
		return
	}
	response.Success(c, summary)
}

// CartItemRequest 购物车条目请求
type CartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// AddCartItem 添加商品到购物车
// 同一商品重复添加时数量累加。
func (h *Handler) AddCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	err := h.CartService.UpsertItem(service.UpsertCartItemInput{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderItem):
			respondError(c, response.CodeBadRequest, "商品数量无效", nil)
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, response.CodeBadRequest, "商品不存在", nil)
		case errors.Is(err, service.ErrProductNotAvailable):
			respondError(c, response.CodeBadRequest, "商品已下架", nil)
		default:
			respondError(c, response.CodeInternal, "购物车更新失败", err)
		}
		return
	}
	response.Success(c, gin.H{"added": true})
}

// UpdateCartItemRequest 修改购物车条目数量请求
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem 修改购物车条目数量
// 数量为 0 等价于删除该条目。
func (h *Handler) UpdateCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "商品标识无效", nil)
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	if err := h.CartService.SetQuantity(userID, uint(productID), req.Quantity); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "购物车条目不存在", nil)
		case errors.Is(err, service.ErrInvalidOrderItem):
			respondError(c, response.CodeBadRequest, "商品数量无效", nil)
		default:
			respondError(c, response.CodeInternal, "购物车更新失败", err)
		}
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// RemoveCartItem 删除购物车条目
func (h *Handler) RemoveCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "商品标识无效", nil)
		return
	}
	if err := h.CartService.RemoveItem(userID, uint(productID)); err != nil {
		respondError(c, response.CodeInternal, "购物车更新失败", err)
		return
	}
	response.Success(c, gin.H{"removed": true})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(userID); err != nil {
		respondError(c, response.CodeInternal, "购物车清空失败", err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
