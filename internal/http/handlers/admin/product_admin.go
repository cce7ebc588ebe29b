package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/storelane/storelane/internal/http/response"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminProducts 获取商品列表 (Admin)
// 含下架商品，支持分类与关键词过滤。
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListAdmin(uint(categoryID), search, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "商品获取失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, products, pagination)
}

// GetAdminProduct 获取商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	product, err := h.ProductService.GetAdminByID(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) || errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "商品不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "商品获取失败", err)
		return
	}

	response.Success(c, product)
}

// ProductRequest 创建/更新商品请求
// SellingPrice 为 0 表示未设置售价，展示与计价回退到 MRP。
type ProductRequest struct {
	CategoryID    uint         `json:"category_id" binding:"required"`
	Slug          string       `json:"slug" binding:"required"`
	Name          string       `json:"name" binding:"required"`
	Description   string       `json:"description"`
	MRP           models.Money `json:"mrp" binding:"required"`
	SellingPrice  models.Money `json:"selling_price"`
	StockQuantity *int         `json:"stock_quantity"`
	ImageURL      string       `json:"image_url"`
	IsActive      *bool        `json:"is_active"`
	SortOrder     int          `json:"sort_order"`
}

func (r *ProductRequest) toServiceInput() service.CreateProductInput {
	return service.CreateProductInput{
		CategoryID:    r.CategoryID,
		Slug:          r.Slug,
		Name:          r.Name,
		Description:   r.Description,
		MRP:           r.MRP,
		SellingPrice:  r.SellingPrice,
		StockQuantity: r.StockQuantity,
		ImageURL:      r.ImageURL,
		IsActive:      r.IsActive,
		SortOrder:     r.SortOrder,
	}
}

func respondProductSaveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "商品不存在", nil)
	case errors.Is(err, service.ErrSlugExists):
		respondError(c, response.CodeBadRequest, "slug 已被占用", nil)
	case errors.Is(err, service.ErrProductPriceInvalid):
		respondError(c, response.CodeBadRequest, "商品价格无效", nil)
	case errors.Is(err, service.ErrInvalidOrderItem):
		respondError(c, response.CodeBadRequest, "请求参数无效", nil)
	default:
		respondError(c, response.CodeInternal, "商品保存失败", err)
	}
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	product, err := h.ProductService.Create(req.toServiceInput())
	if err != nil {
		respondProductSaveError(c, err)
		return
	}

	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	product, err := h.ProductService.Update(id, req.toServiceInput())
	if err != nil {
		respondProductSaveError(c, err)
		return
	}

	response.Success(c, product)
}

// DeleteProduct 删除商品（软删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	if err := h.ProductService.Delete(id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) || errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "商品不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "商品删除失败", err)
		return
	}

	response.Success(c, nil)
}
