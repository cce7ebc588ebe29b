package admin

import (
	"errors"

	"github.com/storelane/storelane/internal/http/response"
	"github.com/storelane/storelane/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminCategories 获取分类列表 (Admin)
func (h *Handler) GetAdminCategories(c *gin.Context) {
	categories, err := h.CategoryService.ListAdmin()
	if err != nil {
		respondError(c, response.CodeInternal, "分类获取失败", err)
		return
	}
	response.Success(c, categories)
}

// CategoryRequest 创建/更新分类请求
type CategoryRequest struct {
	Slug      string `json:"slug" binding:"required"`
	Name      string `json:"name" binding:"required"`
	IsActive  *bool  `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	category, err := h.CategoryService.Create(service.CreateCategoryInput{
		Slug:      req.Slug,
		Name:      req.Name,
		IsActive:  req.IsActive,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, service.ErrSlugExists) {
			respondError(c, response.CodeBadRequest, "slug 已被占用", nil)
			return
		}
		respondError(c, response.CodeInternal, "分类创建失败", err)
		return
	}

	response.Success(c, category)
}

// UpdateCategory 更新分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	category, err := h.CategoryService.Update(id, service.CreateCategoryInput{
		Slug:      req.Slug,
		Name:      req.Name,
		IsActive:  req.IsActive,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "分类不存在", nil)
			return
		}
		if errors.Is(err, service.ErrSlugExists) {
			respondError(c, response.CodeBadRequest, "slug 已被占用", nil)
			return
		}
		respondError(c, response.CodeInternal, "分类更新失败", err)
		return
	}

	response.Success(c, category)
}

// DeleteCategory 删除分类
// 分类下仍有商品时拒绝删除。
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	if err := h.CategoryService.Delete(id); err != nil {
		if errors.Is(err, service.ErrCategoryInUse) {
			respondError(c, response.CodeBadRequest, "分类下存在商品，不可删除", nil)
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "分类不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "分类删除失败", err)
		return
	}

	response.Success(c, nil)
}
