package admin

import (
	"strconv"
	"strings"

	"github.com/storelane/storelane/internal/http/response"
	"github.com/storelane/storelane/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminUsers 获取用户列表
// 游客账号与注册账号同表，按 is_guest 过滤。
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	keyword := strings.TrimSpace(c.Query("keyword"))

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

	var isGuest *bool
	if raw := c.Query("is_guest"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "请求参数无效", err)
			return
		}
		isGuest = &parsed
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

	users, total, err := h.UserAuthService.ListForAdmin(repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     keyword,
		IsGuest:     isGuest,
		IsActive:    isActive,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "用户获取失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, users, pagination)
}

// BatchUpdateUserActiveRequest 批量启用/禁用用户请求
type BatchUpdateUserActiveRequest struct {
	UserIDs  []uint `json:"user_ids" binding:"required"`
	IsActive *bool  `json:"is_active" binding:"required"`
}

// BatchUpdateUserActive 批量启用/禁用用户
// 禁用即时生效，登录态缓存同步失效。
func (h *Handler) BatchUpdateUserActive(c *gin.Context) {
	var req BatchUpdateUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	if len(req.UserIDs) == 0 || req.IsActive == nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", nil)
		return
	}

	if err := h.UserAuthService.SetActiveByAdmin(req.UserIDs, *req.IsActive); err != nil {
		respondError(c, response.CodeInternal, "用户更新失败", err)
		return
	}

	response.Success(c, gin.H{"updated": len(req.UserIDs)})
}
