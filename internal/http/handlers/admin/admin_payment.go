package admin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/storelane/storelane/internal/http/response"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"

	"github.com/gin-gonic/gin"
)

const adminPaymentExportBatchSize = 500

// GetAdminPayments 获取支付记录列表
func (h *Handler) GetAdminPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter, err := buildAdminPaymentFilter(c, page, pageSize)
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	payments, total, err := h.PaymentService.ListPaymentsForAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "支付记录获取失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, payments, pagination)
}

// GetAdminPayment 获取支付记录详情
func (h *Handler) GetAdminPayment(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	payment, err := h.PaymentRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "支付记录获取失败", err)
		return
	}
	if payment == nil {
		respondError(c, response.CodeNotFound, "支付记录不存在", nil)
		return
	}
	response.Success(c, payment)
}

// ExportAdminPayments 导出支付记录 CSV
// 按批次分页拉取，避免一次性加载全量记录。
func (h *Handler) ExportAdminPayments(c *gin.Context) {
	filter, err := buildAdminPaymentFilter(c, 1, adminPaymentExportBatchSize)
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	payments, _, err := h.PaymentService.ListPaymentsForAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "支付记录获取失败", err)
		return
	}

	filename := fmt.Sprintf("payments_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write([]string{
		"id",
		"order_id",
		"gateway",
		"gateway_order_id",
		"gateway_payment_id",
		"method",
		"status",
		"amount",
		"currency",
		"created_at",
		"callback_at",
	}); err != nil {
		requestLog(c).Errorw("admin_payment_export_header_write_failed", "error", err)
		return
	}

	page := 1
	for {
		if len(payments) > 0 {
			if err := writeAdminPaymentCSVRows(writer, payments); err != nil {
				requestLog(c).Errorw("admin_payment_export_rows_write_failed", "page", page, "error", err)
				return
			}
			writer.Flush()
			if err := writer.Error(); err != nil {
				requestLog(c).Errorw("admin_payment_export_flush_failed", "page", page, "error", err)
				return
			}
		}
		if len(payments) < adminPaymentExportBatchSize {
			break
		}
		page++
		filter.Page = page
		payments, _, err = h.PaymentService.ListPaymentsForAdmin(filter)
		if err != nil {
			requestLog(c).Errorw("admin_payment_export_batch_fetch_failed", "page", page, "error", err)
			return
		}
	}
}

func formatTimeNullable(raw *time.Time) string {
	if raw == nil {
		return ""
	}
	return raw.Format(time.RFC3339)
}

func parseAdminPaymentQueryUint(c *gin.Context, key string) (uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if parsed == 0 {
		return 0, errors.New("invalid query value")
	}
	return uint(parsed), nil
}

func buildAdminPaymentFilter(c *gin.Context, page, pageSize int) (repository.PaymentListFilter, error) {
	orderID, err := parseAdminPaymentQueryUint(c, "order_id")
	if err != nil {
		return repository.PaymentListFilter{}, err
	}

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		return repository.PaymentListFilter{}, err
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		return repository.PaymentListFilter{}, err
	}

	return repository.PaymentListFilter{
		Page:        page,
		PageSize:    pageSize,
		OrderID:     orderID,
		Gateway:     strings.TrimSpace(c.Query("gateway")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}, nil
}

func writeAdminPaymentCSVRows(writer *csv.Writer, payments []models.Payment) error {
	for _, payment := range payments {
		if err := writer.Write([]string{
			strconv.FormatUint(uint64(payment.ID), 10),
			strconv.FormatUint(uint64(payment.OrderID), 10),
			payment.Gateway,
			payment.GatewayOrderID,
			payment.GatewayPaymentID,
			payment.Method,
			payment.Status,
			payment.Amount.String(),
			payment.Currency,
			payment.CreatedAt.Format(time.RFC3339),
			formatTimeNullable(payment.CallbackAt),
		}); err != nil {
			return err
		}
	}
	return nil
}
