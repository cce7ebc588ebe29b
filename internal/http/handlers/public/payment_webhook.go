package public

import (
	"errors"
	"net/http"
	"strings"

	"github.com/storelane/storelane/internal/http/response"
	"github.com/storelane/storelane/internal/payment/razorpay"
	"github.com/storelane/storelane/internal/service"

	"github.com/gin-gonic/gin"
)

// RazorpayWebhook Razorpay webhook 回调
// 网关按真实 HTTP 状态码判定投递结果，此接口不走统一响应包装：
// 验签失败返回 400 触发告警，验签通过一律 200 ACK。
func (h *Handler) RazorpayWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := c.GetRawData()
	if err != nil {
		log.Warnw("razorpay_webhook_body_read_failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "invalid body"})
		return
	}
	signature := strings.TrimSpace(c.GetHeader("X-Razorpay-Signature"))
	if signature == "" {
		log.Warnw("razorpay_webhook_signature_missing", "client_ip", c.ClientIP(), "body_size", len(body))
		c.JSON(http.StatusBadRequest, gin.H{"status": "missing signature"})
		return
	}

	if err := h.PaymentService.HandleRazorpayWebhook(body, signature); err != nil {
		switch {
		case errors.Is(err, razorpay.ErrSignatureInvalid):
			log.Warnw("razorpay_webhook_signature_invalid", "client_ip", c.ClientIP(), "body_size", len(body))
			c.JSON(http.StatusBadRequest, gin.H{"status": "invalid signature"})
		default:
			log.Errorw("razorpay_webhook_handle_failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ConfirmCheckoutRequest 前端支付回执确认请求
type ConfirmCheckoutRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature        string `json:"razorpay_signature" binding:"required"`
}

// ConfirmCheckout 校验前端回传的支付签名并标记订单已支付
// 与 webhook 互为补充，先到先记，重复确认幂等。
func (h *Handler) ConfirmCheckout(c *gin.Context) {
	var req ConfirmCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	order, err := h.PaymentService.ConfirmCheckout(service.ConfirmCheckoutInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		switch {
		case errors.Is(err, razorpay.ErrSignatureInvalid):
			respondError(c, response.CodeBadRequest, "支付签名校验失败", nil)
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		default:
			respondError(c, response.CodeInternal, "支付确认失败", err)
		}
		return
	}
	response.Success(c, gin.H{
		"order_no":       order.OrderNo,
		"payment_status": order.PaymentStatus,
		"paid_at":        order.PaidAt,
	})
}
