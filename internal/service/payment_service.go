package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/constants"
	"github.com/storelane/storelane/internal/logger"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/payment/razorpay"
	"github.com/storelane/storelane/internal/queue"
	"github.com/storelane/storelane/internal/repository"

	"gorm.io/gorm"
)

// PaymentService 支付对账服务
type PaymentService struct {
	cfg         *config.Config
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	queueClient *queue.Client
}

// NewPaymentService 创建支付服务
func NewPaymentService(cfg *config.Config, orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository, queueClient *queue.Client) *PaymentService {
	return &PaymentService{
		cfg:         cfg,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		queueClient: queueClient,
	}
}

func (s *PaymentService) webhookSecret() string {
	if s.cfg == nil {
		return ""
	}
	return s.cfg.Razorpay.WebhookSecret
}

func (s *PaymentService) keySecret() string {
	if s.cfg == nil {
		return ""
	}
	return s.cfg.Razorpay.KeySecret
}

// HandleRazorpayWebhook 处理网关回调
// 必须先对原始请求体验签，验签失败返回错误由处理器映射为 400。
// 验签通过后的事件一律 ACK：报文不可解析、非 captured 事件、
// 无法定位的订单只记日志不报错，避免网关无限重投同一事件。
// 重复回调幂等处理。
func (s *PaymentService) HandleRazorpayWebhook(rawBody []byte, signature string) error {
	if err := razorpay.VerifyWebhookSignature(rawBody, signature, s.webhookSecret()); err != nil {
		return err
	}

	event, err := razorpay.ParseWebhookEvent(rawBody)
	if err != nil {
		logger.Warnw("razorpay_webhook_payload_unparseable", "error", err, "body_size", len(rawBody))
		return nil
	}
	if event.Event != razorpay.EventPaymentCaptured {
		logger.Infow("razorpay_webhook_ignored", "event", event.Event)
		return nil
	}

	entity := event.Payload.Payment.Entity
	order, err := s.resolveWebhookOrder(&entity)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Warnw("razorpay_webhook_order_unresolved",
			"gateway_payment_id", entity.ID,
			"gateway_order_id", entity.OrderID,
			"internal_order_id", entity.InternalOrderID(),
		)
		return nil
	}

	return s.markOrderPaid(order, &entity, rawBody, signature)
}

// resolveWebhookOrder 回调订单定位
// 优先按下单时写入附注的内部订单ID，回退按网关订单号匹配支付记录。
func (s *PaymentService) resolveWebhookOrder(entity *razorpay.PaymentEntity) (*models.Order, error) {
	if raw := entity.InternalOrderID(); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
			order, err := s.orderRepo.GetByID(uint(id))
			if err != nil {
				return nil, err
			}
			if order != nil {
				return order, nil
			}
		}
	}

	if strings.TrimSpace(entity.OrderID) == "" {
		return nil, nil
	}
	payment, err := s.paymentRepo.GetLatestByGatewayOrderID(entity.OrderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, nil
	}
	return s.orderRepo.GetByID(payment.OrderID)
}

// markOrderPaid 标记订单已支付并落支付流水，幂等。
// signature 为通过校验的网关签名，随流水留存供事后审计。
func (s *PaymentService) markOrderPaid(order *models.Order, entity *razorpay.PaymentEntity, rawBody []byte, signature string) error {
	if order.PaymentStatus == constants.OrderPaymentStatusPaid {
		logger.Infow("razorpay_webhook_duplicate",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"gateway_payment_id", entity.ID,
		)
		return nil
	}

	paidAmount := entity.AmountDecimal()
	if !paidAmount.Equal(order.FinalAmount.Decimal) {
		logger.Warnw("razorpay_webhook_amount_mismatch",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"expected", order.FinalAmount.String(),
			"received", paidAmount.String(),
		)
	}

	now := time.Now()
	var rawPayload models.JSON
	if payload, err := models.JSONFromBytes(rawBody); err == nil {
		rawPayload = payload
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"payment_status": constants.OrderPaymentStatusPaid,
			"paid_at":        &now,
		}
		if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, order.Status, updates); err != nil {
			return err
		}

		paymentRepo := s.paymentRepo.WithTx(tx)
		payment, err := paymentRepo.GetLatestByOrderID(order.ID)
		if err != nil {
			return err
		}
		if payment == nil {
			payment = &models.Payment{
				OrderID:  order.ID,
				Gateway:  constants.PaymentGatewayRazorpay,
				Amount:   models.NewMoneyFromDecimal(paidAmount),
				Currency: strings.ToUpper(strings.TrimSpace(entity.Currency)),
			}
		}
		if payment.GatewayOrderID == "" {
			payment.GatewayOrderID = entity.OrderID
		}
		payment.GatewayPaymentID = entity.ID
		payment.GatewaySignature = signature
		payment.Method = entity.Method
		payment.Status = constants.PaymentStatusSuccess
		payment.RawPayload = rawPayload
		payment.CallbackAt = &now
		if payment.ID == 0 {
			return paymentRepo.Create(payment)
		}
		return paymentRepo.Update(payment)
	})
	if err != nil {
		return err
	}

	order.PaymentStatus = constants.OrderPaymentStatusPaid
	order.PaidAt = &now
	logger.Infow("order_payment_captured",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"gateway_payment_id", entity.ID,
		"amount", paidAmount.String(),
	)

	// 收款通知尽力而为，失败只记日志
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: order.ID,
		Status:  constants.OrderPaymentStatusPaid,
	}); err != nil {
		logger.Warnw("order_paid_email_enqueue_failed", "order_id", order.ID, "error", err)
	}
	return nil
}

// ConfirmCheckoutInput 前端支付完成回传输入
type ConfirmCheckoutInput struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
}

// ConfirmCheckout 校验前端回传的支付签名并标记订单已支付
// 与异步回调互为补充，两条路径幂等收敛到同一支付态。
func (s *PaymentService) ConfirmCheckout(input ConfirmCheckoutInput) (*models.Order, error) {
	if err := razorpay.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature, s.keySecret()); err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetLatestByGatewayOrderID(input.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	entity := razorpay.PaymentEntity{
		ID:       input.GatewayPaymentID,
		OrderID:  input.GatewayOrderID,
		Amount:   razorpay.AmountToPaise(order.FinalAmount.Decimal),
		Currency: order.Currency,
	}
	if err := s.markOrderPaid(order, &entity, nil, input.Signature); err != nil {
		return nil, err
	}
	return order, nil
}

// ListPaymentsForAdmin 管理端支付流水列表
func (s *PaymentService) ListPaymentsForAdmin(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.ListAdmin(filter)
}
