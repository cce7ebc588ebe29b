package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/storelane/storelane/internal/logger"
	"github.com/storelane/storelane/internal/provider"
	"github.com/storelane/storelane/internal/queue"
	"github.com/storelane/storelane/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderConfirmedEmail, c.handleOrderConfirmedEmail)
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
}

// handleOrderConfirmedEmail 发送下单确认邮件
// 邮件失败只影响重试，不回滚任何订单数据。
func (c *Consumer) handleOrderConfirmedEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_confirmed_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderConfirmedEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_confirmed_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_confirmed_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_confirmed_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_confirmed_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_order_confirmed_email_skip_email_service_nil", "order_id", order.ID)
		return nil
	}

	if err := c.EmailService.SendOrderConfirmedEmail(order); err != nil {
		if isEmailConfigError(err) {
			logger.Debugw("worker_order_confirmed_email_skip_email_disabled", "order_id", order.ID, "error", err)
			return nil
		}
		logger.Warnw("worker_order_confirmed_email_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"receiver_email", order.ShippingEmail,
			"error", err,
		)
		return err
	}
	return nil
}

// handleOrderStatusEmail 发送订单状态变更邮件
// 收件人取订单收货邮箱快照，不回查用户表。
func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	receiverEmail := strings.TrimSpace(order.ShippingEmail)
	if receiverEmail == "" {
		logger.Debugw("worker_order_status_email_skip_empty_receiver", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_order_status_email_skip_email_service_nil", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}

	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = order.Status
	}
	input := service.OrderStatusEmailInput{
		OrderNo:    order.OrderNo,
		Status:     status,
		Amount:     order.FinalAmount,
		Currency:   order.Currency,
		TrackingID: order.TrackingID,
	}
	if err := c.EmailService.SendOrderStatusEmail(receiverEmail, input); err != nil {
		if isEmailConfigError(err) {
			logger.Debugw("worker_order_status_email_skip_email_disabled", "order_id", order.ID, "error", err)
			return nil
		}
		logger.Warnw("worker_order_status_email_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"receiver_email", receiverEmail,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}

// isEmailConfigError 判断是否为配置类失败，这类失败重试也无意义
func isEmailConfigError(err error) bool {
	return errors.Is(err, service.ErrEmailServiceDisabled) ||
		errors.Is(err, service.ErrEmailServiceNotConfigured) ||
		errors.Is(err, service.ErrInvalidEmail) ||
		errors.Is(err, service.ErrEmailRecipientRejected)
}
