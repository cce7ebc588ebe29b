package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/constants"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/payment/razorpay"
	"github.com/storelane/storelane/internal/repository"

	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

func newTestPaymentService(db *gorm.DB) *PaymentService {
	cfg := &config.Config{}
	cfg.Razorpay.WebhookSecret = testWebhookSecret
	cfg.Razorpay.KeySecret = "key_secret_test"
	return NewPaymentService(cfg, repository.NewOrderRepository(db), repository.NewPaymentRepository(db), nil)
}

func signWebhookBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedEventBody(orderID uint, gatewayOrderID string, amountPaise int64) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"%s","amount":%d,"currency":"INR","status":"captured","method":"upi","notes":{"internal_order_id":"%d"}}}}}`,
		gatewayOrderID, amountPaise, orderID,
	))
}

func createOnlineTestOrder(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	svc := newTestOrderService(db, nil)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	// 测试中不经网关下单，手工切到在线待支付态并补支付记录
	order := result.Order
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"payment_type":   constants.PaymentTypeOnline,
		"payment_status": constants.OrderPaymentStatusPending,
	}).Error; err != nil {
		t.Fatalf("mark order online failed: %v", err)
	}
	order.PaymentType = constants.PaymentTypeOnline
	order.PaymentStatus = constants.OrderPaymentStatusPending
	if err := db.Create(&models.Payment{
		OrderID:        order.ID,
		Gateway:        constants.PaymentGatewayRazorpay,
		GatewayOrderID: "order_gw_1",
		Amount:         order.FinalAmount,
		Currency:       "INR",
		Status:         constants.PaymentStatusPending,
	}).Error; err != nil {
		t.Fatalf("create payment record failed: %v", err)
	}
	return order
}

func TestHandleRazorpayWebhookBadSignature(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestPaymentService(db)

	body := capturedEventBody(1, "order_gw_1", 279800)
	if err := svc.HandleRazorpayWebhook(body, "deadbeef"); !errors.Is(err, razorpay.ErrSignatureInvalid) {
		t.Fatalf("bad signature want ErrSignatureInvalid got %v", err)
	}
	if err := svc.HandleRazorpayWebhook(body, ""); !errors.Is(err, razorpay.ErrSignatureInvalid) {
		t.Fatalf("empty signature want ErrSignatureInvalid got %v", err)
	}

	// 验签必须针对原始字节：篡改一个字节即失效
	sig := signWebhookBody(body)
	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = ' '
	if err := svc.HandleRazorpayWebhook(tampered, sig); !errors.Is(err, razorpay.ErrSignatureInvalid) {
		t.Fatalf("tampered body want ErrSignatureInvalid got %v", err)
	}
}

func TestHandleRazorpayWebhookCapturedMarksPaid(t *testing.T) {
	db := setupServiceDB(t)
	order := createOnlineTestOrder(t, db)
	svc := newTestPaymentService(db)

	body := capturedEventBody(order.ID, "order_gw_1", 279800)
	if err := svc.HandleRazorpayWebhook(body, signWebhookBody(body)); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.PaymentStatus != constants.OrderPaymentStatusPaid {
		t.Fatalf("payment status want paid got %s", reloaded.PaymentStatus)
	}
	if reloaded.PaidAt == nil {
		t.Fatalf("paid_at should be set")
	}

	var payment models.Payment
	if err := db.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if payment.Status != constants.PaymentStatusSuccess {
		t.Fatalf("payment status want success got %s", payment.Status)
	}
	if payment.GatewayPaymentID != "pay_1" {
		t.Fatalf("gateway payment id want pay_1 got %s", payment.GatewayPaymentID)
	}
	if payment.GatewaySignature != signWebhookBody(body) {
		t.Fatalf("gateway signature should be persisted, got %q", payment.GatewaySignature)
	}
	if payment.CallbackAt == nil {
		t.Fatalf("callback_at should be set")
	}

	// 重复回调幂等：不报错、不追加支付记录
	if err := svc.HandleRazorpayWebhook(body, signWebhookBody(body)); err != nil {
		t.Fatalf("duplicate webhook should be idempotent, got %v", err)
	}
	var paymentCount int64
	db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&paymentCount)
	if paymentCount != 1 {
		t.Fatalf("payment count want 1 got %d", paymentCount)
	}
}

func TestHandleRazorpayWebhookResolvesByGatewayOrderID(t *testing.T) {
	db := setupServiceDB(t)
	order := createOnlineTestOrder(t, db)
	svc := newTestPaymentService(db)

	// 附注缺失时回退网关订单号匹配
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_2","order_id":"order_gw_1","amount":279800,"currency":"INR","status":"captured"}}}}`)
	if err := svc.HandleRazorpayWebhook(body, signWebhookBody(body)); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.PaymentStatus != constants.OrderPaymentStatusPaid {
		t.Fatalf("payment status want paid got %s", reloaded.PaymentStatus)
	}
}

func TestHandleRazorpayWebhookUnparseablePayloadAcked(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestPaymentService(db)

	// 验签通过但报文不可解析只记日志，不向网关报错
	body := []byte(`{"event":`)
	if err := svc.HandleRazorpayWebhook(body, signWebhookBody(body)); err != nil {
		t.Fatalf("verified but unparseable payload should be acked, got %v", err)
	}
}

func TestHandleRazorpayWebhookIgnoresOtherEvents(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestPaymentService(db)

	body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_3"}}}}`)
	if err := svc.HandleRazorpayWebhook(body, signWebhookBody(body)); err != nil {
		t.Fatalf("non captured event should be acked, got %v", err)
	}
}

func TestHandleRazorpayWebhookUnresolvedOrderAcked(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestPaymentService(db)

	body := capturedEventBody(9999, "order_unknown", 100)
	if err := svc.HandleRazorpayWebhook(body, signWebhookBody(body)); err != nil {
		t.Fatalf("unresolved order should be acked, got %v", err)
	}
}

func TestConfirmCheckout(t *testing.T) {
	db := setupServiceDB(t)
	order := createOnlineTestOrder(t, db)
	svc := newTestPaymentService(db)

	mac := hmac.New(sha256.New, []byte("key_secret_test"))
	mac.Write([]byte("order_gw_1|pay_9"))
	sig := hex.EncodeToString(mac.Sum(nil))

	confirmed, err := svc.ConfirmCheckout(ConfirmCheckoutInput{
		GatewayOrderID:   "order_gw_1",
		GatewayPaymentID: "pay_9",
		Signature:        sig,
	})
	if err != nil {
		t.Fatalf("confirm checkout failed: %v", err)
	}
	if confirmed.ID != order.ID {
		t.Fatalf("confirmed wrong order")
	}
	if confirmed.PaymentStatus != constants.OrderPaymentStatusPaid {
		t.Fatalf("payment status want paid got %s", confirmed.PaymentStatus)
	}
	var payment models.Payment
	if err := db.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if payment.GatewaySignature != sig {
		t.Fatalf("gateway signature should be persisted, got %q", payment.GatewaySignature)
	}

	// 签名不匹配直接拒绝
	if _, err := svc.ConfirmCheckout(ConfirmCheckoutInput{
		GatewayOrderID:   "order_gw_1",
		GatewayPaymentID: "pay_10",
		Signature:        sig,
	}); !errors.Is(err, razorpay.ErrSignatureInvalid) {
		t.Fatalf("bad signature want ErrSignatureInvalid got %v", err)
	}
}
