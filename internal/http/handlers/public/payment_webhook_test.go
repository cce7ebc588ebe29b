package public

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/provider"
	"github.com/storelane/storelane/internal/repository"
	"github.com/storelane/storelane/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const webhookTestSecret = "whsec_handler_test"

func setupWebhookTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Razorpay.WebhookSecret = webhookTestSecret
	container := &provider.Container{
		Config: cfg,
		PaymentService: service.NewPaymentService(cfg,
			repository.NewOrderRepository(db),
			repository.NewPaymentRepository(db),
			nil,
		),
	}
	handler := New(container)

	r := gin.New()
	r.POST("/api/v1/payments/webhook/razorpay", handler.RazorpayWebhook)
	return r
}

func postWebhook(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/razorpay", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	r.ServeHTTP(w, req)
	return w
}

func signWithSecret(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestRazorpayWebhookMissingSignature(t *testing.T) {
	r := setupWebhookTestRouter(t)

	w := postWebhook(r, []byte(`{"event":"payment.captured"}`), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing signature want 400 got %d", w.Code)
	}
}

func TestRazorpayWebhookInvalidSignature(t *testing.T) {
	r := setupWebhookTestRouter(t)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`)
	w := postWebhook(r, body, signWithSecret(body, "whsec_wrong"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid signature want 400 got %d", w.Code)
	}
}

func TestRazorpayWebhookValidEventAcked(t *testing.T) {
	r := setupWebhookTestRouter(t)

	// 验签通过但与任何订单无关的事件也要 200 ACK，避免网关重试风暴
	body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_1"}}}}`)
	w := postWebhook(r, body, signWithSecret(body, webhookTestSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("authentic event want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("expected ack body, got %s", w.Body.String())
	}
}

func TestRazorpayWebhookMalformedPayload(t *testing.T) {
	r := setupWebhookTestRouter(t)

	// 验签通过但报文不可解析也要 200 ACK，否则网关会永远重投同一事件
	body := []byte(`not-json`)
	w := postWebhook(r, body, signWithSecret(body, webhookTestSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("signed malformed payload want 200 ack got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("expected ack body, got %s", w.Body.String())
	}
}
