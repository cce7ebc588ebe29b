package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`)
	secret := "whsec_test"

	if err := VerifyWebhookSignature(body, signBody(body, secret), secret); err != nil {
		t.Fatalf("expected valid signature, got: %v", err)
	}
}

func TestVerifyWebhookSignatureTamperedBody(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	secret := "whsec_test"
	sig := signBody(body, secret)

	tampered := []byte(`{"event":"payment.captured","amount":1}`)
	if err := VerifyWebhookSignature(tampered, sig, secret); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got: %v", err)
	}
}

func TestVerifyWebhookSignatureWrongSecret(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	sig := signBody(body, "whsec_a")
	if err := VerifyWebhookSignature(body, sig, "whsec_b"); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got: %v", err)
	}
}

func TestVerifyWebhookSignatureEmpty(t *testing.T) {
	if err := VerifyWebhookSignature([]byte("{}"), "", "whsec"); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid for empty signature, got: %v", err)
	}
}

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "key_secret"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("order_1|pay_1"))
	sig := hex.EncodeToString(mac.Sum(nil))

	if err := VerifyPaymentSignature("order_1", "pay_1", sig, secret); err != nil {
		t.Fatalf("expected valid payment signature, got: %v", err)
	}
	if err := VerifyPaymentSignature("order_1", "pay_2", sig, secret); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got: %v", err)
	}
}

func TestAmountToPaise(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"2998.00", 299800},
		{"1499.00", 149900},
		{"0.01", 1},
		{"10.005", 1001},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.amount)
		if err != nil {
			t.Fatalf("parse amount %s: %v", tc.amount, err)
		}
		if got := AmountToPaise(d); got != tc.want {
			t.Fatalf("AmountToPaise(%s) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}

func TestParseWebhookEvent(t *testing.T) {
	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_ABC",
					"order_id": "order_XYZ",
					"amount": 299800,
					"currency": "INR",
					"status": "captured",
					"method": "upi",
					"notes": {"internal_order_id": "14"}
				}
			}
		}
	}`)

	event, err := ParseWebhookEvent(body)
	if err != nil {
		t.Fatalf("ParseWebhookEvent error: %v", err)
	}
	if event.Event != EventPaymentCaptured {
		t.Fatalf("unexpected event: %s", event.Event)
	}
	entity := event.Payload.Payment.Entity
	if entity.ID != "pay_ABC" || entity.OrderID != "order_XYZ" {
		t.Fatalf("unexpected entity: %+v", entity)
	}
	if entity.InternalOrderID() != "14" {
		t.Fatalf("unexpected internal order id: %s", entity.InternalOrderID())
	}
	if !entity.AmountDecimal().Equal(decimal.NewFromInt(2998)) {
		t.Fatalf("unexpected amount: %s", entity.AmountDecimal().String())
	}
}

func TestParseWebhookEventInvalid(t *testing.T) {
	if _, err := ParseWebhookEvent(nil); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid for empty body, got: %v", err)
	}
	if _, err := ParseWebhookEvent([]byte(`{"payload":{}}`)); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid for missing event, got: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	err := ValidateConfig(&Config{KeyID: "rzp_test", KeySecret: "secret"})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for missing webhook secret, got: %v", err)
	}
	if err := ValidateConfig(&Config{KeyID: "rzp_test", KeySecret: "secret", WebhookSecret: "whsec"}); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}
