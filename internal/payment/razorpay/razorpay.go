package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("razorpay config invalid")
	ErrRequestFailed    = errors.New("razorpay request failed")
	ErrResponseInvalid  = errors.New("razorpay response invalid")
	ErrSignatureInvalid = errors.New("razorpay signature invalid")
)

// 回调签名头与事件常量
const (
	WebhookSignatureHeader = "X-Razorpay-Signature"
	EventPaymentCaptured   = "payment.captured"
	EventPaymentFailed     = "payment.failed"
)

// 订单附注键常量：网关下单时附带内部订单ID，回调对账优先按此解析。
const NoteInternalOrderID = "internal_order_id"

// Config Razorpay 配置
type Config struct {
	KeyID         string `json:"key_id"`         // API Key ID
	KeySecret     string `json:"key_secret"`     // API Key Secret
	WebhookSecret string `json:"webhook_secret"` // 回调签名密钥
	BaseURL       string `json:"base_url"`       // 网关地址，默认 https://api.razorpay.com
	TimeoutMS     int    `json:"timeout_ms"`     // 请求超时（毫秒）
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeyID) == "" {
		return fmt.Errorf("%w: key_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeySecret) == "" {
		return fmt.Errorf("%w: key_secret is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.KeyID = strings.TrimSpace(c.KeyID)
	c.KeySecret = strings.TrimSpace(c.KeySecret)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = "https://api.razorpay.com"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 10000
	}
}

// CreateOrderInput 网关下单输入
type CreateOrderInput struct {
	Amount          decimal.Decimal // 应付金额（主币单位）
	Currency        string
	Receipt         string // 商户侧凭据（订单编号）
	InternalOrderID uint   // 内部订单ID，写入 notes
}

// CreateOrderResult 网关下单结果
type CreateOrderResult struct {
	GatewayOrderID string                 // 网关订单号（order_xxx）
	AmountPaise    int64                  // 下单金额（最小币值单位）
	Currency       string
	Raw            map[string]interface{} // 原始响应
}

// AmountToPaise 主币金额转最小币值单位（四舍五入到分）
func AmountToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreateOrder 在网关侧创建支付订单
func CreateOrder(ctx context.Context, cfg *Config, input CreateOrderInput) (*CreateOrderResult, error) {
	if cfg == nil {
		return nil, ErrConfigInvalid
	}
	normalized := *cfg
	normalized.normalize()
	if err := ValidateConfig(&normalized); err != nil {
		return nil, err
	}
	if input.InternalOrderID == 0 || !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: invalid order input", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "INR"
	}

	params := map[string]interface{}{
		"amount":   AmountToPaise(input.Amount),
		"currency": currency,
		"receipt":  input.Receipt,
		"notes": map[string]interface{}{
			NoteInternalOrderID: fmt.Sprintf("%d", input.InternalOrderID),
		},
	}

	endpoint := normalized.BaseURL + "/v1/orders"
	respBytes, err := postJSON(ctx, &normalized, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var resp struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrResponseInvalid)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &CreateOrderResult{
		GatewayOrderID: resp.ID,
		AmountPaise:    resp.Amount,
		Currency:       resp.Currency,
		Raw:            raw,
	}, nil
}

// WebhookEvent 回调事件信封
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentEntity 回调中的支付实体
type PaymentEntity struct {
	ID          string            `json:"id"`       // 支付流水号（pay_xxx）
	OrderID     string            `json:"order_id"` // 网关订单号（order_xxx）
	Amount      int64             `json:"amount"`   // 金额（最小币值单位）
	Currency    string            `json:"currency"`
	Status      string            `json:"status"`
	Method      string            `json:"method"`
	Email       string            `json:"email"`
	Contact     string            `json:"contact"`
	Notes       map[string]string `json:"notes"`
	ErrorCode   string            `json:"error_code"`
	ErrorReason string            `json:"error_reason"`
}

// AmountDecimal 将最小币值单位金额转换为主币金额
func (e *PaymentEntity) AmountDecimal() decimal.Decimal {
	return decimal.NewFromInt(e.Amount).Div(decimal.NewFromInt(100))
}

// InternalOrderID 读取附注中的内部订单ID，缺失时返回空串
func (e *PaymentEntity) InternalOrderID() string {
	if e.Notes == nil {
		return ""
	}
	return strings.TrimSpace(e.Notes[NoteInternalOrderID])
}

// VerifyWebhookSignature 校验回调签名
// 签名为对原始请求体字节做 HMAC-SHA256 后的十六进制串；
// 必须先于任何结构化解析对原文校验，解析后重新序列化会破坏签名。
func VerifyWebhookSignature(rawBody []byte, signature, secret string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" || strings.TrimSpace(secret) == "" {
		return ErrSignatureInvalid
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrSignatureInvalid
	}
	return nil
}

// VerifyPaymentSignature 校验前端回传的支付签名（checkout 完成回调）
// 签名内容为 "<gateway_order_id>|<gateway_payment_id>"。
func VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, secret string) error {
	signature = strings.TrimSpace(signature)
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return ErrSignatureInvalid
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrSignatureInvalid
	}
	return nil
}

// ParseWebhookEvent 解析已验签的回调事件
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	if len(body) == 0 {
		return nil, ErrResponseInvalid
	}
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if strings.TrimSpace(event.Event) == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	return &event, nil
}

func postJSON(ctx context.Context, cfg *Config, endpoint string, params map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(cfg.KeyID, cfg.KeySecret)

	client := &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
