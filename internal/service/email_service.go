package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/constants"
	"github.com/storelane/storelane/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg      *config.EmailConfig
	siteName string
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig, siteName string) *EmailService {
	return &EmailService{cfg: cfg, siteName: siteName}
}

// SendOrderConfirmedEmail 发送下单确认邮件
// 订单内明细、金额与收货信息全部来自落库快照。
func (s *EmailService) SendOrderConfirmedEmail(order *models.Order) error {
	if order == nil {
		return ErrOrderNotFound
	}
	subject, body := s.buildOrderConfirmedContent(order)
	return s.sendTextEmail(order.ShippingEmail, subject, body)
}

// OrderStatusEmailInput 订单状态邮件输入
type OrderStatusEmailInput struct {
	OrderNo    string
	Status     string
	Amount     models.Money
	Currency   string
	TrackingID string
}

// SendOrderStatusEmail 发送订单状态通知
func (s *EmailService) SendOrderStatusEmail(toEmail string, input OrderStatusEmailInput) error {
	subject, body := s.buildOrderStatusContent(input)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendCustomEmail 发送测试邮件或自定义邮件
func (s *EmailService) SendCustomEmail(toEmail, subject, body string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "SMTP configuration test"
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = fmt.Sprintf("This is a test email from %s. Your SMTP configuration works.", s.resolveSiteName())
	}
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) resolveSiteName() string {
	name := strings.TrimSpace(s.siteName)
	if name == "" {
		return "Storelane"
	}
	return name
}

func (s *EmailService) buildOrderConfirmedContent(order *models.Order) (string, string) {
	site := s.resolveSiteName()
	subject := fmt.Sprintf("%s: order %s confirmed", site, order.OrderNo)

	var buf bytes.Buffer
	name := strings.TrimSpace(order.ShippingName)
	if name == "" {
		name = "Customer"
	}
	fmt.Fprintf(&buf, "Hi %s,\n\n", name)
	fmt.Fprintf(&buf, "Thanks for shopping with %s. Your order %s has been placed.\n\n", site, order.OrderNo)

	buf.WriteString("Items:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&buf, "  - %s x%d @ %s %s = %s %s\n",
			item.ProductName, item.Quantity,
			item.UnitPrice.String(), order.Currency,
			item.TotalPrice.String(), order.Currency)
	}
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "Subtotal: %s %s\n", order.TotalAmount.String(), order.Currency)
	if order.DiscountAmount.IsPositive() {
		fmt.Fprintf(&buf, "Discount (%s): -%s %s\n", order.CouponCode, order.DiscountAmount.String(), order.Currency)
	}
	fmt.Fprintf(&buf, "Total payable: %s %s\n\n", order.FinalAmount.String(), order.Currency)

	if order.PaymentType == constants.PaymentTypeCOD {
		buf.WriteString("Payment: cash on delivery.\n\n")
	} else {
		buf.WriteString("Payment: online. We will confirm once the payment is captured.\n\n")
	}

	buf.WriteString("Shipping to:\n")
	fmt.Fprintf(&buf, "  %s\n", order.ShippingName)
	fmt.Fprintf(&buf, "  %s\n", order.ShippingAddr)
	locality := joinNonEmpty(", ", order.ShippingCity, order.ShippingState, order.ShippingPin)
	if locality != "" {
		fmt.Fprintf(&buf, "  %s\n", locality)
	}
	if strings.TrimSpace(order.ShippingPhone) != "" {
		fmt.Fprintf(&buf, "  Phone: %s\n", order.ShippingPhone)
	}
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "You can track this order anytime with the order number and this email address.\n\n-- %s", site)

	return subject, buf.String()
}

func (s *EmailService) buildOrderStatusContent(input OrderStatusEmailInput) (string, string) {
	site := s.resolveSiteName()
	status := strings.ToLower(strings.TrimSpace(input.Status))
	subject := fmt.Sprintf("%s: order %s %s", site, input.OrderNo, status)

	var buf bytes.Buffer
	switch status {
	case constants.OrderStatusShipped:
		fmt.Fprintf(&buf, "Good news! Your order %s has been shipped.\n", input.OrderNo)
		if strings.TrimSpace(input.TrackingID) != "" {
			fmt.Fprintf(&buf, "Tracking ID: %s\n", input.TrackingID)
		}
	case constants.OrderStatusDelivered:
		fmt.Fprintf(&buf, "Your order %s has been delivered. We hope you enjoy your purchase.\n", input.OrderNo)
	case constants.OrderStatusCancelled:
		fmt.Fprintf(&buf, "Your order %s has been cancelled.\n", input.OrderNo)
	case constants.OrderStatusReturned:
		fmt.Fprintf(&buf, "Your order %s has been marked as returned.\n", input.OrderNo)
	default:
		fmt.Fprintf(&buf, "Your order %s is now %s.\n", input.OrderNo, status)
	}
	fmt.Fprintf(&buf, "\nOrder total: %s %s\n\n-- %s", input.Amount.String(), strings.TrimSpace(input.Currency), site)

	return subject, buf.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, sep)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	if s.cfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
