package constants

// 订单状态常量
const (
	OrderStatusPlaced    = "placed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusReturned  = "returned"
	OrderStatusCancelled = "cancelled"
)

// 支付方式常量
const (
	PaymentTypeCOD    = "cod"
	PaymentTypeOnline = "online"
)

// 订单支付状态常量
const (
	OrderPaymentStatusUnpaid  = "unpaid"
	OrderPaymentStatusPending = "pending"
	OrderPaymentStatusPaid    = "paid"
	OrderPaymentStatusFailed  = "failed"
)

// 支付记录状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusSuccess  = "success"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// 支付网关常量
const (
	PaymentGatewayRazorpay = "razorpay"
)

// 优惠券类型常量
const (
	CouponTypeFixed      = "fixed"
	CouponTypePercentage = "percentage"
)

// 队列常量
const (
	QueueDefault            = "default"
	TaskOrderStatusEmail    = "order:status_email"
	TaskOrderConfirmedEmail = "order:confirmed_email"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "sl"
)

// 币种常量
const (
	SiteCurrencyDefault = "INR"
)

// 订单编号前缀常量
const (
	OrderNoPrefix = "PR"
)

// 管理端能力标签常量
const (
	CapabilityProductRead  = "product:read"
	CapabilityProductWrite = "product:write"
	CapabilityCouponRead   = "coupon:read"
	CapabilityCouponWrite  = "coupon:write"
	CapabilityOrderRead    = "order:read"
	CapabilityOrderStatus  = "order:status"
	CapabilityUserRead     = "user:read"
	CapabilityUserWrite    = "user:write"
	CapabilityAdminManage  = "admin:manage"
)

// AllCapabilities 可授予的全部能力标签
var AllCapabilities = []string{
	CapabilityProductRead,
	CapabilityProductWrite,
	CapabilityCouponRead,
	CapabilityCouponWrite,
	CapabilityOrderRead,
	CapabilityOrderStatus,
	CapabilityUserRead,
	CapabilityUserWrite,
	CapabilityAdminManage,
}
