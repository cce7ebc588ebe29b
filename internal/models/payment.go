package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录
// 说明：GatewayOrderID 在网关侧下单时生成，回调对账优先按订单附注中的
// 内部订单ID解析，回退按 GatewayOrderID 匹配本表。
type Payment struct {
	ID               uint           `gorm:"primarykey" json:"id"`                       // 主键
	OrderID          uint           `gorm:"index;not null" json:"order_id"`             // 订单ID
	Gateway          string         `gorm:"not null" json:"gateway"`                    // 网关标识（razorpay）
	GatewayOrderID   string         `gorm:"index" json:"gateway_order_id"`              // 网关订单号
	GatewayPaymentID string         `gorm:"index" json:"gateway_payment_id"`            // 网关支付流水号
	GatewaySignature string         `gorm:"type:varchar(255)" json:"-"`                 // 网关签名
	Amount           Money          `gorm:"type:decimal(20,2);not null" json:"amount"`  // 支付金额
	Currency         string         `gorm:"not null" json:"currency"`                   // 币种
	Method           string         `gorm:"type:varchar(30)" json:"method"`             // 支付手段（card/upi/netbanking等）
	Status           string         `gorm:"index;not null" json:"status"`               // 支付状态（pending/success/failed/refunded）
	RawPayload       JSON           `gorm:"type:json" json:"raw_payload,omitempty"`     // 回调原文
	CallbackAt       *time.Time     `gorm:"index" json:"callback_at"`                   // 回调时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                    // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                             // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
