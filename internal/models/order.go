package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 说明：金额三元组满足 FinalAmount = TotalAmount - DiscountAmount，
// 均为下单时按商品表价格服务端重算的权威值。
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号（对外展示，如 PR000014）
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID（游客订单归属自动创建的游客账号）
	Status         string         `gorm:"index;not null" json:"status"`                                 // 订单状态（placed/shipped/delivered/returned/cancelled）
	PaymentType    string         `gorm:"not null" json:"payment_type"`                                 // 支付方式（cod/online）
	PaymentStatus  string         `gorm:"index;not null" json:"payment_status"`                         // 支付状态（unpaid/pending/paid/failed）
	Currency       string         `gorm:"not null" json:"currency"`                                     // 币种
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 商品总额
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	FinalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"final_amount"`    // 应付金额
	CouponID       *uint          `gorm:"index" json:"coupon_id,omitempty"`                             // 优惠券ID
	CouponCode     string         `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`                // 优惠码快照
	ShippingName   string         `gorm:"type:varchar(100);not null" json:"shipping_name"`              // 收件人姓名
	ShippingEmail  string         `gorm:"type:varchar(255);index;not null" json:"shipping_email"`       // 收件人邮箱（游客查单凭据）
	ShippingPhone  string         `gorm:"type:varchar(20)" json:"shipping_phone"`                       // 收件人电话
	ShippingAddr   string         `gorm:"type:varchar(500);not null" json:"shipping_address"`           // 收件地址
	ShippingCity   string         `gorm:"type:varchar(100)" json:"shipping_city"`                       // 城市
	ShippingState  string         `gorm:"type:varchar(100)" json:"shipping_state"`                      // 省/邦
	ShippingPin    string         `gorm:"type:varchar(10)" json:"shipping_pincode"`                     // 邮编
	TrackingID     string         `gorm:"type:varchar(100)" json:"tracking_id,omitempty"`               // 物流单号
	ClientIP       string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                  // 下单客户端IP
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`                                         // 支付时间
	CanceledAt     *time.Time     `gorm:"index" json:"canceled_at"`                                     // 取消时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
