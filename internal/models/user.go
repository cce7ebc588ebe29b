package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
// 说明：IsGuest 标记由游客下单时按邮箱自动创建的账号，注册同邮箱时原地升级。
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                   // 主键
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`      // 邮箱
	PasswordHash string         `gorm:"not null" json:"-"`                      // 密码哈希（不返回给前端）
	Name         string         `gorm:"type:varchar(100)" json:"name"`          // 姓名
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`          // 电话
	Address      string         `gorm:"type:varchar(500)" json:"address"`       // 地址
	City         string         `gorm:"type:varchar(100)" json:"city"`          // 城市
	State        string         `gorm:"type:varchar(100)" json:"state"`         // 省/邦
	Pincode      string         `gorm:"type:varchar(10)" json:"pincode"`        // 邮编
	IsGuest      bool           `gorm:"not null;default:false" json:"is_guest"` // 是否游客账号
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"` // 是否启用
	LastLoginAt  *time.Time     `json:"last_login_at"`                          // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
