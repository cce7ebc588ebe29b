package service

import "errors"

// 业务错误统一在此定义，处理器按 errors.Is 映射到 HTTP 状态码。
var (
	// 通用
	ErrNotFound = errors.New("资源不存在")

	// 认证
	ErrInvalidCredentials = errors.New("账号或密码错误")
	ErrInvalidPassword    = errors.New("原密码错误")
	ErrWeakPassword       = errors.New("密码强度不足")
	ErrEmailExists        = errors.New("邮箱已注册")
	ErrUserDisabled       = errors.New("账号已停用")

	// 商品
	ErrProductNotFound     = errors.New("商品不存在")
	ErrProductNotAvailable = errors.New("商品已下架")
	ErrProductPriceInvalid = errors.New("商品价格非法")
	ErrSlugExists          = errors.New("slug 已存在")
	ErrCategoryInUse       = errors.New("分类下存在商品")
	ErrStockInsufficient   = errors.New("库存不足")

	// 优惠券
	ErrCouponNotFound     = errors.New("优惠券不存在")
	ErrCouponInactive     = errors.New("优惠券未启用")
	ErrCouponNotStarted   = errors.New("优惠券未生效")
	ErrCouponExpired      = errors.New("优惠券已过期")
	ErrCouponMinAmount    = errors.New("未达到优惠券使用门槛")
	ErrCouponUsageLimit   = errors.New("优惠券已达使用上限")
	ErrCouponPerUserLimit = errors.New("优惠券已达个人使用上限")
	ErrCouponInvalid      = errors.New("优惠券参数非法")

	// 订单
	ErrOrderNotFound        = errors.New("订单不存在")
	ErrInvalidOrderItem     = errors.New("订单项参数非法")
	ErrOrderStatusInvalid   = errors.New("订单状态流转非法")
	ErrOrderCannotCancel    = errors.New("订单当前状态不可取消")
	ErrOrderAlreadyPaid     = errors.New("订单已支付")
	ErrOrderPaymentDisabled = errors.New("在线支付未启用")

	// 邮件
	ErrEmailServiceDisabled      = errors.New("邮件服务未启用")
	ErrEmailServiceNotConfigured = errors.New("邮件服务未配置")
	ErrInvalidEmail              = errors.New("邮箱格式非法")
	ErrEmailRecipientRejected    = errors.New("收件地址被拒收")
)
