package public

import (
	"errors"

	"github.com/storelane/storelane/internal/http/response"
	"github.com/storelane/storelane/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var couponErrorRules = []mappedHandlerError{
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "优惠券不存在"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, msg: "优惠券已停用"},
	{target: service.ErrCouponNotStarted, code: response.CodeBadRequest, msg: "优惠券尚未生效"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "优惠券已过期"},
	{target: service.ErrCouponMinAmount, code: response.CodeBadRequest, msg: "订单金额未满足优惠券使用门槛"},
	{target: service.ErrCouponUsageLimit, code: response.CodeBadRequest, msg: "优惠券已达使用上限"},
	{target: service.ErrCouponPerUserLimit, code: response.CodeBadRequest, msg: "该优惠券的个人使用次数已用完"},
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, msg: "优惠券无效"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "订单项无效"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: "商品不存在"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "商品已下架"},
	{target: service.ErrProductPriceInvalid, code: response.CodeBadRequest, msg: "商品价格异常"},
	{target: service.ErrStockInsufficient, code: response.CodeBadRequest, msg: "商品库存不足"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "邮箱格式不正确"},
	{target: service.ErrUserDisabled, code: response.CodeBadRequest, msg: "账号已被禁用"},
	{target: service.ErrOrderPaymentDisabled, code: response.CodeBadRequest, msg: "在线支付暂不可用"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	rules := make([]mappedHandlerError, 0, len(orderCreateErrorRules)+len(couponErrorRules))
	rules = append(rules, orderCreateErrorRules...)
	rules = append(rules, couponErrorRules...)
	respondWithMappedError(c, err, rules, response.CodeInternal, "下单失败")
}

func respondOrderQuoteError(c *gin.Context, err error) {
	rules := make([]mappedHandlerError, 0, len(orderCreateErrorRules)+len(couponErrorRules))
	rules = append(rules, orderCreateErrorRules...)
	rules = append(rules, couponErrorRules...)
	respondWithMappedError(c, err, rules, response.CodeInternal, "订单试算失败")
}
