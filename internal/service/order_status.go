package service

import "github.com/storelane/storelane/internal/constants"

// allowedOrderTransitions 订单状态流转表
// 状态机为显式白名单：不在表中的流转一律拒绝。
// cancelled 与 returned 为终态。
var allowedOrderTransitions = map[string][]string{
	constants.OrderStatusPlaced: {
		constants.OrderStatusShipped,
		constants.OrderStatusCancelled,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusReturned,
	},
}

// IsValidOrderStatus 判断是否为已知订单状态
func IsValidOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusPlaced,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusReturned,
		constants.OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionOrderStatus 判断订单状态能否从 from 流转到 to
func CanTransitionOrderStatus(from, to string) bool {
	for _, next := range allowedOrderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
