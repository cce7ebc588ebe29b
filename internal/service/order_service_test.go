package service

import (
	"context"
	"errors"
	"testing"

	"github.com/storelane/storelane/internal/constants"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"
)

func testShipping() ShippingInput {
	return ShippingInput{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Phone:   "9876543210",
		Address: "12 MG Road",
		City:    "Bengaluru",
		State:   "KA",
		Pincode: "560001",
	}
}

func TestCreateOrderGuestCODWithCoupon(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	coupon := percentCoupon(t, db, "NEW99", "10", "999", "200")
	svc := newTestOrderService(db, nil)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
		CouponCode:  "new99",
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
		ClientIP:    "1.2.3.4",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	order := result.Order

	// 服务端计价：售价 1499 优先于市场价
	if got := order.TotalAmount.String(); got != "2998" {
		t.Fatalf("total want 2998 got %s", got)
	}
	if got := order.DiscountAmount.String(); got != "200" {
		t.Fatalf("discount want 200 got %s", got)
	}
	if got := order.FinalAmount.String(); got != "2798" {
		t.Fatalf("final want 2798 got %s", got)
	}
	if order.Status != constants.OrderStatusPlaced {
		t.Fatalf("status want placed got %s", order.Status)
	}
	if order.PaymentStatus != constants.OrderPaymentStatusUnpaid {
		t.Fatalf("payment status want unpaid got %s", order.PaymentStatus)
	}
	if order.OrderNo == "" || order.OrderNo[:2] != constants.OrderNoPrefix {
		t.Fatalf("order no should carry prefix, got %s", order.OrderNo)
	}

	// 按邮箱创建游客账号
	var user models.User
	if err := db.Where("email = ?", "asha@example.com").First(&user).Error; err != nil {
		t.Fatalf("guest user not created: %v", err)
	}
	if !user.IsGuest {
		t.Fatalf("user should be marked guest")
	}
	if user.Phone != "9876543210" || user.Address != "12 MG Road" {
		t.Fatalf("guest contact should be filled from shipping, got %q/%q", user.Phone, user.Address)
	}
	if order.UserID != user.ID {
		t.Fatalf("order user want %d got %d", user.ID, order.UserID)
	}

	// 库存扣减
	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockQuantity != 8 {
		t.Fatalf("stock want 8 got %d", reloaded.StockQuantity)
	}

	// 优惠券使用记录与计数同事务落库
	var usageCount int64
	db.Model(&models.CouponUsage{}).Where("coupon_id = ? AND order_id = ?", coupon.ID, order.ID).Count(&usageCount)
	if usageCount != 1 {
		t.Fatalf("usage count want 1 got %d", usageCount)
	}
	var reloadedCoupon models.Coupon
	if err := db.First(&reloadedCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloadedCoupon.UsedCount != 1 {
		t.Fatalf("used count want 1 got %d", reloadedCoupon.UsedCount)
	}
}

func TestCreateOrderFallsBackToMRP(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "speaker", "899", "0", 5)
	svc := newTestOrderService(db, nil)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if got := result.Order.FinalAmount.String(); got != "899" {
		t.Fatalf("final want 899 got %s", got)
	}
}

func TestCreateOrderStockInsufficientRollsBack(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "watch", "2999", "2999", 1)
	svc := newTestOrderService(db, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	})
	if !errors.Is(err, ErrStockInsufficient) {
		t.Fatalf("want ErrStockInsufficient got %v", err)
	}

	// 整个事务回滚：无订单残留，库存不变
	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 0 {
		t.Fatalf("order count want 0 got %d", orderCount)
	}
	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockQuantity != 1 {
		t.Fatalf("stock want 1 got %d", reloaded.StockQuantity)
	}
}

func TestCreateOrderInactiveProductRejected(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "hidden", "100", "100", 10)
	db.Model(product).Update("is_active", false)
	svc := newTestOrderService(db, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	})
	if !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("want ErrProductNotAvailable got %v", err)
	}
}

func TestCreateOrderOnlineRequiresGatewayEnabled(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "hub", "299", "299", 10)
	svc := newTestOrderService(db, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentType: constants.PaymentTypeOnline,
		Shipping:    testShipping(),
	})
	if !errors.Is(err, ErrOrderPaymentDisabled) {
		t.Fatalf("want ErrOrderPaymentDisabled got %v", err)
	}
}

func TestCreateOrderPerUserLimitSecondOrderRejected(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "bottle", "149", "149", 100)
	createTestCoupon(t, db, &models.Coupon{
		Code: "ONCE", Type: constants.CouponTypeFixed, Value: testMoney(t, "10"),
		PerUserLimit: 1, IsActive: true,
	})
	svc := newTestOrderService(db, nil)

	input := CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		CouponCode:  "ONCE",
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	}
	if _, err := svc.CreateOrder(context.Background(), input); err != nil {
		t.Fatalf("first order failed: %v", err)
	}
	// 同一游客邮箱解析到同一账号，第二单触发个人上限
	if _, err := svc.CreateOrder(context.Background(), input); !errors.Is(err, ErrCouponPerUserLimit) {
		t.Fatalf("second order want ErrCouponPerUserLimit got %v", err)
	}
}

func TestCreateOrderUsageLimitNotOverRedeemedAfterPrecheck(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "cable", "499", "299", 10)
	coupon := createTestCoupon(t, db, &models.Coupon{
		Code: "LAST1", Type: constants.CouponTypeFixed, Value: testMoney(t, "50"),
		UsageLimit: 1, IsActive: true,
	})
	svc := newTestOrderService(db, nil)
	couponRepo := repository.NewCouponRepository(db)

	// 请求 A 先通过预校验
	if _, err := newTestCouponService(db).ApplyCoupon(testMoney(t, "299"), "LAST1", 0); err != nil {
		t.Fatalf("precheck should pass, got %v", err)
	}

	// 请求 B 抢先完成下单，占掉最后一个名额
	if _, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		CouponCode:  "LAST1",
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	}); err != nil {
		t.Fatalf("first order failed: %v", err)
	}

	// A 晚到的计数更新必须被条件更新挡下，used_count 不越过 usage_limit
	affected, err := couponRepo.IncrementUsedCount(coupon.ID, 1)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("late increment want 0 affected got %d", affected)
	}
	var reloaded models.Coupon
	if err := db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.UsedCount != 1 {
		t.Fatalf("used_count want 1 got %d", reloaded.UsedCount)
	}

	// 后续整单下单同样被拒
	if _, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		CouponCode:  "LAST1",
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	}); !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("second order want ErrCouponUsageLimit got %v", err)
	}
}

func TestDecrementStockLastUnitSingleWinner(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "last-unit", "999", "899", 1)
	productRepo := repository.NewProductRepository(db)

	// 两笔同时下单最后一件，条件扣减只允许先提交者成功
	affected, err := productRepo.DecrementStock(product.ID, 1)
	if err != nil {
		t.Fatalf("first decrement failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("first decrement want 1 affected got %d", affected)
	}
	affected, err = productRepo.DecrementStock(product.ID, 1)
	if err != nil {
		t.Fatalf("second decrement failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("second decrement want 0 affected got %d", affected)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockQuantity != 0 {
		t.Fatalf("stock want 0 got %d", reloaded.StockQuantity)
	}
}

func TestQuoteDoesNotConsumeCoupon(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "keyboard", "599", "499", 10)
	coupon := percentCoupon(t, db, "NEW99", "10", "0", "200")
	svc := newTestOrderService(db, nil)

	quote, err := svc.Quote([]CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}}, "NEW99", 0)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if got := quote.DiscountAmount.String(); got != "49.9" {
		t.Fatalf("discount want 49.9 got %s", got)
	}

	var reloaded models.Coupon
	if err := db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.UsedCount != 0 {
		t.Fatalf("quote must not consume usage, used_count got %d", reloaded.UsedCount)
	}
	var usageCount int64
	db.Model(&models.CouponUsage{}).Count(&usageCount)
	if usageCount != 0 {
		t.Fatalf("quote must not write usage rows, got %d", usageCount)
	}
}

func TestCancelOrderRestoresStock(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	svc := newTestOrderService(db, nil)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 3}},
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	order := result.Order

	cancelled, err := svc.CancelOrder(order.ID, order.UserID)
	if err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want cancelled got %s", cancelled.Status)
	}
	if cancelled.CanceledAt == nil {
		t.Fatalf("canceled_at should be set")
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockQuantity != 10 {
		t.Fatalf("stock want 10 got %d", reloaded.StockQuantity)
	}

	// 终态不可再取消
	if _, err := svc.CancelOrder(order.ID, order.UserID); !errors.Is(err, ErrOrderCannotCancel) {
		t.Fatalf("second cancel want ErrOrderCannotCancel got %v", err)
	}
}

func TestUpdateStatusByAdminTransitions(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	svc := newTestOrderService(db, nil)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	orderID := result.Order.ID

	// placed 不能直接 delivered
	if _, err := svc.UpdateStatusByAdmin(UpdateStatusInput{OrderID: orderID, Status: constants.OrderStatusDelivered}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("placed->delivered want ErrOrderStatusInvalid got %v", err)
	}

	shipped, err := svc.UpdateStatusByAdmin(UpdateStatusInput{
		OrderID:    orderID,
		Status:     constants.OrderStatusShipped,
		TrackingID: "AWB-100",
	})
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if shipped.TrackingID != "AWB-100" {
		t.Fatalf("tracking id want AWB-100 got %s", shipped.TrackingID)
	}

	if _, err := svc.UpdateStatusByAdmin(UpdateStatusInput{OrderID: orderID, Status: constants.OrderStatusDelivered}); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if _, err := svc.UpdateStatusByAdmin(UpdateStatusInput{OrderID: orderID, Status: constants.OrderStatusReturned}); err != nil {
		t.Fatalf("return failed: %v", err)
	}

	// returned 为终态
	if _, err := svc.UpdateStatusByAdmin(UpdateStatusInput{OrderID: orderID, Status: constants.OrderStatusPlaced}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("returned->placed want ErrOrderStatusInvalid got %v", err)
	}

	// 未知状态
	if _, err := svc.UpdateStatusByAdmin(UpdateStatusInput{OrderID: orderID, Status: "teleported"}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("unknown status want ErrOrderStatusInvalid got %v", err)
	}
}

func TestTrackOrderRequiresMatchingEmail(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	svc := newTestOrderService(db, nil)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	order, err := svc.TrackOrder(result.Order.OrderNo, "ASHA@example.com")
	if err != nil {
		t.Fatalf("track with matching email failed: %v", err)
	}
	if order.ID != result.Order.ID {
		t.Fatalf("tracked wrong order")
	}

	if _, err := svc.TrackOrder(result.Order.OrderNo, "other@example.com"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("mismatched email want ErrOrderNotFound got %v", err)
	}
}

func TestOrderStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from string
		to   string
		ok   bool
	}{
		{constants.OrderStatusPlaced, constants.OrderStatusShipped, true},
		{constants.OrderStatusPlaced, constants.OrderStatusCancelled, true},
		{constants.OrderStatusPlaced, constants.OrderStatusReturned, false},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusShipped, constants.OrderStatusCancelled, true},
		{constants.OrderStatusDelivered, constants.OrderStatusReturned, true},
		{constants.OrderStatusDelivered, constants.OrderStatusCancelled, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPlaced, false},
		{constants.OrderStatusReturned, constants.OrderStatusPlaced, false},
	}
	for _, tc := range cases {
		if got := CanTransitionOrderStatus(tc.from, tc.to); got != tc.ok {
			t.Fatalf("%s->%s want %v got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}
