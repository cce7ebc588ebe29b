package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/constants"
	"github.com/storelane/storelane/internal/logger"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/payment/razorpay"
	"github.com/storelane/storelane/internal/queue"
	"github.com/storelane/storelane/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OrderService 订单业务服务
type OrderService struct {
	cfg             *config.Config
	orderRepo       repository.OrderRepository
	productRepo     repository.ProductRepository
	userRepo        repository.UserRepository
	paymentRepo     repository.PaymentRepository
	couponRepo      repository.CouponRepository
	couponUsageRepo repository.CouponUsageRepository
	cartRepo        repository.CartRepository
	couponService   *CouponService
	queueClient     *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	paymentRepo repository.PaymentRepository,
	couponRepo repository.CouponRepository,
	couponUsageRepo repository.CouponUsageRepository,
	cartRepo repository.CartRepository,
	couponService *CouponService,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		cfg:             cfg,
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		userRepo:        userRepo,
		paymentRepo:     paymentRepo,
		couponRepo:      couponRepo,
		couponUsageRepo: couponUsageRepo,
		cartRepo:        cartRepo,
		couponService:   couponService,
		queueClient:     queueClient,
	}
}

// CreateOrderItemInput 下单商品项输入
type CreateOrderItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// ShippingInput 收货信息输入
type ShippingInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// CreateOrderInput 下单输入
// UserID 为 0 表示游客下单，按收货邮箱解析或创建游客账号。
type CreateOrderInput struct {
	UserID      uint
	Items       []CreateOrderItemInput
	CouponCode  string
	PaymentType string
	Shipping    ShippingInput
	ClientIP    string
	FromCart    bool
}

// CreateOrderResult 下单结果
type CreateOrderResult struct {
	Order          *models.Order `json:"order"`
	GatewayOrderID string        `json:"gateway_order_id,omitempty"`
	GatewayKeyID   string        `json:"gateway_key_id,omitempty"`
}

// pricedItem 服务端计价后的订单项
type pricedItem struct {
	product  *models.Product
	quantity int
	unit     models.Money
	total    models.Money
}

// priceItems 按商品表现价重算订单项
// 客户端提交的任何金额都不参与计算，单价取售价否则市场价。
func (s *OrderService) priceItems(items []CreateOrderItemInput) ([]pricedItem, models.Money, error) {
	if len(items) == 0 {
		return nil, models.Money{}, ErrInvalidOrderItem
	}

	merged := make(map[uint]int, len(items))
	orderIDs := make([]uint, 0, len(items))
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, models.Money{}, ErrInvalidOrderItem
		}
		if _, ok := merged[item.ProductID]; !ok {
			orderIDs = append(orderIDs, item.ProductID)
		}
		merged[item.ProductID] += item.Quantity
	}

	products, err := s.productRepo.ListByIDs(orderIDs)
	if err != nil {
		return nil, models.Money{}, err
	}
	index := make(map[uint]*models.Product, len(products))
	for i := range products {
		index[products[i].ID] = &products[i]
	}

	priced := make([]pricedItem, 0, len(orderIDs))
	subtotal := decimal.Zero
	for _, productID := range orderIDs {
		product, ok := index[productID]
		if !ok {
			return nil, models.Money{}, ErrProductNotFound
		}
		if !product.IsActive {
			return nil, models.Money{}, ErrProductNotAvailable
		}
		quantity := merged[productID]
		unit := product.UnitPrice()
		total := models.NewMoneyFromDecimal(unit.Decimal.Mul(decimal.NewFromInt(int64(quantity))))
		priced = append(priced, pricedItem{
			product:  product,
			quantity: quantity,
			unit:     unit,
			total:    total,
		})
		subtotal = subtotal.Add(total.Decimal)
	}
	return priced, models.NewMoneyFromDecimal(subtotal), nil
}

// QuoteResult 订单试算结果
type QuoteResult struct {
	TotalAmount    models.Money `json:"total_amount"`
	DiscountAmount models.Money `json:"discount_amount"`
	FinalAmount    models.Money `json:"final_amount"`
	CouponCode     string       `json:"coupon_code,omitempty"`
}

// Quote 订单试算：服务端计价加可选优惠券预览，不落库不占用名额
func (s *OrderService) Quote(items []CreateOrderItemInput, couponCode string, userID uint) (*QuoteResult, error) {
	_, subtotal, err := s.priceItems(items)
	if err != nil {
		return nil, err
	}

	result := &QuoteResult{
		TotalAmount:    subtotal,
		DiscountAmount: models.NewMoneyFromDecimal(decimal.Zero),
		FinalAmount:    subtotal,
	}
	if strings.TrimSpace(couponCode) == "" {
		return result, nil
	}

	applied, err := s.couponService.ApplyCoupon(subtotal, couponCode, userID)
	if err != nil {
		return nil, err
	}
	result.DiscountAmount = applied.DiscountAmount
	result.FinalAmount = applied.FinalAmount
	result.CouponCode = applied.Coupon.Code
	return result, nil
}

func normalizeShipping(input *ShippingInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = strings.TrimSpace(input.Address)
	input.City = strings.TrimSpace(input.City)
	input.State = strings.TrimSpace(input.State)
	input.Pincode = strings.TrimSpace(input.Pincode)

	if input.Name == "" || input.Address == "" {
		return ErrInvalidOrderItem
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// resolveOrderUser 解析下单用户
// 登录用户直接校验状态；游客按邮箱复用已有账号，否则创建
// 带游客标记的账号，密码为随机占位值，注册同邮箱时原地升级。
func (s *OrderService) resolveOrderUser(tx *gorm.DB, userID uint, shipping ShippingInput) (*models.User, error) {
	email := shipping.Email
	userRepo := s.userRepo.WithTx(tx)

	if userID != 0 {
		user, err := userRepo.GetByID(userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrNotFound
		}
		if !user.IsActive {
			return nil, ErrUserDisabled
		}
		return user, nil
	}

	user, err := userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if !user.IsActive {
			return nil, ErrUserDisabled
		}
		// 复用账号时同步最新联系方式
		applyShippingContact(user, shipping)
		if err := userRepo.Update(user); err != nil {
			return nil, err
		}
		return user, nil
	}

	placeholder, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	guest := &models.User{
		Email:        email,
		PasswordHash: string(placeholder),
		IsGuest:      true,
		IsActive:     true,
	}
	applyShippingContact(guest, shipping)
	if err := userRepo.Create(guest); err != nil {
		return nil, err
	}
	return guest, nil
}

func applyShippingContact(user *models.User, shipping ShippingInput) {
	if user.Name == "" {
		user.Name = shipping.Name
	}
	user.Phone = shipping.Phone
	user.Address = shipping.Address
	user.City = shipping.City
	user.State = shipping.State
	user.Pincode = shipping.Pincode
}

// buildOrderNo 由数据库自增ID派生订单编号
func (s *OrderService) buildOrderNo(orderID uint) string {
	padWidth := 6
	if s.cfg != nil && s.cfg.Order.NumberPadWidth > 0 {
		padWidth = s.cfg.Order.NumberPadWidth
	}
	return fmt.Sprintf("%s%0*d", constants.OrderNoPrefix, padWidth, orderID)
}

func (s *OrderService) siteCurrency() string {
	if s.cfg != nil && strings.TrimSpace(s.cfg.Site.Currency) != "" {
		return strings.ToUpper(strings.TrimSpace(s.cfg.Site.Currency))
	}
	return constants.SiteCurrencyDefault
}

// CreateOrder 创建订单
// 整个装配过程在单个数据库事务内完成：用户解析、订单与订单项
// 落库、订单编号回填、条件库存扣减、优惠券使用记录与计数。
// 任一环节失败全部回滚。在线支付在事务内于网关侧下单，
// 确认邮件在提交后异步投递，失败不影响订单。
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	paymentType := strings.ToLower(strings.TrimSpace(input.PaymentType))
	if paymentType != constants.PaymentTypeCOD && paymentType != constants.PaymentTypeOnline {
		return nil, ErrInvalidOrderItem
	}
	if err := normalizeShipping(&input.Shipping); err != nil {
		return nil, err
	}
	if paymentType == constants.PaymentTypeOnline && (s.cfg == nil || !s.cfg.Razorpay.Enabled) {
		return nil, ErrOrderPaymentDisabled
	}

	priced, subtotal, err := s.priceItems(input.Items)
	if err != nil {
		return nil, err
	}

	currency := s.siteCurrency()
	result := &CreateOrderResult{}
	var order *models.Order

	txErr := models.DB.Transaction(func(tx *gorm.DB) error {
		user, err := s.resolveOrderUser(tx, input.UserID, input.Shipping)
		if err != nil {
			return err
		}

		discount := models.NewMoneyFromDecimal(decimal.Zero)
		final := subtotal
		var coupon *models.Coupon
		if strings.TrimSpace(input.CouponCode) != "" {
			applied, err := s.couponService.ApplyCoupon(subtotal, input.CouponCode, user.ID)
			if err != nil {
				return err
			}
			coupon = applied.Coupon
			discount = applied.DiscountAmount
			final = applied.FinalAmount
		}

		paymentStatus := constants.OrderPaymentStatusUnpaid
		if paymentType == constants.PaymentTypeOnline {
			paymentStatus = constants.OrderPaymentStatusPending
		}

		order = &models.Order{
			OrderNo:        uuid.NewString(), // 占位，落库拿到自增ID后回填
			UserID:         user.ID,
			Status:         constants.OrderStatusPlaced,
			PaymentType:    paymentType,
			PaymentStatus:  paymentStatus,
			Currency:       currency,
			TotalAmount:    subtotal,
			DiscountAmount: discount,
			FinalAmount:    final,
			ShippingName:   input.Shipping.Name,
			ShippingEmail:  input.Shipping.Email,
			ShippingPhone:  input.Shipping.Phone,
			ShippingAddr:   input.Shipping.Address,
			ShippingCity:   input.Shipping.City,
			ShippingState:  input.Shipping.State,
			ShippingPin:    input.Shipping.Pincode,
			ClientIP:       strings.TrimSpace(input.ClientIP),
		}
		if coupon != nil {
			order.CouponID = &coupon.ID
			order.CouponCode = coupon.Code
		}

		items := make([]models.OrderItem, 0, len(priced))
		for _, p := range priced {
			items = append(items, models.OrderItem{
				ProductID:   p.product.ID,
				ProductName: p.product.Name,
				UnitPrice:   p.unit,
				Quantity:    p.quantity,
				TotalPrice:  p.total,
			})
		}

		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.Create(order, items); err != nil {
			return err
		}
		order.OrderNo = s.buildOrderNo(order.ID)
		if err := orderRepo.UpdateOrderNo(order.ID, order.OrderNo); err != nil {
			return err
		}
		order.Items = items

		productRepo := s.productRepo.WithTx(tx)
		for _, p := range priced {
			affected, err := productRepo.DecrementStock(p.product.ID, p.quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrStockInsufficient
			}
		}

		if coupon != nil {
			usage := &models.CouponUsage{
				CouponID:       coupon.ID,
				UserID:         user.ID,
				OrderID:        order.ID,
				DiscountAmount: discount,
			}
			if err := s.couponUsageRepo.WithTx(tx).Create(usage); err != nil {
				return err
			}
			affected, err := s.couponRepo.WithTx(tx).IncrementUsedCount(coupon.ID, 1)
			if err != nil {
				return err
			}
			if affected == 0 {
				// 预校验通过后名额被并发下单抢走，整单回滚
				return ErrCouponUsageLimit
			}
		}

		if paymentType == constants.PaymentTypeOnline {
			gwCfg := s.razorpayConfig()
			gwOrder, err := razorpay.CreateOrder(ctx, gwCfg, razorpay.CreateOrderInput{
				Amount:          final.Decimal,
				Currency:        currency,
				Receipt:         order.OrderNo,
				InternalOrderID: order.ID,
			})
			if err != nil {
				return err
			}
			payment := &models.Payment{
				OrderID:        order.ID,
				Gateway:        constants.PaymentGatewayRazorpay,
				GatewayOrderID: gwOrder.GatewayOrderID,
				Amount:         final,
				Currency:       currency,
				Status:         constants.PaymentStatusPending,
			}
			if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
				return err
			}
			result.GatewayOrderID = gwOrder.GatewayOrderID
			result.GatewayKeyID = gwCfg.KeyID
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"payment_type", order.PaymentType,
		"final_amount", order.FinalAmount.String(),
	)

	if input.FromCart && input.UserID != 0 {
		if err := s.cartRepo.ClearByUser(input.UserID); err != nil {
			logger.Warnw("order_cart_clear_failed", "order_id", order.ID, "error", err)
		}
	}

	if err := s.queueClient.EnqueueOrderConfirmedEmail(queue.OrderConfirmedEmailPayload{OrderID: order.ID}); err != nil {
		logger.Warnw("order_confirmed_email_enqueue_failed", "order_id", order.ID, "error", err)
	}

	result.Order = order
	return result, nil
}

func (s *OrderService) razorpayConfig() *razorpay.Config {
	if s.cfg == nil {
		return &razorpay.Config{}
	}
	return &razorpay.Config{
		KeyID:         s.cfg.Razorpay.KeyID,
		KeySecret:     s.cfg.Razorpay.KeySecret,
		WebhookSecret: s.cfg.Razorpay.WebhookSecret,
		BaseURL:       s.cfg.Razorpay.BaseURL,
		TimeoutMS:     s.cfg.Razorpay.TimeoutMS,
	}
}

// GetForUser 获取用户订单详情
func (s *OrderService) GetForUser(orderID, userID uint) (*models.Order, error) {
	if orderID == 0 || userID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListForUser 获取用户订单列表
func (s *OrderService) ListForUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrOrderNotFound
	}
	return s.orderRepo.ListByUser(filter)
}

// ListForAdmin 管理端订单列表
func (s *OrderService) ListForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetForAdmin 管理端订单详情
func (s *OrderService) GetForAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// TrackOrder 游客查单：订单号加收货邮箱双因子匹配
func (s *OrderService) TrackOrder(orderNo, email string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	email = strings.ToLower(strings.TrimSpace(email))
	if orderNo == "" || email == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNoAndEmail(orderNo, email)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// CancelOrder 用户取消订单
// 仅允许状态机许可的取消，库存在同事务内回补；
// 优惠券使用名额不回收。
func (s *OrderService) CancelOrder(orderID, userID uint) (*models.Order, error) {
	order, err := s.GetForUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionOrderStatus(order.Status, constants.OrderStatusCancelled) {
		return nil, ErrOrderCannotCancel
	}
	if err := s.cancelOrderTx(order); err != nil {
		return nil, err
	}
	s.enqueueStatusEmail(order.ID, constants.OrderStatusCancelled)
	return order, nil
}

func (s *OrderService) cancelOrderTx(order *models.Order) error {
	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"canceled_at": &now}
		if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, constants.OrderStatusCancelled, updates); err != nil {
			return err
		}
		productRepo := s.productRepo.WithTx(tx)
		for _, item := range order.Items {
			if err := productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.Status = constants.OrderStatusCancelled
	order.CanceledAt = &now
	logger.Infow("order_cancelled", "order_id", order.ID, "order_no", order.OrderNo)
	return nil
}

// UpdateStatusInput 管理端订单状态更新输入
type UpdateStatusInput struct {
	OrderID    uint
	Status     string
	TrackingID string
}

// UpdateStatusByAdmin 管理端更新订单状态
// 流转受状态机白名单约束，发货时可附带物流单号，
// 取消走库存回补路径。
func (s *OrderService) UpdateStatusByAdmin(input UpdateStatusInput) (*models.Order, error) {
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if !IsValidOrderStatus(status) {
		return nil, ErrOrderStatusInvalid
	}
	order, err := s.GetForAdmin(input.OrderID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionOrderStatus(order.Status, status) {
		return nil, ErrOrderStatusInvalid
	}

	if status == constants.OrderStatusCancelled {
		if err := s.cancelOrderTx(order); err != nil {
			return nil, err
		}
		s.enqueueStatusEmail(order.ID, status)
		return order, nil
	}

	updates := map[string]interface{}{}
	trackingID := strings.TrimSpace(input.TrackingID)
	if status == constants.OrderStatusShipped && trackingID != "" {
		updates["tracking_id"] = trackingID
	}
	if err := s.orderRepo.UpdateStatus(order.ID, status, updates); err != nil {
		return nil, err
	}
	order.Status = status
	if trackingID != "" {
		order.TrackingID = trackingID
	}

	logger.Infow("order_status_updated",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"status", status,
	)
	s.enqueueStatusEmail(order.ID, status)
	return order, nil
}

func (s *OrderService) enqueueStatusEmail(orderID uint, status string) {
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: orderID,
		Status:  status,
	}); err != nil {
		logger.Warnw("order_status_email_enqueue_failed", "order_id", orderID, "status", status, "error", err)
	}
}
