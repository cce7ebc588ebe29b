package service

import (
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"

	"github.com/shopspring/decimal"
)

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice models.Money    `json:"unit_price"`
	MRP       models.Money    `json:"mrp"`
	Subtotal  models.Money    `json:"subtotal"`
	Product   *models.Product `json:"product"`
}

// CartSummary 购物车汇总
type CartSummary struct {
	Items       []CartItemDetail `json:"items"`
	TotalAmount models.Money     `json:"total_amount"`
}

// UpsertCartItemInput 购物车更新输入
type UpsertCartItemInput struct {
	UserID    uint
	ProductID uint
	Quantity  int
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// ListByUser 获取用户购物车
// 已下架商品顺手清出购物车，单价按商品表现价实时计算。
func (s *CartService) ListByUser(userID uint) (*CartSummary, error) {
	if userID == 0 {
		return nil, ErrInvalidOrderItem
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	details := make([]CartItemDetail, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		product := item.Product
		if product == nil || product.ID == 0 {
			p, err := s.productRepo.GetByID(item.ProductID)
			if err != nil {
				return nil, err
			}
			product = p
		}
		if product == nil || !product.IsActive {
			_ = s.cartRepo.DeleteByUserAndProduct(userID, item.ProductID)
			continue
		}

		unit := product.UnitPrice()
		subtotal := models.NewMoneyFromDecimal(unit.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
		details = append(details, CartItemDetail{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			MRP:       product.MRP,
			Subtotal:  subtotal,
			Product:   product,
		})
		total = total.Add(subtotal.Decimal)
	}

	return &CartSummary{
		Items:       details,
		TotalAmount: models.NewMoneyFromDecimal(total),
	}, nil
}

// UpsertItem 添加或累加购物车项
func (s *CartService) UpsertItem(input UpsertCartItemInput) error {
	if input.UserID == 0 || input.ProductID == 0 || input.Quantity <= 0 {
		return ErrInvalidOrderItem
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}

	item := &models.CartItem{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	}
	return s.cartRepo.Upsert(item)
}

// SetQuantity 设置购物车项数量，0 等价删除
func (s *CartService) SetQuantity(userID, productID uint, quantity int) error {
	if userID == 0 || productID == 0 || quantity < 0 {
		return ErrInvalidOrderItem
	}
	if quantity == 0 {
		return s.cartRepo.DeleteByUserAndProduct(userID, productID)
	}
	existing, err := s.cartRepo.GetByUserAndProduct(userID, productID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return s.cartRepo.UpdateQuantity(userID, productID, quantity)
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(userID, productID uint) error {
	if userID == 0 || productID == 0 {
		return ErrInvalidOrderItem
	}
	return s.cartRepo.DeleteByUserAndProduct(userID, productID)
}

// Clear 清空用户购物车
func (s *CartService) Clear(userID uint) error {
	if userID == 0 {
		return ErrInvalidOrderItem
	}
	return s.cartRepo.ClearByUser(userID)
}
