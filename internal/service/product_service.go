package service

import (
	"strings"

	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品业务服务
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// CreateProductInput 创建/更新商品输入
type CreateProductInput struct {
	CategoryID    uint
	Slug          string
	Name          string
	Description   string
	MRP           models.Money
	SellingPrice  models.Money
	StockQuantity *int
	ImageURL      string
	IsActive      *bool
	SortOrder     int
}

// ListPublic 获取公开商品列表
func (s *ProductService) ListPublic(categoryID uint, search string, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   categoryID,
		Search:       search,
		OnlyActive:   true,
		WithCategory: true,
	}
	return s.repo.List(filter)
}

// GetPublicBySlug 获取公开商品详情
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrNotFound
	}
	return product, nil
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(categoryID uint, search string, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   categoryID,
		Search:       search,
		OnlyActive:   false,
		WithCategory: true,
	}
	return s.repo.List(filter)
}

// GetAdminByID 获取后台商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

func validateProductInput(input *CreateProductInput) error {
	input.Slug = strings.TrimSpace(input.Slug)
	input.Name = strings.TrimSpace(input.Name)
	if input.Slug == "" || input.Name == "" || input.CategoryID == 0 {
		return ErrProductPriceInvalid
	}
	if input.MRP.Decimal.LessThanOrEqual(decimal.Zero) {
		return ErrProductPriceInvalid
	}
	// 售价为 0 表示未设置，计价回退市场价；设置时不得高于市场价
	if input.SellingPrice.IsNegative() {
		return ErrProductPriceInvalid
	}
	if input.SellingPrice.IsPositive() && input.SellingPrice.Decimal.GreaterThan(input.MRP.Decimal) {
		return ErrProductPriceInvalid
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		return ErrProductPriceInvalid
	}
	return nil
}

// Create 创建商品
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}
	count, err := s.repo.CountBySlug(input.Slug, 0)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	stock := 0
	if input.StockQuantity != nil {
		stock = *input.StockQuantity
	}

	product := models.Product{
		CategoryID:    input.CategoryID,
		Slug:          input.Slug,
		Name:          input.Name,
		Description:   strings.TrimSpace(input.Description),
		MRP:           input.MRP,
		SellingPrice:  input.SellingPrice,
		StockQuantity: stock,
		ImageURL:      strings.TrimSpace(input.ImageURL),
		IsActive:      isActive,
		SortOrder:     input.SortOrder,
	}
	if err := s.repo.Create(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input CreateProductInput) (*models.Product, error) {
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}

	count, err := s.repo.CountBySlug(input.Slug, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}

	product.CategoryID = input.CategoryID
	product.Slug = input.Slug
	product.Name = input.Name
	product.Description = strings.TrimSpace(input.Description)
	product.MRP = input.MRP
	product.SellingPrice = input.SellingPrice
	product.ImageURL = strings.TrimSpace(input.ImageURL)
	product.SortOrder = input.SortOrder
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrNotFound
	}
	return s.repo.Delete(id)
}
