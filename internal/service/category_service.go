package service

import (
	"strings"

	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"
)

// CategoryService 分类业务服务
type CategoryService struct {
	repo        repository.CategoryRepository
	productRepo repository.ProductRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository, productRepo repository.ProductRepository) *CategoryService {
	return &CategoryService{repo: repo, productRepo: productRepo}
}

// CreateCategoryInput 创建/更新分类输入
type CreateCategoryInput struct {
	Slug      string
	Name      string
	IsActive  *bool
	SortOrder int
}

// ListPublic 获取启用的分类列表
func (s *CategoryService) ListPublic() ([]models.Category, error) {
	return s.repo.List(repository.CategoryListFilter{OnlyActive: true})
}

// ListAdmin 获取全部分类列表
func (s *CategoryService) ListAdmin() ([]models.Category, error) {
	return s.repo.List(repository.CategoryListFilter{})
}

// Create 创建分类
func (s *CategoryService) Create(input CreateCategoryInput) (*models.Category, error) {
	input.Slug = strings.TrimSpace(input.Slug)
	input.Name = strings.TrimSpace(input.Name)
	if input.Slug == "" || input.Name == "" {
		return nil, ErrNotFound
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
	category := models.Category{
		Slug:      input.Slug,
		Name:      input.Name,
		IsActive:  isActive,
		SortOrder: input.SortOrder,
	}
	if err := s.repo.Create(&category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Update 更新分类
func (s *CategoryService) Update(id uint, input CreateCategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}

	input.Slug = strings.TrimSpace(input.Slug)
	input.Name = strings.TrimSpace(input.Name)
	count, err := s.repo.CountBySlug(input.Slug, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}

	category.Slug = input.Slug
	category.Name = input.Name
	category.SortOrder = input.SortOrder
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.repo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete 删除分类（分类下仍有商品时拒绝）
func (s *CategoryService) Delete(id uint) error {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrNotFound
	}

	count, err := s.productRepo.CountByCategory(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}
	return s.repo.Delete(id)
}
