package main

import (
	"os"
	"time"

	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/constants"
	"github.com/storelane/storelane/internal/logger"
	"github.com/storelane/storelane/internal/models"

	"github.com/shopspring/decimal"
)

func money(value float64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromFloat(value))
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化默认管理员
	if err := models.InitDefaultAdmin(
		os.Getenv("STORELANE_DEFAULT_ADMIN_USERNAME"),
		os.Getenv("STORELANE_DEFAULT_ADMIN_PASSWORD"),
	); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	// 添加分类
	categories := []models.Category{
		{Slug: "electronics", Name: "电子产品", IsActive: true, SortOrder: 10},
		{Slug: "lifestyle", Name: "生活用品", IsActive: true, SortOrder: 20},
		{Slug: "accessories", Name: "数码配件", IsActive: true, SortOrder: 30},
	}

	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			// 不存在则创建
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	// 获取分类ID
	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"electronics", "lifestyle", "accessories"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}
	electronicsID := categoryIDs["electronics"]
	lifestyleID := categoryIDs["lifestyle"]
	accessoriesID := categoryIDs["accessories"]

	// 添加商品
	products := []models.Product{
		{
			CategoryID:    electronicsID,
			Slug:          "wireless-earphones",
			Name:          "无线蓝牙耳机",
			Description:   "蓝牙 5.0，主动降噪，续航 24 小时",
			MRP:           money(1999),
			SellingPrice:  money(1499),
			StockQuantity: 120,
			ImageURL:      "https://images.unsplash.com/photo-1590658268037-6bf12165a8df?w=800",
			IsActive:      true,
			SortOrder:     10,
		},
		{
			CategoryID:    electronicsID,
			Slug:          "smart-watch",
			Name:          "智能手表",
			Description:   "心率监测，GPS 定位，50 米防水",
			MRP:           money(3999),
			SellingPrice:  money(2999),
			StockQuantity: 60,
			ImageURL:      "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=800",
			IsActive:      true,
			SortOrder:     20,
		},
		{
			CategoryID:    electronicsID,
			Slug:          "portable-speaker",
			Name:          "便携蓝牙音箱",
			Description:   "360 度环绕声，IPX7 防水",
			MRP:           money(899),
			SellingPrice:  money(0),
			StockQuantity: 200,
			ImageURL:      "https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=800",
			IsActive:      true,
			SortOrder:     30,
		},
		{
			CategoryID:    lifestyleID,
			Slug:          "thermos-bottle",
			Name:          "保温杯",
			Description:   "316 不锈钢内胆，12 小时保温",
			MRP:           money(199),
			SellingPrice:  money(149),
			StockQuantity: 500,
			ImageURL:      "https://images.unsplash.com/photo-1602143407151-7111542de6e8?w=800",
			IsActive:      true,
			SortOrder:     10,
		},
		{
			CategoryID:    accessoriesID,
			Slug:          "usb-c-hub",
			Name:          "USB-C 扩展坞",
			Description:   "7 合 1，支持 4K HDMI 输出",
			MRP:           money(399),
			SellingPrice:  money(299),
			StockQuantity: 300,
			ImageURL:      "https://images.unsplash.com/photo-1625948515291-69613efd103f?w=800",
			IsActive:      true,
			SortOrder:     10,
		},
		{
			CategoryID:    accessoriesID,
			Slug:          "mechanical-keyboard",
			Name:          "机械键盘",
			Description:   "热插拔轴体，RGB 背光",
			MRP:           money(599),
			SellingPrice:  money(499),
			StockQuantity: 0,
			ImageURL:      "https://images.unsplash.com/photo-1511467687858-23d96c32e4ae?w=800",
			IsActive:      true,
			SortOrder:     20,
		},
	}

	for _, product := range products {
		if product.CategoryID == 0 {
			stdLog.Printf("Skip product %s: category missing", product.Slug)
			continue
		}
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Slug)
		}
	}

	// 添加优惠券
	now := time.Now()
	endsAt := now.AddDate(1, 0, 0)
	coupons := []models.Coupon{
		{
			Code:           "NEW99",
			Type:           constants.CouponTypePercentage,
			Value:          money(10),
			MinOrderAmount: money(999),
			MaxDiscount:    money(200),
			UsageLimit:     1000,
			PerUserLimit:   1,
			StartsAt:       &now,
			EndsAt:         &endsAt,
			IsActive:       true,
		},
		{
			Code:           "FLAT100",
			Type:           constants.CouponTypeFixed,
			Value:          money(100),
			MinOrderAmount: money(500),
			UsageLimit:     0,
			PerUserLimit:   0,
			StartsAt:       &now,
			EndsAt:         &endsAt,
			IsActive:       true,
		},
	}

	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&coupon).Error; err != nil {
				stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			} else {
				stdLog.Printf("Created coupon: %s", coupon.Code)
			}
		} else {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
		}
	}

	stdLog.Println("Seed data initialized successfully!")
}
