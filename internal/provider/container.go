package provider

import (
	"github.com/storelane/storelane/internal/authz"
	"github.com/storelane/storelane/internal/cache"
	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/logger"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/queue"
	"github.com/storelane/storelane/internal/repository"
	"github.com/storelane/storelane/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	OrderRepo         repository.OrderRepository
	PaymentRepo       repository.PaymentRepository
	ProductRepo       repository.ProductRepository
	CartRepo          repository.CartRepository
	CouponRepo        repository.CouponRepository
	CouponUsageRepo   repository.CouponUsageRepository
	CategoryRepo      repository.CategoryRepository
	AuthzAuditLogRepo repository.AuthzAuditLogRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	UserAuthService    *service.UserAuthService
	EmailService       *service.EmailService
	ProductService     *service.ProductService
	CategoryService    *service.CategoryService
	CartService        *service.CartService
	CouponService      *service.CouponService
	CouponAdminService *service.CouponAdminService
	OrderService       *service.OrderService
	PaymentService     *service.PaymentService
	AuthzAuditService  *service.AuthzAuditService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUsageRepo = repository.NewCouponUsageRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email, c.Config.Site.Name)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo, c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponUsageRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo, c.CouponUsageRepo)
	c.OrderService = service.NewOrderService(
		c.Config,
		c.OrderRepo,
		c.ProductRepo,
		c.UserRepo,
		c.PaymentRepo,
		c.CouponRepo,
		c.CouponUsageRepo,
		c.CartRepo,
		c.CouponService,
		c.QueueClient,
	)
	c.PaymentService = service.NewPaymentService(c.Config, c.OrderRepo, c.PaymentRepo, c.QueueClient)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
}
