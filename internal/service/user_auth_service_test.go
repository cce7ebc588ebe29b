package service

import (
	"context"
	"errors"
	"testing"

	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/constants"
	"github.com/storelane/storelane/internal/models"
	"github.com/storelane/storelane/internal/repository"

	"gorm.io/gorm"
)

func newTestUserAuthService(db *gorm.DB) *UserAuthService {
	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "user-jwt-secret-for-tests-0123456789"
	cfg.UserJWT.ExpireHours = 24
	cfg.Security.PasswordPolicy.MinLength = 8
	return NewUserAuthService(cfg, repository.NewUserRepository(db))
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestUserAuthService(db)

	user, err := svc.Register(RegisterInput{
		Email:    " Asha@Example.com ",
		Password: "secret-pass-1",
		Name:     "Asha",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "asha@example.com" {
		t.Fatalf("email should be normalized, got %s", user.Email)
	}
	if user.IsGuest {
		t.Fatalf("registered user should not be guest")
	}

	logged, token, _, err := svc.Login("asha@example.com", "secret-pass-1", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("login should issue token")
	}
	if logged.LastLoginAt == nil {
		t.Fatalf("last_login_at should be set")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("claims user want %d got %d", user.ID, claims.UserID)
	}

	if _, _, _, err := svc.Login("asha@example.com", "wrong", false); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestUserAuthService(db)

	if _, err := svc.Register(RegisterInput{Email: "a@example.com", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak password want ErrWeakPassword got %v", err)
	}
}

func TestRegisterPromotesGuestAccount(t *testing.T) {
	db := setupServiceDB(t)
	category := createTestCategory(t, db)
	product := createTestProduct(t, db, category.ID, "earphones", "1999", "1499", 10)
	orderSvc := newTestOrderService(db, nil)
	authSvc := newTestUserAuthService(db)

	// 游客下单创建隐式账号
	result, err := orderSvc.CreateOrder(context.Background(), CreateOrderInput{
		Items:       []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentType: constants.PaymentTypeCOD,
		Shipping:    testShipping(),
	})
	if err != nil {
		t.Fatalf("guest order failed: %v", err)
	}

	user, err := authSvc.Register(RegisterInput{
		Email:    "asha@example.com",
		Password: "secret-pass-1",
		Name:     "Asha",
	})
	if err != nil {
		t.Fatalf("register over guest failed: %v", err)
	}
	if user.IsGuest {
		t.Fatalf("guest should be promoted on register")
	}
	// 历史订单归属不变
	if result.Order.UserID != user.ID {
		t.Fatalf("promoted user should keep order ownership")
	}

	// 已是正式账号时再注册同邮箱被拒
	if _, err := authSvc.Register(RegisterInput{Email: "asha@example.com", Password: "secret-pass-2"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate register want ErrEmailExists got %v", err)
	}
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestUserAuthService(db)

	user, err := svc.Register(RegisterInput{Email: "a@example.com", Password: "secret-pass-1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}

	if _, _, _, err := svc.Login("a@example.com", "secret-pass-1", false); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user want ErrUserDisabled got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestUserAuthService(db)

	user, err := svc.Register(RegisterInput{Email: "a@example.com", Password: "secret-pass-1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "wrong", "another-pass-1"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong old password want ErrInvalidPassword got %v", err)
	}
	if err := svc.ChangePassword(user.ID, "secret-pass-1", "tiny"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak new password want ErrWeakPassword got %v", err)
	}
	if err := svc.ChangePassword(user.ID, "secret-pass-1", "another-pass-1"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, _, _, err := svc.Login("a@example.com", "another-pass-1", false); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}
