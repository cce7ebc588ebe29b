package authz

import (
	"fmt"

	"github.com/storelane/storelane/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置能力角色矩阵
// 每个能力标签对应一个内置角色，绑定一组路由策略。
// 给管理员授予能力即绑定对应角色；超级管理员在中间件短路放行，
// 不走策略判定。
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.CapabilityProductRead,
			Policies: []Policy{
				{Object: "/admin/products", Action: "GET"},
				{Object: "/admin/products/:id", Action: "GET"},
				{Object: "/admin/categories", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     constants.CapabilityProductWrite,
			Inherits: []string{constants.CapabilityProductRead},
			Policies: []Policy{
				{Object: "/admin/products", Action: "*"},
				{Object: "/admin/products/:id", Action: "*"},
				{Object: "/admin/categories", Action: "*"},
				{Object: "/admin/categories/:id", Action: "*"},
			},
			Immutable: true,
		},
		{
			Role: constants.CapabilityCouponRead,
			Policies: []Policy{
				{Object: "/admin/coupons", Action: "GET"},
				{Object: "/admin/coupons/:id", Action: "GET"},
				{Object: "/admin/coupon-usages", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     constants.CapabilityCouponWrite,
			Inherits: []string{constants.CapabilityCouponRead},
			Policies: []Policy{
				{Object: "/admin/coupons", Action: "*"},
				{Object: "/admin/coupons/:id", Action: "*"},
			},
			Immutable: true,
		},
		{
			Role: constants.CapabilityOrderRead,
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/payments", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     constants.CapabilityOrderStatus,
			Inherits: []string{constants.CapabilityOrderRead},
			Policies: []Policy{
				{Object: "/admin/orders/:id/status", Action: "PATCH"},
			},
			Immutable: true,
		},
		{
			Role: constants.CapabilityUserRead,
			Policies: []Policy{
				{Object: "/admin/users", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     constants.CapabilityUserWrite,
			Inherits: []string{constants.CapabilityUserRead},
			Policies: []Policy{
				{Object: "/admin/users/active", Action: "PATCH"},
			},
			Immutable: true,
		},
		{
			Role: constants.CapabilityAdminManage,
			Policies: []Policy{
				{Object: "/admin/admins", Action: "*"},
				{Object: "/admin/admins/:id", Action: "*"},
				{Object: "/admin/admins/:id/capabilities", Action: "*"},
				{Object: "/admin/authz/roles", Action: "*"},
				{Object: "/admin/authz/roles/:role/policies", Action: "*"},
				{Object: "/admin/audit-logs", Action: "GET"},
			},
			Immutable: true,
		},
	}
}

// BootstrapBuiltinRoles 初始化预置能力角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	changed := false
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("check builtin role failed: %w", err)
		}
		if !exists {
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor)
			if err != nil {
				return fmt.Errorf("create builtin role failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole)
			if err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			added, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action)
			if err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			if added {
				changed = true
			}
		}
	}

	if changed {
		return s.saveAndReload()
	}
	return nil
}
