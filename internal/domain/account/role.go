package account

import "fmt"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Permission is checked instead of comparing role strings at call sites.
type Permission int

const (
	PermissionManageOwnContent Permission = iota + 1
	PermissionManageAnyContent
	PermissionManageTaxonomy
	PermissionManageAccounts
	PermissionViewStats
)

var rolePermissions = map[Role]map[Permission]struct{}{
	RoleUser: {
		PermissionManageOwnContent: {},
	},
	RoleAdmin: {
		PermissionManageOwnContent: {},
		PermissionManageAnyContent: {},
		PermissionManageTaxonomy:   {},
		PermissionManageAccounts:   {},
		PermissionViewStats:        {},
	},
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

func (r Role) Can(p Permission) bool {
	perms, ok := rolePermissions[r]
	if !ok {
		return false
	}
	_, ok = perms[p]
	return ok
}

func (p Permission) String() string {
	switch p {
	case PermissionManageOwnContent:
		return "manage_own_content"
	case PermissionManageAnyContent:
		return "manage_any_content"
	case PermissionManageTaxonomy:
		return "manage_taxonomy"
	case PermissionManageAccounts:
		return "manage_accounts"
	case PermissionViewStats:
		return "view_stats"
	default:
		return fmt.Sprintf("permission(%d)", int(p))
	}
}
