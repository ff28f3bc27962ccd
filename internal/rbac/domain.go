package rbac

import (
	"time"

	"github.com/castquest/castquest/internal/shared"
)

// Role is a named, reusable set of permission tokens.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User holds role memberships plus ad-hoc permission grants. Roles is a list
// of role ids, not owned Role objects; unresolvable ids are skipped during
// permission checks.
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Roles             []string   `json:"roles"`
	CustomPermissions []string   `json:"customPermissions"`
	Active            bool       `json:"active"`
	CreatedAt         time.Time  `json:"createdAt"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
}

// Predefined role ids. These roles are seeded at registry construction and
// cannot be deleted, though their permission sets can still be updated.
const (
	RoleSuperAdmin = "super_admin"
	RoleOperator   = "operator"
	RoleDeveloper  = "developer"
	RoleViewer     = "viewer"
)

// PredefinedRoleIDs lists the seeded role ids in display order.
func PredefinedRoleIDs() []string {
	return []string{RoleSuperAdmin, RoleOperator, RoleDeveloper, RoleViewer}
}

func seedRoles(now time.Time) []*Role {
	return []*Role{
		{
			ID:          RoleSuperAdmin,
			Name:        "Super Admin",
			Description: "Full platform access including system administration",
			Permissions: shared.AllScopes(),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          RoleOperator,
			Name:        "Operator",
			Description: "Operates content modules and background workers",
			Permissions: append(append(shared.ReadScopes(), shared.WriteScopes()...), shared.PermWorkersControl),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          RoleDeveloper,
			Name:        "Developer",
			Description: "Builds frames and quests, submits DAO actions",
			Permissions: []string{
				shared.PermFramesRead,
				shared.PermFramesWrite,
				shared.PermQuestsRead,
				shared.PermQuestsWrite,
				shared.PermMintsRead,
				shared.PermMediaRead,
				shared.PermMediaWrite,
				shared.PermDAOSubmit,
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          RoleViewer,
			Name:        "Viewer",
			Description: "Read-only access to content modules",
			Permissions: shared.ReadScopes(),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}
