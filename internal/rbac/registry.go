package rbac

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound distinguishes "unknown user" from "permission denied" for
// callers using the strict Check API. The plain Has* checks never surface it.
var ErrUserNotFound = errors.New("rbac: user not found")

// Registry is the central authority for role and user state. All operations
// take a coarse lock, so concurrent HTTP handlers observe a consistent
// snapshot per call. State lives only in process memory; a restart loses it.
type Registry struct {
	mu    sync.RWMutex
	roles map[string]*Role
	users map[string]*User
	now   func() time.Time
}

// NewRegistry constructs a registry seeded with the predefined roles.
func NewRegistry() *Registry {
	r := &Registry{
		roles: make(map[string]*Role),
		users: make(map[string]*User),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, role := range seedRoles(r.now()) {
		role.Permissions = dedupe(role.Permissions)
		r.roles[role.ID] = role
	}
	return r
}

// HasPermission reports whether the user holds the permission, either as a
// custom grant or through one of its roles. Unknown users, inactive users and
// dangling role references all resolve to false; the check never errors.
func (r *Registry) HasPermission(userID, permission string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasPermissionLocked(userID, permission)
}

// HasAnyPermission reports whether at least one of the permissions is held.
// An empty list yields false.
func (r *Registry) HasAnyPermission(userID string, permissions []string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range permissions {
		if r.hasPermissionLocked(userID, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every permission is held. An empty list
// yields true (vacuous truth).
func (r *Registry) HasAllPermissions(userID string, permissions []string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range permissions {
		if !r.hasPermissionLocked(userID, p) {
			return false
		}
	}
	return true
}

// Check is the strict variant of HasPermission: it returns ErrUserNotFound
// when the user does not exist, so callers can tell denial from absence.
func (r *Registry) Check(userID, permission string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.users[userID]; !ok {
		return false, ErrUserNotFound
	}
	return r.hasPermissionLocked(userID, permission), nil
}

// GetUserPermissions returns the union of the user's custom permissions and
// the permission sets of all resolvable roles, sorted. Unknown users resolve
// to an empty set.
func (r *Registry) GetUserPermissions(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return []string{}
	}
	set := make(map[string]struct{})
	for _, p := range user.CustomPermissions {
		set[p] = struct{}{}
	}
	for _, roleID := range user.Roles {
		role, ok := r.roles[roleID]
		if !ok {
			continue
		}
		for _, p := range role.Permissions {
			set[p] = struct{}{}
		}
	}
	permissions := make([]string, 0, len(set))
	for p := range set {
		permissions = append(permissions, p)
	}
	sort.Strings(permissions)
	return permissions
}

// AddRoleToUser appends the role id to the user's membership list. Duplicate
// adds and unknown users are silent no-ops.
func (r *Registry) AddRoleToUser(userID, roleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return
	}
	for _, id := range user.Roles {
		if id == roleID {
			return
		}
	}
	user.Roles = append(user.Roles, roleID)
}

// RemoveRoleFromUser filters the role id out of the user's membership list.
func (r *Registry) RemoveRoleFromUser(userID, roleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return
	}
	kept := user.Roles[:0]
	for _, id := range user.Roles {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	user.Roles = kept
}

// AddPermissionToUser grants a permission directly to the user, bypassing
// roles. Idempotent; unknown users are a no-op.
func (r *Registry) AddPermissionToUser(userID, permission string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return
	}
	for _, p := range user.CustomPermissions {
		if p == permission {
			return
		}
	}
	user.CustomPermissions = append(user.CustomPermissions, permission)
}

// RemovePermissionFromUser revokes a direct permission grant.
func (r *Registry) RemovePermissionFromUser(userID, permission string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return
	}
	kept := user.CustomPermissions[:0]
	for _, p := range user.CustomPermissions {
		if p != permission {
			kept = append(kept, p)
		}
	}
	user.CustomPermissions = kept
}

// CreateUserInput carries the caller-provided fields for a new user.
type CreateUserInput struct {
	Email             string
	Name              string
	Roles             []string
	CustomPermissions []string
	Active            bool
}

// CreateUser stores a new user under a generated id and returns the record.
func (r *Registry) CreateUser(input CreateUserInput) User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := &User{
		ID:                newID("user"),
		Email:             input.Email,
		Name:              input.Name,
		Roles:             append([]string{}, input.Roles...),
		CustomPermissions: append([]string{}, input.CustomPermissions...),
		Active:            input.Active,
		CreatedAt:         r.now(),
	}
	r.users[user.ID] = user
	return copyUser(user)
}

// EnsureUser creates a registry user under the caller-supplied id when none
// exists, so accounts authenticated against external storage get linked on
// first login. An existing user is returned untouched; the roles argument
// only applies to the initial record.
func (r *Registry) EnsureUser(id, email, name string, roles []string) User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return copyUser(user)
	}
	user := &User{
		ID:                id,
		Email:             email,
		Name:              name,
		Roles:             dedupe(roles),
		CustomPermissions: []string{},
		Active:            true,
		CreatedAt:         r.now(),
	}
	r.users[user.ID] = user
	return copyUser(user)
}

// CreateRoleInput carries the caller-provided fields for a new role.
type CreateRoleInput struct {
	Name        string
	Description string
	Permissions []string
}

// CreateRole stores a new role under a generated id and returns the record.
// Duplicate permission tokens collapse.
func (r *Registry) CreateRole(input CreateRoleInput) Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	role := &Role{
		ID:          newID("role"),
		Name:        input.Name,
		Description: input.Description,
		Permissions: dedupe(input.Permissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.roles[role.ID] = role
	return copyRole(role)
}

// RoleUpdate describes a partial role mutation. Nil fields are left as-is.
type RoleUpdate struct {
	Name        *string
	Description *string
	Permissions []string
}

// UpdateRole merges the update into an existing role and refreshes its
// UpdatedAt. The second return is false when the role id is unknown.
func (r *Registry) UpdateRole(roleID string, update RoleUpdate) (Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[roleID]
	if !ok {
		return Role{}, false
	}
	if update.Name != nil {
		role.Name = *update.Name
	}
	if update.Description != nil {
		role.Description = *update.Description
	}
	if update.Permissions != nil {
		role.Permissions = dedupe(update.Permissions)
	}
	role.UpdatedAt = r.now()
	return copyRole(role), true
}

// DeleteRole removes a custom role. Predefined roles are refused with false.
// Deletion does not cascade: users keep the dangling role id, which future
// permission checks skip.
func (r *Registry) DeleteRole(roleID string) bool {
	for _, id := range PredefinedRoleIDs() {
		if roleID == id {
			return false
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[roleID]; !ok {
		return false
	}
	delete(r.roles, roleID)
	return true
}

// RecordLogin stamps the user's LastLoginAt. Unknown users are a no-op.
func (r *Registry) RecordLogin(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return
	}
	now := r.now()
	user.LastLoginAt = &now
}

// GetUser fetches a user by id.
func (r *Registry) GetUser(userID string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, false
	}
	return copyUser(user), true
}

// GetUsers returns all users ordered by creation time.
func (r *Registry) GetUsers() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, copyUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users
}

// GetRole fetches a role by id.
func (r *Registry) GetRole(roleID string) (Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[roleID]
	if !ok {
		return Role{}, false
	}
	return copyRole(role), true
}

// GetRoles returns all roles, predefined roles first.
func (r *Registry) GetRoles() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roles := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		roles = append(roles, copyRole(role))
	}
	order := make(map[string]int, len(roles))
	for i, id := range PredefinedRoleIDs() {
		order[id] = i + 1
	}
	sort.Slice(roles, func(i, j int) bool {
		oi, oj := order[roles[i].ID], order[roles[j].ID]
		if oi != oj {
			if oi == 0 {
				return false
			}
			if oj == 0 {
				return true
			}
			return oi < oj
		}
		if roles[i].CreatedAt.Equal(roles[j].CreatedAt) {
			return roles[i].ID < roles[j].ID
		}
		return roles[i].CreatedAt.Before(roles[j].CreatedAt)
	})
	return roles
}

// PredefinedRoles returns the seeded roles in display order.
func (r *Registry) PredefinedRoles() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roles := make([]Role, 0, 4)
	for _, id := range PredefinedRoleIDs() {
		if role, ok := r.roles[id]; ok {
			roles = append(roles, copyRole(role))
		}
	}
	return roles
}

func (r *Registry) hasPermissionLocked(userID, permission string) bool {
	user, ok := r.users[userID]
	if !ok || !user.Active {
		return false
	}
	for _, p := range user.CustomPermissions {
		if p == permission {
			return true
		}
	}
	for _, roleID := range user.Roles {
		role, ok := r.roles[roleID]
		if !ok {
			// Dangling reference, e.g. after a custom role deletion.
			continue
		}
		for _, p := range role.Permissions {
			if p == permission {
				return true
			}
		}
	}
	return false
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func dedupe(permissions []string) []string {
	seen := make(map[string]struct{}, len(permissions))
	out := make([]string, 0, len(permissions))
	for _, p := range permissions {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func copyRole(role *Role) Role {
	out := *role
	out.Permissions = append([]string{}, role.Permissions...)
	return out
}

func copyUser(user *User) User {
	out := *user
	out.Roles = append([]string{}, user.Roles...)
	out.CustomPermissions = append([]string{}, user.CustomPermissions...)
	if user.LastLoginAt != nil {
		at := *user.LastLoginAt
		out.LastLoginAt = &at
	}
	return out
}
