package auth

import (
	"github.com/appworkspm/painai/internal"
)

// Action names a gated operation. Policy decisions are pure: they look only at
// the actor's role and permission set, never at storage.
type Action string

const (
	ActionApproveTimesheet  Action = "timesheet.approve"
	ActionRejectTimesheet   Action = "timesheet.reject"
	ActionViewAllTimesheets Action = "timesheet.view_all"
	ActionManageProjects    Action = "project.manage"
	ActionManageRBAC        Action = "rbac.manage"
	ActionListUsers         Action = "user.list"
	ActionChangeUserRole    Action = "user.change_role"
	ActionManageHolidays    Action = "holiday.manage"
)

// defaultMinRanks gates each action on the coarse hierarchy. Approval-tier
// actions need MANAGER; administrative resources need ADMIN.
var defaultMinRanks = map[Action]Role{
	ActionApproveTimesheet:  RoleManager,
	ActionRejectTimesheet:   RoleManager,
	ActionViewAllTimesheets: RoleManager,
	ActionManageProjects:    RoleManager,
	ActionManageRBAC:        RoleAdmin,
	ActionListUsers:         RoleAdmin,
	ActionChangeUserRole:    RoleAdmin,
	ActionManageHolidays:    RoleAdmin,
}

// Policy decides allow/deny for an actor and action. Two mechanisms coexist:
// the coarse rank gate always applies, and when an action has a permission
// name registered the actor must hold it as well. A deny from either
// mechanism is final.
type Policy struct {
	minRanks    map[Action]Role
	permissions map[Action]string
}

func NewPolicy() *Policy {
	minRanks := make(map[Action]Role, len(defaultMinRanks))
	for action, role := range defaultMinRanks {
		minRanks[action] = role
	}
	return &Policy{
		minRanks:    minRanks,
		permissions: make(map[Action]string),
	}
}

// RequirePermission adds a fine-grained constraint on top of the rank gate for
// the given action.
func (p *Policy) RequirePermission(action Action, permission string) *Policy {
	p.permissions[action] = permission
	return p
}

// CanPerform returns nil when the actor may perform the action, or
// ErrInsufficientRank / ErrUnauthorizedAccess otherwise. Unregistered actions
// are denied: fail-closed.
func (p *Policy) CanPerform(actor *User, action Action) error {
	if actor == nil || !actor.Role.Valid() {
		return internal.ErrUnauthorizedAccess
	}

	minRank, ok := p.minRanks[action]
	if !ok {
		return internal.ErrUnauthorizedAccess
	}
	if !actor.Role.AtLeast(minRank) {
		return internal.ErrInsufficientRank
	}

	if permission, ok := p.permissions[action]; ok {
		if !actor.HasPermission(permission) {
			return internal.ErrInsufficientRank
		}
	}

	return nil
}

// CanActOnOwn reports whether the actor owns the resource. Ownership is never
// overridden by rank: an ADMIN cannot edit another user's draft.
func (p *Policy) CanActOnOwn(actor *User, ownerID int64) error {
	if actor == nil {
		return internal.ErrUnauthorizedAccess
	}
	if actor.ID != ownerID {
		return internal.ErrNotOwner
	}
	return nil
}
