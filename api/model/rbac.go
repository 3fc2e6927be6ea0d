// api/model/rbac.go
package model

import (
	"fmt"
	"time"
)

// Role is the closed set of roles a user can hold for an application.
type Role string

const (
	RoleApplicationUser   Role = "application_user"
	RoleDelegate          Role = "delegate"
	RoleAppOwner          Role = "app_owner"
	RoleComplianceManager Role = "compliance_manager"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleApplicationUser, RoleDelegate, RoleAppOwner, RoleComplianceManager:
		return r, nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Permission is a single gated operation on an application's audits.
type Permission string

const (
	PermViewAudit       Permission = "view_audit"
	PermInitiateAudit   Permission = "initiate_audit"
	PermSyncData        Permission = "sync_data"
	PermRecordDecision  Permission = "record_decision"
	PermAdvanceProgress Permission = "advance_progress"
	PermCompleteAudit   Permission = "complete_audit"
	PermManageRoles     Permission = "manage_roles"
	PermPurgeAudit      Permission = "purge_audit"
)

// rolePermissions is the static role→permission matrix. Each role carries its
// own explicit list; there is no formal inheritance between roles.
var rolePermissions = map[Role]map[Permission]bool{
	RoleApplicationUser: {
		PermViewAudit: true,
	},
	RoleDelegate: {
		PermViewAudit:      true,
		PermRecordDecision: true,
	},
	RoleAppOwner: {
		PermViewAudit:       true,
		PermInitiateAudit:   true,
		PermSyncData:        true,
		PermRecordDecision:  true,
		PermAdvanceProgress: true,
		PermCompleteAudit:   true,
		PermManageRoles:     true,
		PermPurgeAudit:      true,
	},
	RoleComplianceManager: {
		PermViewAudit:       true,
		PermInitiateAudit:   true,
		PermSyncData:        true,
		PermRecordDecision:  true,
		PermAdvanceProgress: true,
		PermCompleteAudit:   true,
		PermManageRoles:     true,
		PermPurgeAudit:      true,
	},
}

// RoleAllows reports whether the given role's permission set contains the
// permission. Unknown roles allow nothing.
func RoleAllows(role Role, permission Permission) bool {
	return rolePermissions[role][permission]
}

// RoleAssignment grants a role to a username for one application.
type RoleAssignment struct {
	Application string    `json:"application"`
	Username    string    `json:"username"`
	Role        Role      `json:"role"`
	AssignedBy  string    `json:"assigned_by,omitempty"`
	AssignedAt  time.Time `json:"assigned_at"`
}
