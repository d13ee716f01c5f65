package principal

import (
	"time"

	"github.com/google/uuid"
)

type Principal struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	Organization *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RoleLabDirector    Role = "lab_director"
	RoleEngineer       Role = "engineer"
	RoleSupervisor     Role = "supervisor"
	RoleHSM            Role = "hsm"
	RoleLabTechnician  Role = "lab_technician"
	RoleQualityManager Role = "quality_manager"
	RoleExternalClient Role = "external_client"
	RoleAccountManager Role = "account_manager"
)

// Roles lists every role in the directory.
var Roles = []Role{
	RoleLabDirector,
	RoleEngineer,
	RoleSupervisor,
	RoleHSM,
	RoleLabTechnician,
	RoleQualityManager,
	RoleExternalClient,
	RoleAccountManager,
}

// IsReviewer reports whether the role takes part in the approval chain.
func (r Role) IsReviewer() bool {
	switch r {
	case RoleSupervisor, RoleHSM, RoleLabTechnician:
		return true
	default:
		return false
	}
}

type CreatePrincipalInput struct {
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	Organization *string
}

type UpdateAccessInput struct {
	Role     *Role
	IsActive *bool
}
