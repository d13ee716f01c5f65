package rbac

import "errors"

var (
	ErrDenied      = errors.New("authorization denied")
	ErrInvalidRole = errors.New("invalid role")
)

const (
	errConfigRolesEmpty                   = "rbac config: roles must not be empty"
	errConfigResourcesEmpty               = "rbac config: resources must not be empty"
	errConfigActionsEmpty                 = "rbac config: actions must not be empty"
	errConfigCapabilitiesEmpty            = "rbac config: capabilities must not be empty"
	errConfigRoleNameEmpty                = "rbac config: role name must not be empty"
	errConfigDuplicateRoleNameFmt         = "rbac config: duplicate role name: %s"
	errConfigResourceEmpty                = "rbac config: resource must not be empty"
	errConfigDuplicateResourceFmt         = "rbac config: duplicate resource: %s"
	errConfigActionEmpty                  = "rbac config: action must not be empty"
	errConfigDuplicateActionFmt           = "rbac config: duplicate action: %s"
	errConfigCapabilityUnknownRoleFmt     = "rbac config: capability references unknown role: %s"
	errConfigCapabilityUnknownResourceFmt = "rbac config: capability for role %s references unknown resource: %s"
	errConfigCapabilityUnknownActionFmt   = "rbac config: capability for role %s on resource %s references unknown action: %s"
	errMustNewPanicFmt                    = "rbac.MustNew: %v"
	errDeniedRoleEmpty                    = "%w: role is empty"
	errDeniedRoleCannotPerformActionFmt   = "%w: role '%s' cannot perform action '%s' on resource '%s'"
	errInvalidRoleFmt                     = "%w: %s"
)
