package rbac

import (
	"fmt"
	"sort"
)

// Checker answers capability questions against a validated Config
type Checker struct {
	config       Config
	capabilities map[Role]map[Resource]map[Action]bool
	validRoles   map[Role]bool
}

// New creates a Checker from a validated Config
func New(cfg Config) (*Checker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Checker{config: cfg}
	c.buildLookups()
	return c, nil
}

// MustNew creates a Checker and panics on invalid config
func MustNew(cfg Config) *Checker {
	c, err := New(cfg)
	if err != nil {
		panic(fmt.Sprintf(errMustNewPanicFmt, err))
	}
	return c
}

func (c *Checker) buildLookups() {
	cfg := c.config

	c.validRoles = make(map[Role]bool, len(cfg.Roles))
	for _, r := range cfg.Roles {
		c.validRoles[r] = true
	}

	c.capabilities = make(map[Role]map[Resource]map[Action]bool, len(cfg.Capabilities))
	for role, resources := range cfg.Capabilities {
		c.capabilities[role] = make(map[Resource]map[Action]bool, len(resources))
		for res, actions := range resources {
			c.capabilities[role][res] = make(map[Action]bool, len(actions))
			for _, act := range actions {
				c.capabilities[role][res][act] = true
			}
		}
	}
}

// Authorize returns nil if role may perform action on resource
func (c *Checker) Authorize(role Role, resource Resource, action Action) error {
	if role == "" {
		return fmt.Errorf(errDeniedRoleEmpty, ErrDenied)
	}
	if !c.capabilities[role][resource][action] {
		return fmt.Errorf(errDeniedRoleCannotPerformActionFmt, ErrDenied, role, action, resource)
	}
	return nil
}

// IsAuthorized returns a boolean version of Authorize
func (c *Checker) IsAuthorized(role Role, resource Resource, action Action) bool {
	return c.Authorize(role, resource, action) == nil
}

// RolesWith lists, in sorted order, the roles granted action on resource.
func (c *Checker) RolesWith(resource Resource, action Action) []Role {
	var roles []Role
	for role, resources := range c.capabilities {
		if resources[resource][action] {
			roles = append(roles, role)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// ValidateRole validates a role string against configured roles
func (c *Checker) ValidateRole(role string) (Role, error) {
	r := Role(role)
	if c.validRoles[r] {
		return r, nil
	}
	return "", fmt.Errorf(errInvalidRoleFmt, ErrInvalidRole, role)
}
