package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Roles:     []Role{"writer", "reader"},
		Resources: []Resource{"doc"},
		Actions:   []Action{"read", "write"},
		Capabilities: map[Role]map[Resource][]Action{
			"writer": {"doc": {"read", "write"}},
			"reader": {"doc": {"read"}},
		},
	}
}

func TestChecker_Authorize(t *testing.T) {
	c := MustNew(testConfig())

	tests := []struct {
		name     string
		role     Role
		resource Resource
		action   Action
		allowed  bool
	}{
		{"writer writes", "writer", "doc", "write", true},
		{"reader reads", "reader", "doc", "read", true},
		{"reader cannot write", "reader", "doc", "write", false},
		{"unknown role", "ghost", "doc", "read", false},
		{"empty role", "", "doc", "read", false},
		{"unknown resource", "writer", "sheet", "read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Authorize(tt.role, tt.resource, tt.action)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrDenied))
			}
			assert.Equal(t, tt.allowed, c.IsAuthorized(tt.role, tt.resource, tt.action))
		})
	}
}

func TestChecker_RolesWith(t *testing.T) {
	c := MustNew(testConfig())

	assert.Equal(t, []Role{"reader", "writer"}, c.RolesWith("doc", "read"))
	assert.Equal(t, []Role{"writer"}, c.RolesWith("doc", "write"))
	assert.Empty(t, c.RolesWith("doc", "delete"))
}

func TestChecker_ValidateRole(t *testing.T) {
	c := MustNew(testConfig())

	r, err := c.ValidateRole("reader")
	require.NoError(t, err)
	assert.Equal(t, Role("reader"), r)

	_, err = c.ValidateRole("admin")
	assert.True(t, errors.Is(err, ErrInvalidRole))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no roles", func(c *Config) { c.Roles = nil }},
		{"duplicate role", func(c *Config) { c.Roles = append(c.Roles, "reader") }},
		{"empty action", func(c *Config) { c.Actions = append(c.Actions, "") }},
		{"unknown capability role", func(c *Config) {
			c.Capabilities["ghost"] = map[Resource][]Action{"doc": {"read"}}
		}},
		{"unknown capability resource", func(c *Config) {
			c.Capabilities["reader"] = map[Resource][]Action{"sheet": {"read"}}
		}},
		{"unknown capability action", func(c *Config) {
			c.Capabilities["reader"] = map[Resource][]Action{"doc": {"delete"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}
