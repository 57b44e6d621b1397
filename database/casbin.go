package database

import (
	"fmt"

	"portal-chat/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// RESTful RBAC: subjects are portal roles, objects are request paths.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && regexMatch(r.act, p.act)
`

var defaultPolicies = [][]string{
	{model.RoleStudent, "/v1/chat/*", "(GET)|(POST)"},
	{model.RoleStudent, "/v1/user/*", "GET"},
	{model.RoleAdmin, "/v1/*", "(GET)|(POST)|(PUT)|(PATCH)|(DELETE)"},
}

var defaultRoles = [][]string{
	{model.RoleLecturer, model.RoleStudent},
	{model.RoleAdmin, model.RoleLecturer},
}

// Casbin builds the enforcer backed by the casbin_rule table of db.
func Casbin(db *gorm.DB) *casbin.Enforcer {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize casbin adapter: %v", err))
	}

	e, err := NewEnforcer(adapter)
	if err != nil {
		panic(fmt.Sprintf("failed to create casbin enforcer: %v", err))
	}
	return e
}

// NewEnforcer loads the portal model and makes sure the default policy is
// present. A nil adapter keeps the policy in memory only.
func NewEnforcer(adapter persist.Adapter) (*casbin.Enforcer, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	var e *casbin.Enforcer
	if adapter == nil {
		e, err = casbin.NewEnforcer(m)
	} else {
		e, err = casbin.NewEnforcer(m, adapter)
	}
	if err != nil {
		return nil, err
	}

	for _, p := range defaultPolicies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("add policy %v: %w", p, err)
		}
	}
	for _, g := range defaultRoles {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("add role %v: %w", g, err)
		}
	}
	return e, nil
}
