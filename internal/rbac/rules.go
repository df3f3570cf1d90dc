package rbac

// Role names as stored in the users.rol column.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleEvaluator  = "evaluador"
)

// PermBypassTypeCheck lets a role start any evaluation type without a grant.
// It never bypasses the exam block.
const PermBypassTypeCheck = "evaluation:bypass-permission"

// Default policy.
var RolePermissions = map[string][]string{
	RoleEvaluator: {
		"evaluation:view",
		"result:create",
		"block:view-own",
		"permission:view-own",
	},
	RoleSupervisor: {
		"evaluation:view",
		"result:create",
		"result:view-all",
		"companies:list",
		"block:view-*",
		"permission:view-*",
	},
	// admin also holds users:create, block:manage, permission:manage,
	// evaluation:manage, events:view and the type-check bypass.
	RoleAdmin: {
		"*",
	},
}
