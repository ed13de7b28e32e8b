package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"test:view",
		"session:*",
		"summary:view-own",
	},
	"author": {
		"test:create",
		"test:view",
		"test:view-full",
	},
	"admin": {
		"*", // everything
	},
}
