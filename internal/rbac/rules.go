package rbac

// Default policy.
var RolePermissions = map[string][]string{
	"student": {
		"test:view",
		"attempt:create",
		"attempt:answer",
		"attempt:view-own",
	},
	"teacher": {
		"test:view",
		"attempt:create",
		"attempt:answer",
		"attempt:view-own",
		"attempt:view-all",
	},
	"admin": {
		"*", // everything
	},
}
