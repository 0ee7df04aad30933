package shared

// Core administration pages.
const (
	PageUsers       = "core/users"
	PageRoles       = "core/roles"
	PagePermissions = "core/permissions"
)

// CorePages lists the platform administration surfaces.
func CorePages() []PageDef {
	return []PageDef{
		{Path: PageUsers, Module: "core", Name: "Users"},
		{Path: PageRoles, Module: "core", Name: "Roles"},
		{Path: PagePermissions, Module: "core", Name: "Role Permissions"},
	}
}
