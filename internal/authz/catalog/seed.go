package catalog

// Default permission ids referenced throughout the application.
const (
	PermProjectRead   ID = "project:read"
	PermProjectWrite  ID = "project:write"
	PermProjectDelete ID = "project:delete"

	PermContractRead  ID = "contract:read"
	PermContractWrite ID = "contract:write"

	PermQuoteRead  ID = "quote:read"
	PermQuoteWrite ID = "quote:write"

	PermOrderRead  ID = "order:read"
	PermOrderWrite ID = "order:write"

	PermUserView ID = "user:view"
	PermUserEdit ID = "user:edit"

	PermRoleView ID = "role:view"
	PermRoleEdit ID = "role:edit"

	PermReportView   ID = "report:view"
	PermReportExport ID = "report:export"
)

// DefaultDefinitions returns the seed catalog for first-run bootstrap.
func DefaultDefinitions() []Permission {
	return []Permission{
		{ID: PermProjectRead, Name: "View projects", Category: "projects"},
		{ID: PermProjectWrite, Name: "Create and edit projects", Category: "projects"},
		{ID: PermProjectDelete, Name: "Delete projects", Category: "projects"},
		{ID: PermContractRead, Name: "View contracts", Category: "contracts"},
		{ID: PermContractWrite, Name: "Create and edit contracts", Category: "contracts"},
		{ID: PermQuoteRead, Name: "View quotations", Category: "sales"},
		{ID: PermQuoteWrite, Name: "Create and edit quotations", Category: "sales"},
		{ID: PermOrderRead, Name: "View orders", Category: "sales"},
		{ID: PermOrderWrite, Name: "Create and edit orders", Category: "sales"},
		{ID: PermUserView, Name: "View users", Category: "administration"},
		{ID: PermUserEdit, Name: "Manage users", Category: "administration"},
		{ID: PermRoleView, Name: "View roles", Category: "administration"},
		{ID: PermRoleEdit, Name: "Manage roles", Category: "administration"},
		{ID: PermReportView, Name: "View reports", Category: "reporting"},
		{ID: PermReportExport, Name: "Export reports", Category: "reporting"},
	}
}

// Default returns a catalog loaded with DefaultDefinitions.
func Default() *Catalog {
	c, err := Load(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return c
}
