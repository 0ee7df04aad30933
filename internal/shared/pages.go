package shared

// PageDef declares one protected page surface. Business modules register
// their pages in pages_*.go files; the catalog reconciles these definitions
// against the store on deployment.
type PageDef struct {
	Path      string
	Module    string
	Submodule string
	Name      string
}

// AllPages collects every page definition known to this build.
func AllPages() []PageDef {
	var defs []PageDef
	defs = append(defs, CorePages()...)
	defs = append(defs, CRMPages()...)
	defs = append(defs, HRPages()...)
	defs = append(defs, FinancePages()...)
	return defs
}
