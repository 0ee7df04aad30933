package shared

// HR pages.
const (
	PageEmployees = "hr/employees"
	PageLeave     = "hr/leave"
	PagePayroll   = "hr/payroll"
)

// HRPages lists the human resources surfaces.
func HRPages() []PageDef {
	return []PageDef{
		{Path: PageEmployees, Module: "hr", Name: "Employees"},
		{Path: PageLeave, Module: "hr", Submodule: "attendance", Name: "Leave Requests"},
		{Path: PagePayroll, Module: "hr", Submodule: "payroll", Name: "Payroll"},
	}
}
