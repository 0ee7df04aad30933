package shared

// CRM pages.
const (
	PageContacts = "crm/contacts"
	PageClients  = "crm/clients"
	PageLeads    = "crm/leads"
)

// CRMPages lists the customer relationship surfaces.
func CRMPages() []PageDef {
	return []PageDef{
		{Path: PageContacts, Module: "crm", Name: "Contacts"},
		{Path: PageClients, Module: "crm", Name: "Clients"},
		{Path: PageLeads, Module: "crm", Submodule: "pipeline", Name: "Leads"},
	}
}
