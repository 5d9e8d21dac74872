package fields

// SchemaVersion tags extracted rows so results from different schema
// revisions are never mixed.
const SchemaVersion = "v1"

// Declared value types for schema fields.
const (
	TypeString     = "string"
	TypeDate       = "date"
	TypeBool       = "boolean"
	TypeNumber     = "number"
	TypeStringList = "string_list"
	TypeObjectList = "object_list"
)

// FieldDef declares one expected contract field.
type FieldDef struct {
	Name        string
	Type        string
	Description string
}

// Schema returns the enumerated contract field set, in extraction order.
func Schema() []FieldDef {
	return []FieldDef{
		{Name: "parties", Type: TypeStringList, Description: "company or organization names that are parties to the contract"},
		{Name: "effective_date", Type: TypeDate, Description: "effective or start date of the contract (YYYY-MM-DD)"},
		{Name: "term", Type: TypeString, Description: "duration or term of the contract (e.g. \"2 years\")"},
		{Name: "governing_law", Type: TypeString, Description: "governing law or jurisdiction"},
		{Name: "payment_terms", Type: TypeString, Description: "payment terms and conditions"},
		{Name: "termination", Type: TypeString, Description: "termination date or conditions"},
		{Name: "termination_notice_days", Type: TypeNumber, Description: "termination notice period in days"},
		{Name: "auto_renewal", Type: TypeBool, Description: "whether the contract renews automatically"},
		{Name: "auto_renewal_notice_days", Type: TypeNumber, Description: "days of notice required to stop auto-renewal"},
		{Name: "confidentiality", Type: TypeString, Description: "confidentiality clauses and obligations"},
		{Name: "indemnity", Type: TypeString, Description: "indemnification clauses and scope"},
		{Name: "liability_cap", Type: TypeNumber, Description: "liability cap amount (numeric only)"},
		{Name: "liability_cap_currency", Type: TypeString, Description: "currency of the liability cap (3-letter code)"},
		{Name: "signatories", Type: TypeObjectList, Description: "signatories with name, title, and date"},
		{Name: "contract_type", Type: TypeString, Description: "type of contract (NDA, Service Agreement, ...)"},
		{Name: "total_value", Type: TypeNumber, Description: "total contract value (numeric only)"},
		{Name: "value_currency", Type: TypeString, Description: "currency of the contract value (3-letter code)"},
	}
}

// SchemaField returns the definition for a field name, if declared.
func SchemaField(name string) (FieldDef, bool) {
	for _, def := range Schema() {
		if def.Name == name {
			return def, true
		}
	}
	return FieldDef{}, false
}
