package fieldname

// Seed provides the built-in default dictionary covering frequent form-field
// naming conventions. A deployment can extend or override it via FIELD_NAMES_FILE.
func Seed() Config {
	return Config{
		Defaults: map[string]string{
			"fname":          "First Name",
			"lname":          "Last Name",
			"dob":            "Date of Birth",
			"ssn":            "Social Security Number",
			"tel":            "Phone Number",
			"phone":          "Phone Number",
			"email":          "Email Address",
			"addr":           "Street Address",
			"addr1":          "Address Line 1",
			"addr2":          "Address Line 2",
			"zip":            "ZIP Code",
			"qty":            "Quantity",
			"amt":            "Amount",
			"desc":           "Description",
			"no":             "Number",
			"invoice_no":     "Invoice Number",
			"client_name":    "Client Name",
			"client_email":   "Client Email",
			"invoice_number": "Invoice Number",
			"invoice_date":   "Invoice Date",
			"due_date":       "Due Date",
		},
	}
}
