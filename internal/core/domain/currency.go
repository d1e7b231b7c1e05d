package domain

// Currency is an entry in the catalog. Codes are matched exactly and case-sensitively.
type Currency struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
