package domain

// Category groups drugs in the catalog. Categories are created
// independently and referenced by drugs; they are never auto-deleted.
type Category struct {
	Audit
	Name string `db:"name" json:"name"`
}

// Validate checks the category field constraints.
func (c Category) Validate() []Violation {
	return validateName(c.Name, "name", 2, 100)
}
