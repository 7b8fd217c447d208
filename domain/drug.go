package domain

import (
	"fmt"
	"strings"
)

// Drug is the mutable inventory state for one catalog item. Stock is
// the current quantity on hand and always equals the net of all IN/OUT
// transfers applied since creation; it is mutated only through
// transfer application.
type Drug struct {
	Audit
	Name       string  `db:"name" json:"name"`
	Code       string  `db:"code" json:"code"`
	Price      float64 `db:"price" json:"price"`
	Stock      int64   `db:"stock" json:"stock"`
	CategoryID int64   `db:"category_id" json:"category_id"`
}

// Validate checks the drug field constraints.
func (d Drug) Validate() []Violation {
	var violations []Violation
	violations = append(violations, validateName(d.Name, "name", 2, 100)...)
	violations = append(violations, validateName(d.Code, "code", 2, 50)...)
	if d.Price < 0 {
		violations = append(violations, Violation{Path: "price", Message: "must be greater than or equal to 0"})
	}
	if d.Stock < 0 {
		violations = append(violations, Violation{Path: "stock", Message: "must be greater than or equal to 0"})
	}
	if d.CategoryID <= 0 {
		violations = append(violations, Violation{Path: "categoryId", Message: "must be greater than 0"})
	}
	return violations
}

func validateName(value, path string, min, max int) []Violation {
	if strings.TrimSpace(value) == "" {
		return []Violation{{Path: path, Message: "must not be blank"}}
	}
	if len(value) < min || len(value) > max {
		return []Violation{{Path: path, Message: fmt.Sprintf("size must be between %d and %d", min, max)}}
	}
	return nil
}
