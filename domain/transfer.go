package domain

// TransferType is the direction of a stock movement.
type TransferType string

const (
	TransferIn  TransferType = "IN"
	TransferOut TransferType = "OUT"
)

// Valid reports whether t is a known direction.
func (t TransferType) Valid() bool {
	return t == TransferIn || t == TransferOut
}

// Delta returns the signed stock change for a movement of the given
// quantity. The sign is derived from the direction, never taken from
// the caller.
func (t TransferType) Delta(quantity int64) int64 {
	if t == TransferOut {
		return -quantity
	}
	return quantity
}

// Transfer is one immutable entry in the stock-movement ledger.
// TransferDate is the business timestamp of the movement, distinct
// from the audit CreatedAt. There is no update path for transfers.
type Transfer struct {
	Audit
	Type         TransferType `db:"type" json:"type"`
	DrugID       int64        `db:"drug_id" json:"drug_id"`
	Quantity     int64        `db:"quantity" json:"quantity"`
	TransferDate Timestamp    `db:"transfer_date" json:"transfer_date"`
}

// Validate checks the transfer field constraints. Zero quantity is a
// permitted no-op movement at the entity level; the service requires
// a positive quantity on creation.
func (t Transfer) Validate() []Violation {
	var violations []Violation
	if t.Type == "" {
		violations = append(violations, Violation{Path: "type", Message: "must not be null"})
	} else if !t.Type.Valid() {
		violations = append(violations, Violation{Path: "type", Message: "must be IN or OUT"})
	}
	if t.DrugID <= 0 {
		violations = append(violations, Violation{Path: "drugId", Message: "must be greater than 0"})
	}
	if t.Quantity < 0 {
		violations = append(violations, Violation{Path: "quantity", Message: "must be greater than or equal to 0"})
	}
	if t.TransferDate.IsZero() {
		violations = append(violations, Violation{Path: "transferDate", Message: "must not be null"})
	}
	return violations
}
