package domain

import (
	"strconv"
	"time"
)

// Audit carries the lifecycle fields shared by every stored entity.
// The store stamps CreatedAt on first persist and UpdatedAt on every
// later write; Version is incremented by the store on each successful
// write and drives optimistic concurrency.
type Audit struct {
	ID        int64      `db:"id" json:"id"`
	CreatedAt Timestamp  `db:"created_at" json:"created_at"`
	UpdatedAt *Timestamp `db:"updated_at" json:"updated_at,omitempty"`
	Version   int64      `db:"version" json:"version"`
}

// Validate checks the audit invariants.
func (a Audit) Validate() []Violation {
	var violations []Violation
	if a.Version < 0 {
		violations = append(violations, Violation{Path: "version", Message: "must be greater than or equal to 0"})
	}
	if a.UpdatedAt != nil && !a.UpdatedAt.Time.After(a.CreatedAt.Time) {
		violations = append(violations, Violation{Path: "updatedAt", Message: "Updated date must be after created date"})
	}
	return violations
}

// TruncateTime normalizes a time to the store's microsecond resolution
// so equality comparisons survive a persist/load round trip.
func TruncateTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Timestamp is a time that travels over JSON as epoch milliseconds
// while keeping microsecond resolution in memory and in the store.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to microsecond resolution.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{TruncateTime(t)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, t.UnixMilli(), 10), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	millis, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	t.Time = time.UnixMilli(millis).UTC()
	return nil
}

// Violation reports a single field failing its declared constraint.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}
