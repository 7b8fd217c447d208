package domain

// User is an operator account for the warehouse API. Users are
// outside the audited catalog; their lifecycle is handled by the
// auth layer directly.
type User struct {
	ID       int    `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	Password string `json:"password,omitempty" db:"password"`
	Role     string `json:"role" db:"role"`
}
