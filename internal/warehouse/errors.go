package warehouse

import (
	"fmt"
	"strings"

	"pharmawarehouse/m/domain"
)

// Kind classifies a service error so the boundary layer can map it to
// a response without string matching.
type Kind string

const (
	// KindValidation: one or more fields failed a declared constraint.
	KindValidation Kind = "validation"
	// KindNotFound: a referenced entity id did not resolve.
	KindNotFound Kind = "not_found"
	// KindDuplicate: a uniqueness constraint was violated at commit.
	KindDuplicate Kind = "duplicate"
	// KindDomainRule: a business invariant depending on current data
	// state was violated, e.g. insufficient stock.
	KindDomainRule Kind = "domain_rule"
	// KindConflict: an optimistic-version mismatch on concurrent
	// update. Retryable by the caller; never retried internally.
	KindConflict Kind = "conflict"
)

// Error is a classified service error, optionally carrying field-level
// violations for validation failures.
type Error struct {
	Kind       Kind
	Message    string
	Violations []domain.Violation
}

func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Path + ": " + v.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

func validationError(violations []domain.Violation) *Error {
	return &Error{Kind: KindValidation, Message: "Constraint Violation", Violations: violations}
}

func notFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func duplicateError(message string) *Error {
	return &Error{Kind: KindDuplicate, Message: message}
}

func domainRuleError(message string) *Error {
	return &Error{Kind: KindDomainRule, Message: message}
}

func conflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}
