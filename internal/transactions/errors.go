package transactions

import "fmt"

// ValidationError reports malformed or out-of-range input. No side effects
// have occurred when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports that a referenced card, category or account does not
// exist for the acting account. No side effects have occurred.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string {
	return e.Reason
}

// RuleError reports a business rule violation: credit limit exceeded, debt
// overpayment, debt-gate block, insufficient balance. The transaction is not
// persisted, but an account-level side effect (debt imposition) may already
// have been committed.
type RuleError struct {
	Reason string
}

func (e *RuleError) Error() string {
	return e.Reason
}
