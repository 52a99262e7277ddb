package model

import "strings"

// DebtCategoryTitle is the sentinel category name whose expenses settle debt
// instead of spending normally. Matched case-insensitively.
const DebtCategoryTitle = "debt"

// Category groups transactions. Titles are unique per account,
// case-insensitively.
type Category struct {
	ID        int64
	AccountID int64
	Title     string
}

// IsDebt reports whether this is the account's debt-settlement category.
func (c Category) IsDebt() bool {
	return strings.EqualFold(c.Title, DebtCategoryTitle)
}
