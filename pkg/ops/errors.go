package ops

import "fmt"

// ValidationError rejects bad form input before any state is mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// The distinct precondition failures of sale registration and the CRUD
// operations, in the order they are checked.
var (
	ErrUnknownProduct  = &ValidationError{Field: "product", Reason: "not in catalog"}
	ErrInvalidQty      = &ValidationError{Field: "qty", Reason: "must be a positive integer"}
	ErrCustomerName    = &ValidationError{Field: "customer name", Reason: "must not be empty"}
	ErrProductName     = &ValidationError{Field: "name", Reason: "must not be empty"}
	ErrProductPrice    = &ValidationError{Field: "price", Reason: "must be greater than zero"}
	ErrProductStock    = &ValidationError{Field: "stock", Reason: "must not be negative"}
	ErrUnknownCustomer = &ValidationError{Field: "customer", Reason: "not in roster"}
)

// StockInsufficientError carries the exact available quantity so the caller
// can surface it to the user.
type StockInsufficientError struct {
	ProductID int
	Available int
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("insufficient stock: only %d unit(s) available", e.Available)
}
