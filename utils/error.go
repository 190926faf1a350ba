package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// NotFoundError - the entity does not exist.
type NotFoundError struct {
	Resource string
	Id       int
}

func (e *NotFoundError) Error() string {
	if e.Id > 0 {
		return fmt.Sprintf("%s with id %d not found", e.Resource, e.Id)
	}
	return e.Resource + " not found"
}

// ValidationError - bad input shape or range.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BusinessRuleError - the input is well-formed but the operation is not allowed
// (inactive product, negative stock adjustment, delete while referenced...).
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// InsufficientStockError reports the currently available quantity, not the
// requested one, so callers can display "available: N".
type InsufficientStockError struct {
	ProductId   int
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product '%s'. available: %d", e.ProductName, e.Available)
}

// AuthorizationError - wrong role or non-owner access.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// IntegrityError wraps a constraint violation surfaced by the store layer.
type IntegrityError struct {
	Err error
}

func (e *IntegrityError) Error() string {
	return "integrity violation: " + e.Err.Error()
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
