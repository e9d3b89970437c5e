package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrExceedsLimit       = errors.New("Your borrowed book are exceeded")
	ErrAlreadyBorrowed    = errors.New("You already borrow this book")
	ErrReferenceNotFound  = errors.New("referenced user or book not found")
	ErrTransactionFailure = errors.New("transaction failed")
	ErrInvalidRequest     = errors.New("invalid request")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeExceedsLimit       = "EXCEEDS_LIMIT"
	ErrCodeAlreadyBorrowed    = "ALREADY_BORROWED"
	ErrCodeReferenceNotFound  = "REFERENCE_NOT_FOUND"
	ErrCodeTransactionFailure = "TRANSACTION_FAILURE"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeCacheError         = "CACHE_ERROR"
)

// CodeOf returns the business code carried by err, or "" when err is not a BusinessError.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func WrapExceedsLimit(userID int64, limit int) *BusinessError {
	return NewBusinessError(
		ErrCodeExceedsLimit,
		ErrExceedsLimit.Error(),
		fmt.Errorf("user %d already holds %d books: %w", userID, limit, ErrExceedsLimit),
	)
}

func WrapAlreadyBorrowed(bookIDs []int64) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyBorrowed,
		ErrAlreadyBorrowed.Error(),
		fmt.Errorf("books %v are out: %w", bookIDs, ErrAlreadyBorrowed),
	)
}

func WrapReferenceNotFound(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeReferenceNotFound,
		"user or book does not exist",
		errors.Join(ErrReferenceNotFound, err),
	)
}

func WrapTransactionFailure(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionFailure,
		"Error happen ! contact Administrator",
		errors.Join(ErrTransactionFailure, err),
	)
}

func WrapInvalidRequest(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		message,
		ErrInvalidRequest,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
