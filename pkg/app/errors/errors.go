// Package errors contains helper functions and types to work with errors
package errors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError is used when no error occurred
	CategoryNoError Category = iota
	// CategoryValidation The request carries invalid data: a malformed
	// address or hash, a non-positive amount, or an amount outside the
	// bridge limits.
	CategoryValidation
	// CategoryWrongNetwork The operation was attempted against the
	// wrong active chain
	CategoryWrongNetwork
	// CategoryResourceNotFound The requested transaction or account is unknown
	CategoryResourceNotFound
	// CategorySubmission A chain transaction could not be built or broadcast
	CategorySubmission
	// CategoryConnectivity A chain RPC endpoint is unreachable or timing out
	CategoryConnectivity
	// CategoryPersistence The ledger store rejected a read or write
	CategoryPersistence
	// CategoryGeneralError The service failed in an unexpected way
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "CategoryValidation"
	case CategoryWrongNetwork:
		return "CategoryWrongNetwork"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategorySubmission:
		return "CategorySubmission"
	case CategoryConnectivity:
		return "CategoryConnectivity"
	case CategoryPersistence:
		return "CategoryPersistence"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError represents service specific type that
// is used all over the services.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is implements the custom condition to check an error is equal to a service error
func (err ServiceError) Is(target error) bool {
	return err.Message == target.Error()
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// GeneralError returns a general service error
// this error message sent to the user is "Internal Server Error"
// the error passed is logged in the logger
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal server error")
	}
	return &ServiceError{
		Category: CategoryGeneralError,
		Message:  "Internal Server Error",
		Err:      err,
	}
}

// ValidationError returns an error with category Validation
// the error message provided is returned to the user
// the err object provided is logged in logger
func ValidationError(err error, message string) error {
	if err == nil {
		err = errors.New("validation failed: " + message)
	}
	return &ServiceError{
		Category: CategoryValidation,
		Message:  message,
		Err:      err,
	}
}

// WrongNetworkError returns an error with category WrongNetwork
// the error message provided is returned to the user
func WrongNetworkError(message string) error {
	return &ServiceError{
		Category: CategoryWrongNetwork,
		Message:  message,
		Err:      errors.New("wrong network: " + message),
	}
}

// ResourceNotFoundError returns an error with category ResourceNotFound
// the error message provided is returned to the user
// the err object provided is logged in logger
func ResourceNotFoundError(err error, message string) error {
	if err == nil {
		err = errors.New("resource not found: " + message)
	}
	return &ServiceError{
		Category: CategoryResourceNotFound,
		Message:  message,
		Err:      err,
	}
}

// SubmissionError returns an error with category Submission
// the error message provided is returned to the user
// the err object provided is logged in logger
func SubmissionError(err error, message string) error {
	if err == nil {
		err = errors.New("submission failed: " + message)
	}
	return &ServiceError{
		Category: CategorySubmission,
		Message:  message,
		Err:      err,
	}
}

// ConnectivityError returns an error with category Connectivity
// the error message provided is returned to the user
// the err object provided is logged in logger
func ConnectivityError(err error, message string) error {
	if err == nil {
		err = errors.New("chain unreachable: " + message)
	}
	return &ServiceError{
		Category: CategoryConnectivity,
		Message:  message,
		Err:      err,
	}
}

// PersistenceError returns an error with category Persistence
// the error message provided is returned to the user
// the err object provided is logged in logger
func PersistenceError(err error, message string) error {
	if err == nil {
		err = errors.New("persistence failed: " + message)
	}
	return &ServiceError{
		Category: CategoryPersistence,
		Message:  message,
		Err:      err,
	}
}

// StatusCode returns the HTTP status code for the error category
func (err ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryWrongNetwork:
		return http.StatusConflict
	case CategoryResourceNotFound:
		return http.StatusNotFound
	case CategorySubmission:
		return http.StatusUnprocessableEntity
	case CategoryConnectivity:
		return http.StatusBadGateway
	case CategoryPersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
