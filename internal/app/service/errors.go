package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/scanreview-backend/pkg/logger"
)

// Expected outcomes of the scan-to-review flow. They are returned, never
// panicked, and reach the client as a reason string.
var (
	ErrTagInvalid      = errors.New("scan tag is invalid")
	ErrTagInactive     = errors.New("scan tag is no longer active")
	ErrCheckNotFound   = errors.New("check not found")
	ErrCheckExpired    = errors.New("this scan has expired, please scan the tag again")
	ErrAlreadyReviewed = errors.New("a review was already submitted for this visit, please wait before reviewing again")
	ErrNotOwner        = errors.New("this check belongs to another user")
	ErrValidation      = errors.New("invalid input")

	ErrReviewNotFound   = errors.New("review not found")
	ErrBusinessNotFound = errors.New("business not found")
	ErrForbidden        = errors.New("access denied")
)

// StorageError wraps an unexpected persistence fault. Op names the failed
// operation; the underlying error never reaches the client.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageFailure logs err once with its context and wraps it.
func storageFailure(op string, err error, fields map[string]interface{}) error {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["op"] = op
	logger.Error("Storage operation failed", err, fields)
	return &StorageError{Op: op, Err: err}
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Clock returns the current wall-clock time.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
