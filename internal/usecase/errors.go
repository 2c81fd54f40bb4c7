package usecase

import (
	"errors"
	"fmt"

	"court-booking/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingDeleted   = errors.New("booking has been deleted")
	ErrSlotAlreadyTaken = errors.New("slot already taken")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrClaimClosed      = errors.New("pending claim closed")
)

// ValidationError is returned before any write when input is malformed.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + utils.FormatValidationErrors(e.Fields)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// validationFromStruct runs the struct tags and returns nil when they pass.
func validationFromStruct(data any) *ValidationError {
	if errs := utils.ValidateStruct(data); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func parseBookingID(id string) (uuid.UUID, error) {
	parsed, err := utils.ParseUUID(id)
	if err != nil {
		return uuid.Nil, newValidationError("id", "Must be a valid UUID")
	}
	return parsed, nil
}
