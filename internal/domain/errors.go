package domain

import (
	"fmt"
)

// ErrTemplateNotFound is returned when a template is not found
type ErrTemplateNotFound struct {
	Message string
}

func (e *ErrTemplateNotFound) Error() string {
	return e.Message
}

// ErrTemplateConflict is returned when a template id, or one of its
// versions, is already stored
type ErrTemplateConflict struct {
	ID      string
	Version int64
}

func (e *ErrTemplateConflict) Error() string {
	if e.Version > 1 {
		return fmt.Sprintf("template %s version %d already exists", e.ID, e.Version)
	}
	return fmt.Sprintf("template %s already exists", e.ID)
}

// ErrBlockNotFound is returned when a block id does not exist in a template
type ErrBlockNotFound struct {
	TemplateID string
	BlockID    string
}

func (e *ErrBlockNotFound) Error() string {
	return fmt.Sprintf("block %s not found in template %s", e.BlockID, e.TemplateID)
}

// ErrInvalidBlock is returned when a block operation would leave the
// document in an invalid state, or names an unknown kind.
type ErrInvalidBlock struct {
	Reason string
	Err    error
}

func (e *ErrInvalidBlock) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid block: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid block: %s", e.Reason)
}

func (e *ErrInvalidBlock) Unwrap() error {
	return e.Err
}

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}
