package service

import "errors"

var (
	ErrNotFound  = errors.New("task not found")
	ErrStoreNil  = errors.New("task store is nil")
	ErrInvalidID = errors.New("invalid task id")
)

// RuleError is a violated business rule. Rule is the stable code sent to
// clients.
type RuleError struct {
	Rule string
}

func (e *RuleError) Error() string {
	return e.Rule
}

var (
	ErrTitleRequired      = &RuleError{Rule: "titleRequired"}
	ErrTitleOnlySpaces    = &RuleError{Rule: "titleOnlySpaces"}
	ErrTitleTooShort      = &RuleError{Rule: "titleTooShort"}
	ErrTitleTooLong       = &RuleError{Rule: "titleTooLong"}
	ErrDescriptionTooLong = &RuleError{Rule: "descriptionTooLong"}
	ErrDueDateInPast      = &RuleError{Rule: "dueDateInPast"}
	ErrInvalidPriority    = &RuleError{Rule: "invalidPriority"}
	ErrDuplicateTitle     = &RuleError{Rule: "duplicateTitle"}
)
