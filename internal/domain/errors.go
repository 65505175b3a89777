package domain

import "errors"

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInternalError     = errors.New("internal error")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrGroupNotFound     = errors.New("group not found")
	ErrTagNotFound       = errors.New("tag not found")
	ErrRecurringNotFound = errors.New("recurring config not found")
	ErrExclusionNotFound = errors.New("exclusion not found")
	ErrNameRequired      = errors.New("name is required")
	ErrNameTooLong       = errors.New("name exceeds maximum length")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidEntryType  = errors.New("invalid entry type")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidEvery      = errors.New("every must be at least 1")
	ErrInvalidInterval   = errors.New("interval must not be negative")
	ErrInvalidCurrency   = errors.New("currency code is required")
	ErrMissingOccurrence = errors.New("occurrence reference is incomplete")
)

// Validation constants
const (
	MaxNameLength = 255
)
