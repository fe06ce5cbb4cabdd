/*
errors.go - Centralized error types for the caregiving domain

PURPOSE:
  All domain errors in one place. Every failure falls into one of three
  categories, each with a classifier used by the HTTP layer for status
  mapping:

  1. Not found   - a referenced period, settlement or record does not exist
  2. Conflict    - a state invariant would be violated
  3. Validation  - malformed input, rejected before any mutation

  No error in this package is transient; there is no retry logic anywhere in
  the core. Every failure aborts the operation with no partial state change.

USAGE:
  if errors.Is(err, caregiving.ErrOpenPeriodExists) { ... }
  if caregiving.IsConflict(err) { ... }
*/
package caregiving

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPeriodNotFound is returned when a referenced pay period doesn't exist.
	ErrPeriodNotFound = errors.New("pay period not found")

	// ErrNoOpenPeriod is returned when an operation needs the current open
	// period and none exists.
	ErrNoOpenPeriod = errors.New("no open pay period")

	// ErrSettlementNotFound is returned when a period has no settlement row.
	ErrSettlementNotFound = errors.New("settlement not found")

	// ErrCaregiverNotFound is returned when a referenced caregiver doesn't exist.
	ErrCaregiverNotFound = errors.New("caregiver not found")

	// ErrTimeEntryNotFound is returned when a referenced time entry doesn't exist.
	ErrTimeEntryNotFound = errors.New("time entry not found")

	// ErrExpenseNotFound is returned when a referenced expense doesn't exist.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrOpenPeriodExists is returned when creating or reopening a period
	// while another period is open. At most one period may be open.
	ErrOpenPeriodExists = errors.New("another pay period is already open")

	// ErrPeriodAlreadyClosed is returned when closing a closed period.
	ErrPeriodAlreadyClosed = errors.New("pay period is already closed")

	// ErrPeriodAlreadyOpen is returned when reopening an open period.
	ErrPeriodAlreadyOpen = errors.New("pay period is already open")

	// ErrNotSettled is returned when unsettling a settlement that isn't settled.
	ErrNotSettled = errors.New("settlement is not settled")

	// ErrSettlementExists is returned when inserting a second settlement row
	// for the same period. At most one settlement exists per period.
	ErrSettlementExists = errors.New("settlement already exists for this pay period")

	// ErrInvalidDateRange is returned when a period's end date is not after
	// its start date.
	ErrInvalidDateRange = errors.New("end date must be after start date")

	// ErrInvalidHours is returned for non-positive hours or more than 24
	// hours in a single entry.
	ErrInvalidHours = errors.New("hours must be positive and at most 24")

	// ErrInvalidAmount is returned for non-positive monetary amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidPayer is returned for a payer outside the two parties.
	ErrInvalidPayer = errors.New("invalid payer")

	// ErrInvalidCategory is returned for an unknown expense category.
	ErrInvalidCategory = errors.New("invalid expense category")

	// ErrDuplicateCaregiver is returned when a caregiver name is taken.
	ErrDuplicateCaregiver = errors.New("caregiver name already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NoPeriodForDateError is returned when a time entry or expense date falls
// inside no pay period and no explicit period was given.
type NoPeriodForDateError struct {
	Date time.Time
}

func (e *NoPeriodForDateError) Error() string {
	return fmt.Sprintf("no pay period covers %s", e.Date.Format("2006-01-02"))
}

// OpenPeriodConflictError reports which period blocked an open transition.
type OpenPeriodConflictError struct {
	OpenPeriodID string
}

func (e *OpenPeriodConflictError) Error() string {
	return fmt.Sprintf("pay period %s is already open; close it first", e.OpenPeriodID)
}

func (e *OpenPeriodConflictError) Unwrap() error {
	return ErrOpenPeriodExists
}

// =============================================================================
// CLASSIFIERS - category mapping for the transport layer
// =============================================================================

// IsNotFound reports whether the error means a referenced resource is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrNoOpenPeriod) ||
		errors.Is(err, ErrSettlementNotFound) ||
		errors.Is(err, ErrCaregiverNotFound) ||
		errors.Is(err, ErrTimeEntryNotFound) ||
		errors.Is(err, ErrExpenseNotFound)
}

// IsConflict reports whether the error is a state-invariant violation.
// The caller must choose a different action; nothing is auto-resolved.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOpenPeriodExists) ||
		errors.Is(err, ErrPeriodAlreadyClosed) ||
		errors.Is(err, ErrPeriodAlreadyOpen) ||
		errors.Is(err, ErrNotSettled) ||
		errors.Is(err, ErrSettlementExists) ||
		errors.Is(err, ErrDuplicateCaregiver)
}

// IsValidation reports whether the error is malformed input.
func IsValidation(err error) bool {
	var noPeriod *NoPeriodForDateError
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidHours) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidPayer) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.As(err, &noPeriod)
}
