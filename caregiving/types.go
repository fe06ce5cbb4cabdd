/*
Package caregiving contains the domain model for a two-party shared-caregiving
household ledger.

PURPOSE:
  Tracks caregiver work hours and household expenses across pay periods, and
  computes the balancing settlement payment between the two cost-sharing
  parties for each period.

KEY CONCEPTS IN THIS FILE (types.go):
  - PayPeriod: A date range over which hours and expenses are tracked.
    At most one period is open system-wide at any time.
  - TimeEntry: Hours worked by a caregiver on one day (total pay is derived).
  - Expense: A household expense paid by one of the two parties. Caregiver
    wages are logged as expenses with the CategoryCaregiverPayment category,
    so they enter the settlement exactly once.
  - Settlement: The single balancing payment for one period. At most one
    settlement row exists per period.

DESIGN PRINCIPLES:
  1. Precision: All money uses decimal.Decimal; rounding happens only at the
     settlement boundary, never on intermediate sums.
  2. Enums are closed string sets whose values match the stored data.
  3. Derived fields (TotalPay, FinalAmount) are always recomputed, never
     independently settable.

SEE ALSO:
  - settlement.go: Settlement calculation and lifecycle
  - period.go: Pay-period state machine
  - store.go: Persistence interface consumed by the services
*/
package caregiving

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMS - string values are the stored wire format
// =============================================================================

// PeriodStatus is the pay-period state machine: open -> closed -> open.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
)

// Payer identifies which of the two cost-sharing parties paid an expense.
type Payer string

const (
	PartyA Payer = "party_a"
	PartyB Payer = "party_b"
)

func (p Payer) Valid() bool {
	return p == PartyA || p == PartyB
}

// SettlementDirection says who owes whom for a period.
type SettlementDirection string

const (
	DirectionAOwesB SettlementDirection = "a_owes_b"
	DirectionBOwesA SettlementDirection = "b_owes_a"
	DirectionEven   SettlementDirection = "even"
)

// ExpenseCategory is a fixed set of household expense categories.
// CategoryCaregiverPayment is how caregiver wages enter the settlement:
// as an ordinary expense row, counted once.
type ExpenseCategory string

const (
	CategoryRent             ExpenseCategory = "Rent"
	CategoryUtilities        ExpenseCategory = "Utilities"
	CategoryGroceries        ExpenseCategory = "Groceries"
	CategoryMedical          ExpenseCategory = "Medical"
	CategoryCaregiverPayment ExpenseCategory = "Caregiver Payment"
	CategoryInsurance        ExpenseCategory = "Insurance"
	CategorySupplies         ExpenseCategory = "Supplies"
	CategoryOther            ExpenseCategory = "Other"
)

// Categories returns all valid expense categories in display order.
func Categories() []ExpenseCategory {
	return []ExpenseCategory{
		CategoryRent, CategoryUtilities, CategoryGroceries, CategoryMedical,
		CategoryCaregiverPayment, CategoryInsurance, CategorySupplies, CategoryOther,
	}
}

func (c ExpenseCategory) Valid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

// =============================================================================
// ENTITIES
// =============================================================================

// PayPeriod is a date range over which hours and expenses accumulate.
// EndDate must be strictly after StartDate. Historical periods are created
// closed by bulk generation and never participate in the single-open
// invariant.
type PayPeriod struct {
	ID           string
	StartDate    time.Time
	EndDate      time.Time
	Status       PeriodStatus
	IsHistorical bool
	Notes        string
	CreatedAt    time.Time
}

// Contains reports whether a date falls inside the period (inclusive on both
// ends, matching how entries and expenses are assigned to periods).
func (p *PayPeriod) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// Caregiver is a person paid hourly for caregiving work.
type Caregiver struct {
	ID                string
	Name              string
	DefaultHourlyRate decimal.Decimal
	IsActive          bool
	CreatedAt         time.Time
}

// TimeEntry records hours worked by a caregiver on one day.
// TotalPay is always Hours x HourlyRate rounded to cents; it is recomputed
// whenever hours or rate change and is never settable on its own.
type TimeEntry struct {
	ID          string
	PayPeriodID string
	CaregiverID string
	Date        time.Time
	TimeIn      string // "HH:MM", optional
	TimeOut     string // "HH:MM", optional
	Hours       decimal.Decimal
	HourlyRate  decimal.Decimal
	TotalPay    decimal.Decimal
	Notes       string
	CreatedAt   time.Time
}

// Expense is a household expense paid by one party.
// DateEstimated marks rows whose date was inferred rather than authoritative
// (e.g. entered after the fact).
type Expense struct {
	ID            string
	PayPeriodID   string
	Date          time.Time
	Description   string
	Amount        decimal.Decimal
	PaidBy        Payer
	Category      ExpenseCategory
	IsRecurring   bool
	DateEstimated bool
	Notes         string
	CreatedAt     time.Time
}

// Settlement is the single balancing payment for one pay period.
// Monetary fields are overwritten on every recalculation; Settled, SettledAt,
// PaymentMethod and CarryoverAmount survive recalculation. PaymentMethod also
// survives unsettling, so re-settling the same way later needs no re-entry.
type Settlement struct {
	ID                 string
	PayPeriodID        string
	TotalCaregiverCost decimal.Decimal // informational, from time entries
	TotalExpenses      decimal.Decimal // the settlement basis
	PartyAPaid         decimal.Decimal
	PartyBPaid         decimal.Decimal
	SettlementAmount   decimal.Decimal // always >= 0
	Direction          SettlementDirection
	CarryoverAmount    decimal.Decimal // set by external adjustment, default 0
	FinalAmount        decimal.Decimal // SettlementAmount + CarryoverAmount
	Settled            bool
	SettledAt          *time.Time
	PaymentMethod      *string
	CreatedAt          time.Time
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// MaxDailyHours bounds a single time entry.
var MaxDailyHours = decimal.NewFromInt(24)

// TotalPay computes hours x rate rounded to cents (half-up).
func TotalPay(hours, rate decimal.Decimal) decimal.Decimal {
	return hours.Mul(rate).Round(2)
}

// MustDecimal parses a decimal literal, returning zero on malformed input.
// Intended for constants and stored values already validated on the way in.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
