/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the wire contract. Monetary amounts are emitted as fixed two-decimal
  strings; request bodies accept decimals as JSON numbers or strings
  (decimal.Decimal unmarshals both). Dates travel as "2006-01-02".

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Construction and parsing
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hearthshare/carebook/caregiving"
)

const dateLayout = "2006-01-02"

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// PAY PERIODS
// =============================================================================

type PayPeriodDTO struct {
	ID           string `json:"id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Status       string `json:"status"`
	IsHistorical bool   `json:"is_historical"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

type CreatePeriodRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`
}

type UpdatePeriodRequest struct {
	Notes *string `json:"notes"`
}

type GeneratePeriodsRequest struct {
	StartDate  string `json:"start_date"`
	PeriodDays int    `json:"period_days"`
	Count      int    `json:"count"`
}

func toPeriodDTO(p *caregiving.PayPeriod) PayPeriodDTO {
	return PayPeriodDTO{
		ID:           p.ID,
		StartDate:    p.StartDate.Format(dateLayout),
		EndDate:      p.EndDate.Format(dateLayout),
		Status:       string(p.Status),
		IsHistorical: p.IsHistorical,
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// CAREGIVERS
// =============================================================================

type CaregiverDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	DefaultHourlyRate string `json:"default_hourly_rate"`
	IsActive          bool   `json:"is_active"`
	CreatedAt         string `json:"created_at,omitempty"`
}

type CreateCaregiverRequest struct {
	Name              string          `json:"name"`
	DefaultHourlyRate decimal.Decimal `json:"default_hourly_rate"`
}

type UpdateCaregiverRequest struct {
	Name              *string          `json:"name"`
	DefaultHourlyRate *decimal.Decimal `json:"default_hourly_rate"`
	IsActive          *bool            `json:"is_active"`
}

func toCaregiverDTO(c *caregiving.Caregiver) CaregiverDTO {
	return CaregiverDTO{
		ID:                c.ID,
		Name:              c.Name,
		DefaultHourlyRate: c.DefaultHourlyRate.StringFixed(2),
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

type TimeEntryDTO struct {
	ID          string `json:"id"`
	PayPeriodID string `json:"pay_period_id"`
	CaregiverID string `json:"caregiver_id"`
	Date        string `json:"date"`
	TimeIn      string `json:"time_in,omitempty"`
	TimeOut     string `json:"time_out,omitempty"`
	Hours       string `json:"hours"`
	HourlyRate  string `json:"hourly_rate"`
	TotalPay    string `json:"total_pay"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type CreateTimeEntryRequest struct {
	PayPeriodID string          `json:"pay_period_id"` // optional, inferred from date
	CaregiverID string          `json:"caregiver_id"`
	Date        string          `json:"date"`
	TimeIn      string          `json:"time_in"`
	TimeOut     string          `json:"time_out"`
	Hours       decimal.Decimal `json:"hours"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Notes       string          `json:"notes"`
}

type UpdateTimeEntryRequest struct {
	Date       *string          `json:"date"`
	TimeIn     *string          `json:"time_in"`
	TimeOut    *string          `json:"time_out"`
	Hours      *decimal.Decimal `json:"hours"`
	HourlyRate *decimal.Decimal `json:"hourly_rate"`
	Notes      *string          `json:"notes"`
}

func toTimeEntryDTO(e *caregiving.TimeEntry) TimeEntryDTO {
	return TimeEntryDTO{
		ID:          e.ID,
		PayPeriodID: e.PayPeriodID,
		CaregiverID: e.CaregiverID,
		Date:        e.Date.Format(dateLayout),
		TimeIn:      e.TimeIn,
		TimeOut:     e.TimeOut,
		Hours:       e.Hours.String(),
		HourlyRate:  e.HourlyRate.StringFixed(2),
		TotalPay:    e.TotalPay.StringFixed(2),
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// EXPENSES
// =============================================================================

type ExpenseDTO struct {
	ID            string `json:"id"`
	PayPeriodID   string `json:"pay_period_id"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	PaidBy        string `json:"paid_by"`
	Category      string `json:"category"`
	IsRecurring   bool   `json:"is_recurring"`
	DateEstimated bool   `json:"date_estimated"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

type CreateExpenseRequest struct {
	PayPeriodID   string          `json:"pay_period_id"` // optional, inferred from date
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	PaidBy        string          `json:"paid_by"`
	Category      string          `json:"category"`
	IsRecurring   bool            `json:"is_recurring"`
	DateEstimated bool            `json:"date_estimated"`
	Notes         string          `json:"notes"`
}

type UpdateExpenseRequest struct {
	Date          *string          `json:"date"`
	Description   *string          `json:"description"`
	Amount        *decimal.Decimal `json:"amount"`
	PaidBy        *string          `json:"paid_by"`
	Category      *string          `json:"category"`
	IsRecurring   *bool            `json:"is_recurring"`
	DateEstimated *bool            `json:"date_estimated"`
	Notes         *string          `json:"notes"`
}

// ExpenseSummaryDTO aggregates one period's expenses per payer and category.
type ExpenseSummaryDTO struct {
	PartyATotal string            `json:"party_a_total"`
	PartyBTotal string            `json:"party_b_total"`
	ByCategory  map[string]string `json:"by_category"`
}

func toExpenseDTO(e *caregiving.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:            e.ID,
		PayPeriodID:   e.PayPeriodID,
		Date:          e.Date.Format(dateLayout),
		Description:   e.Description,
		Amount:        e.Amount.StringFixed(2),
		PaidBy:        string(e.PaidBy),
		Category:      string(e.Category),
		IsRecurring:   e.IsRecurring,
		DateEstimated: e.DateEstimated,
		Notes:         e.Notes,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

type SettlementDTO struct {
	ID                 string  `json:"id"`
	PayPeriodID        string  `json:"pay_period_id"`
	TotalCaregiverCost string  `json:"total_caregiver_cost"`
	TotalExpenses      string  `json:"total_expenses"`
	PartyAPaid         string  `json:"party_a_paid"`
	PartyBPaid         string  `json:"party_b_paid"`
	SettlementAmount   string  `json:"settlement_amount"`
	Direction          string  `json:"settlement_direction"`
	CarryoverAmount    string  `json:"carryover_amount"`
	FinalAmount        string  `json:"final_amount"`
	Settled            bool    `json:"settled"`
	SettledAt          *string `json:"settled_at"`
	PaymentMethod      *string `json:"payment_method"`
	CreatedAt          string  `json:"created_at,omitempty"`
}

type MarkSettledRequest struct {
	PaymentMethod *string `json:"payment_method"`
}

func toSettlementDTO(s *caregiving.Settlement) SettlementDTO {
	dto := SettlementDTO{
		ID:                 s.ID,
		PayPeriodID:        s.PayPeriodID,
		TotalCaregiverCost: s.TotalCaregiverCost.StringFixed(2),
		TotalExpenses:      s.TotalExpenses.StringFixed(2),
		PartyAPaid:         s.PartyAPaid.StringFixed(2),
		PartyBPaid:         s.PartyBPaid.StringFixed(2),
		SettlementAmount:   s.SettlementAmount.StringFixed(2),
		Direction:          string(s.Direction),
		CarryoverAmount:    s.CarryoverAmount.StringFixed(2),
		FinalAmount:        s.FinalAmount.StringFixed(2),
		Settled:            s.Settled,
		PaymentMethod:      s.PaymentMethod,
		CreatedAt:          s.CreatedAt.Format(time.RFC3339),
	}
	if s.SettledAt != nil {
		t := s.SettledAt.Format(time.RFC3339)
		dto.SettledAt = &t
	}
	return dto
}
