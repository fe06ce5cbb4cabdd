/*
handlers.go - HTTP handlers for the carebook API

PURPOSE:
  Exposes the caregiving domain over REST. Handlers parse and validate
  requests, delegate to the domain services (periods, settlements) or
  straight to the store (plain CRUD), and serialize responses.

ERROR HANDLING:
  Domain errors map to status codes by category:
  - 404: not found (missing period/settlement/record)
  - 400: conflict (state-invariant violation) and validation failures
  - 500: everything else, logged with details server-side only

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Routing and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hearthshare/carebook/caregiving"
	"github.com/hearthshare/carebook/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	Periods     *caregiving.PeriodService
	Settlements *caregiving.SettlementService
	Logger      *slog.Logger
}

// NewHandler wires the domain services around the given store.
func NewHandler(store *sqlite.Store, logger *slog.Logger) *Handler {
	return &Handler{
		Store:       store,
		Periods:     caregiving.NewPeriodService(store),
		Settlements: caregiving.NewSettlementService(store),
		Logger:      logger,
	}
}

// =============================================================================
// PAY PERIOD HANDLERS
// =============================================================================

// ListPeriods returns all pay periods, newest first.
// GET /api/pay-periods
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Periods.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list pay periods", err)
		return
	}

	dtos := make([]PayPeriodDTO, len(periods))
	for i := range periods {
		dtos[i] = toPeriodDTO(&periods[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentPeriod returns the single open period.
// GET /api/pay-periods/current
func (h *Handler) GetCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Periods.Current(r.Context())
	if err != nil {
		h.writeDomainError(w, "No open pay period found", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// CreatePeriod opens a new pay period.
// POST /api/pay-periods
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	period, err := h.Periods.Create(r.Context(), start, end, req.Notes)
	if err != nil {
		h.writeDomainError(w, "Failed to create pay period", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(period))
}

// GeneratePeriods bulk-creates closed historical periods.
// POST /api/pay-periods/generate
func (h *Handler) GeneratePeriods(w http.ResponseWriter, r *http.Request) {
	var req GeneratePeriodsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}

	periods, err := h.Periods.GenerateHistorical(r.Context(), start, req.PeriodDays, req.Count)
	if err != nil {
		h.writeDomainError(w, "Failed to generate pay periods", err)
		return
	}

	dtos := make([]PayPeriodDTO, len(periods))
	for i := range periods {
		dtos[i] = toPeriodDTO(&periods[i])
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// GetPeriod returns one pay period.
// GET /api/pay-periods/{id}
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Periods.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get pay period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// UpdatePeriod replaces a period's notes.
// PUT /api/pay-periods/{id}
func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	var req UpdatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := chi.URLParam(r, "id")
	if req.Notes == nil {
		// Nothing to change; echo back the current state.
		period, err := h.Periods.Get(r.Context(), id)
		if err != nil {
			h.writeDomainError(w, "Failed to get pay period", err)
			return
		}
		writeJSON(w, http.StatusOK, toPeriodDTO(period))
		return
	}

	period, err := h.Periods.UpdateNotes(r.Context(), id, *req.Notes)
	if err != nil {
		h.writeDomainError(w, "Failed to update pay period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// ClosePeriod transitions an open period to closed.
// POST /api/pay-periods/{id}/close
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Periods.Close(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to close pay period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// ReopenPeriod transitions a closed period back to open, force-unsettling
// its settlement.
// POST /api/pay-periods/{id}/reopen
func (h *Handler) ReopenPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Periods.Reopen(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to reopen pay period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// =============================================================================
// SETTLEMENT HANDLERS
// =============================================================================

// GetSettlement returns the settlement for a period, computing it lazily.
// GET /api/settlements/{periodID}
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.Settlements.GetOrCalculate(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.writeDomainError(w, "Failed to get settlement", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(settlement))
}

// RecalculateSettlement refreshes the settlement from current entries and
// expenses.
// POST /api/settlements/{periodID}/calculate
func (h *Handler) RecalculateSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.Settlements.GetOrCalculate(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.writeDomainError(w, "Failed to recalculate settlement", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(settlement))
}

// MarkSettled marks a period's settlement as paid.
// POST /api/settlements/{periodID}/mark-settled
func (h *Handler) MarkSettled(w http.ResponseWriter, r *http.Request) {
	// The body is optional; a bare POST settles with no payment method.
	var req MarkSettledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settlement, err := h.Settlements.MarkSettled(r.Context(), chi.URLParam(r, "periodID"), req.PaymentMethod)
	if err != nil {
		h.writeDomainError(w, "Failed to mark settlement settled", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(settlement))
}

// UnsettleSettlement reverses mark-settled, keeping the payment method.
// POST /api/settlements/{periodID}/unsettle
func (h *Handler) UnsettleSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.Settlements.Unsettle(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.writeDomainError(w, "Failed to unsettle settlement", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(settlement))
}

// =============================================================================
// CAREGIVER HANDLERS
// =============================================================================

// ListCaregivers returns all caregivers.
// GET /api/caregivers
func (h *Handler) ListCaregivers(w http.ResponseWriter, r *http.Request) {
	caregivers, err := h.Store.ListCaregivers(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list caregivers", err)
		return
	}

	dtos := make([]CaregiverDTO, len(caregivers))
	for i := range caregivers {
		dtos[i] = toCaregiverDTO(&caregivers[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCaregiver creates a caregiver with a unique name.
// POST /api/caregivers
func (h *Handler) CreateCaregiver(w http.ResponseWriter, r *http.Request) {
	var req CreateCaregiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}
	if req.DefaultHourlyRate.IsNegative() {
		writeError(w, http.StatusBadRequest, "Hourly rate must not be negative", nil)
		return
	}

	caregiver := &caregiving.Caregiver{
		Name:              req.Name,
		DefaultHourlyRate: req.DefaultHourlyRate,
		IsActive:          true,
	}
	if err := h.Store.SaveCaregiver(r.Context(), caregiver); err != nil {
		h.writeDomainError(w, "Failed to create caregiver", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCaregiverDTO(caregiver))
}

// GetCaregiver returns a single caregiver.
// GET /api/caregivers/{id}
func (h *Handler) GetCaregiver(w http.ResponseWriter, r *http.Request) {
	caregiver, err := h.Store.GetCaregiver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get caregiver", err)
		return
	}
	if caregiver == nil {
		writeError(w, http.StatusNotFound, "Caregiver not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toCaregiverDTO(caregiver))
}

// UpdateCaregiver applies a partial update to a caregiver.
// PUT /api/caregivers/{id}
func (h *Handler) UpdateCaregiver(w http.ResponseWriter, r *http.Request) {
	var req UpdateCaregiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	caregiver, err := h.Store.GetCaregiver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get caregiver", err)
		return
	}
	if caregiver == nil {
		writeError(w, http.StatusNotFound, "Caregiver not found", nil)
		return
	}

	if req.Name != nil {
		caregiver.Name = *req.Name
	}
	if req.DefaultHourlyRate != nil {
		caregiver.DefaultHourlyRate = *req.DefaultHourlyRate
	}
	if req.IsActive != nil {
		caregiver.IsActive = *req.IsActive
	}

	if err := h.Store.UpdateCaregiver(r.Context(), caregiver); err != nil {
		h.writeDomainError(w, "Failed to update caregiver", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaregiverDTO(caregiver))
}

// DeactivateCaregiver soft-deletes a caregiver. Records referencing it are
// kept; the caregiver just stops appearing as active.
// DELETE /api/caregivers/{id}
func (h *Handler) DeactivateCaregiver(w http.ResponseWriter, r *http.Request) {
	caregiver, err := h.Store.GetCaregiver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get caregiver", err)
		return
	}
	if caregiver == nil {
		writeError(w, http.StatusNotFound, "Caregiver not found", nil)
		return
	}

	caregiver.IsActive = false
	if err := h.Store.UpdateCaregiver(r.Context(), caregiver); err != nil {
		h.writeDomainError(w, "Failed to deactivate caregiver", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaregiverDTO(caregiver))
}

// =============================================================================
// TIME ENTRY HANDLERS
// =============================================================================

// ListTimeEntries returns time entries, optionally filtered by period.
// GET /api/time-entries?period_id=...
func (h *Handler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListTimeEntries(r.Context(), r.URL.Query().Get("period_id"))
	if err != nil {
		h.writeDomainError(w, "Failed to list time entries", err)
		return
	}

	dtos := make([]TimeEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toTimeEntryDTO(&entries[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTimeEntry records hours worked. The pay period is taken from the
// request or inferred from the entry date; total pay is always recomputed
// server-side.
// POST /api/time-entries
func (h *Handler) CreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateTimeEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if !validHours(req.Hours) {
		h.writeDomainError(w, "Invalid hours", caregiving.ErrInvalidHours)
		return
	}

	caregiver, err := h.Store.GetCaregiver(r.Context(), req.CaregiverID)
	if err != nil {
		h.writeDomainError(w, "Failed to get caregiver", err)
		return
	}
	if caregiver == nil {
		h.writeDomainError(w, "Caregiver not found", caregiving.ErrCaregiverNotFound)
		return
	}

	periodID, err := h.resolvePeriod(r, req.PayPeriodID, date)
	if err != nil {
		h.writeDomainError(w, "Failed to resolve pay period", err)
		return
	}

	entry := &caregiving.TimeEntry{
		PayPeriodID: periodID,
		CaregiverID: req.CaregiverID,
		Date:        date,
		TimeIn:      req.TimeIn,
		TimeOut:     req.TimeOut,
		Hours:       req.Hours,
		HourlyRate:  req.HourlyRate,
		TotalPay:    caregiving.TotalPay(req.Hours, req.HourlyRate),
		Notes:       req.Notes,
	}
	if err := h.Store.SaveTimeEntry(r.Context(), entry); err != nil {
		h.writeDomainError(w, "Failed to create time entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimeEntryDTO(entry))
}

// GetTimeEntry returns a single time entry.
// GET /api/time-entries/{id}
func (h *Handler) GetTimeEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Store.GetTimeEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get time entry", err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "Time entry not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTimeEntryDTO(entry))
}

// UpdateTimeEntry applies a partial update, recomputing total pay whenever
// hours or rate change.
// PUT /api/time-entries/{id}
func (h *Handler) UpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req UpdateTimeEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.Store.GetTimeEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get time entry", err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "Time entry not found", nil)
		return
	}

	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		entry.Date = date
	}
	if req.TimeIn != nil {
		entry.TimeIn = *req.TimeIn
	}
	if req.TimeOut != nil {
		entry.TimeOut = *req.TimeOut
	}
	if req.Hours != nil {
		if !validHours(*req.Hours) {
			h.writeDomainError(w, "Invalid hours", caregiving.ErrInvalidHours)
			return
		}
		entry.Hours = *req.Hours
	}
	if req.HourlyRate != nil {
		entry.HourlyRate = *req.HourlyRate
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}
	entry.TotalPay = caregiving.TotalPay(entry.Hours, entry.HourlyRate)

	if err := h.Store.UpdateTimeEntry(r.Context(), entry); err != nil {
		h.writeDomainError(w, "Failed to update time entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeEntryDTO(entry))
}

// DeleteTimeEntry removes a time entry.
// DELETE /api/time-entries/{id}
func (h *Handler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteTimeEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete time entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// ListExpenses returns expenses, optionally filtered by period.
// GET /api/expenses?period_id=...
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.Store.ListExpenses(r.Context(), r.URL.Query().Get("period_id"))
	if err != nil {
		h.writeDomainError(w, "Failed to list expenses", err)
		return
	}

	dtos := make([]ExpenseDTO, len(expenses))
	for i := range expenses {
		dtos[i] = toExpenseDTO(&expenses[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExpenseSummary aggregates one period's expenses per payer and category.
// GET /api/expenses/summary?period_id=...
func (h *Handler) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("period_id")
	if periodID == "" {
		writeError(w, http.StatusBadRequest, "period_id is required", nil)
		return
	}

	expenses, err := h.Store.ListExpenses(r.Context(), periodID)
	if err != nil {
		h.writeDomainError(w, "Failed to list expenses", err)
		return
	}

	totalA, totalB := decimal.Zero, decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		switch e.PaidBy {
		case caregiving.PartyA:
			totalA = totalA.Add(e.Amount)
		case caregiving.PartyB:
			totalB = totalB.Add(e.Amount)
		}
		byCategory[string(e.Category)] = byCategory[string(e.Category)].Add(e.Amount)
	}

	summary := ExpenseSummaryDTO{
		PartyATotal: totalA.StringFixed(2),
		PartyBTotal: totalB.StringFixed(2),
		ByCategory:  make(map[string]string, len(byCategory)),
	}
	for cat, total := range byCategory {
		summary.ByCategory[cat] = total.StringFixed(2)
	}
	writeJSON(w, http.StatusOK, summary)
}

// CreateExpense records a household expense. The pay period is taken from
// the request or inferred from the expense date.
// POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if !req.Amount.IsPositive() {
		h.writeDomainError(w, "Invalid amount", caregiving.ErrInvalidAmount)
		return
	}
	payer := caregiving.Payer(req.PaidBy)
	if !payer.Valid() {
		h.writeDomainError(w, "Invalid payer", caregiving.ErrInvalidPayer)
		return
	}
	category := caregiving.ExpenseCategory(req.Category)
	if !category.Valid() {
		h.writeDomainError(w, "Invalid category", caregiving.ErrInvalidCategory)
		return
	}

	periodID, err := h.resolvePeriod(r, req.PayPeriodID, date)
	if err != nil {
		h.writeDomainError(w, "Failed to resolve pay period", err)
		return
	}

	expense := &caregiving.Expense{
		PayPeriodID:   periodID,
		Date:          date,
		Description:   req.Description,
		Amount:        req.Amount,
		PaidBy:        payer,
		Category:      category,
		IsRecurring:   req.IsRecurring,
		DateEstimated: req.DateEstimated,
		Notes:         req.Notes,
	}
	if err := h.Store.SaveExpense(r.Context(), expense); err != nil {
		h.writeDomainError(w, "Failed to create expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(expense))
}

// GetExpense returns a single expense.
// GET /api/expenses/{id}
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := h.Store.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get expense", err)
		return
	}
	if expense == nil {
		writeError(w, http.StatusNotFound, "Expense not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(expense))
}

// UpdateExpense applies a partial update to an expense.
// PUT /api/expenses/{id}
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	expense, err := h.Store.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get expense", err)
		return
	}
	if expense == nil {
		writeError(w, http.StatusNotFound, "Expense not found", nil)
		return
	}

	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		expense.Date = date
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			h.writeDomainError(w, "Invalid amount", caregiving.ErrInvalidAmount)
			return
		}
		expense.Amount = *req.Amount
	}
	if req.PaidBy != nil {
		payer := caregiving.Payer(*req.PaidBy)
		if !payer.Valid() {
			h.writeDomainError(w, "Invalid payer", caregiving.ErrInvalidPayer)
			return
		}
		expense.PaidBy = payer
	}
	if req.Category != nil {
		category := caregiving.ExpenseCategory(*req.Category)
		if !category.Valid() {
			h.writeDomainError(w, "Invalid category", caregiving.ErrInvalidCategory)
			return
		}
		expense.Category = category
	}
	if req.IsRecurring != nil {
		expense.IsRecurring = *req.IsRecurring
	}
	if req.DateEstimated != nil {
		expense.DateEstimated = *req.DateEstimated
	}
	if req.Notes != nil {
		expense.Notes = *req.Notes
	}

	if err := h.Store.UpdateExpense(r.Context(), expense); err != nil {
		h.writeDomainError(w, "Failed to update expense", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(expense))
}

// DeleteExpense removes an expense.
// DELETE /api/expenses/{id}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

// resolvePeriod validates an explicit period ID, or infers the period
// covering the given date when none is supplied.
func (h *Handler) resolvePeriod(r *http.Request, periodID string, date time.Time) (string, error) {
	if periodID != "" {
		period, err := h.Store.FindPeriod(r.Context(), periodID)
		if err != nil {
			return "", err
		}
		if period == nil {
			return "", caregiving.ErrPeriodNotFound
		}
		return period.ID, nil
	}

	period, err := h.Store.FindPeriodContaining(r.Context(), date)
	if err != nil {
		return "", err
	}
	if period == nil {
		return "", &caregiving.NoPeriodForDateError{Date: date}
	}
	return period.ID, nil
}

func validHours(hours decimal.Decimal) bool {
	return hours.IsPositive() && hours.LessThanOrEqual(caregiving.MaxDailyHours)
}

// writeDomainError maps a domain error onto a status code. Internal errors
// are logged with details; clients only see the message.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case caregiving.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case caregiving.IsConflict(err), caregiving.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
