/*
settlement.go - Settlement calculation and record lifecycle

PURPOSE:
  Computes the single balancing payment between the two parties for one pay
  period, and manages the settlement row's lifecycle (lazy creation,
  in-place recalculation, settle/unsettle).

FORMULA:
  total_expenses is the entire settlement basis. Caregiver wages paid out are
  logged as expenses under CategoryCaregiverPayment, so they are already in
  total_expenses and are NOT added again; total_caregiver_cost from time
  entries is carried for reporting only. fair_share = total_expenses / 2,
  kept exact; whoever paid more than fair share is owed the difference,
  rounded to cents only at the end. carryover is added after rounding and is
  never modified by recalculation.

LIFECYCLE RULES:
  - At most one settlement row per period (UNIQUE constraint in the store).
  - Recalculation overwrites monetary fields in place but preserves
    Settled, SettledAt, PaymentMethod and CarryoverAmount.
  - Unsettling clears Settled and SettledAt but keeps PaymentMethod.

SEE ALSO:
  - period.go: Reopen force-unsettles through the same store
  - types.go: Settlement field meanings
*/
package caregiving

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// two is the fair-share divisor. Exactly two cost-sharing parties, always.
var two = decimal.NewFromInt(2)

// Breakdown is the pure result of settling one period's books.
type Breakdown struct {
	TotalCaregiverCost decimal.Decimal
	TotalExpenses      decimal.Decimal
	PartyAPaid         decimal.Decimal
	PartyBPaid         decimal.Decimal
	SettlementAmount   decimal.Decimal
	Direction          SettlementDirection
}

// Calculate derives the settlement breakdown for one period's time entries
// and expenses. Pure: no store access, no rounding except the final amount.
func Calculate(entries []TimeEntry, expenses []Expense) Breakdown {
	caregiverCost := decimal.Zero
	for _, e := range entries {
		caregiverCost = caregiverCost.Add(e.TotalPay)
	}

	totalExpenses := decimal.Zero
	paidA := decimal.Zero
	paidB := decimal.Zero
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(e.Amount)
		switch e.PaidBy {
		case PartyA:
			paidA = paidA.Add(e.Amount)
		case PartyB:
			paidB = paidB.Add(e.Amount)
		}
	}

	// Exact division; a half-cent remainder survives until the final Round.
	fairShare := totalExpenses.Div(two)

	amount := decimal.Zero
	direction := DirectionEven
	switch {
	case paidA.GreaterThan(fairShare):
		amount = paidA.Sub(fairShare)
		direction = DirectionBOwesA
	case paidB.GreaterThan(fairShare):
		amount = paidB.Sub(fairShare)
		direction = DirectionAOwesB
	}

	return Breakdown{
		TotalCaregiverCost: caregiverCost,
		TotalExpenses:      totalExpenses,
		PartyAPaid:         paidA,
		PartyBPaid:         paidB,
		SettlementAmount:   amount.Round(2),
		Direction:          direction,
	}
}

// =============================================================================
// SETTLEMENT SERVICE
// =============================================================================

// SettlementService owns the settlement row lifecycle.
type SettlementService struct {
	store TxStore
	now   func() time.Time
}

func NewSettlementService(store TxStore) *SettlementService {
	return &SettlementService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCalculate returns the settlement for a period, recomputing all
// monetary fields in place. If no settlement exists yet, one is created with
// zero carryover. Idempotent: two calls on an unchanged period produce
// identical monetary fields.
func (s *SettlementService) GetOrCalculate(ctx context.Context, periodID string) (*Settlement, error) {
	var settlement *Settlement
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		settlement, err = recalculate(ctx, tx, periodID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// MarkSettled marks a period's settlement as paid, computing the settlement
// first if it doesn't exist. Re-marking just refreshes the timestamp and
// method.
func (s *SettlementService) MarkSettled(ctx context.Context, periodID string, paymentMethod *string) (*Settlement, error) {
	var settlement *Settlement
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		settlement, err = recalculate(ctx, tx, periodID)
		if err != nil {
			return err
		}
		now := s.now()
		settlement.Settled = true
		settlement.SettledAt = &now
		settlement.PaymentMethod = paymentMethod
		return tx.UpdateSettlement(ctx, settlement)
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// Unsettle reverses MarkSettled. The payment method is retained for the
// next settling (or simply as history). Fails with ErrSettlementNotFound if
// the period has no settlement row, and ErrNotSettled if it isn't settled.
func (s *SettlementService) Unsettle(ctx context.Context, periodID string) (*Settlement, error) {
	var settlement *Settlement
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		settlement, err = tx.FindSettlement(ctx, periodID)
		if err != nil {
			return err
		}
		if settlement == nil {
			return ErrSettlementNotFound
		}
		if !settlement.Settled {
			return ErrNotSettled
		}
		settlement.Settled = false
		settlement.SettledAt = nil
		return tx.UpdateSettlement(ctx, settlement)
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// recalculate runs Calculate against the period's rows and persists the
// result, updating the existing settlement in place or inserting a fresh one.
// Runs inside the caller's transaction.
func recalculate(ctx context.Context, tx Store, periodID string) (*Settlement, error) {
	period, err := tx.FindPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, ErrPeriodNotFound
	}

	entries, err := tx.ListTimeEntries(ctx, periodID)
	if err != nil {
		return nil, err
	}
	expenses, err := tx.ListExpenses(ctx, periodID)
	if err != nil {
		return nil, err
	}

	b := Calculate(entries, expenses)

	existing, err := tx.FindSettlement(ctx, periodID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.TotalCaregiverCost = b.TotalCaregiverCost
		existing.TotalExpenses = b.TotalExpenses
		existing.PartyAPaid = b.PartyAPaid
		existing.PartyBPaid = b.PartyBPaid
		existing.SettlementAmount = b.SettlementAmount
		existing.Direction = b.Direction
		existing.FinalAmount = b.SettlementAmount.Add(existing.CarryoverAmount)
		if err := tx.UpdateSettlement(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	settlement := &Settlement{
		PayPeriodID:        periodID,
		TotalCaregiverCost: b.TotalCaregiverCost,
		TotalExpenses:      b.TotalExpenses,
		PartyAPaid:         b.PartyAPaid,
		PartyBPaid:         b.PartyBPaid,
		SettlementAmount:   b.SettlementAmount,
		Direction:          b.Direction,
		CarryoverAmount:    decimal.Zero,
		FinalAmount:        b.SettlementAmount,
	}
	if err := tx.SaveSettlement(ctx, settlement); err != nil {
		return nil, err
	}
	return settlement, nil
}
