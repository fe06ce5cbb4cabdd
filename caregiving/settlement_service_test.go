package caregiving_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthshare/carebook/caregiving"
	"github.com/hearthshare/carebook/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newPeriodWithExpenses creates an open period with an 800/200 expense split.
func newPeriodWithExpenses(t *testing.T, store *sqlite.Store) *caregiving.PayPeriod {
	ctx := context.Background()
	periods := caregiving.NewPeriodService(store)

	p, err := periods.Create(ctx, date(2025, time.March, 1), date(2025, time.March, 14), "")
	require.NoError(t, err)

	addExpense(t, store, p.ID, "800.00", caregiving.PartyA, caregiving.CategoryRent)
	addExpense(t, store, p.ID, "200.00", caregiving.PartyB, caregiving.CategoryGroceries)
	return p
}

func addExpense(t *testing.T, store *sqlite.Store, periodID, amount string, payer caregiving.Payer, category caregiving.ExpenseCategory) {
	err := store.SaveExpense(context.Background(), &caregiving.Expense{
		PayPeriodID: periodID,
		Date:        date(2025, time.March, 5),
		Description: "test expense",
		Amount:      caregiving.MustDecimal(amount),
		PaidBy:      payer,
		Category:    category,
	})
	require.NoError(t, err)
}

// =============================================================================
// GET OR CALCULATE
// =============================================================================

func TestSettlementService_GetOrCalculate_CreatesLazily(t *testing.T) {
	// GIVEN: A period with expenses but no settlement row
	// WHEN: GetOrCalculate runs
	// THEN: A settlement appears with zero carryover and computed fields

	store := newTestStore(t)
	svc := caregiving.NewSettlementService(store)
	ctx := context.Background()

	p := newPeriodWithExpenses(t, store)

	before, err := store.FindSettlement(ctx, p.ID)
	require.NoError(t, err)
	require.Nil(t, before)

	s, err := svc.GetOrCalculate(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", s.TotalExpenses.StringFixed(2))
	assert.Equal(t, caregiving.DirectionBOwesA, s.Direction)
	assert.Equal(t, "300.00", s.SettlementAmount.StringFixed(2))
	assert.True(t, s.CarryoverAmount.IsZero())
	assert.Equal(t, "300.00", s.FinalAmount.StringFixed(2))
	assert.False(t, s.Settled)
}

func TestSettlementService_GetOrCalculate_Idempotent(t *testing.T) {
	// Two calls on an unchanged period produce identical monetary fields
	// and reuse the same row.

	store := newTestStore(t)
	svc := caregiving.NewSettlementService(store)
	ctx := context.Background()

	p := newPeriodWithExpenses(t, store)

	first, err := svc.GetOrCalculate(ctx, p.ID)
	require.NoError(t, err)
	second, err := svc.GetOrCalculate(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.TotalExpenses.Equal(second.TotalExpenses))
	assert.True(t, first.PartyAPaid.Equal(second.PartyAPaid))
	assert.True(t, first.PartyBPaid.Equal(second.PartyBPaid))
	assert.True(t, first.SettlementAmount.Equal(second.SettlementAmount))
	assert.True(t, first.FinalAmount.Equal(second.FinalAmount))
	assert.Equal(t, first.Direction, second.Direction)
}

func TestSettlementService_RecalculatePreservesLifecycleFields(t *testing.T) {
	// GIVEN: A settled settlement with a manual carryover
	// WHEN: A new expense lands and GetOrCalculate recomputes
	// THEN: Monetary fields refresh; settled, settled_at, payment_method and
	//       carryover survive, and carryover is added after rounding

	store := newTestStore(t)
	svc := caregiving.NewSettlementService(store)
	ctx := context.Background()

	p := newPeriodWithExpenses(t, store)

	method := "Venmo"
	settled, err := svc.MarkSettled(ctx, p.ID, &method)
	require.NoError(t, err)

	// Carryover arrives from outside the calculation.
	settled.CarryoverAmount = caregiving.MustDecimal("25.00")
	require.NoError(t, store.UpdateSettlement(ctx, settled))

	addExpense(t, store, p.ID, "100.00", caregiving.PartyB, caregiving.CategoryMedical)

	s, err := svc.GetOrCalculate(ctx, p.ID)
	require.NoError(t, err)

	// 800 vs 300 paid: fair share 550, A overpaid by 250.
	assert.Equal(t, "1100.00", s.TotalExpenses.StringFixed(2))
	assert.Equal(t, "250.00", s.SettlementAmount.StringFixed(2))
	assert.Equal(t, "275.00", s.FinalAmount.StringFixed(2))

	assert.True(t, s.Settled)
	assert.NotNil(t, s.SettledAt)
	require.NotNil(t, s.PaymentMethod)
	assert.Equal(t, "Venmo", *s.PaymentMethod)
	assert.Equal(t, "25.00", s.CarryoverAmount.StringFixed(2))
}

func TestSettlementService_GetOrCalculate_MissingPeriod(t *testing.T) {
	store := newTestStore(t)
	svc := caregiving.NewSettlementService(store)

	_, err := svc.GetOrCalculate(context.Background(), "missing")
	assert.ErrorIs(t, err, caregiving.ErrPeriodNotFound)
	assert.True(t, caregiving.IsNotFound(err))
}

// =============================================================================
// MARK SETTLED / UNSETTLE
// =============================================================================

func TestSettlementService_MarkSettledUnsettleRoundTrip(t *testing.T) {
	// GIVEN: A settlement marked settled with method "Transfer"
	// WHEN: Unsettling
	// THEN: settled=false, settled_at=nil, payment method unchanged

	store := newTestStore(t)
	svc := caregiving.NewSettlementService(store)
	ctx := context.Background()

	p := newPeriodWithExpenses(t, store)

	method := "Transfer"
	settled, err := svc.MarkSettled(ctx, p.ID, &method)
	require.NoError(t, err)
	require.True(t, settled.Settled)
	require.NotNil(t, settled.SettledAt)

	unsettled, err := svc.Unsettle(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, unsettled.Settled)
	assert.Nil(t, unsettled.SettledAt)
	require.NotNil(t, unsettled.PaymentMethod)
	assert.Equal(t, "Transfer", *unsettled.PaymentMethod)
}

func TestSettlementService_MarkSettledWithoutMethod(t *testing.T) {
	store := newTestStore(t)
	svc := caregiving.NewSettlementService(store)
	ctx := context.Background()

	p := newPeriodWithExpenses(t, store)

	s, err := svc.MarkSettled(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.True(t, s.Settled)
	assert.Nil(t, s.PaymentMethod)
}

func TestSettlementService_UnsettleErrors(t *testing.T) {
	// GIVEN: A period with no settlement row, then one that exists unsettled
	// WHEN: Unsettling each
	// THEN: Not-found for the missing row, conflict for the unsettled one

	store := newTestStore(t)
	svc := caregiving.NewSettlementService(store)
	ctx := context.Background()

	p := newPeriodWithExpenses(t, store)

	_, err := svc.Unsettle(ctx, p.ID)
	assert.ErrorIs(t, err, caregiving.ErrSettlementNotFound)
	assert.True(t, caregiving.IsNotFound(err))

	_, err = svc.GetOrCalculate(ctx, p.ID)
	require.NoError(t, err)

	_, err = svc.Unsettle(ctx, p.ID)
	assert.ErrorIs(t, err, caregiving.ErrNotSettled)
	assert.True(t, caregiving.IsConflict(err))
}
