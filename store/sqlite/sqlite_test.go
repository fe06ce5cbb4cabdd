package sqlite_test

import (
	"context"
	"errors"
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

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func savedPeriod(t *testing.T, store *sqlite.Store, status caregiving.PeriodStatus) *caregiving.PayPeriod {
	p := &caregiving.PayPeriod{
		StartDate: date(2025, time.March, 1),
		EndDate:   date(2025, time.March, 14),
		Status:    status,
	}
	require.NoError(t, store.SavePeriod(context.Background(), p))
	return p
}

// =============================================================================
// PAY PERIODS
// =============================================================================

func TestStore_SingleOpenIndexBackstop(t *testing.T) {
	// GIVEN: An open period already in the table
	// WHEN: Inserting a second open period directly, bypassing the service
	// THEN: The partial unique index rejects it

	store := newTestStore(t)
	ctx := context.Background()

	savedPeriod(t, store, caregiving.PeriodOpen)

	second := &caregiving.PayPeriod{
		StartDate: date(2025, time.March, 15),
		EndDate:   date(2025, time.March, 28),
		Status:    caregiving.PeriodOpen,
	}
	err := store.SavePeriod(ctx, second)
	assert.ErrorIs(t, err, caregiving.ErrOpenPeriodExists)

	// Closed periods coexist freely.
	second.ID = ""
	second.Status = caregiving.PeriodClosed
	assert.NoError(t, store.SavePeriod(ctx, second))
}

func TestStore_FindPeriodContaining_InclusiveBounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := savedPeriod(t, store, caregiving.PeriodOpen)

	for _, d := range []time.Time{
		date(2025, time.March, 1),  // first day
		date(2025, time.March, 7),  // middle
		date(2025, time.March, 14), // last day
	} {
		found, err := store.FindPeriodContaining(ctx, d)
		require.NoError(t, err)
		require.NotNil(t, found, "date %s should be inside the period", d.Format("2006-01-02"))
		assert.Equal(t, p.ID, found.ID)
	}

	outside, err := store.FindPeriodContaining(ctx, date(2025, time.March, 15))
	require.NoError(t, err)
	assert.Nil(t, outside)
}

func TestStore_FindPeriod_MissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	p, err := store.FindPeriod(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestStore_ListPeriods_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := &caregiving.PayPeriod{
		StartDate: date(2025, time.February, 1),
		EndDate:   date(2025, time.February, 14),
		Status:    caregiving.PeriodClosed,
	}
	require.NoError(t, store.SavePeriod(ctx, older))
	newer := savedPeriod(t, store, caregiving.PeriodOpen)

	periods, err := store.ListPeriods(ctx)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, newer.ID, periods[0].ID)
	assert.Equal(t, older.ID, periods[1].ID)
}

func TestStore_WithTxRollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that saves a period then fails
	// WHEN: WithTx returns the error
	// THEN: The period is not persisted

	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx caregiving.Store) error {
		if err := tx.SavePeriod(ctx, &caregiving.PayPeriod{
			StartDate: date(2025, time.March, 1),
			EndDate:   date(2025, time.March, 14),
			Status:    caregiving.PeriodOpen,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	periods, err := store.ListPeriods(ctx)
	require.NoError(t, err)
	assert.Empty(t, periods)
}

// =============================================================================
// CAREGIVERS
// =============================================================================

func TestStore_CaregiverNameUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &caregiving.Caregiver{Name: "Maria", DefaultHourlyRate: caregiving.MustDecimal("22.50"), IsActive: true}
	require.NoError(t, store.SaveCaregiver(ctx, first))

	dup := &caregiving.Caregiver{Name: "Maria", DefaultHourlyRate: caregiving.MustDecimal("25.00"), IsActive: true}
	err := store.SaveCaregiver(ctx, dup)
	assert.ErrorIs(t, err, caregiving.ErrDuplicateCaregiver)
}

func TestStore_CaregiverRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c := &caregiving.Caregiver{Name: "Maria", DefaultHourlyRate: caregiving.MustDecimal("22.50"), IsActive: true}
	require.NoError(t, store.SaveCaregiver(ctx, c))
	require.NotEmpty(t, c.ID)

	got, err := store.GetCaregiver(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Maria", got.Name)
	assert.True(t, got.DefaultHourlyRate.Equal(caregiving.MustDecimal("22.50")))
	assert.True(t, got.IsActive)

	got.IsActive = false
	require.NoError(t, store.UpdateCaregiver(ctx, got))

	after, err := store.GetCaregiver(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, after.IsActive)
}

// =============================================================================
// TIME ENTRIES AND EXPENSES
// =============================================================================

func TestStore_TimeEntryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := savedPeriod(t, store, caregiving.PeriodOpen)
	c := &caregiving.Caregiver{Name: "Maria", DefaultHourlyRate: caregiving.MustDecimal("22.50"), IsActive: true}
	require.NoError(t, store.SaveCaregiver(ctx, c))

	e := &caregiving.TimeEntry{
		PayPeriodID: p.ID,
		CaregiverID: c.ID,
		Date:        date(2025, time.March, 3),
		TimeIn:      "09:00",
		TimeOut:     "15:30",
		Hours:       caregiving.MustDecimal("6.5"),
		HourlyRate:  caregiving.MustDecimal("23.33"),
		TotalPay:    caregiving.TotalPay(caregiving.MustDecimal("6.5"), caregiving.MustDecimal("23.33")),
	}
	require.NoError(t, store.SaveTimeEntry(ctx, e))

	got, err := store.GetTimeEntry(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "09:00", got.TimeIn)
	assert.True(t, got.Hours.Equal(caregiving.MustDecimal("6.5")))
	assert.Equal(t, "151.65", got.TotalPay.StringFixed(2))

	entries, err := store.ListTimeEntries(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, store.DeleteTimeEntry(ctx, e.ID))
	err = store.DeleteTimeEntry(ctx, e.ID)
	assert.ErrorIs(t, err, caregiving.ErrTimeEntryNotFound)
}

func TestStore_ExpenseRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := savedPeriod(t, store, caregiving.PeriodOpen)

	e := &caregiving.Expense{
		PayPeriodID: p.ID,
		Date:        date(2025, time.March, 5),
		Description: "March rent",
		Amount:      caregiving.MustDecimal("800.00"),
		PaidBy:      caregiving.PartyA,
		Category:    caregiving.CategoryRent,
		IsRecurring: true,
	}
	require.NoError(t, store.SaveExpense(ctx, e))

	got, err := store.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "March rent", got.Description)
	assert.True(t, got.Amount.Equal(caregiving.MustDecimal("800.00")))
	assert.Equal(t, caregiving.PartyA, got.PaidBy)
	assert.Equal(t, caregiving.CategoryRent, got.Category)
	assert.True(t, got.IsRecurring)

	got.Amount = caregiving.MustDecimal("825.00")
	require.NoError(t, store.UpdateExpense(ctx, got))

	after, err := store.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "825.00", after.Amount.StringFixed(2))

	require.NoError(t, store.DeleteExpense(ctx, e.ID))
	err = store.DeleteExpense(ctx, e.ID)
	assert.ErrorIs(t, err, caregiving.ErrExpenseNotFound)
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

func TestStore_SettlementUniquePerPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := savedPeriod(t, store, caregiving.PeriodOpen)

	first := &caregiving.Settlement{
		PayPeriodID:      p.ID,
		Direction:        caregiving.DirectionEven,
		SettlementAmount: caregiving.MustDecimal("0"),
	}
	require.NoError(t, store.SaveSettlement(ctx, first))

	second := &caregiving.Settlement{
		PayPeriodID:      p.ID,
		Direction:        caregiving.DirectionEven,
		SettlementAmount: caregiving.MustDecimal("0"),
	}
	err := store.SaveSettlement(ctx, second)
	assert.ErrorIs(t, err, caregiving.ErrSettlementExists, "one settlement row per period")
	assert.True(t, caregiving.IsConflict(err))
}

func TestStore_SettlementNullableFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := savedPeriod(t, store, caregiving.PeriodOpen)

	s := &caregiving.Settlement{
		PayPeriodID:      p.ID,
		Direction:        caregiving.DirectionBOwesA,
		SettlementAmount: caregiving.MustDecimal("300.00"),
		FinalAmount:      caregiving.MustDecimal("300.00"),
	}
	require.NoError(t, store.SaveSettlement(ctx, s))

	got, err := store.FindSettlement(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.SettledAt)
	assert.Nil(t, got.PaymentMethod)

	now := time.Now().UTC().Truncate(time.Second)
	method := "Zelle"
	got.Settled = true
	got.SettledAt = &now
	got.PaymentMethod = &method
	require.NoError(t, store.UpdateSettlement(ctx, got))

	after, err := store.FindSettlement(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, after.SettledAt)
	assert.True(t, after.SettledAt.Equal(now))
	require.NotNil(t, after.PaymentMethod)
	assert.Equal(t, "Zelle", *after.PaymentMethod)

	err = store.UpdateSettlement(ctx, &caregiving.Settlement{PayPeriodID: "missing"})
	assert.ErrorIs(t, err, caregiving.ErrSettlementNotFound)
}
