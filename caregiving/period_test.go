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

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// SINGLE-OPEN INVARIANT
// =============================================================================

func TestPeriodService_SecondOpenPeriodRejected(t *testing.T) {
	// GIVEN: An open period
	// WHEN: Creating another period
	// THEN: Rejected with an open-period conflict naming the blocker

	store := newTestStore(t)
	svc := caregiving.NewPeriodService(store)
	ctx := context.Background()

	p1, err := svc.Create(ctx, date(2025, time.March, 1), date(2025, time.March, 14), "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, date(2025, time.March, 15), date(2025, time.March, 28), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, caregiving.ErrOpenPeriodExists)
	assert.True(t, caregiving.IsConflict(err))

	var conflict *caregiving.OpenPeriodConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, p1.ID, conflict.OpenPeriodID)
}

func TestPeriodService_CloseThenCreateSucceeds(t *testing.T) {
	// GIVEN: P1 open, then closed
	// WHEN: Creating P2
	// THEN: P2 opens; reopening P1 while P2 is open is a conflict

	store := newTestStore(t)
	svc := caregiving.NewPeriodService(store)
	ctx := context.Background()

	p1, err := svc.Create(ctx, date(2025, time.March, 1), date(2025, time.March, 14), "")
	require.NoError(t, err)

	_, err = svc.Close(ctx, p1.ID)
	require.NoError(t, err)

	p2, err := svc.Create(ctx, date(2025, time.March, 15), date(2025, time.March, 28), "")
	require.NoError(t, err)
	assert.Equal(t, caregiving.PeriodOpen, p2.Status)

	_, err = svc.Reopen(ctx, p1.ID)
	assert.ErrorIs(t, err, caregiving.ErrOpenPeriodExists)
}

func TestPeriodService_Current(t *testing.T) {
	store := newTestStore(t)
	svc := caregiving.NewPeriodService(store)
	ctx := context.Background()

	_, err := svc.Current(ctx)
	assert.ErrorIs(t, err, caregiving.ErrNoOpenPeriod)

	p, err := svc.Create(ctx, date(2025, time.April, 1), date(2025, time.April, 14), "")
	require.NoError(t, err)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.ID, current.ID)
}

// =============================================================================
// STATE MACHINE EDGES
// =============================================================================

func TestPeriodService_CloseAlreadyClosed(t *testing.T) {
	store := newTestStore(t)
	svc := caregiving.NewPeriodService(store)
	ctx := context.Background()

	p, err := svc.Create(ctx, date(2025, time.March, 1), date(2025, time.March, 14), "")
	require.NoError(t, err)

	_, err = svc.Close(ctx, p.ID)
	require.NoError(t, err)

	_, err = svc.Close(ctx, p.ID)
	assert.ErrorIs(t, err, caregiving.ErrPeriodAlreadyClosed)
	assert.True(t, caregiving.IsConflict(err))
}

func TestPeriodService_ReopenAlreadyOpen(t *testing.T) {
	store := newTestStore(t)
	svc := caregiving.NewPeriodService(store)
	ctx := context.Background()

	p, err := svc.Create(ctx, date(2025, time.March, 1), date(2025, time.March, 14), "")
	require.NoError(t, err)

	_, err = svc.Reopen(ctx, p.ID)
	assert.ErrorIs(t, err, caregiving.ErrPeriodAlreadyOpen)
}

func TestPeriodService_InvalidDateRange(t *testing.T) {
	store := newTestStore(t)
	svc := caregiving.NewPeriodService(store)
	ctx := context.Background()

	// End equal to start is invalid too; it must be strictly after.
	_, err := svc.Create(ctx, date(2025, time.March, 14), date(2025, time.March, 14), "")
	assert.ErrorIs(t, err, caregiving.ErrInvalidDateRange)
	assert.True(t, caregiving.IsValidation(err))

	_, err = svc.Create(ctx, date(2025, time.March, 14), date(2025, time.March, 1), "")
	assert.ErrorIs(t, err, caregiving.ErrInvalidDateRange)
}

func TestPeriodService_NotFound(t *testing.T) {
	store := newTestStore(t)
	svc := caregiving.NewPeriodService(store)
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, caregiving.ErrPeriodNotFound)

	_, err = svc.Close(ctx, "missing")
	assert.ErrorIs(t, err, caregiving.ErrPeriodNotFound)

	_, err = svc.Reopen(ctx, "missing")
	assert.ErrorIs(t, err, caregiving.ErrPeriodNotFound)
}

// =============================================================================
// REOPEN FORCE-UNSETTLES
// =============================================================================

func TestPeriodService_ReopenForceUnsettles(t *testing.T) {
	// GIVEN: P1 with a settlement marked settled via "Transfer", then closed
	// WHEN: Reopening P1
	// THEN: The settlement is unsettled but keeps its payment method

	store := newTestStore(t)
	periods := caregiving.NewPeriodService(store)
	settlements := caregiving.NewSettlementService(store)
	ctx := context.Background()

	p, err := periods.Create(ctx, date(2025, time.March, 1), date(2025, time.March, 14), "")
	require.NoError(t, err)

	method := "Transfer"
	settled, err := settlements.MarkSettled(ctx, p.ID, &method)
	require.NoError(t, err)
	require.True(t, settled.Settled)
	require.NotNil(t, settled.SettledAt)

	_, err = periods.Close(ctx, p.ID)
	require.NoError(t, err)

	_, err = periods.Reopen(ctx, p.ID)
	require.NoError(t, err)

	after, err := store.FindSettlement(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.False(t, after.Settled)
	assert.Nil(t, after.SettledAt)
	require.NotNil(t, after.PaymentMethod)
	assert.Equal(t, "Transfer", *after.PaymentMethod)
}

func TestPeriodService_ReopenWithoutSettlementIsFine(t *testing.T) {
	store := newTestStore(t)
	svc := caregiving.NewPeriodService(store)
	ctx := context.Background()

	p, err := svc.Create(ctx, date(2025, time.March, 1), date(2025, time.March, 14), "")
	require.NoError(t, err)
	_, err = svc.Close(ctx, p.ID)
	require.NoError(t, err)

	reopened, err := svc.Reopen(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, caregiving.PeriodOpen, reopened.Status)
}

// =============================================================================
// HISTORICAL GENERATION
// =============================================================================

func TestPeriodService_GenerateHistorical(t *testing.T) {
	// GIVEN: No periods
	// WHEN: Generating 3 back-to-back 14-day periods from March 1
	// THEN: Periods tile the calendar with no gaps or overlaps, all closed
	//       and flagged historical

	store := newTestStore(t)
	svc := caregiving.NewPeriodService(store)
	ctx := context.Background()

	generated, err := svc.GenerateHistorical(ctx, date(2025, time.March, 1), 14, 3)
	require.NoError(t, err)
	require.Len(t, generated, 3)

	assert.Equal(t, date(2025, time.March, 1), generated[0].StartDate)
	assert.Equal(t, date(2025, time.March, 14), generated[0].EndDate)
	assert.Equal(t, date(2025, time.March, 15), generated[1].StartDate)
	assert.Equal(t, date(2025, time.March, 28), generated[1].EndDate)
	assert.Equal(t, date(2025, time.March, 29), generated[2].StartDate)
	assert.Equal(t, date(2025, time.April, 11), generated[2].EndDate)

	for _, p := range generated {
		assert.Equal(t, caregiving.PeriodClosed, p.Status)
		assert.True(t, p.IsHistorical)
	}

	// Historical periods never block opening a live one.
	_, err = svc.Create(ctx, date(2025, time.April, 12), date(2025, time.April, 25), "")
	assert.NoError(t, err)
}

func TestPeriodService_GenerateHistoricalValidation(t *testing.T) {
	store := newTestStore(t)
	svc := caregiving.NewPeriodService(store)
	ctx := context.Background()

	_, err := svc.GenerateHistorical(ctx, date(2025, time.March, 1), 1, 3)
	assert.ErrorIs(t, err, caregiving.ErrInvalidDateRange)

	_, err = svc.GenerateHistorical(ctx, date(2025, time.March, 1), 14, 0)
	assert.ErrorIs(t, err, caregiving.ErrInvalidDateRange)
}
