/*
period.go - Pay-period lifecycle

PURPOSE:
  State machine for pay periods: {open, closed}, created open, closed by
  explicit action, reopened only while nothing else is open. The global
  invariant is that at most one period is open across the whole store; it is
  enforced as a transactional check-then-write against FindOpenPeriod, never
  as in-memory state.

REOPEN SIDE EFFECT:
  Reopening a period force-unsettles its settlement if one exists (clearing
  the settled flag and timestamp, keeping the payment method). Closing the
  books is provisional once a period reopens. This is the one place a
  settlement is unsettled without the must-be-settled guard, and it silently
  no-ops when the period has no settlement at all.

SEE ALSO:
  - settlement.go: Settlement lifecycle, including direct Unsettle
  - errors.go: ErrOpenPeriodExists and friends
*/
package caregiving

import (
	"context"
	"time"
)

// PeriodService owns pay-period transitions.
type PeriodService struct {
	store TxStore
}

func NewPeriodService(store TxStore) *PeriodService {
	return &PeriodService{store: store}
}

// Create opens a new pay period. Fails with ErrInvalidDateRange if end is not
// after start, and with an open-period conflict if any period is open.
func (s *PeriodService) Create(ctx context.Context, start, end time.Time, notes string) (*PayPeriod, error) {
	if !end.After(start) {
		return nil, ErrInvalidDateRange
	}

	period := &PayPeriod{
		StartDate: start,
		EndDate:   end,
		Status:    PeriodOpen,
		Notes:     notes,
	}

	err := s.store.WithTx(ctx, func(tx Store) error {
		open, err := tx.FindOpenPeriod(ctx)
		if err != nil {
			return err
		}
		if open != nil {
			return &OpenPeriodConflictError{OpenPeriodID: open.ID}
		}
		return tx.SavePeriod(ctx, period)
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// Close transitions an open period to closed. The period's settlement, if
// any, is untouched.
func (s *PeriodService) Close(ctx context.Context, id string) (*PayPeriod, error) {
	var period *PayPeriod
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		period, err = tx.FindPeriod(ctx, id)
		if err != nil {
			return err
		}
		if period == nil {
			return ErrPeriodNotFound
		}
		if period.Status == PeriodClosed {
			return ErrPeriodAlreadyClosed
		}
		period.Status = PeriodClosed
		return tx.UpdatePeriod(ctx, period)
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// Reopen transitions a closed period back to open, provided no other period
// is open, and force-unsettles the period's settlement as a side effect.
func (s *PeriodService) Reopen(ctx context.Context, id string) (*PayPeriod, error) {
	var period *PayPeriod
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		period, err = tx.FindPeriod(ctx, id)
		if err != nil {
			return err
		}
		if period == nil {
			return ErrPeriodNotFound
		}
		if period.Status == PeriodOpen {
			return ErrPeriodAlreadyOpen
		}
		open, err := tx.FindOpenPeriod(ctx)
		if err != nil {
			return err
		}
		if open != nil {
			return &OpenPeriodConflictError{OpenPeriodID: open.ID}
		}

		period.Status = PeriodOpen
		if err := tx.UpdatePeriod(ctx, period); err != nil {
			return err
		}

		// Force-unsettle: bypasses the must-be-settled guard, no-ops when
		// the period has no settlement.
		settlement, err := tx.FindSettlement(ctx, id)
		if err != nil {
			return err
		}
		if settlement == nil {
			return nil
		}
		settlement.Settled = false
		settlement.SettledAt = nil
		return tx.UpdateSettlement(ctx, settlement)
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// UpdateNotes replaces a period's notes.
func (s *PeriodService) UpdateNotes(ctx context.Context, id, notes string) (*PayPeriod, error) {
	var period *PayPeriod
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		period, err = tx.FindPeriod(ctx, id)
		if err != nil {
			return err
		}
		if period == nil {
			return ErrPeriodNotFound
		}
		period.Notes = notes
		return tx.UpdatePeriod(ctx, period)
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// Get returns a period by ID.
func (s *PeriodService) Get(ctx context.Context, id string) (*PayPeriod, error) {
	period, err := s.store.FindPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, ErrPeriodNotFound
	}
	return period, nil
}

// Current returns the single open period, or ErrNoOpenPeriod.
func (s *PeriodService) Current(ctx context.Context) (*PayPeriod, error) {
	period, err := s.store.FindOpenPeriod(ctx)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, ErrNoOpenPeriod
	}
	return period, nil
}

// List returns all periods, newest first.
func (s *PeriodService) List(ctx context.Context) ([]PayPeriod, error) {
	return s.store.ListPeriods(ctx)
}

// GenerateHistorical bulk-creates count back-to-back periods of periodDays
// days each, starting at start. Generated periods are closed and flagged
// historical, so they never threaten the single-open invariant; they exist
// to receive back-dated entries and expenses.
func (s *PeriodService) GenerateHistorical(ctx context.Context, start time.Time, periodDays, count int) ([]PayPeriod, error) {
	if periodDays < 2 || count <= 0 {
		return nil, ErrInvalidDateRange
	}

	periods := make([]PayPeriod, 0, count)
	err := s.store.WithTx(ctx, func(tx Store) error {
		cursor := start
		for i := 0; i < count; i++ {
			// Inclusive end date: a 14-day period started on the 1st ends
			// on the 14th, and the next one starts on the 15th.
			end := cursor.AddDate(0, 0, periodDays-1)
			p := PayPeriod{
				StartDate:    cursor,
				EndDate:      end,
				Status:       PeriodClosed,
				IsHistorical: true,
			}
			if err := tx.SavePeriod(ctx, &p); err != nil {
				return err
			}
			periods = append(periods, p)
			cursor = end.AddDate(0, 0, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return periods, nil
}
