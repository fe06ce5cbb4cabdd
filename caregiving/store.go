/*
store.go - Persistence interface consumed by the domain services

PURPOSE:
  The narrow storage contract the settlement and period services need. The
  SQLite implementation in store/sqlite satisfies it (and adds the plain CRUD
  surface for caregivers, time entries and expenses, which the core only ever
  reads through the List* methods here).

CONVENTIONS:
  - Find* methods return (nil, nil) when the record does not exist. Mapping
    absence to a domain error is the caller's job.
  - Save* inserts (assigning an ID when empty); Update* overwrites an
    existing row. Writes are visible to subsequent reads in the same call
    chain.
  - WithTx runs a function against a transactional view of the store and
    commits only if it returns nil. Every domain operation is one such
    read-modify-write unit, so invariants like single-open-period are checked
    and enforced atomically.

SEE ALSO:
  - period.go, settlement.go: The consumers
  - store/sqlite/sqlite.go: The implementation
*/
package caregiving

import (
	"context"
	"time"
)

// Store is the read/write surface the domain core uses.
type Store interface {
	// Pay periods
	FindPeriod(ctx context.Context, id string) (*PayPeriod, error)
	FindOpenPeriod(ctx context.Context) (*PayPeriod, error)
	FindPeriodContaining(ctx context.Context, date time.Time) (*PayPeriod, error)
	ListPeriods(ctx context.Context) ([]PayPeriod, error)
	SavePeriod(ctx context.Context, p *PayPeriod) error
	UpdatePeriod(ctx context.Context, p *PayPeriod) error

	// Period contents (read-only from the core's perspective)
	ListTimeEntries(ctx context.Context, periodID string) ([]TimeEntry, error)
	ListExpenses(ctx context.Context, periodID string) ([]Expense, error)

	// Settlements (at most one row per period)
	FindSettlement(ctx context.Context, periodID string) (*Settlement, error)
	SaveSettlement(ctx context.Context, s *Settlement) error
	UpdateSettlement(ctx context.Context, s *Settlement) error
}

// TxStore is a Store that can scope operations to a single transaction.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional store. The transaction
	// commits iff fn returns nil; any error rolls everything back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
