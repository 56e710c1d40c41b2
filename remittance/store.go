/*
store.go - Record persistence interface

PURPOSE:
  Defines the boundary between the remittance domain and storage. The
  reconciliation engine works on plain []Record slices; the Store only
  has to load, look up, upsert and delete them.

UPSERT CONTRACT:
  UpsertRecord replaces any record with the same ID. The ID is the natural
  key {ministry}-{department}-{year}-{month}, so at most one record exists
  per department per period. Refusing to overwrite is a Repository policy,
  not a Store one.

IMPLEMENTATIONS:
  - store/sqlite:   SQLite, row-level upserts
  - store/jsonfile: one JSON blob per collection, last writer wins
  - store/memory:   in-memory, for tests

SEE ALSO:
  - repository.go: validation, conflict detection, timestamps
  - generic/store.go: blob KeyValue boundary
*/
package remittance

import "context"

// Store persists records.
type Store interface {
	// ListRecords returns every stored record, ordered by ID.
	ListRecords(ctx context.Context) ([]Record, error)

	// GetRecord returns nil and no error when the id does not exist.
	GetRecord(ctx context.Context, id string) (*Record, error)

	// UpsertRecord inserts or replaces the record with r.ID.
	UpsertRecord(ctx context.Context, r Record) error

	// DeleteRecord removes a record. Returns generic.ErrRecordNotFound
	// when the id does not exist.
	DeleteRecord(ctx context.Context, id string) error
}

// RecordQuery narrows a record listing. Zero fields match everything.
type RecordQuery struct {
	Ministry   string
	Department string
	Year       int
	Month      int
}

// Matches reports whether r satisfies q.
func (q RecordQuery) Matches(r Record) bool {
	return (q.Ministry == "" || r.Ministry == q.Ministry) &&
		(q.Department == "" || r.DepartmentName == q.Department) &&
		(q.Year == 0 || r.Year == q.Year) &&
		(q.Month == 0 || r.Month == q.Month)
}

// Querier is implemented by stores that can filter server-side.
type Querier interface {
	ListFiltered(ctx context.Context, q RecordQuery) ([]Record, error)
}
