package remittance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warp/remittance-engine/generic"
)

// =============================================================================
// REPOSITORY - record lifecycle on top of a Store
// =============================================================================

// Repository validates submissions, snapshots the funding type, stamps
// SubmittedAt from the clock and writes through to the Store after every
// mutation. Mutations are serialised; there is one logical writer.
type Repository struct {
	store      Store
	directory  *Directory
	classifier *Classifier
	clock      generic.Clock

	mu sync.Mutex
}

func NewRepository(store Store, directory *Directory, classifier *Classifier, clock generic.Clock) *Repository {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	return &Repository{
		store:      store,
		directory:  directory,
		classifier: classifier,
		clock:      clock,
	}
}

// Submit creates the record for sub's department and period. When a record
// with the same id exists and overwrite is false, the existing record is
// left untouched and an *generic.ExistingRecordError is returned.
func (r *Repository) Submit(ctx context.Context, sub Submission, overwrite bool) (Record, error) {
	return r.submit(ctx, sub, overwrite, time.Time{})
}

// Import stores sub with an explicit submission time, replacing any record
// for the same period. Used to seed and restore data whose recorded
// submission order matters for ranking.
func (r *Repository) Import(ctx context.Context, sub Submission, submittedAt time.Time) (Record, error) {
	return r.submit(ctx, sub, true, submittedAt)
}

func (r *Repository) submit(ctx context.Context, sub Submission, overwrite bool, at time.Time) (Record, error) {
	if err := sub.Validate(); err != nil {
		return Record{}, err
	}
	ref := DepartmentRef{Ministry: sub.Ministry, Department: sub.DepartmentName}
	if r.directory != nil && !r.directory.Contains(ref) {
		return Record{}, fmt.Errorf("%w: %s", generic.ErrUnknownDepartment, ref)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := RecordID(sub.Ministry, sub.DepartmentName, sub.Year, sub.Month)
	if !overwrite {
		existing, err := r.store.GetRecord(ctx, id)
		if err != nil {
			return Record{}, generic.WrapStore("get record", err)
		}
		if existing != nil {
			return Record{}, &generic.ExistingRecordError{ID: id}
		}
	}

	if at.IsZero() {
		at = r.clock.Now()
	}
	d := sub.deductions()
	rec := Record{
		ID:             id,
		Ministry:       sub.Ministry,
		DepartmentName: sub.DepartmentName,
		FundingType:    r.classifier.Classify(sub.Ministry, sub.DepartmentName),
		Year:           sub.Year,
		Month:          sub.Month,
		TotalSalaries:  *sub.TotalSalaries,
		EmployeeCount:  *sub.EmployeeCount,
		Deduction10:    d.D10,
		Deduction15:    d.D15,
		Deduction25:    d.D25,
		Attachments:    sub.Attachments,
		SubmittedAt:    at.UTC(),
	}
	if err := r.store.UpsertRecord(ctx, rec); err != nil {
		return Record{}, generic.WrapStore("upsert record", err)
	}
	return rec, nil
}

// Revision changes the mutable fields of a stored record. Nil fields keep
// their stored value. When TotalSalaries changes and a deduction is not
// given explicitly, that deduction is recomputed from the new salaries.
type Revision struct {
	TotalSalaries *generic.Money
	EmployeeCount *int
	Deduction10   *generic.Money
	Deduction15   *generic.Money
	Deduction25   *generic.Money
	// Attachments replaces the stored list when non-nil.
	Attachments []Attachment
}

// Revise applies rev to the record with id and refreshes SubmittedAt.
func (r *Repository) Revise(ctx context.Context, id string, rev Revision) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, generic.WrapStore("get record", err)
	}
	if existing == nil {
		return Record{}, fmt.Errorf("%w: %s", generic.ErrRecordNotFound, id)
	}

	sub := Submission{
		Ministry:       existing.Ministry,
		DepartmentName: existing.DepartmentName,
		Year:           existing.Year,
		Month:          existing.Month,
		TotalSalaries:  &existing.TotalSalaries,
		EmployeeCount:  &existing.EmployeeCount,
		Deduction10:    &existing.Deduction10,
		Deduction15:    &existing.Deduction15,
		Deduction25:    &existing.Deduction25,
		Attachments:    existing.Attachments,
	}
	if rev.TotalSalaries != nil && !rev.TotalSalaries.Equal(existing.TotalSalaries) {
		sub.TotalSalaries = rev.TotalSalaries
		sub.Deduction10, sub.Deduction15, sub.Deduction25 = nil, nil, nil
	}
	if rev.EmployeeCount != nil {
		sub.EmployeeCount = rev.EmployeeCount
	}
	if rev.Deduction10 != nil {
		sub.Deduction10 = rev.Deduction10
	}
	if rev.Deduction15 != nil {
		sub.Deduction15 = rev.Deduction15
	}
	if rev.Deduction25 != nil {
		sub.Deduction25 = rev.Deduction25
	}
	if rev.Attachments != nil {
		sub.Attachments = rev.Attachments
	}
	if err := sub.Validate(); err != nil {
		return Record{}, err
	}

	d := sub.deductions()
	updated := *existing
	updated.TotalSalaries = *sub.TotalSalaries
	updated.EmployeeCount = *sub.EmployeeCount
	updated.Deduction10 = d.D10
	updated.Deduction15 = d.D15
	updated.Deduction25 = d.D25
	updated.Attachments = sub.Attachments
	updated.SubmittedAt = r.clock.Now().UTC()

	if err := r.store.UpsertRecord(ctx, updated); err != nil {
		return Record{}, generic.WrapStore("upsert record", err)
	}
	return updated, nil
}

// Delete removes the record with id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.DeleteRecord(ctx, id); err != nil {
		if generic.IsNotFound(err) {
			return err
		}
		return generic.WrapStore("delete record", err)
	}
	return nil
}

// Get returns the record with id or generic.ErrRecordNotFound.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	rec, err := r.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, generic.WrapStore("get record", err)
	}
	if rec == nil {
		return Record{}, fmt.Errorf("%w: %s", generic.ErrRecordNotFound, id)
	}
	return *rec, nil
}

// List returns every stored record.
func (r *Repository) List(ctx context.Context) ([]Record, error) {
	recs, err := r.store.ListRecords(ctx)
	if err != nil {
		return nil, generic.WrapStore("list records", err)
	}
	return recs, nil
}

// Directory returns the reference directory the repository validates against.
func (r *Repository) Directory() *Directory { return r.directory }

// Classifier returns the funding classifier used for snapshots.
func (r *Repository) Classifier() *Classifier { return r.classifier }

// Query returns the records matching q, pushing the filter down to the
// store when it supports it.
func (r *Repository) Query(ctx context.Context, q RecordQuery) ([]Record, error) {
	if qs, ok := r.store.(Querier); ok {
		recs, err := qs.ListFiltered(ctx, q)
		if err != nil {
			return nil, generic.WrapStore("query records", err)
		}
		return recs, nil
	}
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(all))
	for _, rec := range all {
		if q.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}
