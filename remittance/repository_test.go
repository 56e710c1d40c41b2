package remittance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
	"github.com/warp/remittance-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRepository(t *testing.T) (*remittance.Repository, *memory.Memory, *generic.FixedClock) {
	t.Helper()
	store := memory.NewMemory()
	clock := generic.NewFixedClock(time.Date(2024, time.June, 2, 9, 30, 0, 0, time.UTC))
	repo := remittance.NewRepository(store, testDirectory(), remittance.NewClassifier(testRules()), clock)
	return repo, store, clock
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_DerivesDeductionsAndSnapshotsFunding(t *testing.T) {
	repo, _, clock := newTestRepository(t)
	ctx := context.Background()

	// GIVEN: a submission for the gas department (central by override)
	sub := remittance.Submission{
		Ministry:       minOil,
		DepartmentName: depGas,
		Year:           2024,
		Month:          5,
		TotalSalaries:  money(2_000_000),
		EmployeeCount:  intPtr(12),
	}

	// WHEN: it is submitted
	r, err := repo.Submit(ctx, sub, false)
	require.NoError(t, err)

	// THEN: id, funding, deductions and timestamp are filled in
	assert.Equal(t, remittance.RecordID(minOil, depGas, 2024, 5), r.ID)
	assert.Equal(t, remittance.FundingCentral, r.FundingType)
	assert.True(t, r.Deduction10.Equal(generic.NewMoney(200_000)))
	assert.True(t, r.Deduction15.Equal(generic.NewMoney(300_000)))
	assert.True(t, r.Deduction25.Equal(generic.NewMoney(500_000)))
	assert.Equal(t, clock.Now(), r.SubmittedAt)

	stored, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, stored.ID)
}

func TestSubmit_ManualDeductionOverride(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	sub := validSubmission()
	sub.Deduction15 = money(123)

	r, err := repo.Submit(context.Background(), sub, false)
	require.NoError(t, err)
	assert.True(t, r.Deduction15.Equal(generic.NewMoney(123)))
	assert.True(t, r.Deduction10.Equal(generic.NewMoney(200_000)))
}

func TestSubmit_ExistingRecordNotOverwritten(t *testing.T) {
	repo, _, clock := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.Submit(ctx, validSubmission(), false)
	require.NoError(t, err)

	// WHEN: the same department and period is submitted again
	clock.Advance(time.Hour)
	again := validSubmission()
	again.TotalSalaries = money(9_999)
	_, err = repo.Submit(ctx, again, false)

	// THEN: the caller learns the existing id and nothing changes
	require.Error(t, err)
	assert.True(t, generic.IsConflict(err))
	var existing *generic.ExistingRecordError
	require.True(t, errors.As(err, &existing))
	assert.Equal(t, first.ID, existing.ID)

	stored, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalSalaries.Equal(generic.NewMoney(2_000_000)))
	assert.Equal(t, first.SubmittedAt, stored.SubmittedAt)
}

func TestSubmit_OverwriteReplacesRecord(t *testing.T) {
	repo, _, clock := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.Submit(ctx, validSubmission(), false)
	require.NoError(t, err)

	later := clock.Advance(2 * time.Hour)
	again := validSubmission()
	again.TotalSalaries = money(3_000_000)
	r, err := repo.Submit(ctx, again, true)
	require.NoError(t, err)

	assert.Equal(t, first.ID, r.ID)
	assert.Equal(t, later, r.SubmittedAt)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Deduction25.Equal(generic.NewMoney(750_000)))
}

func TestSubmit_UnknownDepartment(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	sub := validSubmission()
	sub.Ministry = minFinance // oil department is not in finance

	_, err := repo.Submit(context.Background(), sub, false)
	assert.ErrorIs(t, err, generic.ErrUnknownDepartment)
	assert.True(t, generic.IsClientError(err))
}

func TestSubmit_InvalidSubmissionNotStored(t *testing.T) {
	repo, store, _ := newTestRepository(t)
	ctx := context.Background()

	sub := validSubmission()
	sub.EmployeeCount = nil
	_, err := repo.Submit(ctx, sub, false)
	assert.ErrorIs(t, err, generic.ErrInvalidRecord)

	recs, err := store.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestImport_KeepsSubmissionTime(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()
	at := time.Date(2024, time.June, 1, 7, 0, 0, 0, time.FixedZone("AST", 3*3600))

	r, err := repo.Import(ctx, validSubmission(), at)
	require.NoError(t, err)
	assert.True(t, r.SubmittedAt.Equal(at))
	assert.Equal(t, time.UTC, r.SubmittedAt.Location())

	// Import always overwrites
	_, err = repo.Import(ctx, validSubmission(), at.Add(time.Minute))
	assert.NoError(t, err)
}

// =============================================================================
// REVISE / DELETE
// =============================================================================

func TestRevise_RecomputesDeductionsFromNewSalaries(t *testing.T) {
	repo, _, clock := newTestRepository(t)
	ctx := context.Background()

	sub := validSubmission()
	sub.Deduction10 = money(1)
	first, err := repo.Submit(ctx, sub, false)
	require.NoError(t, err)

	later := clock.Advance(24 * time.Hour)
	r, err := repo.Revise(ctx, first.ID, remittance.Revision{
		TotalSalaries: money(4_000_000),
		Deduction25:   money(7),
	})
	require.NoError(t, err)

	assert.True(t, r.TotalSalaries.Equal(generic.NewMoney(4_000_000)))
	assert.True(t, r.Deduction10.Equal(generic.NewMoney(400_000)), "manual value dropped when salaries change")
	assert.True(t, r.Deduction15.Equal(generic.NewMoney(600_000)))
	assert.True(t, r.Deduction25.Equal(generic.NewMoney(7)))
	assert.Equal(t, later, r.SubmittedAt)
	assert.Equal(t, first.FundingType, r.FundingType)
}

func TestRevise_KeepsManualDeductionsWhenSalariesUnchanged(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	sub := validSubmission()
	sub.Deduction10 = money(1)
	first, err := repo.Submit(ctx, sub, false)
	require.NoError(t, err)

	r, err := repo.Revise(ctx, first.ID, remittance.Revision{EmployeeCount: intPtr(41)})
	require.NoError(t, err)
	assert.Equal(t, 41, r.EmployeeCount)
	assert.True(t, r.Deduction10.Equal(generic.NewMoney(1)))
}

func TestRevise_NotFound(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	_, err := repo.Revise(context.Background(), "missing", remittance.Revision{})
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
}

func TestDelete(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	r, err := repo.Submit(ctx, validSubmission(), false)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, r.ID))
	_, err = repo.Get(ctx, r.ID)
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, r.ID), generic.ErrRecordNotFound)
}

// =============================================================================
// QUERY
// =============================================================================

func TestQuery_FiltersInMemory(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	for _, s := range []remittance.Submission{
		{Ministry: minOil, DepartmentName: depOil, Year: 2024, Month: 1, TotalSalaries: money(1), EmployeeCount: intPtr(1)},
		{Ministry: minOil, DepartmentName: depOil, Year: 2024, Month: 2, TotalSalaries: money(1), EmployeeCount: intPtr(1)},
		{Ministry: minOil, DepartmentName: depGas, Year: 2024, Month: 2, TotalSalaries: money(1), EmployeeCount: intPtr(1)},
		{Ministry: minFinance, DepartmentName: depTax, Year: 2023, Month: 2, TotalSalaries: money(1), EmployeeCount: intPtr(1)},
	} {
		_, err := repo.Submit(ctx, s, false)
		require.NoError(t, err)
	}

	got, err := repo.Query(ctx, remittance.RecordQuery{Ministry: minOil})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = repo.Query(ctx, remittance.RecordQuery{Year: 2024, Month: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.Query(ctx, remittance.RecordQuery{})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestRecordQuery_Matches(t *testing.T) {
	r := rec(minOil, depOil, 2024, 3, 1, 1)

	assert.True(t, remittance.RecordQuery{}.Matches(r))
	assert.True(t, remittance.RecordQuery{Ministry: minOil, Month: 3}.Matches(r))
	assert.False(t, remittance.RecordQuery{Department: depGas}.Matches(r))
	assert.False(t, remittance.RecordQuery{Year: 2023}.Matches(r))
}
