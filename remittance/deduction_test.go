package remittance_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
)

func TestComputeDeductions(t *testing.T) {
	d := remittance.ComputeDeductions(generic.NewMoney(1_000_000))

	assert.True(t, d.D10.Equal(generic.NewMoney(100_000)))
	assert.True(t, d.D15.Equal(generic.NewMoney(150_000)))
	assert.True(t, d.D25.Equal(generic.NewMoney(250_000)))
}

func TestComputeDeductions_RoundsEachTier(t *testing.T) {
	d := remittance.ComputeDeductions(generic.NewMoney(1_234_567))

	assert.Equal(t, "123457", d.D10.String())
	assert.Equal(t, "185185", d.D15.String())
	assert.Equal(t, "308642", d.D25.String())
}

func validSubmission() remittance.Submission {
	return remittance.Submission{
		Ministry:       minOil,
		DepartmentName: depOil,
		Year:           2024,
		Month:          5,
		TotalSalaries:  money(2_000_000),
		EmployeeCount:  intPtr(40),
	}
}

func TestSubmission_Validate(t *testing.T) {
	require.NoError(t, validSubmission().Validate())

	tests := []struct {
		field  string
		mutate func(*remittance.Submission)
	}{
		{"ministry", func(s *remittance.Submission) { s.Ministry = " " }},
		{"departmentName", func(s *remittance.Submission) { s.DepartmentName = "" }},
		{"year", func(s *remittance.Submission) { s.Year = 0 }},
		{"month", func(s *remittance.Submission) { s.Month = 13 }},
		{"totalSalaries", func(s *remittance.Submission) { s.TotalSalaries = nil }},
		{"totalSalaries", func(s *remittance.Submission) { s.TotalSalaries = money(-1) }},
		{"employeeCount", func(s *remittance.Submission) { s.EmployeeCount = nil }},
		{"employeeCount", func(s *remittance.Submission) { s.EmployeeCount = intPtr(-3) }},
		{"deduction15", func(s *remittance.Submission) { s.Deduction15 = money(-10) }},
		{"attachments", func(s *remittance.Submission) {
			s.Attachments = []remittance.Attachment{{Type: "application/pdf", Data: "AA=="}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			s := validSubmission()
			tt.mutate(&s)

			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrInvalidRecord)

			var ve *generic.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSubmission_ZeroSalariesAllowed(t *testing.T) {
	s := validSubmission()
	s.TotalSalaries = money(0)
	s.EmployeeCount = intPtr(0)
	assert.NoError(t, s.Validate())
}
