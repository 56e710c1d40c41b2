package remittance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/remittance-engine/remittance"
)

func TestDirectory_Lookup(t *testing.T) {
	dir := testDirectory()

	assert.Equal(t, 7, dir.Len())
	dep, ok := dir.Lookup(ref(minEducation, depEducation))
	require.True(t, ok)
	assert.Equal(t, "edu@basra.example", dep.Email)

	assert.True(t, dir.Contains(ref(minIndependent, depSchool)))
	assert.False(t, dir.Contains(ref(minOil, depSchool)), "department identity includes the ministry")
}

func TestDirectory_MinistriesInCollationOrder(t *testing.T) {
	assert.Equal(t, []string{minIndependent, minEducation, minFinance, minOil}, testDirectory().Ministries())
}

func TestDirectory_AllKeepsSourceOrder(t *testing.T) {
	all := testDirectory().All()
	require.Len(t, all, 7)
	assert.Equal(t, ref(minEducation, depEducation), all[0])
	assert.Equal(t, ref(minIndependent, depSchool), all[6])
}

func TestDirectory_AmbiguousNames(t *testing.T) {
	assert.Equal(t, []string{depSchool}, testDirectory().AmbiguousNames())
}

func TestNewDirectory_RejectsDuplicates(t *testing.T) {
	_, err := remittance.NewDirectory([]remittance.Ministry{
		{Name: minOil, Departments: []remittance.Department{{Name: depOil}, {Name: depOil}}},
	})
	assert.Error(t, err)

	_, err = remittance.NewDirectory([]remittance.Ministry{
		{Name: minOil}, {Name: minOil},
	})
	assert.Error(t, err)

	_, err = remittance.NewDirectory([]remittance.Ministry{
		{Name: minOil, Departments: []remittance.Department{{Name: ""}}},
	})
	assert.Error(t, err)
}
