package remittance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/remittance-engine/remittance"
)

func TestClassify_MinistryRules(t *testing.T) {
	c := remittance.NewClassifier(testRules())

	assert.Equal(t, remittance.FundingCentral, c.Classify(minEducation, depEducation))
	assert.Equal(t, remittance.FundingSelf, c.Classify(minOil, depOil))
	assert.Equal(t, remittance.FundingSelf, c.Classify(minFinance, depTreasury))
}

func TestClassify_DepartmentOverridesBeatMinistry(t *testing.T) {
	c := remittance.NewClassifier(testRules())

	// GIVEN: the gas department sits in a self-funded ministry but is
	// listed as central in the first override table
	assert.Equal(t, remittance.FundingCentral, c.Classify(minOil, depGas))
	// AND: the tax branch is central through the second table
	assert.Equal(t, remittance.FundingCentral, c.Classify(minFinance, depTax))
}

func TestClassify_FirstTableWinsOverSecond(t *testing.T) {
	c := remittance.NewClassifier(remittance.FundingRules{
		DepartmentOverrides: map[string]remittance.FundingType{depTreasury: remittance.FundingSelf},
		BranchOverrides:     map[string]remittance.FundingType{depTreasury: remittance.FundingCentral},
	})
	assert.Equal(t, remittance.FundingSelf, c.Classify(minFinance, depTreasury))
}

func TestClassify_CentralWinsWhenMinistryInBothSets(t *testing.T) {
	c := remittance.NewClassifier(remittance.FundingRules{
		CentralMinistries: []string{minOil},
		SelfMinistries:    []string{minOil},
	})
	assert.Equal(t, remittance.FundingCentral, c.Classify(minOil, depOil))
}

func TestClassify_UnknownNeverFails(t *testing.T) {
	c := remittance.NewClassifier(testRules())

	assert.Equal(t, remittance.FundingUnknown, c.Classify(minIndependent, depSchool))
	assert.Equal(t, remittance.FundingUnknown, c.Classify("", ""))

	var nilClassifier *remittance.Classifier
	assert.Equal(t, remittance.FundingUnknown, nilClassifier.Classify(minOil, depOil))
}

func TestParseFundingType(t *testing.T) {
	for input, want := range map[string]remittance.FundingType{
		"central": remittance.FundingCentral,
		"مركزي":   remittance.FundingCentral,
		"self":    remittance.FundingSelf,
		"ذاتي":    remittance.FundingSelf,
		"unknown": remittance.FundingUnknown,
	} {
		got, ok := remittance.ParseFundingType(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	_, ok := remittance.ParseFundingType("federal")
	assert.False(t, ok)
}
