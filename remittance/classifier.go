package remittance

// =============================================================================
// FUNDING CLASSIFIER
// =============================================================================

// FundingRules is the data behind the classifier. The two department
// tables are checked in order before the ministry sets; a department
// appearing in the first table wins over the second.
type FundingRules struct {
	// DepartmentOverrides are departments whose funding contradicts their
	// ministry's general rule.
	DepartmentOverrides map[string]FundingType
	// BranchOverrides are department-exact rules added later (tax branches,
	// treasury, customs, state real estate).
	BranchOverrides map[string]FundingType
	// CentralMinistries are funded from the central budget.
	CentralMinistries []string
	// SelfMinistries fund themselves.
	SelfMinistries []string
}

// Classifier maps (ministry, department) to a FundingType. It is a pure
// function of its rules; no record data influences it.
type Classifier struct {
	departments []map[string]FundingType
	ministries  map[string]FundingType
}

// NewClassifier indexes the rules. When a ministry appears in both sets
// the central set wins, matching the lookup order.
func NewClassifier(rules FundingRules) *Classifier {
	c := &Classifier{ministries: make(map[string]FundingType)}
	for _, tier := range []map[string]FundingType{rules.DepartmentOverrides, rules.BranchOverrides} {
		t := make(map[string]FundingType, len(tier))
		for k, v := range tier {
			t[k] = v
		}
		c.departments = append(c.departments, t)
	}
	for _, m := range rules.SelfMinistries {
		c.ministries[m] = FundingSelf
	}
	for _, m := range rules.CentralMinistries {
		c.ministries[m] = FundingCentral
	}
	return c
}

// Classify never fails; unmatched input yields FundingUnknown.
func (c *Classifier) Classify(ministry, department string) FundingType {
	if c == nil {
		return FundingUnknown
	}
	for _, tier := range c.departments {
		if ft, ok := tier[department]; ok {
			return ft
		}
	}
	if ft, ok := c.ministries[ministry]; ok {
		return ft
	}
	return FundingUnknown
}
