package remittance

// =============================================================================
// STATISTICS - directory and payment overview
// =============================================================================

// Statistics summarises the directory by funding type, the current
// headcount and the current period's payment status.
type Statistics struct {
	DepartmentCount int `json:"departmentCount"`
	CentralCount    int `json:"centralCount"`
	SelfCount       int `json:"selfCount"`
	UnknownCount    int `json:"unknownCount"`

	AllByMinistry     []MinistryGroup `json:"allByMinistry"`
	CentralByMinistry []MinistryGroup `json:"centralByMinistry"`
	SelfByMinistry    []MinistryGroup `json:"selfByMinistry"`

	// TotalEmployees sums the employee count of each department's most
	// recent record.
	TotalEmployees int `json:"totalEmployees"`

	// PaidCount and UnpaidCount refer to the monitor's current period.
	// During the grace period every department counts as paid.
	PaidCount   int  `json:"paidCount"`
	UnpaidCount int  `json:"unpaidCount"`
	GraceActive bool `json:"graceActive"`
}

// ComputeStatistics builds the overview.
func ComputeStatistics(records []Record, engine *Engine, monitor *Monitor) Statistics {
	var all, central, self []DepartmentRef
	var unknown int
	for _, ref := range engine.Directory.All() {
		all = append(all, ref)
		switch engine.Classifier.Classify(ref.Ministry, ref.Department) {
		case FundingCentral:
			central = append(central, ref)
		case FundingSelf:
			self = append(self, ref)
		default:
			unknown++
		}
	}

	stats := Statistics{
		DepartmentCount:   len(all),
		CentralCount:      len(central),
		SelfCount:         len(self),
		UnknownCount:      unknown,
		AllByMinistry:     GroupByMinistry(all),
		CentralByMinistry: GroupByMinistry(central),
		SelfByMinistry:    GroupByMinistry(self),
		TotalEmployees:    LatestHeadcount(records),
	}

	stats.GraceActive = monitor.InGracePeriod()
	if stats.GraceActive {
		stats.PaidCount = stats.DepartmentCount
		return stats
	}
	unpaid := UnpaidFor(records, engine.Directory, monitor.CurrentPeriod())
	stats.UnpaidCount = len(unpaid)
	stats.PaidCount = stats.DepartmentCount - stats.UnpaidCount
	return stats
}

// LatestHeadcount sums EmployeeCount over each department's latest record.
func LatestHeadcount(records []Record) int {
	latest := make(map[DepartmentRef]Record)
	for _, r := range records {
		cur, ok := latest[r.Department()]
		if !ok || r.Period().After(cur.Period()) {
			latest[r.Department()] = r
		}
	}
	total := 0
	for _, r := range latest {
		total += r.EmployeeCount
	}
	return total
}
