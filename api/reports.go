package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
)

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// parseFilter reads the reconciliation filter from query parameters:
// ministry, department, fundingType (central|self|unknown|all or the
// Arabic labels), year, month, status (all|paid|unpaid).
func parseFilter(q url.Values) (remittance.Filter, error) {
	f := remittance.Filter{
		Ministry:   q.Get("ministry"),
		Department: q.Get("department"),
		Status:     remittance.StatusAll,
	}

	switch raw := q.Get("fundingType"); raw {
	case "", "all":
	default:
		ft, ok := remittance.ParseFundingType(raw)
		if !ok {
			return f, fmt.Errorf("%w: fundingType %q", generic.ErrInvalidRecord, raw)
		}
		f.FundingType = &ft
	}

	var err error
	if f.Year, err = intParam(q.Get("year")); err != nil {
		return f, fmt.Errorf("%w: year %v", generic.ErrInvalidPeriod, err)
	}
	if f.Month, err = intParam(q.Get("month")); err != nil {
		return f, fmt.Errorf("%w: month %v", generic.ErrInvalidPeriod, err)
	}
	switch {
	case f.Year != 0 && f.Month != 0:
		if _, err := generic.NewPeriod(f.Year, f.Month); err != nil {
			return f, err
		}
	case f.Month < 0 || f.Month > 12 || f.Year < 0:
		return f, fmt.Errorf("%w: %d-%d", generic.ErrInvalidPeriod, f.Year, f.Month)
	}

	switch s := remittance.PaymentStatus(q.Get("status")); s {
	case "", remittance.StatusAll:
	case remittance.StatusPaid, remittance.StatusUnpaid:
		f.Status = s
	default:
		return f, fmt.Errorf("%w: status %q", generic.ErrInvalidRecord, s)
	}
	return f, nil
}

func (h *Handler) search(r *http.Request) ([]remittance.SearchResult, remittance.Totals, []int, error) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		return nil, remittance.Totals{}, nil, err
	}
	records, err := h.Repo.List(r.Context())
	if err != nil {
		return nil, remittance.Totals{}, nil, err
	}
	rows := h.Engine.Reconcile(records, f)
	return rows, remittance.Aggregate(rows), h.Engine.ScanYears(records, f), nil
}

// Search returns the reconciliation rows with their totals.
// GET /api/reports/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	rows, totals, years, err := h.search(r)
	if err != nil {
		h.writeDomainError(w, "Search failed", err)
		return
	}
	resp := SearchResponse{
		Rows:    make([]SearchRowDTO, len(rows)),
		Totals:  totals,
		Display: toTotalsDisplayDTO(totals),
		Years:   years,
	}
	for i, row := range rows {
		resp.Rows[i] = toSearchRowDTO(row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportSearchCSV streams the same rows as Search as a CSV download.
// GET /api/reports/search.csv
func (h *Handler) ExportSearchCSV(w http.ResponseWriter, r *http.Request) {
	rows, totals, _, err := h.search(r)
	if err != nil {
		h.writeDomainError(w, "Export failed", err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "No data to export", nil)
		return
	}

	name := fmt.Sprintf("report_%s.csv", h.Monitor.Clock.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if err := WriteSearchCSV(w, rows, totals); err != nil {
		h.Log.Error("csv export interrupted", zap.Error(err))
	}
}

// GetClassification returns the latest-period ranking.
// GET /api/reports/classification
func (h *Handler) GetClassification(w http.ResponseWriter, r *http.Request) {
	records, err := h.Repo.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load records", err)
		return
	}
	writeJSON(w, http.StatusOK, toClassificationDTO(remittance.ClassifyLatestPeriod(records, h.Engine.Directory)))
}

// GetUnpaid returns the current period's unpaid departments.
// GET /api/reports/unpaid
func (h *Handler) GetUnpaid(w http.ResponseWriter, r *http.Request) {
	records, err := h.Repo.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load records", err)
		return
	}
	writeJSON(w, http.StatusOK, toUnpaidReportDTO(h.Monitor.Unpaid(records)))
}

// GetReminder composes the reminder for the current unpaid departments.
// GET /api/reports/unpaid/reminder
func (h *Handler) GetReminder(w http.ResponseWriter, r *http.Request) {
	records, err := h.Repo.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load records", err)
		return
	}
	rem, err := remittance.BuildReminder(h.Monitor.Unpaid(records))
	if err != nil {
		if errors.Is(err, generic.ErrNoRecipients) {
			writeError(w, http.StatusUnprocessableEntity, "No unpaid department has an email address", err)
			return
		}
		h.writeDomainError(w, "Failed to build reminder", err)
		return
	}
	writeJSON(w, http.StatusOK, ReminderDTO{
		Period:  rem.Period,
		Bcc:     rem.Bcc,
		Subject: rem.Subject,
		Body:    rem.Body,
		Mailto:  rem.MailtoURL(),
	})
}

// GetRoster returns the months each department still owes for a year.
// GET /api/reports/roster?year=2024 (defaults to the current year)
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	if year == 0 {
		year = h.Monitor.CurrentPeriod().Year
	}
	// the roster starts in January, so that period must be valid
	if _, err := generic.NewPeriod(year, 1); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	records, err := h.Repo.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load records", err)
		return
	}
	writeJSON(w, http.StatusOK, toRosterDTO(year, remittance.UnpaidRosterForYear(records, h.Engine.Directory, year)))
}

// GetStatistics returns the directory and payment overview.
// GET /api/reports/statistics
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	records, err := h.Repo.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load records", err)
		return
	}
	writeJSON(w, http.StatusOK, remittance.ComputeStatistics(records, h.Engine, h.Monitor))
}
