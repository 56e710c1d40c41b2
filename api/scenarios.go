/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the record store with
	realistic remittances relative to the server clock, so the reports have
	something to show: paid and unpaid rows, a ranking with distinct
	submission times, a roster with gaps.

AVAILABLE SCENARIOS:

	steady-payers: last year fully paid; this year paid up to last month by
	               most departments
	late-quarter:  first quarter of this year only, a third of departments
	               missing the third month
	empty:         no records (every period unpaid)

HOW SCENARIOS WORK:
 1. Reset records (users are kept)
 2. Walk the directory in order
 3. Import records with deterministic amounts and staggered submission times

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "steady-payers"}

NOTE:

	Scenarios delete every stored record. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: Handler dependencies
  - remittance/repository.go: Import
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "steady-payers",
		Name:        "Steady Payers",
		Description: "Previous year fully paid, current year paid up to last month by most departments",
	},
	{
		ID:          "late-quarter",
		Name:        "Late Quarter",
		Description: "First quarter of the current year with a third of departments missing the third month",
	},
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No records; every department is unpaid for every period",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario resets the records and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var loader func(context.Context) (int, error)
	switch req.ScenarioID {
	case "steady-payers":
		loader = h.loadSteadyPayersScenario
	case "late-quarter":
		loader = h.loadLateQuarterScenario
	case "empty":
		loader = func(context.Context) (int, error) { return 0, nil }
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.resetRecords(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset records", err)
		return
	}
	h.currentScenario = ""

	n, err := loader(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Log.Info("scenario loaded", zap.String("scenario", req.ScenarioID), zap.Int("records", n))
	writeJSON(w, http.StatusOK, map[string]any{"status": "loaded", "scenario": req.ScenarioID, "records": n})
}

// ResetRecords deletes every stored record.
func (h *Handler) ResetRecords(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.resetRecords(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset records", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) resetRecords(ctx context.Context) error {
	if h.resetter != nil {
		return h.resetter.ResetRecords(ctx)
	}
	records, err := h.Repo.List(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := h.Repo.Delete(ctx, rec.ID); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadSteadyPayersScenario: every department pays all of last year; in the
// current year all but every fifth department pay up to last month.
func (h *Handler) loadSteadyPayersScenario(ctx context.Context) (int, error) {
	now := h.Monitor.Clock.Now()
	year := now.Year()
	n := 0
	for i, ref := range h.Engine.Directory.All() {
		for m := 1; m <= 12; m++ {
			if err := h.seed(ctx, ref, i, generic.Period{Year: year - 1, Month: m}); err != nil {
				return n, err
			}
			n++
		}
		if i%5 == 4 {
			continue
		}
		for m := 1; m < int(now.Month()); m++ {
			if err := h.seed(ctx, ref, i, generic.Period{Year: year, Month: m}); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// loadLateQuarterScenario: months 1-3 of the current year, every third
// department missing month 3.
func (h *Handler) loadLateQuarterScenario(ctx context.Context) (int, error) {
	year := h.Monitor.Clock.Now().Year()
	n := 0
	for i, ref := range h.Engine.Directory.All() {
		for m := 1; m <= 3; m++ {
			if m == 3 && i%3 == 0 {
				continue
			}
			if err := h.seed(ctx, ref, i, generic.Period{Year: year, Month: m}); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// seed imports one record with deterministic amounts. Submission times
// fall in the following month, staggered by department index, so the
// classification ranking is stable.
func (h *Handler) seed(ctx context.Context, ref remittance.DepartmentRef, i int, p generic.Period) error {
	salaries := generic.NewMoney(int64(1_000_000*(i%7+1) + 250_000*p.Month))
	employees := 20 + i%30
	next := p.Next()
	at := time.Date(next.Year, time.Month(next.Month), 1+i%18, 8, 0, 0, 0, time.UTC).
		Add(time.Duration(i) * time.Minute)

	_, err := h.Repo.Import(ctx, remittance.Submission{
		Ministry:       ref.Ministry,
		DepartmentName: ref.Department,
		Year:           p.Year,
		Month:          p.Month,
		TotalSalaries:  &salaries,
		EmployeeCount:  &employees,
	}, at)
	return err
}
