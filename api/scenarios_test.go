package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/remittance-engine/remittance"
)

func TestListScenarios(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/scenarios", env.adminToken(t), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []ScenarioDTO
	decode(t, rec, &list)
	assert.Len(t, list, 3)
}

func TestLoadScenario(t *testing.T) {
	tests := []struct {
		id      string
		records int
	}{
		// three departments, 12 months of 2023 and January to May of 2024
		{"steady-payers", 51},
		// three departments, months 1-3, the first department missing March
		{"late-quarter", 8},
		{"empty", 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			env := newTestEnv(t)
			token := env.adminToken(t)

			// GIVEN: a record that the scenario must wipe
			env.submit(t, token, minOil, depOil, 2020, 1, 1_000)

			// WHEN
			rec := env.do(t, http.MethodPost, "/api/scenarios/load", token, LoadScenarioRequest{ScenarioID: tt.id})

			// THEN
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var list []remittance.Record
			decode(t, env.do(t, http.MethodGet, "/api/records", token, nil), &list)
			assert.Len(t, list, tt.records)

			var current ScenarioDTO
			decode(t, env.do(t, http.MethodGet, "/api/scenarios/current", token, nil), &current)
			assert.Equal(t, tt.id, current.ID)
		})
	}
}

func TestLoadScenario_SubmissionTimesAreDistinct(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/scenarios/load", token, LoadScenarioRequest{ScenarioID: "late-quarter"})
	require.Equal(t, http.StatusOK, rec.Code)

	var c ClassificationDTO
	decode(t, env.do(t, http.MethodGet, "/api/reports/classification", token, nil), &c)
	require.True(t, c.Available)
	assert.Equal(t, 3, c.Period.Month)
	require.Len(t, c.Ranked, 2)
	assert.True(t, c.Ranked[0].Record.SubmittedAt.Before(c.Ranked[1].Record.SubmittedAt))
	assert.Equal(t, 1, c.UnpaidCount)
}

func TestLoadScenario_Unknown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/scenarios/load", env.adminToken(t), LoadScenarioRequest{ScenarioID: "nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetRecords(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/scenarios/load", token, LoadScenarioRequest{ScenarioID: "late-quarter"}).Code)

	rec := env.do(t, http.MethodPost, "/api/scenarios/reset", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []remittance.Record
	decode(t, env.do(t, http.MethodGet, "/api/records", token, nil), &list)
	assert.Empty(t, list)

	rec = env.do(t, http.MethodGet, "/api/scenarios/current", token, nil)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	// users survive a reset
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/auth/me", token, nil).Code)
}
