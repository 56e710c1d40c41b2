package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
	"github.com/warp/remittance-engine/store/sqlite"
	"github.com/warp/remittance-engine/users"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const (
	minOil       = "وزارة النفط"
	minEducation = "وزارة التربية"

	depOil       = "شركة نفط البصرة"
	depGas       = "شركة غاز البصرة"
	depEducation = "مديرية تربية البصرة"
)

type testEnv struct {
	router  http.Handler
	handler *Handler
	clock   *generic.FixedClock
	store   *sqlite.Store
}

func testMinistries() []remittance.Ministry {
	return []remittance.Ministry{
		{Name: minOil, Departments: []remittance.Department{
			{Name: depOil, Email: "oil@basra.example"},
			{Name: depGas},
		}},
		{Name: minEducation, Departments: []remittance.Department{
			{Name: depEducation, Email: "edu@basra.example"},
		}},
	}
}

// newTestEnv wires the full router over an in-memory database. The clock
// starts on 25 June 2024, after the grace period of the month.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvFor(t, testMinistries())
}

// newTestEnvFor is newTestEnv over a custom directory.
func newTestEnvFor(t *testing.T, ministries []remittance.Ministry) *testEnv {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	dir := remittance.MustDirectory(ministries)
	classifier := remittance.NewClassifier(remittance.FundingRules{
		CentralMinistries: []string{minEducation},
		SelfMinistries:    []string{minOil},
	})
	clock := generic.NewFixedClock(time.Date(2024, time.June, 25, 10, 0, 0, 0, time.UTC))

	svc := users.NewService(store)
	_, err = svc.Bootstrap(context.Background())
	require.NoError(t, err)

	h := NewHandler(Deps{
		Repo:     remittance.NewRepository(store, dir, classifier, clock),
		Engine:   remittance.NewEngine(dir, classifier, generic.BaselineYears{From: 2024, To: 2024}),
		Monitor:  remittance.NewMonitor(dir, clock, 20),
		Users:    svc,
		Tokens:   users.NewTokens("test-secret", time.Hour, clock),
		Log:      zap.NewNop(),
		Resetter: store,
	})
	return &testEnv{
		router:  NewRouter(h, RouterOptions{CORSOrigins: []string{"*"}}),
		handler: h,
		clock:   clock,
		store:   store,
	}
}

// do sends a request through the router. body is JSON-encoded unless nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// login returns a session token for username.
func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	decode(t, rec, &resp)
	return resp.Token
}

func (e *testEnv) adminToken(t *testing.T) string {
	return e.login(t, users.DefaultAdminUsername, users.DefaultAdminPassword)
}

// submit posts a record for department and period and expects 201.
func (e *testEnv) submit(t *testing.T, token, ministry, department string, year, month int, salaries int64) remittance.Record {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/records", token, recordBody(ministry, department, year, month, salaries))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out remittance.Record
	decode(t, rec, &out)
	return out
}

func recordBody(ministry, department string, year, month int, salaries int64) map[string]any {
	return map[string]any{
		"ministry":       ministry,
		"departmentName": department,
		"year":           year,
		"month":          month,
		"totalSalaries":  salaries,
		"employeeCount":  40,
	}
}

func recordPath(id string) string {
	return "/api/records/" + url.PathEscape(id)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
