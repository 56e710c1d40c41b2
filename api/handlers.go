/*
handlers.go - HTTP API handlers for the remittance engine

PURPOSE:
  Exposes the remittance repository and reports via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the
  remittance and users packages.

ENDPOINTS:
  Auth:
    POST   /api/auth/login                 Issue a session token
    GET    /api/auth/me                    Current user

  Directory:
    GET    /api/directory                  Ministries, departments, funding
    GET    /api/directory/funding          Classify one department

  Records:
    GET    /api/records                    List stored records (filters)
    POST   /api/records                    Submit (409 unless overwrite)
    GET    /api/records/{id}               Get one record
    PUT    /api/records/{id}               Revise amounts
    DELETE /api/records/{id}               Delete

  Reports (reports.go):
    GET    /api/reports/search             Reconciliation rows + totals
    GET    /api/reports/search.csv         Same rows as CSV
    GET    /api/reports/classification     Latest-period ranking
    GET    /api/reports/unpaid             Current-period unpaid (grace aware)
    GET    /api/reports/unpaid/reminder    Reminder message
    GET    /api/reports/roster             Year roster of owed months
    GET    /api/reports/statistics         Directory and payment overview

  Users (admin):
    GET/POST /api/users, PUT/DELETE /api/users/{id}

  Scenarios (admin, scenarios.go):
    GET    /api/scenarios, POST /api/scenarios/load, POST /api/scenarios/reset

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Repo:    record persistence with validation and conflict detection
  - Engine:  directory + classifier + baseline for reports
  - Monitor: clock-driven current-period checks
  - Users, Tokens: accounts and session tokens

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing or invalid credentials
  - 403: Missing permission
  - 404: Resource not found
  - 409: Conflict (existing record, duplicate username)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Authentication and permission middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
	"github.com/warp/remittance-engine/users"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// RecordResetter clears stored records; scenarios use it.
type RecordResetter interface {
	ResetRecords(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Repo    *remittance.Repository
	Engine  *remittance.Engine
	Monitor *remittance.Monitor
	Users   *users.Service
	Tokens  *users.Tokens
	Log     *zap.Logger

	// DirectoryWarnings are lint findings from loading the directory.
	DirectoryWarnings []string

	resetter RecordResetter
	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

// Deps are the constructor inputs of a Handler.
type Deps struct {
	Repo              *remittance.Repository
	Engine            *remittance.Engine
	Monitor           *remittance.Monitor
	Users             *users.Service
	Tokens            *users.Tokens
	Log               *zap.Logger
	Resetter          RecordResetter
	DirectoryWarnings []string
}

// NewHandler creates a new handler.
func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Repo:              d.Repo,
		Engine:            d.Engine,
		Monitor:           d.Monitor,
		Users:             d.Users,
		Tokens:            d.Tokens,
		Log:               log,
		DirectoryWarnings: d.DirectoryWarnings,
		resetter:          d.Resetter,
		validate:          validator.New(),
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login verifies credentials and issues a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeDomainError(w, "Login failed", err)
		return
	}
	token, exp, err := h.Tokens.Issue(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	h.Log.Info("user logged in", zap.String("username", u.Username))
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp, User: toUserDTO(u)})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// GetDirectory returns every ministry with its departments and their
// funding classification.
func (h *Handler) GetDirectory(w http.ResponseWriter, r *http.Request) {
	dir := h.Engine.Directory
	dto := DirectoryDTO{Ministries: []MinistryDTO{}, Count: dir.Len(), Warnings: h.DirectoryWarnings}
	if dto.Warnings == nil {
		dto.Warnings = []string{}
	}
	for _, m := range dir.Ministries() {
		md := MinistryDTO{Name: m, Departments: []DepartmentDTO{}}
		for _, d := range dir.Departments(m) {
			md.Departments = append(md.Departments, DepartmentDTO{
				Name:        d.Name,
				Email:       d.Email,
				FundingType: h.Engine.Classifier.Classify(m, d.Name),
			})
		}
		dto.Ministries = append(dto.Ministries, md)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetFunding classifies one (ministry, department) pair.
// GET /api/directory/funding?ministry=&department=
func (h *Handler) GetFunding(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ministry, department := q.Get("ministry"), q.Get("department")
	if ministry == "" || department == "" {
		writeError(w, http.StatusBadRequest, "ministry and department are required", nil)
		return
	}
	ref := remittance.DepartmentRef{Ministry: ministry, Department: department}
	writeJSON(w, http.StatusOK, FundingDTO{
		Ministry:    ministry,
		Department:  department,
		FundingType: h.Engine.Classifier.Classify(ministry, department),
		Known:       h.Engine.Directory.Contains(ref),
	})
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// ListRecords returns stored records, optionally filtered by ministry,
// department, year and month.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := remittance.RecordQuery{Ministry: q.Get("ministry"), Department: q.Get("department")}
	var err error
	if query.Year, err = intParam(q.Get("year")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	if query.Month, err = intParam(q.Get("month")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	records, err := h.Repo.Query(r.Context(), query)
	if err != nil {
		h.writeDomainError(w, "Failed to list records", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GetRecord returns a single record.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Repo.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateRecord submits a record. An existing record for the same
// department and period yields 409 with the existing record, unless the
// request sets overwrite.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req SubmitRecordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	rec, err := h.Repo.Submit(r.Context(), req.toSubmission(), req.Overwrite)
	if err != nil {
		var existing *generic.ExistingRecordError
		if errors.As(err, &existing) {
			h.writeExisting(w, r.Context(), existing.ID, err)
			return
		}
		h.writeDomainError(w, "Failed to submit record", err)
		return
	}

	h.Log.Info("record submitted",
		zap.String("id", rec.ID),
		zap.String("ministry", rec.Ministry),
		zap.String("department", rec.DepartmentName),
		zap.Stringer("period", rec.Period()),
		zap.Bool("overwrite", req.Overwrite),
	)
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) writeExisting(w http.ResponseWriter, ctx context.Context, id string, cause error) {
	prev, err := h.Repo.Get(ctx, id)
	if err != nil {
		writeError(w, http.StatusConflict, "Record already exists", cause)
		return
	}
	writeJSON(w, http.StatusConflict, ExistingRecordResponse{Error: "Record already exists", Existing: prev})
}

// UpdateRecord revises an existing record's amounts.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req UpdateRecordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	rec, err := h.Repo.Revise(r.Context(), pathParam(r, "id"), req.toRevision())
	if err != nil {
		h.writeDomainError(w, "Failed to update record", err)
		return
	}
	h.Log.Info("record revised", zap.String("id", rec.ID))
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord removes a record.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete record", err)
		return
	}
	h.Log.Info("record deleted", zap.String("id", id))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// =============================================================================
// USER HANDLERS
// =============================================================================

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, len(list))
	for i, u := range list {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	perms := users.DefaultPermissions
	if req.Permissions != nil {
		perms = *req.Permissions
	}
	u, err := h.Users.Create(r.Context(), users.NewUser{
		Name:        req.Name,
		Username:    req.Username,
		Password:    req.Password,
		Permissions: perms,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create user", err)
		return
	}
	h.Log.Info("user created", zap.String("username", u.Username))
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	u, err := h.Users.Update(r.Context(), pathParam(r, "id"), users.UserUpdate{
		Name:        req.Name,
		Username:    req.Username,
		Password:    req.Password,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())
	id := pathParam(r, "id")
	if err := h.Users.Delete(r.Context(), actor.ID, id); err != nil {
		h.writeDomainError(w, "Failed to delete user", err)
		return
	}
	h.Log.Info("user deleted", zap.String("id", id), zap.String("by", actor.Username))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case generic.IsConflict(err):
		return http.StatusConflict
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, generic.ErrForbidden):
		return http.StatusForbidden
	case generic.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Log.Error(message, zap.Error(err))
	}
	resp := ErrorResponse{Error: message, Details: err.Error()}
	var ve *generic.ValidationError
	if errors.As(err, &ve) {
		resp.Fields = map[string]string{ve.Field: ve.Message}
	}
	writeJSON(w, status, resp)
}

// decodeAndValidate decodes the JSON body into dst and runs struct-tag
// validation. On failure it writes a 400 and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make(map[string]string, len(ve))
			for _, fe := range ve {
				fields[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: fields})
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// pathParam returns a decoded URL parameter. A department name with "/"
// arrives as %2F, chi then routes on RawPath and leaves the value escaped.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// intParam parses an optional integer query parameter; empty means 0.
func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return n, nil
}
