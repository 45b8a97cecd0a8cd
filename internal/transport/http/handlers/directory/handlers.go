package directoryhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"empdir/internal/domain/audit"
	"empdir/internal/domain/auth"
	"empdir/internal/domain/directory"
	"empdir/internal/platform/logger"
	"empdir/internal/transport/http/api"
	"empdir/internal/transport/http/middleware"
	"empdir/internal/transport/http/shared"
)

const (
	msgEmployeeAdded   = "Employee added successfully"
	msgEmployeeDeleted = "Employee deleted successfully"
)

type Handler struct {
	Service *directory.Service
	Audit   *audit.Recorder
	// RequireWrite gates mutating routes behind the directory.write scope.
	RequireWrite bool
}

func NewHandler(service *directory.Service, recorder *audit.Recorder, requireWrite bool) *Handler {
	return &Handler{Service: service, Audit: recorder, RequireWrite: requireWrite}
}

type employeePayload struct {
	EmployeeName string `json:"employeeName" validate:"required,max=200"`
	PhoneNumber  string `json:"phoneNumber" validate:"required,max=64"`
	Email        string `json:"email" validate:"required,max=320"`
	ReportsTo    string `json:"reportsTo" validate:"max=128"`
	ProfileImage string `json:"profileImage"`
}

func (p employeePayload) request() directory.EmployeeRequest {
	return directory.EmployeeRequest{
		EmployeeName: p.EmployeeName,
		PhoneNumber:  p.PhoneNumber,
		Email:        p.Email,
		ReportsTo:    p.ReportsTo,
		ProfileImage: p.ProfileImage,
	}
}

type managerPayload struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Level      *int   `json:"level" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	write := middleware.RequireScope(auth.ScopeDirectoryWrite, h.RequireWrite)

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleListEmployees)
		r.With(write).Post("/", h.handleAddEmployee)
		r.Get("/paginated", h.handlePaginated)
		r.Get("/export.pdf", h.handleExportRoster)
		r.Post("/manager", h.handleNthLevelManager)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGetEmployee)
			r.Get("/reports", h.handleDirectReports)
			r.With(write).Put("/", h.handleUpdateEmployee)
			r.With(write).Delete("/", h.handleDeleteEmployee)
		})
	})
}

func (h *Handler) handleAddEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	id, err := h.Service.AddEmployee(r.Context(), payload.request())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionEmployeeCreate, id, payload)
	api.Created(w, map[string]string{"id": id, "message": msgEmployeeAdded}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.GetAllEmployees(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDirectReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Service.DirectReports(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, reports, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	emp, err := h.Service.UpdateEmployee(r.Context(), chi.URLParam(r, "employeeID"), payload.request())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionEmployeeUpdate, emp.ID, emp)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.DeleteEmployee(r.Context(), employeeID); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionEmployeeDelete, employeeID, nil)
	api.Success(w, map[string]string{"message": msgEmployeeDeleted}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleNthLevelManager(w http.ResponseWriter, r *http.Request) {
	var payload managerPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	manager, err := h.Service.GetNthLevelManager(r.Context(), payload.EmployeeID, *payload.Level)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, manager, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePaginated(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	req := shared.ParsePageRequest(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page, err := h.Service.GetEmployeesWithPagination(r.Context(), req.Page, req.Size, req.SortBy, req.SortDirection)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, page, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportRoster(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Service.ExportRoster(r.Context(), &buf); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=employee-roster.pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("roster write failed")
	}
}

func (h *Handler) record(r *http.Request, action, employeeID string, after any) {
	actor := "anonymous"
	if client, ok := middleware.GetClient(r.Context()); ok {
		actor = client.ClientID
	}
	h.Audit.Record(r.Context(), audit.Event{
		ActorID:    actor,
		Action:     action,
		EntityType: "employee",
		EntityID:   employeeID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		After:      after,
	})
}

// decodeJSON decodes and validates the body into dst, writing a 400 or 413
// response and returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	requestID := middleware.GetRequestID(r.Context())
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return false
	}
	v := shared.NewValidator()
	v.Struct(dst)
	return !v.Reject(w, requestID)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, directory.ErrInvalidArgument):
		api.Fail(w, http.StatusBadRequest, "invalid_argument", err.Error(), requestID)
	case errors.Is(err, directory.ErrStoreConflict):
		api.Fail(w, http.StatusConflict, "conflict", "the employee was modified concurrently, retry the request", requestID)
	case errors.Is(err, directory.ErrStoreUnavailable):
		logger.FromContext(r.Context()).Error().Err(err).Msg("store unavailable")
		api.Fail(w, http.StatusServiceUnavailable, "store_unavailable", "employee store is unavailable", requestID)
	default:
		logger.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("directory request failed")
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
