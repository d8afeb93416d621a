/*
handlers.go - HTTP API handlers for the shift, attendance and payroll engines

PURPOSE:
  Exposes the engines via REST. Handlers parse and validate requests, load
  what the pure engines need from the store, call them, persist the result
  and serialize the response.

ARCHITECTURE:
  Handler holds all dependencies:
  - Store:    SQLite persistence for every record
  - Payroll:  Application service for periods, runs and amendments
  - validate: Request DTO validation

REQUEST FLOW:
  1. Decode JSON and check validate tags (400 on failure)
  2. Load the records the rule needs (tenant-scoped)
  3. Apply the domain rule
  4. Persist and serialize
  5. Map errors: 404 not found, 409 conflicts, 422 rule violations

ACTOR:
  Amendments and payments record the X-Actor header as the ledger author.

SEE ALSO:
  - dto.go:        Request/response types
  - errors.go:     Error mapping
  - staffshifts.go, attendance.go, payroll.go: Remaining endpoints
*/
package api

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/warp/shiftpay/attendance"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/payroll"
	"github.com/warp/shiftpay/shift"
	"github.com/warp/shiftpay/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

type Handler struct {
	Store   *sqlite.Store
	Payroll *payroll.Service

	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

type Options struct {
	Now   func() time.Time
	NewID func() string
}

func NewHandler(store *sqlite.Store, svc *payroll.Service, log *zap.Logger, opts Options) *Handler {
	h := &Handler{
		Store:    store,
		Payroll:  svc,
		log:      log,
		validate: newValidator(),
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newID == nil {
		h.newID = uuid.NewString
	}
	return h
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func tenantOf(r *http.Request) generic.TenantID {
	return generic.TenantID(chi.URLParam(r, "tenantID"))
}

func actorOf(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}

// parseClock reads an optional "HH:mm" field; "" means unset.
func parseClock(s string) (*generic.Clock, error) {
	if s == "" {
		return nil, nil
	}
	c, err := generic.ParseClock(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// shiftCatalog loads the tenant's shifts as a lookup.
func (h *Handler) shiftCatalog(r *http.Request) (shift.Catalog, []shift.Shift, error) {
	shifts, err := h.Store.ListShifts(r.Context(), tenantOf(r))
	if err != nil {
		return nil, nil, err
	}
	return shift.NewCatalog(shifts...), shifts, nil
}

// =============================================================================
// SHIFT ENDPOINTS
// =============================================================================

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Store.ListShifts(r.Context(), tenantOf(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	dtos := make([]ShiftDTO, 0, len(shifts))
	for _, s := range shifts {
		if activeOnly && !s.IsActive {
			continue
		}
		dtos = append(dtos, toShiftDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if !h.decode(w, r, &req) {
		return
	}
	start, err := generic.ParseClock(req.StartTime)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	end, err := generic.ParseClock(req.EndTime)
	if err != nil {
		h.respond(w, r, err)
		return
	}

	now := h.now()
	s := shift.Shift{
		ID:                         shift.ID(h.newID()),
		TenantID:                   tenantOf(r),
		Name:                       strings.TrimSpace(req.Name),
		Start:                      start,
		End:                        end,
		IsActive:                   true,
		HasBreakTime:               req.HasBreakTime,
		BreakDurationMinutes:       req.BreakDurationMinutes,
		MinWorkingHours:            req.MinWorkingHours,
		MaxWorkingHours:            req.MaxWorkingHours,
		OvertimeMultiplier:         req.OvertimeMultiplier,
		LateThresholdMinutes:       req.LateThresholdMinutes,
		EarlyCheckInAllowedMinutes: req.EarlyCheckInAllowedMinutes,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	if err := s.Validate(); err != nil {
		h.respond(w, r, err)
		return
	}
	if err := h.Store.SaveShift(r.Context(), s); err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(s))
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetShift(r.Context(), tenantOf(r), shift.ID(chi.URLParam(r, "shiftID")))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(s))
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req UpdateShiftRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, err := h.Store.GetShift(r.Context(), tenantOf(r), shift.ID(chi.URLParam(r, "shiftID")))
	if err != nil {
		h.respond(w, r, err)
		return
	}

	u := shift.Update{
		Name:                       req.Name,
		IsActive:                   req.IsActive,
		HasBreakTime:               req.HasBreakTime,
		BreakDurationMinutes:       req.BreakDurationMinutes,
		MinWorkingHours:            req.MinWorkingHours,
		MaxWorkingHours:            req.MaxWorkingHours,
		OvertimeMultiplier:         req.OvertimeMultiplier,
		LateThresholdMinutes:       req.LateThresholdMinutes,
		EarlyCheckInAllowedMinutes: req.EarlyCheckInAllowedMinutes,
	}
	if req.StartTime != nil {
		if u.Start, err = parseClock(*req.StartTime); err != nil {
			h.respond(w, r, err)
			return
		}
	}
	if req.EndTime != nil {
		if u.End, err = parseClock(*req.EndTime); err != nil {
			h.respond(w, r, err)
			return
		}
	}

	next, err := s.Apply(u, h.now())
	if err != nil {
		h.respond(w, r, err)
		return
	}
	if err := h.Store.SaveShift(r.Context(), next); err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(next))
}

// RetireShift deactivates a shift. Existing assignments keep resolving it.
func (h *Handler) RetireShift(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetShift(r.Context(), tenantOf(r), shift.ID(chi.URLParam(r, "shiftID")))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	retired := s.Retire(h.now())
	if err := h.Store.SaveShift(r.Context(), retired); err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(retired))
}

// SuggestShift returns the first active shift whose window contains the
// check-in time.
func (h *Handler) SuggestShift(w http.ResponseWriter, r *http.Request) {
	var req SuggestShiftRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := parseClock(req.CheckInTime)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	out, err := parseClock(req.CheckOutTime)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	_, shifts, err := h.shiftCatalog(r)
	if err != nil {
		h.respond(w, r, err)
		return
	}

	s, ok := attendance.SuggestShift(attendance.Attendance{CheckIn: in, CheckOut: out}, shifts)
	if !ok {
		writeError(w, http.StatusNotFound, "no active shift contains the check-in time", nil)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(s))
}
