package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/shiftpay/attendance"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
)

// =============================================================================
// ATTENDANCE ENDPOINTS
// =============================================================================

// toAttendance builds a record from the request. The returned shift is the
// linked one, or nil for legacy records and unknown shift ids.
func (h *Handler) toAttendance(r *http.Request, req AttendanceRequest) (attendance.Attendance, *shift.Shift, error) {
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		return attendance.Attendance{}, nil, generic.NewRuleError(generic.ErrInvalidAttendanceData, "attendance", "", "date", err.Error())
	}
	in, err := parseClock(req.CheckInTime)
	if err != nil {
		return attendance.Attendance{}, nil, err
	}
	out, err := parseClock(req.CheckOutTime)
	if err != nil {
		return attendance.Attendance{}, nil, err
	}

	a := attendance.Attendance{
		TenantID:             tenantOf(r),
		StaffID:              generic.StaffID(req.StaffID),
		Date:                 date,
		CheckIn:              in,
		CheckOut:             out,
		ShiftID:              shift.ID(req.ShiftID),
		BreakOverrideMinutes: req.BreakOverrideMinutes,
		IsWeekend:            date.IsWeekend(),
		Notes:                req.Notes,
	}
	if req.IsWeekend != nil {
		a.IsWeekend = *req.IsWeekend
	}
	if !a.HasShift() {
		return a, nil, nil
	}

	s, err := h.Store.GetShift(r.Context(), a.TenantID, a.ShiftID)
	switch {
	case err == nil:
		return a, &s, nil
	case generic.IsNotFound(err):
		return a, nil, nil
	default:
		return attendance.Attendance{}, nil, err
	}
}

// measure recomputes TotalHours for complete records.
func measure(a attendance.Attendance, s *shift.Shift) (attendance.Attendance, *CalculationDTO, error) {
	if !a.IsComplete() {
		return a, nil, nil
	}
	result, err := attendance.Calculate(a, s)
	if err != nil {
		return a, nil, err
	}
	return attendance.WithTotals(a, result), toCalculationDTO(result), nil
}

func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, s, err := h.toAttendance(r, req)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	a.ID = attendance.ID(h.newID())
	a.CreatedAt = h.now()
	a.UpdatedAt = a.CreatedAt

	h.validateAndSave(w, r, a, s, http.StatusCreated)
}

// UpdateAttendance replaces a record's fields, keeping its id and creation
// time.
func (h *Handler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	current, err := h.Store.GetAttendance(r.Context(), tenantOf(r), attendance.ID(chi.URLParam(r, "attendanceID")))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	a, s, err := h.toAttendance(r, req)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	a.ID = current.ID
	a.CreatedAt = current.CreatedAt
	a.UpdatedAt = h.now()

	h.validateAndSave(w, r, a, s, http.StatusOK)
}

func (h *Handler) validateAndSave(w http.ResponseWriter, r *http.Request, a attendance.Attendance, s *shift.Shift, status int) {
	existing, err := h.Store.ListAttendanceByStaffDate(r.Context(), a.TenantID, a.StaffID, a.Date)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	if err := attendance.Validate(a, existing, s); err != nil {
		h.respond(w, r, err)
		return
	}
	a, calc, err := measure(a, s)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	if err := h.Store.SaveAttendance(r.Context(), a); err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, status, toAttendanceDTO(a, calc))
}

// CalculateAttendance measures a record without saving it.
func (h *Handler) CalculateAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, s, err := h.toAttendance(r, req)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	if err := attendance.Validate(a, nil, s); err != nil {
		h.respond(w, r, err)
		return
	}
	result, err := attendance.Calculate(a, s)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationDTO(result))
}

func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetAttendance(r.Context(), tenantOf(r), attendance.ID(chi.URLParam(r, "attendanceID")))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceDTO(a, nil))
}

// ListAttendance filters by ?staff_id=&date= or by ?from=&to=.
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		list []attendance.Attendance
		err  error
	)
	if q.Get("staff_id") != "" && q.Get("date") != "" {
		date, perr := generic.ParseDate(q.Get("date"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid date", perr)
			return
		}
		list, err = h.Store.ListAttendanceByStaffDate(r.Context(), tenantOf(r), generic.StaffID(q.Get("staff_id")), date)
	} else {
		rng, perr := parseRange(q.Get("from"), q.Get("to"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, "staff_id and date, or from and to, are required", perr)
			return
		}
		list, err = h.Store.ListAttendanceInRange(r.Context(), tenantOf(r), rng)
	}
	if err != nil {
		h.respond(w, r, err)
		return
	}

	dtos := make([]AttendanceDTO, 0, len(list))
	for _, a := range list {
		dtos = append(dtos, toAttendanceDTO(a, nil))
	}
	writeJSON(w, http.StatusOK, dtos)
}
