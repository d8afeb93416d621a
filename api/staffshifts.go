package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
	"github.com/warp/shiftpay/staffshift"
)

// =============================================================================
// STAFF SHIFT ENDPOINTS
// =============================================================================

func (h *Handler) assigner(catalog shift.Lookup) staffshift.Assigner {
	return staffshift.Assigner{
		Shifts: catalog,
		Now:    h.now,
		NewID:  func() staffshift.ID { return staffshift.ID(h.newID()) },
	}
}

func (h *Handler) toRequest(r *http.Request, req AssignShiftRequest) (staffshift.Request, error) {
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		return staffshift.Request{}, err
	}
	return staffshift.Request{
		TenantID: tenantOf(r),
		StaffID:  generic.StaffID(req.StaffID),
		ShiftID:  shift.ID(req.ShiftID),
		Date:     date,
		Notes:    req.Notes,
	}, nil
}

// ListAssignments filters by ?staff_id=&date= or by ?from=&to=.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		list []staffshift.Assignment
		err  error
	)
	switch {
	case q.Get("staff_id") != "" && q.Get("date") != "":
		date, perr := generic.ParseDate(q.Get("date"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid date", perr)
			return
		}
		list, err = h.Store.ListAssignmentsByStaffDate(r.Context(), tenantOf(r), generic.StaffID(q.Get("staff_id")), date)
	default:
		rng, perr := parseRange(q.Get("from"), q.Get("to"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, "staff_id and date, or from and to, are required", perr)
			return
		}
		list, err = h.Store.ListAssignmentsInRange(r.Context(), tenantOf(r), rng)
	}
	if err != nil {
		h.respond(w, r, err)
		return
	}

	dtos := make([]AssignmentDTO, 0, len(list))
	for _, a := range list {
		dtos = append(dtos, toAssignmentDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetAssignment(r.Context(), tenantOf(r), staffshift.ID(chi.URLParam(r, "assignmentID")))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(a))
}

func (h *Handler) AssignShift(w http.ResponseWriter, r *http.Request) {
	var body AssignShiftRequest
	if !h.decode(w, r, &body) {
		return
	}
	req, err := h.toRequest(r, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}

	catalog, _, err := h.shiftCatalog(r)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	existing, err := h.Store.ListAssignmentsByStaffDate(r.Context(), req.TenantID, req.StaffID, req.Date)
	if err != nil {
		h.respond(w, r, err)
		return
	}

	a, err := h.assigner(catalog).Assign(req, existing)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	if err := h.Store.SaveAssignment(r.Context(), a); err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(a))
}

// AssignShiftsBulk assigns each item independently. Failed items are
// reported next to the successful ones; they never abort the batch.
func (h *Handler) AssignShiftsBulk(w http.ResponseWriter, r *http.Request) {
	var body BulkAssignRequest
	if !h.decode(w, r, &body) {
		return
	}

	reqs := make([]staffshift.Request, 0, len(body.Items))
	dates := make([]generic.Date, 0, len(body.Items))
	for _, item := range body.Items {
		req, err := h.toRequest(r, item)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date", err)
			return
		}
		reqs = append(reqs, req)
		dates = append(dates, req.Date)
	}

	catalog, _, err := h.shiftCatalog(r)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	existing, err := h.Store.ListAssignmentsOnDates(r.Context(), tenantOf(r), dates)
	if err != nil {
		h.respond(w, r, err)
		return
	}

	result := h.assigner(catalog).AssignBulk(reqs, existing)
	assigned := result.Assigned()
	if err := h.Store.SaveAssignments(r.Context(), assigned); err != nil {
		h.respond(w, r, err)
		return
	}

	resp := BulkAssignResponse{
		Assigned: make([]AssignmentDTO, 0, len(assigned)),
		Failures: make([]BulkFailureDTO, 0),
	}
	for _, a := range assigned {
		resp.Assigned = append(resp.Assigned, toAssignmentDTO(a))
	}
	for _, f := range result.Failures() {
		resp.Failures = append(resp.Failures, BulkFailureDTO{
			Index:   f.Index,
			StaffID: string(f.Request.StaffID),
			ShiftID: string(f.Request.ShiftID),
			Date:    f.Request.Date.String(),
			Error:   f.Err.Error(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var body CheckInRequest
	if !h.decode(w, r, &body) {
		return
	}
	at, err := generic.ParseClock(body.Time)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	a, err := h.Store.GetAssignment(r.Context(), tenantOf(r), staffshift.ID(chi.URLParam(r, "assignmentID")))
	if err != nil {
		h.respond(w, r, err)
		return
	}

	next, err := staffshift.CheckIn(a, at)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	h.saveAssignment(w, r, next)
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var body CheckOutRequest
	if !h.decode(w, r, &body) {
		return
	}
	at, err := generic.ParseClock(body.Time)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	a, s, err := h.loadAssignment(r)
	if err != nil {
		h.respond(w, r, err)
		return
	}

	next, err := staffshift.CheckOut(a, s, at, body.ActualBreakMinutes)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	h.saveAssignment(w, r, next)
}

func (h *Handler) CorrectAssignment(w http.ResponseWriter, r *http.Request) {
	var body CorrectAssignmentRequest
	if !h.decode(w, r, &body) {
		return
	}
	in, err := generic.ParseClock(body.CheckInTime)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	out, err := generic.ParseClock(body.CheckOutTime)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	a, s, err := h.loadAssignment(r)
	if err != nil {
		h.respond(w, r, err)
		return
	}

	next, err := staffshift.Correct(a, s, in, out, body.ActualBreakMinutes)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	h.saveAssignment(w, r, next)
}

// loadAssignment returns the path's assignment with its shift.
func (h *Handler) loadAssignment(r *http.Request) (staffshift.Assignment, shift.Shift, error) {
	a, err := h.Store.GetAssignment(r.Context(), tenantOf(r), staffshift.ID(chi.URLParam(r, "assignmentID")))
	if err != nil {
		return staffshift.Assignment{}, shift.Shift{}, err
	}
	s, err := h.Store.GetShift(r.Context(), a.TenantID, a.ShiftID)
	if err != nil {
		return staffshift.Assignment{}, shift.Shift{}, err
	}
	return a, s, nil
}

func (h *Handler) saveAssignment(w http.ResponseWriter, r *http.Request, a staffshift.Assignment) {
	a.UpdatedAt = h.now()
	if err := h.Store.SaveAssignment(r.Context(), a); err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(a))
}

func parseRange(from, to string) (generic.DateRange, error) {
	start, err := generic.ParseDate(from)
	if err != nil {
		return generic.DateRange{}, err
	}
	end, err := generic.ParseDate(to)
	if err != nil {
		return generic.DateRange{}, err
	}
	return generic.DateRange{Start: start, End: end}, nil
}
