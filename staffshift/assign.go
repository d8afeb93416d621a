package staffshift

import (
	"time"

	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
)

// =============================================================================
// ASSIGNER - Creates assignments
// =============================================================================

// Request asks for one staff member to work one shift on one day.
type Request struct {
	ID       ID
	TenantID generic.TenantID
	StaffID  generic.StaffID
	ShiftID  shift.ID
	Date     generic.Date
	Notes    string
}

// Assigner validates and creates assignments. Now drives the "not in the
// past" rule; NewID fills in requests without an ID.
type Assigner struct {
	Shifts shift.Lookup
	Now    func() time.Time
	NewID  func() ID
}

// Assign creates an Unstarted assignment. existing holds the staff's other
// assignments; only those on the same date are checked for overlap.
func (as Assigner) Assign(req Request, existing []Assignment) (Assignment, error) {
	if req.ID == "" && as.NewID != nil {
		req.ID = as.NewID()
	}
	id := string(req.ID)

	if req.StaffID == "" {
		return Assignment{}, generic.NewRuleError(generic.ErrInvalidAttendanceData, "staff_shift", id, "staff_id", "is required")
	}
	if req.Date.IsZero() {
		return Assignment{}, generic.NewRuleError(generic.ErrInvalidAttendanceData, "staff_shift", id, "date", "is required")
	}

	s, ok := as.Shifts.Shift(req.ShiftID)
	if !ok {
		return Assignment{}, generic.NewRuleError(generic.ErrNotFound, "shift", string(req.ShiftID), "shift_id", "does not exist")
	}
	if !s.IsActive {
		return Assignment{}, generic.NewRuleError(generic.ErrInvalidShiftConfig, "shift", string(s.ID), "is_active", "inactive shifts cannot be assigned")
	}

	now := as.now()
	today := generic.DateOf(now)
	if req.Date.Before(today) {
		return Assignment{}, generic.NewRuleError(generic.ErrInvalidAttendanceData, "staff_shift", id, "date", "must not be in the past").
			WithBounds(req.Date.String(), today.String())
	}

	for _, other := range existing {
		if (req.ID != "" && other.ID == req.ID) || other.StaffID != req.StaffID || !other.Date.Equal(req.Date) {
			continue
		}
		otherShift, ok := as.Shifts.Shift(other.ShiftID)
		if !ok {
			return Assignment{}, generic.NewRuleError(generic.ErrNotFound, "shift", string(other.ShiftID), "shift_id", "existing assignment references a missing shift")
		}
		if shift.Overlaps(s, otherShift) {
			return Assignment{}, generic.NewRuleError(generic.ErrOverlappingAssignment, "staff_shift", id, "shift_id",
				"overlaps "+otherShift.Start.String()+"-"+otherShift.End.String()).
				WithBounds(string(s.ID), string(other.ID))
		}
	}

	return Assignment{
		ID:        req.ID,
		TenantID:  req.TenantID,
		StaffID:   req.StaffID,
		ShiftID:   req.ShiftID,
		Date:      req.Date,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (as Assigner) now() time.Time {
	if as.Now == nil {
		return time.Now()
	}
	return as.Now()
}

// =============================================================================
// BULK ASSIGNMENT - Partial-failure semantics
// =============================================================================

type BulkItem struct {
	Index      int
	Request    Request
	Assignment Assignment
	Err        error
}

type BulkResult struct {
	Items []BulkItem
}

// Assigned returns the successful assignments in request order.
func (r BulkResult) Assigned() []Assignment {
	var out []Assignment
	for _, item := range r.Items {
		if item.Err == nil {
			out = append(out, item.Assignment)
		}
	}
	return out
}

// Failures returns the failed items in request order.
func (r BulkResult) Failures() []BulkItem {
	var out []BulkItem
	for _, item := range r.Items {
		if item.Err != nil {
			out = append(out, item)
		}
	}
	return out
}

// AssignBulk assigns each request independently. Assignments accepted
// earlier in the batch count as existing for later requests, so a batch
// cannot double-book a staff member against itself.
func (as Assigner) AssignBulk(reqs []Request, existing []Assignment) BulkResult {
	seen := make([]Assignment, len(existing), len(existing)+len(reqs))
	copy(seen, existing)

	result := BulkResult{Items: make([]BulkItem, 0, len(reqs))}
	for i, req := range reqs {
		a, err := as.Assign(req, seen)
		result.Items = append(result.Items, BulkItem{Index: i, Request: req, Assignment: a, Err: err})
		if err == nil {
			seen = append(seen, a)
		}
	}
	return result
}
