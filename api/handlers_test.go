/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Shift CRUD and request validation
- Staff shift assignment, bulk partial failure, check-in/check-out
- Attendance recording and duplicate detection
- Payroll flow: salary, period, run, amend, pay, finalize, export
- Auto-finalize scheduler
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/payroll"
	"github.com/warp/shiftpay/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// TEST SERVER
// =============================================================================

var testNow = time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)

type testServer struct {
	store   *sqlite.Store
	service *payroll.Service
	router  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := func() time.Time { return testNow }
	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	svc := payroll.NewService(store, zap.NewNop(), payroll.Options{Now: now, NewID: newID})
	h := NewHandler(store, svc, zap.NewNop(), Options{Now: now, NewID: newID})
	return &testServer{store: store, service: svc, router: NewRouter(h, nil)}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, "/api/tenants/acme"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "hr@acme")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func morningShift() map[string]any {
	return map[string]any{
		"name":                   "Morning",
		"start_time":             "08:00",
		"end_time":               "16:00",
		"has_break_time":         true,
		"break_duration_minutes": 60,
		"min_working_hours":      "6",
		"max_working_hours":      "7",
		"overtime_multiplier":    "1.5",
		"late_threshold_minutes": 15,
	}
}

func (ts *testServer) createShift(t *testing.T, body map[string]any) ShiftDTO {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/shifts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeAs[ShiftDTO](t, rec)
}

// =============================================================================
// SHIFTS
// =============================================================================

func TestShifts_CreateAndGet(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN: A created morning shift
	created := ts.createShift(t, morningShift())

	// WHEN: Reading it back
	rec := ts.do(t, http.MethodGet, "/shifts/"+created.ID, nil)

	// THEN: The derived durations are reported
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeAs[ShiftDTO](t, rec)
	assert.Equal(t, "08:00", got.StartTime)
	assert.Equal(t, 480, got.DurationMinutes)
	assert.Equal(t, 420, got.EffectiveWorkingMinutes)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsOvernight)
}

func TestShifts_RequestValidation(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing name is a 400", func(t *testing.T) {
		body := morningShift()
		delete(body, "name")
		rec := ts.do(t, http.MethodPost, "/shifts", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeAs[ErrorResponse](t, rec).Details, "name")
	})

	t.Run("malformed JSON is a 400", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/shifts", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rule violation is a 422", func(t *testing.T) {
		body := morningShift()
		body["max_working_hours"] = "5"
		rec := ts.do(t, http.MethodPost, "/shifts", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown shift is a 404", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/shifts/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestShifts_UpdateAndRetire(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createShift(t, morningShift())

	// WHEN: Moving the end time and retiring
	rec := ts.do(t, http.MethodPatch, "/shifts/"+created.ID, map[string]any{"end_time": "17:00", "max_working_hours": "8"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 540, decodeAs[ShiftDTO](t, rec).DurationMinutes)

	rec = ts.do(t, http.MethodDelete, "/shifts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: It is no longer listed as active
	rec = ts.do(t, http.MethodGet, "/shifts?active=true", nil)
	assert.Empty(t, decodeAs[[]ShiftDTO](t, rec))
}

// =============================================================================
// STAFF SHIFTS
// =============================================================================

func TestStaffShifts_AssignCheckInCheckOut(t *testing.T) {
	ts := newTestServer(t)
	morning := ts.createShift(t, morningShift())

	// GIVEN: S1 assigned to the morning shift next Monday
	rec := ts.do(t, http.MethodPost, "/staff-shifts", AssignShiftRequest{StaffID: "S1", ShiftID: morning.ID, Date: "2025-10-20"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	a := decodeAs[AssignmentDTO](t, rec)
	assert.Equal(t, "unstarted", a.Status)

	// WHEN: Checking in 20 minutes late and out at 17:00
	rec = ts.do(t, http.MethodPost, "/staff-shifts/"+a.ID+"/check-in", CheckInRequest{Time: "08:20"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "active", decodeAs[AssignmentDTO](t, rec).Status)

	rec = ts.do(t, http.MethodPost, "/staff-shifts/"+a.ID+"/check-out", CheckOutRequest{Time: "17:00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: Lateness and overtime are derived from the shift
	done := decodeAs[AssignmentDTO](t, rec)
	assert.Equal(t, "completed", done.Status)
	assert.Equal(t, 520, done.TotalWorkedMinutes)
	assert.Equal(t, 20, done.LateMinutes)
	assert.Equal(t, 40, done.OvertimeMinutes)

	// AND: A second check-in is an invalid transition
	rec = ts.do(t, http.MethodPost, "/staff-shifts/"+a.ID+"/check-in", CheckInRequest{Time: "08:00"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStaffShifts_OverlapIsConflict(t *testing.T) {
	ts := newTestServer(t)
	morning := ts.createShift(t, morningShift())
	midBody := morningShift()
	midBody["name"] = "Mid"
	midBody["start_time"] = "12:00"
	midBody["end_time"] = "20:00"
	mid := ts.createShift(t, midBody)

	rec := ts.do(t, http.MethodPost, "/staff-shifts", AssignShiftRequest{StaffID: "S1", ShiftID: morning.ID, Date: "2025-10-20"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Assigning an overlapping shift on the same day
	rec = ts.do(t, http.MethodPost, "/staff-shifts", AssignShiftRequest{StaffID: "S1", ShiftID: mid.ID, Date: "2025-10-20"})

	// THEN: 409
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStaffShifts_BulkPartialFailure(t *testing.T) {
	ts := newTestServer(t)
	morning := ts.createShift(t, morningShift())

	// WHEN: One valid item, one unknown shift, one past date
	rec := ts.do(t, http.MethodPost, "/staff-shifts/bulk", BulkAssignRequest{Items: []AssignShiftRequest{
		{StaffID: "S1", ShiftID: morning.ID, Date: "2025-10-20"},
		{StaffID: "S2", ShiftID: "missing", Date: "2025-10-20"},
		{StaffID: "S3", ShiftID: morning.ID, Date: "2025-10-01"},
	}})

	// THEN: The valid item is saved and the others reported by index
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeAs[BulkAssignResponse](t, rec)
	require.Len(t, resp.Assigned, 1)
	assert.Equal(t, "S1", resp.Assigned[0].StaffID)
	require.Len(t, resp.Failures, 2)
	assert.Equal(t, 1, resp.Failures[0].Index)
	assert.Equal(t, 2, resp.Failures[1].Index)

	rec = ts.do(t, http.MethodGet, "/staff-shifts?from=2025-10-20&to=2025-10-20", nil)
	assert.Len(t, decodeAs[[]AssignmentDTO](t, rec), 1)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestAttendance_RecordLegacyAndDuplicate(t *testing.T) {
	ts := newTestServer(t)
	body := AttendanceRequest{StaffID: "S1", Date: "2025-10-13", CheckInTime: "08:00", CheckOutTime: "17:00"}

	// WHEN: Recording a day without a shift
	rec := ts.do(t, http.MethodPost, "/attendances", body)

	// THEN: It is measured in legacy mode
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decodeAs[AttendanceDTO](t, rec)
	assert.Equal(t, "9.00", got.TotalHours)
	assert.False(t, got.IsWeekend)
	require.NotNil(t, got.Calculation)
	assert.Equal(t, "legacy", got.Calculation.Mode)
	assert.Equal(t, "1.00", got.Calculation.OvertimeHours)

	// AND: A second legacy record on the same day is a conflict
	rec = ts.do(t, http.MethodPost, "/attendances", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAttendance_CalculatePreviewWithShift(t *testing.T) {
	ts := newTestServer(t)
	morning := ts.createShift(t, morningShift())

	rec := ts.do(t, http.MethodPost, "/attendances/calculate", AttendanceRequest{
		StaffID: "S1", Date: "2025-10-13", CheckInTime: "08:30", CheckOutTime: "17:00", ShiftID: morning.ID,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	calc := decodeAs[CalculationDTO](t, rec)
	assert.Equal(t, "shift_aware", calc.Mode)
	assert.Equal(t, 450, calc.EffectiveMinutes)
	assert.Equal(t, 30, calc.LateMinutes)
	assert.Equal(t, "0.50", calc.OvertimeHours)

	// AND: Nothing was saved
	rec = ts.do(t, http.MethodGet, "/attendances?staff_id=S1&date=2025-10-13", nil)
	assert.Empty(t, decodeAs[[]AttendanceDTO](t, rec))
}

// =============================================================================
// PAYROLL FLOW
// =============================================================================

func TestPayroll_EndToEnd(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN: A salaried staff member and a September period
	rec := ts.do(t, http.MethodPut, "/salaries/S1", SalaryRequest{BasicSalary: dec("2000"), FixedAllowance: dec("0"), Type: "MONTHLY"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/periods", PeriodRequest{PeriodStart: "2025-09-01", PeriodEnd: "2025-09-30"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	period := decodeAs[PeriodDTO](t, rec)
	assert.Equal(t, "open", period.Status)

	// WHEN: Running payroll
	rec = ts.do(t, http.MethodPost, "/periods/"+period.ID+"/calculate", CalculatePeriodRequest{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := decodeAs[CalculatePeriodResponse](t, rec)
	require.Equal(t, 1, run.Calculated)
	require.NotNil(t, run.Items[0].Detail)
	detail := *run.Items[0].Detail
	assert.Equal(t, "2000.00", detail.TakeHomePay)

	// AND: Adding a bonus twice with the same idempotency key
	bonus := AdjustmentRequest{Amount: dec("100"), Reason: "October target", IdempotencyKey: "bonus-1"}
	for i := 0; i < 2; i++ {
		rec = ts.do(t, http.MethodPost, "/details/"+detail.ID+"/bonus", bonus)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "2100.00", decodeAs[DetailDTO](t, rec).TakeHomePay)
	}

	// AND: Paying the detail
	rec = ts.do(t, http.MethodPost, "/details/"+detail.ID+"/pay", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeAs[DetailDTO](t, rec).IsPaid)

	// THEN: The ledger holds one bonus and one payment by the actor
	rec = ts.do(t, http.MethodGet, "/details/"+detail.ID+"/adjustments", nil)
	entries := decodeAs[[]AdjustmentDTO](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "bonus", entries[0].Type)
	assert.Equal(t, "payment", entries[1].Type)
	assert.Equal(t, "2100.00", entries[1].Amount)
	assert.Equal(t, "hr@acme", entries[1].CreatedBy)

	// AND: The paid detail is locked
	rec = ts.do(t, http.MethodPost, "/details/"+detail.ID+"/deduction", AdjustmentRequest{Amount: dec("10")})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// AND: The period finalizes once
	rec = ts.do(t, http.MethodPost, "/periods/"+period.ID+"/finalize", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "finalized", decodeAs[PeriodDTO](t, rec).Status)
	rec = ts.do(t, http.MethodPost, "/periods/"+period.ID+"/finalize", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPayroll_Export(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPut, "/salaries/S1", SalaryRequest{BasicSalary: dec("2000"), FixedAllowance: dec("0"), Type: "MONTHLY"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, "/periods", PeriodRequest{PeriodStart: "2025-09-01", PeriodEnd: "2025-09-30"})
	period := decodeAs[PeriodDTO](t, rec)
	rec = ts.do(t, http.MethodPost, "/periods/"+period.ID+"/calculate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: Downloading the workbook
	rec = ts.do(t, http.MethodGet, "/periods/"+period.ID+"/export.xlsx", nil)

	// THEN: It is served as an attachment
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payroll_2025-09-01_2025-09-30.xlsx")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestSettings_DefaultsThenPut(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MONTHLY", decodeAs[SettingDTO](t, rec).OvertimeCalculationType)

	ump := dec("1500")
	rec = ts.do(t, http.MethodPut, "/settings", SettingRequest{
		NormalWorkHoursPerDay:   dec("8"),
		NormalWorkHoursPerMonth: dec("160"),
		OvertimeRate1:           dec("1.5"),
		OvertimeRate2:           dec("2"),
		OvertimeRateWeekend1:    dec("2"),
		OvertimeRateWeekend2:    dec("3"),
		OvertimeRateWeekend3:    dec("4"),
		OvertimeCalculationType: "HOURLY",
		UMP:                     &ump,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/settings", nil)
	got := decodeAs[SettingDTO](t, rec)
	assert.Equal(t, "HOURLY", got.OvertimeCalculationType)
	require.NotNil(t, got.UMP)
	assert.Equal(t, "1500.00", *got.UMP)
}

// =============================================================================
// SCHEDULER
// =============================================================================

func TestFinalizeScheduler_FinalizesOverduePeriods(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	// GIVEN: August and September periods, 20 grace days
	aug, err := ts.service.CreatePeriod(ctx, "acme", generic.MustParseDate("2025-08-01"), generic.MustParseDate("2025-08-31"))
	require.NoError(t, err)
	_, err = ts.service.CreatePeriod(ctx, "acme", generic.MustParseDate("2025-09-01"), generic.MustParseDate("2025-09-30"))
	require.NoError(t, err)

	sched := NewFinalizeScheduler(ts.store, ts.service, zap.NewNop())
	sched.Now = func() time.Time { return testNow }
	sched.GraceDays = 20

	// WHEN: Running a pass
	run := sched.RunNow(ctx)

	// THEN: Only August is past the grace window
	assert.Equal(t, []payroll.PeriodID{aug.ID}, run.Finalized)
	got, err := ts.store.GetPeriod(ctx, "acme", aug.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFinalized)

	// AND: A second pass has nothing to do
	assert.Empty(t, sched.RunNow(ctx).Finalized)
}

func TestFinalizeScheduler_DisabledDoesNotStart(t *testing.T) {
	ts := newTestServer(t)
	sched := NewFinalizeScheduler(ts.store, ts.service, nil)
	sched.Enabled = false

	sched.Start()
	sched.Stop()

	assert.Nil(t, sched.ticker)
}
