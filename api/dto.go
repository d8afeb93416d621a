/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO:      Response types returned to clients
  - *Request:  Request body types from clients
  - *Response: Composite response wrappers

FORMATS:
  Dates are "YYYY-MM-DD", clock times "HH:mm", money and hours decimal
  strings ("1835.00"). Decimal request fields also accept JSON numbers.

VALIDATION:
  Shape rules (required, formats, enums) live in validate tags and are
  checked by go-playground/validator before a handler runs. Business rules
  stay in the domain packages and surface as 409/422.

SEE ALSO:
  - errors.go: Validation error formatting
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/attendance"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/payroll"
	"github.com/warp/shiftpay/shift"
	"github.com/warp/shiftpay/staffshift"
)

// =============================================================================
// SHIFTS
// =============================================================================

type CreateShiftRequest struct {
	Name                       string          `json:"name" validate:"required,max=100"`
	StartTime                  string          `json:"start_time" validate:"required,datetime=15:04"`
	EndTime                    string          `json:"end_time" validate:"required,datetime=15:04"`
	HasBreakTime               bool            `json:"has_break_time"`
	BreakDurationMinutes       int             `json:"break_duration_minutes"`
	MinWorkingHours            decimal.Decimal `json:"min_working_hours"`
	MaxWorkingHours            decimal.Decimal `json:"max_working_hours"`
	OvertimeMultiplier         decimal.Decimal `json:"overtime_multiplier"`
	LateThresholdMinutes       int             `json:"late_threshold_minutes"`
	EarlyCheckInAllowedMinutes int             `json:"early_check_in_allowed_minutes"`
}

// UpdateShiftRequest is a partial update; omitted fields are unchanged.
type UpdateShiftRequest struct {
	Name                       *string          `json:"name" validate:"omitempty,min=1,max=100"`
	StartTime                  *string          `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime                    *string          `json:"end_time" validate:"omitempty,datetime=15:04"`
	IsActive                   *bool            `json:"is_active"`
	HasBreakTime               *bool            `json:"has_break_time"`
	BreakDurationMinutes       *int             `json:"break_duration_minutes"`
	MinWorkingHours            *decimal.Decimal `json:"min_working_hours"`
	MaxWorkingHours            *decimal.Decimal `json:"max_working_hours"`
	OvertimeMultiplier         *decimal.Decimal `json:"overtime_multiplier"`
	LateThresholdMinutes       *int             `json:"late_threshold_minutes"`
	EarlyCheckInAllowedMinutes *int             `json:"early_check_in_allowed_minutes"`
}

type SuggestShiftRequest struct {
	CheckInTime  string `json:"check_in_time" validate:"required,datetime=15:04"`
	CheckOutTime string `json:"check_out_time" validate:"omitempty,datetime=15:04"`
}

type ShiftDTO struct {
	ID                         string `json:"id"`
	Name                       string `json:"name"`
	StartTime                  string `json:"start_time"`
	EndTime                    string `json:"end_time"`
	IsActive                   bool   `json:"is_active"`
	IsOvernight                bool   `json:"is_overnight"`
	DurationMinutes            int    `json:"duration_minutes"`
	EffectiveWorkingMinutes    int    `json:"effective_working_minutes"`
	HasBreakTime               bool   `json:"has_break_time"`
	BreakDurationMinutes       int    `json:"break_duration_minutes"`
	MinWorkingHours            string `json:"min_working_hours"`
	MaxWorkingHours            string `json:"max_working_hours"`
	OvertimeMultiplier         string `json:"overtime_multiplier"`
	LateThresholdMinutes       int    `json:"late_threshold_minutes"`
	EarlyCheckInAllowedMinutes int    `json:"early_check_in_allowed_minutes"`
	UpdatedAt                  string `json:"updated_at"`
}

func toShiftDTO(s shift.Shift) ShiftDTO {
	return ShiftDTO{
		ID:                         string(s.ID),
		Name:                       s.Name,
		StartTime:                  s.Start.String(),
		EndTime:                    s.End.String(),
		IsActive:                   s.IsActive,
		IsOvernight:                s.IsOvernight(),
		DurationMinutes:            s.DurationMinutes(),
		EffectiveWorkingMinutes:    s.EffectiveWorkingMinutes(),
		HasBreakTime:               s.HasBreakTime,
		BreakDurationMinutes:       s.BreakDurationMinutes,
		MinWorkingHours:            s.MinWorkingHours.String(),
		MaxWorkingHours:            s.MaxWorkingHours.String(),
		OvertimeMultiplier:         s.OvertimeMultiplier.String(),
		LateThresholdMinutes:       s.LateThresholdMinutes,
		EarlyCheckInAllowedMinutes: s.EarlyCheckInAllowedMinutes,
		UpdatedAt:                  formatTimestamp(s.UpdatedAt),
	}
}

// =============================================================================
// STAFF SHIFTS
// =============================================================================

type AssignShiftRequest struct {
	StaffID string `json:"staff_id" validate:"required,max=64"`
	ShiftID string `json:"shift_id" validate:"required"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Notes   string `json:"notes" validate:"max=500"`
}

type BulkAssignRequest struct {
	Items []AssignShiftRequest `json:"items" validate:"required,min=1,max=500,dive"`
}

type BulkFailureDTO struct {
	Index   int    `json:"index"`
	StaffID string `json:"staff_id"`
	ShiftID string `json:"shift_id"`
	Date    string `json:"date"`
	Error   string `json:"error"`
}

type BulkAssignResponse struct {
	Assigned []AssignmentDTO  `json:"assigned"`
	Failures []BulkFailureDTO `json:"failures"`
}

type CheckInRequest struct {
	Time string `json:"time" validate:"required,datetime=15:04"`
}

type CheckOutRequest struct {
	Time               string `json:"time" validate:"required,datetime=15:04"`
	ActualBreakMinutes *int   `json:"actual_break_minutes" validate:"omitempty,gte=0"`
}

type CorrectAssignmentRequest struct {
	CheckInTime        string `json:"check_in_time" validate:"required,datetime=15:04"`
	CheckOutTime       string `json:"check_out_time" validate:"required,datetime=15:04"`
	ActualBreakMinutes *int   `json:"actual_break_minutes" validate:"omitempty,gte=0"`
}

type AssignmentDTO struct {
	ID                 string  `json:"id"`
	StaffID            string  `json:"staff_id"`
	ShiftID            string  `json:"shift_id"`
	Date               string  `json:"date"`
	Status             string  `json:"status"`
	CheckInTime        *string `json:"check_in_time"`
	CheckOutTime       *string `json:"check_out_time"`
	ActualBreakMinutes *int    `json:"actual_break_minutes"`
	TotalWorkedMinutes int     `json:"total_worked_minutes"`
	EffectiveMinutes   int     `json:"effective_minutes"`
	LateMinutes        int     `json:"late_minutes"`
	OvertimeMinutes    int     `json:"overtime_minutes"`
	IsCompleted        bool    `json:"is_completed"`
	Notes              string  `json:"notes,omitempty"`
}

func toAssignmentDTO(a staffshift.Assignment) AssignmentDTO {
	return AssignmentDTO{
		ID:                 string(a.ID),
		StaffID:            string(a.StaffID),
		ShiftID:            string(a.ShiftID),
		Date:               a.Date.String(),
		Status:             string(a.Status()),
		CheckInTime:        clockString(a.CheckIn),
		CheckOutTime:       clockString(a.CheckOut),
		ActualBreakMinutes: a.ActualBreakDurationMinutes,
		TotalWorkedMinutes: a.TotalWorkedMinutes,
		EffectiveMinutes:   a.EffectiveMinutes,
		LateMinutes:        a.LateMinutes,
		OvertimeMinutes:    a.OvertimeMinutes,
		IsCompleted:        a.IsCompleted,
		Notes:              a.Notes,
	}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type AttendanceRequest struct {
	StaffID              string `json:"staff_id" validate:"required,max=64"`
	Date                 string `json:"date" validate:"required,datetime=2006-01-02"`
	CheckInTime          string `json:"check_in_time" validate:"omitempty,datetime=15:04"`
	CheckOutTime         string `json:"check_out_time" validate:"omitempty,datetime=15:04"`
	ShiftID              string `json:"shift_id"`
	BreakOverrideMinutes *int   `json:"break_override_minutes" validate:"omitempty,gte=0"`
	// IsWeekend defaults to the date's weekday when omitted.
	IsWeekend *bool  `json:"is_weekend"`
	Notes     string `json:"notes" validate:"max=500"`
}

type CalculationDTO struct {
	Mode             string `json:"mode"`
	WorkedMinutes    int    `json:"worked_minutes"`
	EffectiveMinutes int    `json:"effective_minutes"`
	TotalHours       string `json:"total_hours"`
	EffectiveHours   string `json:"effective_hours"`
	OvertimeHours    string `json:"overtime_hours"`
	LateMinutes      int    `json:"late_minutes"`
	IsFullDay        bool   `json:"is_full_day"`
}

func toCalculationDTO(r attendance.Result) *CalculationDTO {
	return &CalculationDTO{
		Mode:             string(r.Mode),
		WorkedMinutes:    r.WorkedMinutes,
		EffectiveMinutes: r.EffectiveMinutes,
		TotalHours:       r.TotalHours.StringFixed(2),
		EffectiveHours:   r.EffectiveHours.StringFixed(2),
		OvertimeHours:    r.OvertimeHours.StringFixed(2),
		LateMinutes:      r.LateMinutes,
		IsFullDay:        r.IsFullDay,
	}
}

type AttendanceDTO struct {
	ID                   string          `json:"id"`
	StaffID              string          `json:"staff_id"`
	Date                 string          `json:"date"`
	CheckInTime          *string         `json:"check_in_time"`
	CheckOutTime         *string         `json:"check_out_time"`
	ShiftID              string          `json:"shift_id,omitempty"`
	BreakOverrideMinutes *int            `json:"break_override_minutes,omitempty"`
	IsWeekend            bool            `json:"is_weekend"`
	TotalHours           string          `json:"total_hours"`
	Notes                string          `json:"notes,omitempty"`
	Calculation          *CalculationDTO `json:"calculation,omitempty"`
}

func toAttendanceDTO(a attendance.Attendance, calc *CalculationDTO) AttendanceDTO {
	return AttendanceDTO{
		ID:                   string(a.ID),
		StaffID:              string(a.StaffID),
		Date:                 a.Date.String(),
		CheckInTime:          clockString(a.CheckIn),
		CheckOutTime:         clockString(a.CheckOut),
		ShiftID:              string(a.ShiftID),
		BreakOverrideMinutes: a.BreakOverrideMinutes,
		IsWeekend:            a.IsWeekend,
		TotalHours:           a.TotalHours.StringFixed(2),
		Notes:                a.Notes,
		Calculation:          calc,
	}
}

// =============================================================================
// SALARIES AND SETTINGS
// =============================================================================

type SalaryRequest struct {
	BasicSalary    decimal.Decimal `json:"basic_salary"`
	FixedAllowance decimal.Decimal `json:"fixed_allowance"`
	Type           string          `json:"type" validate:"required,oneof=MONTHLY DAILY HOURLY"`
}

type SalaryDTO struct {
	ID             string `json:"id"`
	StaffID        string `json:"staff_id"`
	BasicSalary    string `json:"basic_salary"`
	FixedAllowance string `json:"fixed_allowance"`
	Type           string `json:"type"`
	UpdatedAt      string `json:"updated_at"`
}

func toSalaryDTO(s payroll.Salary) SalaryDTO {
	return SalaryDTO{
		ID:             s.ID,
		StaffID:        string(s.StaffID),
		BasicSalary:    s.BasicSalary.StringFixed(2),
		FixedAllowance: s.FixedAllowance.StringFixed(2),
		Type:           string(s.Type),
		UpdatedAt:      formatTimestamp(s.UpdatedAt),
	}
}

type SettingRequest struct {
	NormalWorkHoursPerDay   decimal.Decimal  `json:"normal_work_hours_per_day"`
	NormalWorkHoursPerMonth decimal.Decimal  `json:"normal_work_hours_per_month"`
	OvertimeRate1           decimal.Decimal  `json:"overtime_rate_1"`
	OvertimeRate2           decimal.Decimal  `json:"overtime_rate_2"`
	OvertimeRateWeekend1    decimal.Decimal  `json:"overtime_rate_weekend_1"`
	OvertimeRateWeekend2    decimal.Decimal  `json:"overtime_rate_weekend_2"`
	OvertimeRateWeekend3    decimal.Decimal  `json:"overtime_rate_weekend_3"`
	OvertimeCalculationType string           `json:"overtime_calculation_type" validate:"required,oneof=HOURLY MONTHLY"`
	UMP                     *decimal.Decimal `json:"ump"`
}

type SettingDTO struct {
	NormalWorkHoursPerDay   string  `json:"normal_work_hours_per_day"`
	NormalWorkHoursPerMonth string  `json:"normal_work_hours_per_month"`
	OvertimeRate1           string  `json:"overtime_rate_1"`
	OvertimeRate2           string  `json:"overtime_rate_2"`
	OvertimeRateWeekend1    string  `json:"overtime_rate_weekend_1"`
	OvertimeRateWeekend2    string  `json:"overtime_rate_weekend_2"`
	OvertimeRateWeekend3    string  `json:"overtime_rate_weekend_3"`
	OvertimeCalculationType string  `json:"overtime_calculation_type"`
	UMP                     *string `json:"ump"`
}

func toSettingDTO(s payroll.Setting) SettingDTO {
	dto := SettingDTO{
		NormalWorkHoursPerDay:   s.NormalWorkHoursPerDay.String(),
		NormalWorkHoursPerMonth: s.NormalWorkHoursPerMonth.String(),
		OvertimeRate1:           s.OvertimeRate1.String(),
		OvertimeRate2:           s.OvertimeRate2.String(),
		OvertimeRateWeekend1:    s.OvertimeRateWeekend1.String(),
		OvertimeRateWeekend2:    s.OvertimeRateWeekend2.String(),
		OvertimeRateWeekend3:    s.OvertimeRateWeekend3.String(),
		OvertimeCalculationType: string(s.OvertimeCalculationType),
	}
	if s.UMP != nil {
		ump := s.UMP.StringFixed(2)
		dto.UMP = &ump
	}
	return dto
}

// =============================================================================
// PERIODS AND DETAILS
// =============================================================================

type PeriodRequest struct {
	PeriodStart string `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end" validate:"required,datetime=2006-01-02"`
}

type CalculatePeriodRequest struct {
	Source             string                     `json:"source" validate:"omitempty,oneof=attendance staff_shifts"`
	UseActualWorkHours bool                       `json:"use_actual_work_hours"`
	ManualOvertime     map[string]decimal.Decimal `json:"manual_overtime"`
}

type PeriodDTO struct {
	ID          string  `json:"id"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Status      string  `json:"status"`
	IsFinalized bool    `json:"is_finalized"`
	FinalizedAt *string `json:"finalized_at"`
}

func toPeriodDTO(p payroll.Period) PeriodDTO {
	dto := PeriodDTO{
		ID:          string(p.ID),
		PeriodStart: p.Start.String(),
		PeriodEnd:   p.End.String(),
		Status:      string(p.Status()),
		IsFinalized: p.IsFinalized,
	}
	if p.FinalizedAt != nil {
		at := formatTimestamp(*p.FinalizedAt)
		dto.FinalizedAt = &at
	}
	return dto
}

type DetailDTO struct {
	ID                   string  `json:"id"`
	PeriodID             string  `json:"period_id"`
	StaffID              string  `json:"staff_id"`
	Mode                 string  `json:"mode"`
	TotalWorkHours       string  `json:"total_work_hours"`
	HourlyRate           string  `json:"hourly_rate"`
	BasicSalaryAmount    string  `json:"basic_salary_amount"`
	FixedAllowanceAmount string  `json:"fixed_allowance_amount"`
	OvertimeHours        string  `json:"overtime_hours"`
	OvertimePay          string  `json:"overtime_pay"`
	BonusAmount          string  `json:"bonus_amount"`
	DeductionsAmount     string  `json:"deductions_amount"`
	GrossPay             string  `json:"gross_pay"`
	TakeHomePay          string  `json:"take_home_pay"`
	IsPaid               bool    `json:"is_paid"`
	PaidAt               *string `json:"paid_at"`
}

func toDetailDTO(d payroll.Detail) DetailDTO {
	dto := DetailDTO{
		ID:                   string(d.ID),
		PeriodID:             string(d.PeriodID),
		StaffID:              string(d.StaffID),
		Mode:                 string(d.Mode),
		TotalWorkHours:       d.TotalWorkHours.StringFixed(2),
		HourlyRate:           d.HourlyRate.StringFixed(2),
		BasicSalaryAmount:    d.BasicSalaryAmount.StringFixed(2),
		FixedAllowanceAmount: d.FixedAllowanceAmount.StringFixed(2),
		OvertimeHours:        d.OvertimeHours.StringFixed(2),
		OvertimePay:          d.OvertimePay.StringFixed(2),
		BonusAmount:          d.BonusAmount.StringFixed(2),
		DeductionsAmount:     d.DeductionsAmount.StringFixed(2),
		GrossPay:             d.GrossPay.StringFixed(2),
		TakeHomePay:          d.TakeHomePay.StringFixed(2),
		IsPaid:               d.IsPaid,
	}
	if d.PaidAt != nil {
		at := formatTimestamp(*d.PaidAt)
		dto.PaidAt = &at
	}
	return dto
}

type CalculationItemDTO struct {
	StaffID string     `json:"staff_id"`
	Detail  *DetailDTO `json:"detail,omitempty"`
	Error   string     `json:"error,omitempty"`
}

type CalculatePeriodResponse struct {
	PeriodID   string               `json:"period_id"`
	Calculated int                  `json:"calculated"`
	Failed     int                  `json:"failed"`
	Items      []CalculationItemDTO `json:"items"`
}

type AdjustmentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason" validate:"max=500"`
	IdempotencyKey string          `json:"idempotency_key" validate:"max=128"`
}

type AdjustmentDTO struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toAdjustmentDTO(e generic.Entry) AdjustmentDTO {
	return AdjustmentDTO{
		ID:        string(e.ID),
		Type:      string(e.Type),
		Amount:    e.Delta.Value.StringFixed(2),
		Reason:    e.Reason,
		CreatedBy: e.CreatedBy,
		CreatedAt: formatTimestamp(e.CreatedAt),
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func clockString(c *generic.Clock) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
