package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/payroll"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// =============================================================================
// SALARY ENDPOINTS
// =============================================================================

func (h *Handler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	salaries, err := h.Store.ListSalaries(r.Context(), tenantOf(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	dtos := make([]SalaryDTO, 0, len(salaries))
	for _, s := range salaries {
		dtos = append(dtos, toSalaryDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetSalary(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetSalary(r.Context(), tenantOf(r), generic.StaffID(chi.URLParam(r, "staffID")))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSalaryDTO(s))
}

// PutSalary replaces the staff member's active salary.
func (h *Handler) PutSalary(w http.ResponseWriter, r *http.Request) {
	var req SalaryRequest
	if !h.decode(w, r, &req) {
		return
	}
	s := payroll.Salary{
		ID:             h.newID(),
		TenantID:       tenantOf(r),
		StaffID:        generic.StaffID(chi.URLParam(r, "staffID")),
		BasicSalary:    req.BasicSalary,
		FixedAllowance: req.FixedAllowance,
		Type:           payroll.SalaryType(req.Type),
		UpdatedAt:      h.now(),
	}
	if err := s.Validate(); err != nil {
		h.respond(w, r, err)
		return
	}
	if err := h.Store.SaveSalary(r.Context(), s); err != nil {
		h.respond(w, r, err)
		return
	}
	saved, err := h.Store.GetSalary(r.Context(), s.TenantID, s.StaffID)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSalaryDTO(saved))
}

// =============================================================================
// SETTING ENDPOINTS
// =============================================================================

func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	s, err := h.Payroll.Setting(r.Context(), tenantOf(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingDTO(s))
}

func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	var req SettingRequest
	if !h.decode(w, r, &req) {
		return
	}
	s := payroll.Setting{
		TenantID:                tenantOf(r),
		NormalWorkHoursPerDay:   req.NormalWorkHoursPerDay,
		NormalWorkHoursPerMonth: req.NormalWorkHoursPerMonth,
		OvertimeRate1:           req.OvertimeRate1,
		OvertimeRate2:           req.OvertimeRate2,
		OvertimeRateWeekend1:    req.OvertimeRateWeekend1,
		OvertimeRateWeekend2:    req.OvertimeRateWeekend2,
		OvertimeRateWeekend3:    req.OvertimeRateWeekend3,
		OvertimeCalculationType: payroll.OvertimeCalculationType(req.OvertimeCalculationType),
		UMP:                     req.UMP,
		UpdatedAt:               h.now(),
	}
	if err := s.Validate(); err != nil {
		h.respond(w, r, err)
		return
	}
	if err := h.Store.SaveSetting(r.Context(), s); err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingDTO(s))
}

// =============================================================================
// PERIOD ENDPOINTS
// =============================================================================

func periodID(r *http.Request) payroll.PeriodID {
	return payroll.PeriodID(chi.URLParam(r, "periodID"))
}

func parsePeriodRequest(req PeriodRequest) (generic.Date, generic.Date, error) {
	start, err := generic.ParseDate(req.PeriodStart)
	if err != nil {
		return generic.Date{}, generic.Date{}, generic.NewRuleError(generic.ErrInvalidPeriod, "payroll_period", "", "period_start", err.Error())
	}
	end, err := generic.ParseDate(req.PeriodEnd)
	if err != nil {
		return generic.Date{}, generic.Date{}, generic.NewRuleError(generic.ErrInvalidPeriod, "payroll_period", "", "period_end", err.Error())
	}
	return start, end, nil
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Store.ListPeriods(r.Context(), tenantOf(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	dtos := make([]PeriodDTO, 0, len(periods))
	for _, p := range periods {
		dtos = append(dtos, toPeriodDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req PeriodRequest
	if !h.decode(w, r, &req) {
		return
	}
	start, end, err := parsePeriodRequest(req)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	p, err := h.Payroll.CreatePeriod(r.Context(), tenantOf(r), start, end)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(p))
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetPeriod(r.Context(), tenantOf(r), periodID(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

func (h *Handler) ReschedulePeriod(w http.ResponseWriter, r *http.Request) {
	var req PeriodRequest
	if !h.decode(w, r, &req) {
		return
	}
	start, end, err := parsePeriodRequest(req)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	p, err := h.Payroll.ReschedulePeriod(r.Context(), tenantOf(r), periodID(r), start, end)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

func (h *Handler) FinalizePeriod(w http.ResponseWriter, r *http.Request) {
	p, err := h.Payroll.FinalizePeriod(r.Context(), tenantOf(r), periodID(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

// CalculatePeriod runs payroll for every salaried staff member. Per-staff
// failures are reported in the response; the request itself succeeds.
func (h *Handler) CalculatePeriod(w http.ResponseWriter, r *http.Request) {
	var req CalculatePeriodRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	run := payroll.RunRequest{
		TenantID:           tenantOf(r),
		PeriodID:           periodID(r),
		Source:             payroll.Source(req.Source),
		UseActualWorkHours: req.UseActualWorkHours,
	}
	if len(req.ManualOvertime) > 0 {
		run.ManualOvertime = make(map[generic.StaffID]decimal.Decimal, len(req.ManualOvertime))
		for staffID, hours := range req.ManualOvertime {
			run.ManualOvertime[generic.StaffID(staffID)] = hours
		}
	}

	report, err := h.Payroll.RunPeriod(r.Context(), run)
	if err != nil {
		h.respond(w, r, err)
		return
	}

	resp := CalculatePeriodResponse{
		PeriodID:   string(report.PeriodID),
		Calculated: report.Calculated(),
		Failed:     report.Failed(),
		Items:      make([]CalculationItemDTO, 0, len(report.Items)),
	}
	for _, item := range report.Items {
		dto := CalculationItemDTO{StaffID: string(item.StaffID)}
		if item.Err != nil {
			dto.Error = item.Err.Error()
		} else {
			detail := toDetailDTO(item.Detail)
			dto.Detail = &detail
		}
		resp.Items = append(resp.Items, dto)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListDetails(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Store.GetPeriod(r.Context(), tenantOf(r), periodID(r)); err != nil {
		h.respond(w, r, err)
		return
	}
	details, err := h.Store.ListDetails(r.Context(), tenantOf(r), periodID(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	dtos := make([]DetailDTO, 0, len(details))
	for _, d := range details {
		dtos = append(dtos, toDetailDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportPeriod streams the period's details as an Excel workbook.
func (h *Handler) ExportPeriod(w http.ResponseWriter, r *http.Request) {
	buf, name, err := h.Payroll.ExportPeriod(r.Context(), tenantOf(r), periodID(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// =============================================================================
// DETAIL ENDPOINTS
// =============================================================================

func detailID(r *http.Request) payroll.DetailID {
	return payroll.DetailID(chi.URLParam(r, "detailID"))
}

func (h *Handler) GetDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.Store.GetDetail(r.Context(), tenantOf(r), detailID(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailDTO(d))
}

func (h *Handler) AddBonus(w http.ResponseWriter, r *http.Request) {
	h.amend(w, r, generic.EntryBonus)
}

func (h *Handler) AddDeduction(w http.ResponseWriter, r *http.Request) {
	h.amend(w, r, generic.EntryDeduction)
}

func (h *Handler) amend(w http.ResponseWriter, r *http.Request, typ generic.EntryType) {
	var req AdjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get("Idempotency-Key")
	}

	d, err := h.Payroll.Amend(r.Context(), payroll.AmendRequest{
		TenantID:       tenantOf(r),
		DetailID:       detailID(r),
		Type:           typ,
		Amount:         req.Amount,
		Reason:         req.Reason,
		IdempotencyKey: key,
		Actor:          actorOf(r),
	})
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailDTO(d))
}

func (h *Handler) PayDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.Payroll.MarkPaid(r.Context(), tenantOf(r), detailID(r), actorOf(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailDTO(d))
}

func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Payroll.Adjustments(r.Context(), tenantOf(r), detailID(r))
	if err != nil {
		h.respond(w, r, err)
		return
	}
	dtos := make([]AdjustmentDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toAdjustmentDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}
