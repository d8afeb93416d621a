package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/attendance"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
	"github.com/warp/shiftpay/staffshift"
	"go.uber.org/zap"
)

// =============================================================================
// REPOSITORY - What the service needs from storage
// =============================================================================

// Repository is implemented by store/sqlite. Its generic.Store half holds
// the adjustment ledger.
type Repository interface {
	generic.Store

	// WithTx runs fn in one transaction: the ledger entry and the detail
	// it adjusts are committed together or not at all.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetPeriod(ctx context.Context, tenantID generic.TenantID, id PeriodID) (Period, error)
	ListPeriods(ctx context.Context, tenantID generic.TenantID) ([]Period, error)
	SavePeriod(ctx context.Context, p Period) error
	// FinalizePeriod flips is_finalized atomically and returns
	// ErrPeriodNotFinalizable when the period was already finalized.
	FinalizePeriod(ctx context.Context, tenantID generic.TenantID, id PeriodID, at time.Time) error

	GetSetting(ctx context.Context, tenantID generic.TenantID) (Setting, error)
	ListSalaries(ctx context.Context, tenantID generic.TenantID) ([]Salary, error)

	ListShifts(ctx context.Context, tenantID generic.TenantID) ([]shift.Shift, error)
	ListAttendanceInRange(ctx context.Context, tenantID generic.TenantID, r generic.DateRange) ([]attendance.Attendance, error)
	ListAssignmentsInRange(ctx context.Context, tenantID generic.TenantID, r generic.DateRange) ([]staffshift.Assignment, error)

	GetDetail(ctx context.Context, tenantID generic.TenantID, id DetailID) (Detail, error)
	ListDetails(ctx context.Context, tenantID generic.TenantID, periodID PeriodID) ([]Detail, error)
	SaveDetail(ctx context.Context, d Detail) error
}

// Tx is the transactional view an amendment or payment writes through.
type Tx interface {
	generic.Store
	SaveDetail(ctx context.Context, d Detail) error
}

// =============================================================================
// SERVICE
// =============================================================================

// Source selects which records a period run measures.
type Source string

const (
	SourceAttendance  Source = "attendance"
	SourceStaffShifts Source = "staff_shifts"
)

type Options struct {
	// BatchLimit bounds concurrent calculations in a run.
	BatchLimit int
	// Defaults is the setting template for tenants without one. A zero
	// value means DefaultSetting.
	Defaults Setting
	Now      func() time.Time
	NewID    func() string
}

type Service struct {
	repo     Repository
	ledger   generic.Ledger
	batch    Batch
	defaults Setting
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(repo Repository, log *zap.Logger, opts Options) *Service {
	s := &Service{
		repo:     repo,
		ledger:   generic.NewLedger(repo),
		batch:    Batch{Limit: opts.BatchLimit},
		defaults: opts.Defaults,
		log:      log,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.defaults.NormalWorkHoursPerMonth.IsZero() {
		s.defaults = DefaultSetting("")
	}
	return s
}

// Setting returns the tenant's setting, or the defaults when it has none.
func (s *Service) Setting(ctx context.Context, tenantID generic.TenantID) (Setting, error) {
	setting, err := s.repo.GetSetting(ctx, tenantID)
	if errors.Is(err, generic.ErrNotFound) {
		setting = s.defaults
		setting.TenantID = tenantID
		return setting, nil
	}
	return setting, err
}

// -----------------------------------------------------------------------------
// Periods
// -----------------------------------------------------------------------------

func (s *Service) CreatePeriod(ctx context.Context, tenantID generic.TenantID, start, end generic.Date) (Period, error) {
	siblings, err := s.repo.ListPeriods(ctx, tenantID)
	if err != nil {
		return Period{}, fmt.Errorf("list periods: %w", err)
	}
	p, err := NewPeriod(PeriodID(s.newID()), tenantID, start, end, siblings, s.now())
	if err != nil {
		return Period{}, err
	}
	if err := s.repo.SavePeriod(ctx, p); err != nil {
		return Period{}, fmt.Errorf("save period: %w", err)
	}
	s.log.Info("payroll period created",
		zap.String("tenant_id", string(tenantID)),
		zap.String("period_id", string(p.ID)),
		zap.Stringer("range", p.Range()))
	return p, nil
}

func (s *Service) ReschedulePeriod(ctx context.Context, tenantID generic.TenantID, id PeriodID, start, end generic.Date) (Period, error) {
	p, err := s.repo.GetPeriod(ctx, tenantID, id)
	if err != nil {
		return Period{}, err
	}
	siblings, err := s.repo.ListPeriods(ctx, tenantID)
	if err != nil {
		return Period{}, fmt.Errorf("list periods: %w", err)
	}
	next, err := Reschedule(p, start, end, siblings, s.now())
	if err != nil {
		return Period{}, err
	}
	if err := s.repo.SavePeriod(ctx, next); err != nil {
		return Period{}, fmt.Errorf("save period: %w", err)
	}
	return next, nil
}

// FinalizePeriod checks the preconditions, then lets the store make the
// transition atomically.
func (s *Service) FinalizePeriod(ctx context.Context, tenantID generic.TenantID, id PeriodID) (Period, error) {
	p, err := s.repo.GetPeriod(ctx, tenantID, id)
	if err != nil {
		return Period{}, err
	}
	now := s.now()
	finalized, err := Finalize(p, now)
	if err != nil {
		return Period{}, err
	}
	if err := s.repo.FinalizePeriod(ctx, tenantID, id, now); err != nil {
		return Period{}, err
	}
	s.log.Info("payroll period finalized",
		zap.String("tenant_id", string(tenantID)),
		zap.String("period_id", string(id)))
	return finalized, nil
}

// -----------------------------------------------------------------------------
// Period run
// -----------------------------------------------------------------------------

type RunRequest struct {
	TenantID           generic.TenantID
	PeriodID           PeriodID
	Source             Source
	UseActualWorkHours bool
	// ManualOvertime switches the listed staff to manual mode.
	ManualOvertime map[generic.StaffID]decimal.Decimal
}

type RunReport struct {
	PeriodID PeriodID
	Items    []BatchItem
}

func (r RunReport) Calculated() int { return len(BatchResult{Items: r.Items}.Succeeded()) }
func (r RunReport) Failed() int     { return len(BatchResult{Items: r.Items}.Failed()) }

// RunPeriod calculates every salaried staff member for an Open period and
// saves the successful details. Bonus and deductions already on a detail
// carry over into its recalculation; paid details are left untouched and
// reported as failures.
func (s *Service) RunPeriod(ctx context.Context, req RunRequest) (RunReport, error) {
	log := s.log.With(zap.String("tenant_id", string(req.TenantID)), zap.String("period_id", string(req.PeriodID)))

	period, err := s.repo.GetPeriod(ctx, req.TenantID, req.PeriodID)
	if err != nil {
		return RunReport{}, err
	}
	if period.IsFinalized {
		return RunReport{}, generic.NewRuleError(generic.ErrPeriodFinalized, "payroll_period", string(period.ID), "is_finalized", "finalized periods cannot be recalculated")
	}

	siblings, err := s.repo.ListPeriods(ctx, req.TenantID)
	if err != nil {
		return RunReport{}, fmt.Errorf("list periods: %w", err)
	}
	setting, err := s.Setting(ctx, req.TenantID)
	if err != nil {
		return RunReport{}, fmt.Errorf("load setting: %w", err)
	}
	salaries, err := s.repo.ListSalaries(ctx, req.TenantID)
	if err != nil {
		return RunReport{}, fmt.Errorf("list salaries: %w", err)
	}
	shifts, err := s.repo.ListShifts(ctx, req.TenantID)
	if err != nil {
		return RunReport{}, fmt.Errorf("list shifts: %w", err)
	}
	days, err := s.workDays(ctx, req, period, shift.NewCatalog(shifts...))
	if err != nil {
		return RunReport{}, err
	}
	existing, err := s.repo.ListDetails(ctx, req.TenantID, period.ID)
	if err != nil {
		return RunReport{}, fmt.Errorf("list details: %w", err)
	}
	prior := make(map[generic.StaffID]Detail, len(existing))
	for _, d := range existing {
		prior[d.StaffID] = d
	}

	now := s.now()
	var (
		inputs  []StaffInput
		refused []BatchItem
	)
	for _, salary := range salaries {
		if d, ok := prior[salary.StaffID]; ok && d.IsPaid {
			refused = append(refused, BatchItem{StaffID: salary.StaffID, Err: generic.NewRuleError(generic.ErrDetailLocked, "payroll_detail", string(d.ID), "is_paid", "paid details are not recalculated")})
			continue
		}
		if reason := CanCalculate(salary, setting, period, siblings, now); reason != "" {
			refused = append(refused, BatchItem{StaffID: salary.StaffID, Err: fmt.Errorf("%w: %s", generic.ErrCalculationRefused, reason)})
			continue
		}

		in := Input{
			Salary:             salary,
			Setting:            setting,
			Days:               days[salary.StaffID],
			UseActualWorkHours: req.UseActualWorkHours,
		}
		if hours, ok := req.ManualOvertime[salary.StaffID]; ok {
			in.ManualOvertimeHours = &hours
		}
		if d, ok := prior[salary.StaffID]; ok {
			in.Adjustments = Adjustments{Bonus: d.BonusAmount, Deductions: d.DeductionsAmount}
		}
		inputs = append(inputs, StaffInput{StaffID: salary.StaffID, Input: in})
	}

	result := s.batch.Run(ctx, inputs)
	for i := range result.Items {
		item := &result.Items[i]
		if item.Err != nil {
			continue
		}
		d := item.Detail
		d.PeriodID = period.ID
		d.TenantID = req.TenantID
		d.CreatedAt, d.UpdatedAt = now, now
		if p, ok := prior[item.StaffID]; ok {
			d.ID = p.ID
			d.CreatedAt = p.CreatedAt
		} else {
			d.ID = DetailID(s.newID())
		}
		if err := s.repo.SaveDetail(ctx, d); err != nil {
			item.Err = fmt.Errorf("save detail: %w", err)
			continue
		}
		item.Detail = d
	}

	report := RunReport{PeriodID: period.ID, Items: append(result.Items, refused...)}
	for _, item := range report.Items {
		if item.Err != nil {
			log.Warn("payroll calculation failed", zap.String("staff_id", string(item.StaffID)), zap.Error(item.Err))
		}
	}
	log.Info("payroll period calculated",
		zap.Int("calculated", report.Calculated()),
		zap.Int("failed", report.Failed()))
	return report, nil
}

func (s *Service) workDays(ctx context.Context, req RunRequest, period Period, shifts shift.Catalog) (map[generic.StaffID][]WorkDay, error) {
	out := make(map[generic.StaffID][]WorkDay)

	switch req.Source {
	case SourceStaffShifts:
		assignments, err := s.repo.ListAssignmentsInRange(ctx, req.TenantID, period.Range())
		if err != nil {
			return nil, fmt.Errorf("list staff shifts: %w", err)
		}
		byStaff := make(map[generic.StaffID][]staffshift.Assignment)
		for _, a := range assignments {
			byStaff[a.StaffID] = append(byStaff[a.StaffID], a)
		}
		for staffID, list := range byStaff {
			out[staffID] = DaysFromStaffShifts(list)
		}

	case SourceAttendance, "":
		records, err := s.repo.ListAttendanceInRange(ctx, req.TenantID, period.Range())
		if err != nil {
			return nil, fmt.Errorf("list attendance: %w", err)
		}
		byStaff := make(map[generic.StaffID][]attendance.Attendance)
		for _, a := range records {
			byStaff[a.StaffID] = append(byStaff[a.StaffID], a)
		}
		for staffID, list := range byStaff {
			days, err := DaysFromAttendance(list, shifts)
			if err != nil {
				return nil, err
			}
			out[staffID] = days
		}

	default:
		return nil, fmt.Errorf("unknown record source %q", req.Source)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Amendments
// -----------------------------------------------------------------------------

type AmendRequest struct {
	TenantID       generic.TenantID
	DetailID       DetailID
	Type           generic.EntryType
	Amount         decimal.Decimal
	Reason         string
	IdempotencyKey string
	Actor          string
}

// Amend adds a bonus or deduction to a detail and records it in the
// adjustment ledger, in one transaction. Replaying an idempotency key on
// the same detail returns the detail unchanged; reusing it on another
// detail of the tenant returns ErrIdempotencyKeyReused.
func (s *Service) Amend(ctx context.Context, req AmendRequest) (Detail, error) {
	d, err := s.repo.GetDetail(ctx, req.TenantID, req.DetailID)
	if err != nil {
		return Detail{}, err
	}
	period, err := s.repo.GetPeriod(ctx, req.TenantID, d.PeriodID)
	if err != nil {
		return Detail{}, err
	}
	if period.IsFinalized {
		return Detail{}, generic.NewRuleError(generic.ErrPeriodFinalized, "payroll_period", string(period.ID), "is_finalized", "details of a finalized period cannot be amended")
	}

	var next Detail
	switch req.Type {
	case generic.EntryBonus:
		next, err = AddBonus(d, req.Amount)
	case generic.EntryDeduction:
		next, err = AddDeduction(d, req.Amount)
	default:
		return Detail{}, fmt.Errorf("unsupported adjustment type %q", req.Type)
	}
	if err != nil {
		return Detail{}, err
	}

	now := s.now()
	entry := generic.Entry{
		ID:             generic.EntryID(s.newID()),
		TenantID:       req.TenantID,
		Reference:      string(d.ID),
		Type:           req.Type,
		Delta:          generic.NewAmount(req.Amount, generic.UnitCurrency),
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      req.Actor,
		CreatedAt:      now,
	}
	next.UpdatedAt = now
	err = s.repo.WithTx(ctx, func(tx Tx) error {
		if err := generic.NewLedger(tx).Append(ctx, entry); err != nil {
			return fmt.Errorf("record adjustment: %w", err)
		}
		if err := tx.SaveDetail(ctx, next); err != nil {
			return fmt.Errorf("save detail: %w", err)
		}
		return nil
	})
	if errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
		s.log.Info("duplicate amendment ignored",
			zap.String("detail_id", string(d.ID)),
			zap.String("idempotency_key", req.IdempotencyKey))
		return d, nil
	}
	if err != nil {
		return Detail{}, err
	}
	return next, nil
}

// MarkPaid locks a detail and records the payment. Paying is allowed after
// the period is finalized.
func (s *Service) MarkPaid(ctx context.Context, tenantID generic.TenantID, id DetailID, actor string) (Detail, error) {
	d, err := s.repo.GetDetail(ctx, tenantID, id)
	if err != nil {
		return Detail{}, err
	}
	now := s.now()
	paid, err := MarkPaid(d, now)
	if err != nil {
		return Detail{}, err
	}

	entry := generic.Entry{
		ID:             generic.EntryID(s.newID()),
		TenantID:       tenantID,
		Reference:      string(d.ID),
		Type:           generic.EntryPayment,
		Delta:          generic.NewAmount(paid.TakeHomePay, generic.UnitCurrency),
		Reason:         "payroll payment",
		IdempotencyKey: "payment:" + string(d.ID),
		CreatedBy:      actor,
		CreatedAt:      now,
	}
	err = s.repo.WithTx(ctx, func(tx Tx) error {
		if err := generic.NewLedger(tx).Append(ctx, entry); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		if err := tx.SaveDetail(ctx, paid); err != nil {
			return fmt.Errorf("save detail: %w", err)
		}
		return nil
	})
	if err != nil {
		return Detail{}, err
	}
	s.log.Info("payroll detail paid",
		zap.String("detail_id", string(d.ID)),
		zap.String("take_home_pay", paid.TakeHomePay.StringFixed(2)))
	return paid, nil
}

// Adjustments returns the ledger history of a detail.
func (s *Service) Adjustments(ctx context.Context, tenantID generic.TenantID, id DetailID) ([]generic.Entry, error) {
	if _, err := s.repo.GetDetail(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.ledger.Entries(ctx, string(id))
}
