package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/payroll"
)

// =============================================================================
// SALARIES
// =============================================================================

const salaryColumns = `id, tenant_id, staff_id, basic_salary, fixed_allowance, type, updated_at`

// SaveSalary upserts the staff member's single active salary. The row keeps
// its original id when it is replaced.
func (s *Store) SaveSalary(ctx context.Context, sal payroll.Salary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salaries (`+salaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, staff_id) DO UPDATE SET
			basic_salary = excluded.basic_salary,
			fixed_allowance = excluded.fixed_allowance,
			type = excluded.type,
			updated_at = excluded.updated_at
	`,
		sal.ID, string(sal.TenantID), string(sal.StaffID), sal.BasicSalary, sal.FixedAllowance,
		string(sal.Type), formatTime(sal.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save salary: %w", err)
	}
	return nil
}

func (s *Store) GetSalary(ctx context.Context, tenantID generic.TenantID, staffID generic.StaffID) (payroll.Salary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+salaryColumns+` FROM salaries WHERE tenant_id = ? AND staff_id = ?`,
		string(tenantID), string(staffID))
	sal, err := scanSalary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Salary{}, notFound("salary", string(staffID))
	}
	return sal, err
}

func (s *Store) ListSalaries(ctx context.Context, tenantID generic.TenantID) ([]payroll.Salary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+salaryColumns+` FROM salaries WHERE tenant_id = ? ORDER BY staff_id`,
		string(tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to list salaries: %w", err)
	}
	defer rows.Close()

	var out []payroll.Salary
	for rows.Next() {
		sal, err := scanSalary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sal)
	}
	return out, rows.Err()
}

func scanSalary(row scanner) (payroll.Salary, error) {
	var (
		sal                         payroll.Salary
		tenantID, staffID, typ, upd string
	)
	if err := row.Scan(&sal.ID, &tenantID, &staffID, &sal.BasicSalary, &sal.FixedAllowance, &typ, &upd); err != nil {
		return payroll.Salary{}, err
	}
	sal.TenantID = generic.TenantID(tenantID)
	sal.StaffID = generic.StaffID(staffID)
	sal.Type = payroll.SalaryType(typ)
	sal.UpdatedAt = parseTime(upd)
	return sal, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *Store) SaveSetting(ctx context.Context, st payroll.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_settings (
			tenant_id, normal_work_hours_per_day, normal_work_hours_per_month,
			overtime_rate_1, overtime_rate_2, overtime_rate_weekend_1,
			overtime_rate_weekend_2, overtime_rate_weekend_3,
			overtime_calculation_type, ump, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			normal_work_hours_per_day = excluded.normal_work_hours_per_day,
			normal_work_hours_per_month = excluded.normal_work_hours_per_month,
			overtime_rate_1 = excluded.overtime_rate_1,
			overtime_rate_2 = excluded.overtime_rate_2,
			overtime_rate_weekend_1 = excluded.overtime_rate_weekend_1,
			overtime_rate_weekend_2 = excluded.overtime_rate_weekend_2,
			overtime_rate_weekend_3 = excluded.overtime_rate_weekend_3,
			overtime_calculation_type = excluded.overtime_calculation_type,
			ump = excluded.ump,
			updated_at = excluded.updated_at
	`,
		string(st.TenantID), st.NormalWorkHoursPerDay, st.NormalWorkHoursPerMonth,
		st.OvertimeRate1, st.OvertimeRate2, st.OvertimeRateWeekend1,
		st.OvertimeRateWeekend2, st.OvertimeRateWeekend3,
		string(st.OvertimeCalculationType), nullDecimal(st.UMP), formatTime(st.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save payroll setting: %w", err)
	}
	return nil
}

// GetSetting returns ErrNotFound when the tenant never saved a setting.
func (s *Store) GetSetting(ctx context.Context, tenantID generic.TenantID) (payroll.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		st       payroll.Setting
		calcType string
		ump      decimal.NullDecimal
		upd      string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT normal_work_hours_per_day, normal_work_hours_per_month,
			overtime_rate_1, overtime_rate_2, overtime_rate_weekend_1,
			overtime_rate_weekend_2, overtime_rate_weekend_3,
			overtime_calculation_type, ump, updated_at
		FROM payroll_settings WHERE tenant_id = ?
	`, string(tenantID)).Scan(
		&st.NormalWorkHoursPerDay, &st.NormalWorkHoursPerMonth,
		&st.OvertimeRate1, &st.OvertimeRate2, &st.OvertimeRateWeekend1,
		&st.OvertimeRateWeekend2, &st.OvertimeRateWeekend3,
		&calcType, &ump, &upd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Setting{}, notFound("payroll_setting", string(tenantID))
	}
	if err != nil {
		return payroll.Setting{}, fmt.Errorf("failed to load payroll setting: %w", err)
	}

	st.TenantID = tenantID
	st.OvertimeCalculationType = payroll.OvertimeCalculationType(calcType)
	if ump.Valid {
		v := ump.Decimal
		st.UMP = &v
	}
	st.UpdatedAt = parseTime(upd)
	return st, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// =============================================================================
// PERIODS
// =============================================================================

const periodColumns = `id, tenant_id, period_start, period_end, is_finalized, finalized_at, created_at, updated_at`

// SavePeriod inserts or reschedules a period. Finalized periods are never
// overwritten; attempting it returns ErrPeriodFinalized.
func (s *Store) SavePeriod(ctx context.Context, p payroll.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_periods (`+periodColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			updated_at = excluded.updated_at
		WHERE payroll_periods.is_finalized = 0
		  AND payroll_periods.tenant_id = excluded.tenant_id
	`,
		string(p.ID), string(p.TenantID), p.Start.String(), p.End.String(),
		boolInt(p.IsFinalized), nullTime(p.FinalizedAt), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save payroll period: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return generic.NewRuleError(generic.ErrPeriodFinalized, "payroll_period", string(p.ID), "is_finalized", "finalized periods cannot be edited")
	}
	return nil
}

func (s *Store) GetPeriod(ctx context.Context, tenantID generic.TenantID, id payroll.PeriodID) (payroll.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPeriod(ctx, s.db, tenantID, id)
}

func getPeriod(ctx context.Context, db *sql.DB, tenantID generic.TenantID, id payroll.PeriodID) (payroll.Period, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+periodColumns+` FROM payroll_periods WHERE tenant_id = ? AND id = ?`,
		string(tenantID), string(id))
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Period{}, notFound("payroll_period", string(id))
	}
	return p, err
}

func (s *Store) ListPeriods(ctx context.Context, tenantID generic.TenantID) ([]payroll.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+periodColumns+` FROM payroll_periods WHERE tenant_id = ? ORDER BY period_start`,
		string(tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll periods: %w", err)
	}
	defer rows.Close()

	var out []payroll.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListOverduePeriods returns open periods of every tenant that ended
// before the given date, oldest first.
func (s *Store) ListOverduePeriods(ctx context.Context, before generic.Date) ([]payroll.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+periodColumns+` FROM payroll_periods
		 WHERE is_finalized = 0 AND period_end < ?
		 ORDER BY period_end, tenant_id`,
		before.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue payroll periods: %w", err)
	}
	defer rows.Close()

	var out []payroll.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FinalizePeriod flips is_finalized with a conditional UPDATE, so only one
// of several concurrent callers succeeds.
func (s *Store) FinalizePeriod(ctx context.Context, tenantID generic.TenantID, id payroll.PeriodID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE payroll_periods
		SET is_finalized = 1, finalized_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND is_finalized = 0
	`, formatTime(at), formatTime(at), string(tenantID), string(id))
	if err != nil {
		return fmt.Errorf("failed to finalize payroll period: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finalize payroll period: %w", err)
	}
	if n == 1 {
		return nil
	}

	if _, err := getPeriod(ctx, s.db, tenantID, id); err != nil {
		return err
	}
	return generic.NewRuleError(generic.ErrPeriodNotFinalizable, "payroll_period", string(id), "is_finalized", "already finalized")
}

func scanPeriod(row scanner) (payroll.Period, error) {
	var (
		p                        payroll.Period
		id, tenantID, start, end string
		finalized                int
		finalizedAt              sql.NullString
		createdAt, updatedAt     string
	)
	if err := row.Scan(&id, &tenantID, &start, &end, &finalized, &finalizedAt, &createdAt, &updatedAt); err != nil {
		return payroll.Period{}, err
	}

	var err error
	if p.Start, err = generic.ParseDate(start); err != nil {
		return payroll.Period{}, fmt.Errorf("payroll period %s: %w", id, err)
	}
	if p.End, err = generic.ParseDate(end); err != nil {
		return payroll.Period{}, fmt.Errorf("payroll period %s: %w", id, err)
	}
	p.ID = payroll.PeriodID(id)
	p.TenantID = generic.TenantID(tenantID)
	p.IsFinalized = finalized == 1
	p.FinalizedAt = parseNullTime(finalizedAt)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// =============================================================================
// DETAILS
// =============================================================================

const detailColumns = `id, tenant_id, period_id, staff_id, basic_salary_amount,
	fixed_allowance_amount, overtime_hours, overtime_pay, bonus_amount,
	deductions_amount, take_home_pay, mode, total_work_hours, hourly_rate,
	gross_pay, is_paid, paid_at, created_at, updated_at`

// SaveDetail inserts or replaces a detail. A paid detail is locked: any
// further save returns ErrDetailLocked.
func (s *Store) SaveDetail(ctx context.Context, d payroll.Detail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveDetail(ctx, s.db, d)
}

func saveDetail(ctx context.Context, db execer, d payroll.Detail) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO payroll_details (`+detailColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			basic_salary_amount = excluded.basic_salary_amount,
			fixed_allowance_amount = excluded.fixed_allowance_amount,
			overtime_hours = excluded.overtime_hours,
			overtime_pay = excluded.overtime_pay,
			bonus_amount = excluded.bonus_amount,
			deductions_amount = excluded.deductions_amount,
			take_home_pay = excluded.take_home_pay,
			mode = excluded.mode,
			total_work_hours = excluded.total_work_hours,
			hourly_rate = excluded.hourly_rate,
			gross_pay = excluded.gross_pay,
			is_paid = excluded.is_paid,
			paid_at = excluded.paid_at,
			updated_at = excluded.updated_at
		WHERE payroll_details.is_paid = 0
		  AND payroll_details.tenant_id = excluded.tenant_id
	`,
		string(d.ID), string(d.TenantID), string(d.PeriodID), string(d.StaffID), d.BasicSalaryAmount,
		d.FixedAllowanceAmount, d.OvertimeHours, d.OvertimePay, d.BonusAmount,
		d.DeductionsAmount, d.TakeHomePay, string(d.Mode), d.TotalWorkHours, d.HourlyRate,
		d.GrossPay, boolInt(d.IsPaid), nullTime(d.PaidAt), formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.NewRuleError(generic.ErrInconsistentDetail, "payroll_detail", string(d.ID), "staff_id",
				"staff member already has a detail in this period")
		}
		return fmt.Errorf("failed to save payroll detail: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return generic.NewRuleError(generic.ErrDetailLocked, "payroll_detail", string(d.ID), "is_paid", "paid details cannot be changed")
	}
	return nil
}

func (s *Store) GetDetail(ctx context.Context, tenantID generic.TenantID, id payroll.DetailID) (payroll.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+detailColumns+` FROM payroll_details WHERE tenant_id = ? AND id = ?`,
		string(tenantID), string(id))
	d, err := scanDetail(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Detail{}, notFound("payroll_detail", string(id))
	}
	return d, err
}

func (s *Store) ListDetails(ctx context.Context, tenantID generic.TenantID, periodID payroll.PeriodID) ([]payroll.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+detailColumns+` FROM payroll_details WHERE tenant_id = ? AND period_id = ? ORDER BY staff_id`,
		string(tenantID), string(periodID))
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll details: %w", err)
	}
	defer rows.Close()

	var out []payroll.Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDetail(row scanner) (payroll.Detail, error) {
	var (
		d                               payroll.Detail
		id, tenantID, periodID, staffID string
		mode                            string
		paid                            int
		paidAt                          sql.NullString
		createdAt, updatedAt            string
	)
	err := row.Scan(&id, &tenantID, &periodID, &staffID, &d.BasicSalaryAmount,
		&d.FixedAllowanceAmount, &d.OvertimeHours, &d.OvertimePay, &d.BonusAmount,
		&d.DeductionsAmount, &d.TakeHomePay, &mode, &d.TotalWorkHours, &d.HourlyRate,
		&d.GrossPay, &paid, &paidAt, &createdAt, &updatedAt)
	if err != nil {
		return payroll.Detail{}, err
	}
	d.ID = payroll.DetailID(id)
	d.TenantID = generic.TenantID(tenantID)
	d.PeriodID = payroll.PeriodID(periodID)
	d.StaffID = generic.StaffID(staffID)
	d.Mode = payroll.Mode(mode)
	d.IsPaid = paid == 1
	d.PaidAt = parseNullTime(paidAt)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return d, nil
}

var _ payroll.Repository = (*Store)(nil)
