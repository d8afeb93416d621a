package payroll

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/generic"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// =============================================================================
// EXPORT - Period details as an .xlsx workbook
// =============================================================================
//
// Layout (one sheet "Payroll"):
//   - Row 1: title with the period range
//   - Row 2: header
//   - Rows 3..n: one detail per staff member, sorted by staff id
//   - Last row: column totals

var exportColumns = []string{
	"Staff", "Mode", "Work Hours", "Hourly Rate", "Basic Salary", "Allowance",
	"Overtime Hours", "Overtime Pay", "Bonus", "Deductions", "Take Home", "Paid",
}

// ExportPeriod renders a period's details. The returned name is a suggested
// file name.
func (s *Service) ExportPeriod(ctx context.Context, tenantID generic.TenantID, periodID PeriodID) (*bytes.Buffer, string, error) {
	period, err := s.repo.GetPeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, "", err
	}
	details, err := s.repo.ListDetails(ctx, tenantID, periodID)
	if err != nil {
		return nil, "", fmt.Errorf("list details: %w", err)
	}

	buf, err := WriteWorkbook(period, details)
	if err != nil {
		s.log.Error("export payroll workbook", zap.String("period_id", string(periodID)), zap.Error(err))
		return nil, "", err
	}
	name := fmt.Sprintf("payroll_%s_%s.xlsx", period.Start, period.End)
	return buf, name, nil
}

// WriteWorkbook renders details into an in-memory .xlsx file.
func WriteWorkbook(period Period, details []Detail) (*bytes.Buffer, error) {
	sorted := make([]Detail, len(details))
	copy(sorted, details)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StaffID < sorted[j].StaffID })

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Payroll"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	lastCol := colName(len(exportColumns))
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "B", lastCol, 14)

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Payroll %s - %s (%s)", period.Start, period.End, period.Status()))
	_ = f.MergeCell(sheet, "A1", lastCol+"1")
	_ = f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)

	for i, title := range exportColumns {
		_ = f.SetCellValue(sheet, cell(colName(i+1), 2), title)
	}
	_ = f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle)

	totals := make([]decimal.Decimal, len(exportColumns))
	row := 3
	for _, d := range sorted {
		values := []any{
			string(d.StaffID), string(d.Mode),
			money(d.TotalWorkHours), money(d.HourlyRate), money(d.BasicSalaryAmount), money(d.FixedAllowanceAmount),
			money(d.OvertimeHours), money(d.OvertimePay), money(d.BonusAmount), money(d.DeductionsAmount),
			money(d.TakeHomePay), d.IsPaid,
		}
		for i, v := range values {
			_ = f.SetCellValue(sheet, cell(colName(i+1), row), v)
		}
		for i, v := range []decimal.Decimal{d.BasicSalaryAmount, d.FixedAllowanceAmount, d.OvertimeHours, d.OvertimePay, d.BonusAmount, d.DeductionsAmount, d.TakeHomePay} {
			totals[i+4] = totals[i+4].Add(v)
		}
		row++
	}

	_ = f.SetCellValue(sheet, cell("A", row), "Total")
	for i := 4; i <= 10; i++ {
		_ = f.SetCellValue(sheet, cell(colName(i+1), row), money(totals[i]))
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func money(d decimal.Decimal) float64 {
	f, _ := generic.RoundMoney(d).Float64()
	return f
}

func colName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
