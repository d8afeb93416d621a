package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/payroll"
)

func computedDetail(t *testing.T) payroll.Detail {
	t.Helper()
	d, err := payroll.Engine{}.CalculateFromWorkDays(salary("1730"), monthlySetting(), nineHourDays(), true, payroll.Adjustments{})
	require.NoError(t, err)
	d.ID = "detail-1"
	return d
}

func TestAddBonus_RecomputesTakeHome(t *testing.T) {
	d := computedDetail(t)

	next, err := payroll.AddBonus(d, dec("100"))
	require.NoError(t, err)
	assertDecimal(t, "100", next.BonusAmount, "bonus")
	assertDecimal(t, "1935", next.TakeHomePay, "take home")
	assert.True(t, d.BonusAmount.IsZero(), "input detail is not modified")
	require.NoError(t, next.Validate())
}

func TestAddDeduction_FloorsAtZero(t *testing.T) {
	d := computedDetail(t)

	next, err := payroll.AddDeduction(d, dec("5000"))
	require.NoError(t, err)
	assert.True(t, next.TakeHomePay.IsZero())
	require.NoError(t, next.Validate())
}

func TestAmendments_RejectNegativeDelta(t *testing.T) {
	d := computedDetail(t)

	_, err := payroll.AddBonus(d, dec("-1"))
	assert.ErrorIs(t, err, generic.ErrNegativeAmount)

	_, err = payroll.AddDeduction(d, dec("-0.01"))
	assert.ErrorIs(t, err, generic.ErrNegativeAmount)
}

func TestAmendments_RejectSubCentDelta(t *testing.T) {
	d := computedDetail(t)

	_, err := payroll.AddBonus(d, dec("10.005"))
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
	assert.True(t, generic.IsClientError(err))

	_, err = payroll.AddDeduction(d, dec("0.001"))
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	// Trailing zeros are not extra precision
	next, err := payroll.AddBonus(d, dec("10.500"))
	require.NoError(t, err)
	assertDecimal(t, "10.5", next.BonusAmount, "bonus")
}

func TestAddBonus_PaidDetailLocked(t *testing.T) {
	// GIVEN: A paid detail
	// WHEN: Adding a bonus
	// THEN: ErrDetailLocked, detail unchanged

	paidAt := time.Date(2025, time.November, 5, 10, 0, 0, 0, time.UTC)
	paid, err := payroll.MarkPaid(computedDetail(t), paidAt)
	require.NoError(t, err)

	next, err := payroll.AddBonus(paid, dec("100"))
	assert.ErrorIs(t, err, generic.ErrDetailLocked)
	assert.Equal(t, paid, next)

	_, err = payroll.AddDeduction(paid, dec("1"))
	assert.ErrorIs(t, err, generic.ErrDetailLocked)
}

func TestMarkPaid_Once(t *testing.T) {
	at := time.Date(2025, time.November, 5, 10, 0, 0, 0, time.UTC)
	paid, err := payroll.MarkPaid(computedDetail(t), at)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, at, *paid.PaidAt)

	_, err = payroll.MarkPaid(paid, at.Add(time.Hour))
	assert.ErrorIs(t, err, generic.ErrDetailLocked)
}

func TestTakeHomeInvariant(t *testing.T) {
	// take-home == max(0, basic + allowance + overtimePay + bonus - deductions)
	// across a spread of amendments
	d := computedDetail(t)
	steps := []struct {
		bonus  bool
		amount string
	}{
		{true, "10.10"},
		{false, "3.333"},
		{true, "0.005"},
		{false, "2000"},
		{true, "500"},
	}

	var err error
	for _, step := range steps {
		if step.bonus {
			d, err = payroll.AddBonus(d, dec(step.amount))
		} else {
			d, err = payroll.AddDeduction(d, dec(step.amount))
		}
		require.NoError(t, err)

		want := generic.RoundMoney(generic.NonNegative(
			d.BasicSalaryAmount.Add(d.FixedAllowanceAmount).Add(d.OvertimePay).Add(d.BonusAmount).Sub(d.DeductionsAmount)))
		assert.True(t, d.TakeHomePay.Equal(want), "take home %s, want %s", d.TakeHomePay, want)
		assert.False(t, d.TakeHomePay.IsNegative())
	}
}

func TestDetail_Validate_DetectsTampering(t *testing.T) {
	d := computedDetail(t)
	d.TakeHomePay = dec("1")
	assert.ErrorIs(t, d.Validate(), generic.ErrInconsistentDetail)

	d = computedDetail(t)
	d.OvertimeHours = dec("-1")
	assert.ErrorIs(t, d.Validate(), generic.ErrNegativeAmount)
}
