package payroll

import (
	"time"

	"github.com/warp/shiftpay/generic"
)

// =============================================================================
// PAYROLL PERIOD - Open -> Finalized
// =============================================================================

type PeriodID string

type PeriodStatus string

const (
	PeriodOpen      PeriodStatus = "open"
	PeriodFinalized PeriodStatus = "finalized"
)

const (
	MaxPeriodDays         = 31
	MaxPeriodLeadInMonths = 6
)

type Period struct {
	ID          PeriodID
	TenantID    generic.TenantID
	Start       generic.Date
	End         generic.Date
	IsFinalized bool
	FinalizedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Period) Range() generic.DateRange {
	return generic.DateRange{Start: p.Start, End: p.End}
}

func (p Period) Status() PeriodStatus {
	if p.IsFinalized {
		return PeriodFinalized
	}
	return PeriodOpen
}

// NewPeriod builds and validates an Open period against its siblings.
func NewPeriod(id PeriodID, tenantID generic.TenantID, start, end generic.Date, siblings []Period, now time.Time) (Period, error) {
	p := Period{
		ID:        id,
		TenantID:  tenantID,
		Start:     start,
		End:       end,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(siblings, now); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate checks the date rules and the no-overlap rule. siblings may
// include p itself; it is skipped by ID.
func (p Period) Validate(siblings []Period, now time.Time) error {
	id := string(p.ID)

	if p.Start.IsZero() || p.End.IsZero() {
		return generic.NewRuleError(generic.ErrInvalidPeriod, "payroll_period", id, "period_start", "start and end are required")
	}
	if !p.Start.Before(p.End) {
		return generic.NewRuleError(generic.ErrInvalidPeriod, "payroll_period", id, "period_end", "must be after period_start").
			WithBounds(p.End.String(), p.Start.String())
	}
	// Both ends count: Jan 1-31 is 31 days, Jan 1-Feb 1 is 32.
	if span := p.Range().SpanDays(); span > MaxPeriodDays {
		return generic.NewRuleError(generic.ErrInvalidPeriod, "payroll_period", id, "period_end", "period spans too many days").
			WithBounds(span, MaxPeriodDays)
	}
	if latest := generic.DateOf(now).AddMonths(MaxPeriodLeadInMonths); p.Start.After(latest) {
		return generic.NewRuleError(generic.ErrInvalidPeriod, "payroll_period", id, "period_start", "is too far in the future").
			WithBounds(p.Start.String(), latest.String())
	}

	for _, other := range siblings {
		if (p.ID != "" && other.ID == p.ID) || other.TenantID != p.TenantID {
			continue
		}
		if p.Range().Overlaps(other.Range()) {
			return generic.NewRuleError(generic.ErrPeriodOverlap, "payroll_period", id, "period_start", "overlaps period "+string(other.ID)).
				WithBounds(p.Range().String(), other.Range().String())
		}
	}
	return nil
}

// Reschedule moves an Open period, re-running every creation rule.
func Reschedule(p Period, start, end generic.Date, siblings []Period, now time.Time) (Period, error) {
	if p.IsFinalized {
		return p, generic.NewRuleError(generic.ErrPeriodFinalized, "payroll_period", string(p.ID), "is_finalized", "finalized periods cannot be edited")
	}
	next := p
	next.Start = start
	next.End = end
	if err := next.Validate(siblings, now); err != nil {
		return p, err
	}
	next.UpdatedAt = now
	return next, nil
}

// Finalize locks the period. The period must be Open and its end date must
// have passed; a second call is rejected, not ignored.
func Finalize(p Period, now time.Time) (Period, error) {
	id := string(p.ID)
	if p.IsFinalized {
		return p, generic.NewRuleError(generic.ErrPeriodNotFinalizable, "payroll_period", id, "is_finalized", "already finalized")
	}
	if today := generic.DateOf(now); !today.After(p.End) {
		return p, generic.NewRuleError(generic.ErrPeriodNotFinalizable, "payroll_period", id, "period_end", "has not passed yet").
			WithBounds(today.String(), p.End.String())
	}

	p.IsFinalized = true
	p.FinalizedAt = &now
	p.UpdatedAt = now
	return p, nil
}
