// Package schedule computes due dates and status buckets for recurring
// items.
//
// This file implements the Strategy Pattern for payment cadences. Each
// frequency (monthly, biweekly, annual) has its own cadence that
// encapsulates the next-due arithmetic and the grace margin after a
// payment.
package schedule

import (
	"fmt"
	"time"

	"billetera/internal/core"
)

// Status is the bucket a recurring item falls into when evaluated
// against a reference date.
type Status string

const (
	// StatusNoData means the item has never been paid.
	StatusNoData Status = "no_data"
	// StatusPaid means a payment landed within the cadence's margin.
	StatusPaid Status = "paid"
	// StatusOverdue means the computed due date has passed.
	StatusOverdue Status = "overdue"
	// StatusDueSoon means the due date is at most three days away.
	StatusDueSoon Status = "due_soon"
	// StatusPending means the due date is further out.
	StatusPending Status = "pending"
)

// dueSoonWindowDays is how close a due date has to be before the item
// is flagged as needing attention.
const dueSoonWindowDays = 3

// Cadence is the strategy interface for one payment frequency.
type Cadence interface {
	// NextDue computes the next due date from the last payment date.
	NextDue(last core.Date) core.Date
	// MarginDays is how many days after a payment the item still
	// counts as paid for the current cycle.
	MarginDays() int
}

// MonthlyCadence advances one calendar month per cycle.
type MonthlyCadence struct{}

func (MonthlyCadence) NextDue(last core.Date) core.Date {
	return core.DateFrom(last.AddDate(0, 1, 0))
}

func (MonthlyCadence) MarginDays() int { return 25 }

// BiweeklyCadence advances fifteen days per cycle, matching how
// biweekly salaries are commonly paid.
type BiweeklyCadence struct{}

func (BiweeklyCadence) NextDue(last core.Date) core.Date {
	return core.DateFrom(last.AddDate(0, 0, 15))
}

func (BiweeklyCadence) MarginDays() int { return 10 }

// AnnualCadence advances one year per cycle.
type AnnualCadence struct{}

func (AnnualCadence) NextDue(last core.Date) core.Date {
	return core.DateFrom(last.AddDate(1, 0, 0))
}

func (AnnualCadence) MarginDays() int { return 25 }

// cadences maps frequencies to their strategies.
var cadences = map[core.Frequency]Cadence{
	core.Monthly:  MonthlyCadence{},
	core.Biweekly: BiweeklyCadence{},
	core.Annual:   AnnualCadence{},
}

// GetCadence returns the cadence for a frequency, or an error for an
// unsupported one.
func GetCadence(f core.Frequency) (Cadence, error) {
	c, ok := cadences[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return c, nil
}

// Evaluation is the computed schedule state of one recurring item.
type Evaluation struct {
	Status  Status
	NextDue *core.Date
	// DaysUntilDue is negative when the item is overdue. Zero and
	// meaningless when Status is StatusNoData.
	DaysUntilDue int
}

// Evaluate buckets the item relative to now. Pure date arithmetic, no
// ledger access.
func Evaluate(it core.RecurringItem, now time.Time) (Evaluation, error) {
	c, err := GetCadence(it.Frequency)
	if err != nil {
		return Evaluation{}, err
	}
	if it.LastPaid == nil {
		return Evaluation{Status: StatusNoData}, nil
	}

	today := core.DateFrom(now)
	next := c.NextDue(*it.LastPaid)
	daysSincePaid := daysBetween(it.LastPaid.Time, today.Time)
	daysUntilDue := daysBetween(today.Time, next.Time)

	ev := Evaluation{NextDue: &next, DaysUntilDue: daysUntilDue}
	switch {
	case daysSincePaid < c.MarginDays():
		ev.Status = StatusPaid
	case daysUntilDue < 0:
		ev.Status = StatusOverdue
	case daysUntilDue <= dueSoonWindowDays:
		ev.Status = StatusDueSoon
	default:
		ev.Status = StatusPending
	}
	return ev, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
