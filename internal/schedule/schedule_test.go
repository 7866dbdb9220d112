package schedule

import (
	"testing"
	"time"

	"billetera/internal/core"
)

func TestNextDue(t *testing.T) {
	tests := []struct {
		name string
		freq core.Frequency
		last core.Date
		want string
	}{
		{"monthly mid month", core.Monthly, core.NewDate(2026, 8, 10), "2026-09-10"},
		{"monthly across year", core.Monthly, core.NewDate(2026, 12, 5), "2027-01-05"},
		{"monthly end of month normalizes", core.Monthly, core.NewDate(2026, 1, 31), "2026-03-03"},
		{"biweekly", core.Biweekly, core.NewDate(2026, 8, 10), "2026-08-25"},
		{"biweekly across month", core.Biweekly, core.NewDate(2026, 8, 25), "2026-09-09"},
		{"annual", core.Annual, core.NewDate(2026, 3, 1), "2027-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := GetCadence(tt.freq)
			if err != nil {
				t.Fatalf("GetCadence(%s): %v", tt.freq, err)
			}
			got := c.NextDue(tt.last)
			if got.String() != tt.want {
				t.Errorf("NextDue(%s) = %s, want %s", tt.last, got, tt.want)
			}
		})
	}
}

func TestGetCadenceUnknown(t *testing.T) {
	if _, err := GetCadence(core.Frequency("weekly")); err == nil {
		t.Error("GetCadence should reject an unknown frequency")
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	day := func(y, m, d int) *core.Date {
		dt := core.NewDate(y, m, d)
		return &dt
	}

	tests := []struct {
		name string
		item core.RecurringItem
		want Status
	}{
		{
			"never paid",
			core.RecurringItem{Kind: core.Service, Frequency: core.Monthly},
			StatusNoData,
		},
		{
			"monthly paid recently",
			core.RecurringItem{Kind: core.Service, Frequency: core.Monthly, LastPaid: day(2026, 8, 1)},
			StatusPaid,
		},
		{
			"monthly due in two days",
			// Paid 28 days ago, margin exhausted, due Aug 17.
			core.RecurringItem{Kind: core.Service, Frequency: core.Monthly, LastPaid: day(2026, 7, 17)},
			StatusDueSoon,
		},
		{
			"monthly pending",
			// Paid 26 days ago, due Aug 20, five days out.
			core.RecurringItem{Kind: core.Service, Frequency: core.Monthly, LastPaid: day(2026, 7, 20)},
			StatusPending,
		},
		{
			"monthly overdue",
			core.RecurringItem{Kind: core.Service, Frequency: core.Monthly, LastPaid: day(2026, 6, 1)},
			StatusOverdue,
		},
		{
			"biweekly paid recently",
			core.RecurringItem{Kind: core.Service, Frequency: core.Biweekly, LastPaid: day(2026, 8, 10)},
			StatusPaid,
		},
		{
			"biweekly due soon",
			// Paid 12 days ago, due in three.
			core.RecurringItem{Kind: core.Service, Frequency: core.Biweekly, LastPaid: day(2026, 8, 3)},
			StatusDueSoon,
		},
		{
			"biweekly overdue",
			core.RecurringItem{Kind: core.Service, Frequency: core.Biweekly, LastPaid: day(2026, 7, 10)},
			StatusOverdue,
		},
		{
			"annual paid recently",
			core.RecurringItem{Kind: core.Subscription, Frequency: core.Annual, LastPaid: day(2026, 8, 1)},
			StatusPaid,
		},
		{
			"annual pending",
			core.RecurringItem{Kind: core.Subscription, Frequency: core.Annual, LastPaid: day(2026, 1, 1)},
			StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Evaluate(tt.item, now)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if ev.Status != tt.want {
				t.Errorf("Status = %s, want %s", ev.Status, tt.want)
			}
		})
	}
}

func TestEvaluateDaysUntilDue(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	last := core.NewDate(2026, 8, 10)
	ev, err := Evaluate(core.RecurringItem{Kind: core.Service, Frequency: core.Biweekly, LastPaid: &last}, now)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.NextDue == nil || ev.NextDue.String() != "2026-08-25" {
		t.Fatalf("NextDue = %v, want 2026-08-25", ev.NextDue)
	}
	if ev.DaysUntilDue != 10 {
		t.Errorf("DaysUntilDue = %d, want 10", ev.DaysUntilDue)
	}
}
