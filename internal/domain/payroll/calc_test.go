package payroll

import (
	"testing"
	"time"

	"paydesk/internal/domain/penalty"
	"paydesk/internal/domain/timeledger"
)

var testRates = RateConfig{
	HourlyRate:          125,
	StreakBonusAmount:   500,
	StreakThresholdDays: 28,
	StreakWindowDays:    28,
	EligibleRoles:       []string{"employee", "manager", "ceo"},
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeWeekFullScenario(t *testing.T) {
	weekStart := day(2026, 8, 17)
	weekEnd := day(2026, 8, 23)

	// 48 hours logged inside the pay period, and a qualifying day on every
	// day of the trailing four weeks.
	var summaries []timeledger.DailySummary
	for i := 0; i < 30; i++ {
		d := weekEnd.AddDate(0, 0, -i)
		ds := timeledger.DailySummary{EmployeeID: 7, WorkDate: d, MeetsMinimum: true}
		if !d.Before(weekStart) {
			ds.BillableSeconds = int64(48 * 3600 / 7)
		}
		summaries = append(summaries, ds)
	}
	// Distribute the rounding remainder so the week sums to exactly 48h.
	total := int64(0)
	for _, ds := range summaries {
		total += ds.BillableSeconds
	}
	summaries[0].BillableSeconds += 48*3600 - total

	penalties := []penalty.Entry{{ID: 1, EmployeeID: 7, Amount: 200, Reason: "late delivery"}}

	week := ComputeWeek(7, weekStart, weekEnd, testRates, summaries, penalties)

	if week.Hours != 48 {
		t.Fatalf("expected 48 hours, got %v", week.Hours)
	}
	if week.BaseAmount != 6000 {
		t.Fatalf("expected base 6000, got %v", week.BaseAmount)
	}
	if week.StreakBonus != 500 {
		t.Fatalf("expected streak bonus 500, got %v", week.StreakBonus)
	}
	if week.Deductions != 200 {
		t.Fatalf("expected deductions 200, got %v", week.Deductions)
	}
	if week.FinalAmount != 6300 {
		t.Fatalf("expected final amount 6300, got %v", week.FinalAmount)
	}
	if week.Status != StatusPending {
		t.Fatalf("expected pending status, got %q", week.Status)
	}
}

func TestComputeWeekNoData(t *testing.T) {
	weekStart := day(2026, 8, 17)
	week := ComputeWeek(3, weekStart, weekStart.AddDate(0, 0, 6), testRates, nil, nil)

	if week.Hours != 0 || week.BaseAmount != 0 || week.FinalAmount != 0 {
		t.Fatalf("expected zero amounts, got %+v", week)
	}
	if week.Status != StatusPending {
		t.Fatalf("expected pending status, got %q", week.Status)
	}
}

func TestComputeWeekNegativeFinalAllowed(t *testing.T) {
	weekStart := day(2026, 8, 17)
	summaries := []timeledger.DailySummary{
		{EmployeeID: 3, WorkDate: weekStart, BillableSeconds: 3600, MeetsMinimum: false},
	}
	penalties := []penalty.Entry{
		{ID: 1, EmployeeID: 3, Amount: 300, Reason: "equipment damage"},
		{ID: 2, EmployeeID: 3, Amount: 50, Reason: "late delivery"},
	}

	week := ComputeWeek(3, weekStart, weekStart.AddDate(0, 0, 6), testRates, summaries, penalties)

	if week.BaseAmount != 125 {
		t.Fatalf("expected base 125, got %v", week.BaseAmount)
	}
	if week.FinalAmount != -225 {
		t.Fatalf("expected final -225, got %v", week.FinalAmount)
	}
}

func TestComputeWeekStreakBelowThreshold(t *testing.T) {
	weekStart := day(2026, 8, 17)
	weekEnd := weekStart.AddDate(0, 0, 6)

	var summaries []timeledger.DailySummary
	for i := 0; i < 27; i++ {
		summaries = append(summaries, timeledger.DailySummary{
			EmployeeID: 9, WorkDate: weekEnd.AddDate(0, 0, -i), MeetsMinimum: true,
		})
	}

	week := ComputeWeek(9, weekStart, weekEnd, testRates, summaries, nil)
	if week.StreakBonus != 0 {
		t.Fatalf("expected no streak bonus with 27 qualifying days, got %v", week.StreakBonus)
	}
}

func TestComputeWeekIgnoresQualifyingDaysOutsideWindow(t *testing.T) {
	weekStart := day(2026, 8, 17)
	weekEnd := weekStart.AddDate(0, 0, 6)

	// 20 days inside the window plus 10 stale ones before it.
	var summaries []timeledger.DailySummary
	for i := 0; i < 20; i++ {
		summaries = append(summaries, timeledger.DailySummary{
			EmployeeID: 4, WorkDate: weekEnd.AddDate(0, 0, -i), MeetsMinimum: true,
		})
	}
	for i := 0; i < 10; i++ {
		summaries = append(summaries, timeledger.DailySummary{
			EmployeeID: 4, WorkDate: weekEnd.AddDate(0, 0, -40-i), MeetsMinimum: true,
		})
	}

	week := ComputeWeek(4, weekStart, weekEnd, testRates, summaries, nil)
	if week.StreakBonus != 0 {
		t.Fatalf("stale qualifying days must not count toward the streak, got bonus %v", week.StreakBonus)
	}
}

func TestComputeWeekHoursRounding(t *testing.T) {
	weekStart := day(2026, 8, 17)
	summaries := []timeledger.DailySummary{
		{EmployeeID: 5, WorkDate: weekStart, BillableSeconds: 5000},
	}

	week := ComputeWeek(5, weekStart, weekStart.AddDate(0, 0, 6), testRates, summaries, nil)
	if week.Hours != 1.39 {
		t.Fatalf("expected 5000s to round to 1.39 hours, got %v", week.Hours)
	}
	if week.FinalAmount != week.BaseAmount+week.StreakBonus-week.Deductions {
		t.Fatalf("final amount must equal base + bonus - deductions exactly")
	}
}

func TestWeekBounds(t *testing.T) {
	cases := []struct {
		in        time.Time
		wantStart time.Time
	}{
		{day(2026, 8, 17), day(2026, 8, 17)}, // Monday maps to itself
		{day(2026, 8, 19), day(2026, 8, 17)},
		{day(2026, 8, 23), day(2026, 8, 17)}, // Sunday belongs to the same week
	}
	for _, tc := range cases {
		start, end := WeekBounds(tc.in)
		if !start.Equal(tc.wantStart) {
			t.Fatalf("WeekBounds(%v) start = %v, want %v", tc.in, start, tc.wantStart)
		}
		if !end.Equal(tc.wantStart.AddDate(0, 0, 6)) {
			t.Fatalf("WeekBounds(%v) end = %v", tc.in, end)
		}
	}
}
