package payroll

import (
	"math"
	"time"

	"paydesk/internal/domain/penalty"
	"paydesk/internal/domain/timeledger"
)

// ComputeWeek builds one employee's pay record for [weekStart, weekEnd].
// summaries must cover at least the streak window ending at weekEnd; hours
// only count days inside the pay period. Deterministic given its inputs.
func ComputeWeek(employeeID int64, weekStart, weekEnd time.Time, rates RateConfig, summaries []timeledger.DailySummary, penalties []penalty.Entry) Week {
	var totalSeconds int64
	streakDays := 0
	windowStart := weekEnd.AddDate(0, 0, -(rates.StreakWindowDays - 1))

	for _, day := range summaries {
		if !day.WorkDate.Before(weekStart) && !day.WorkDate.After(weekEnd) {
			totalSeconds += day.BillableSeconds
		}
		if day.MeetsMinimum && !day.WorkDate.Before(windowStart) && !day.WorkDate.After(weekEnd) {
			streakDays++
		}
	}

	hours := round2(float64(totalSeconds) / 3600)
	base := round2(hours * rates.HourlyRate)

	var bonus float64
	if streakDays >= rates.StreakThresholdDays {
		bonus = rates.StreakBonusAmount
	}

	var deductions float64
	for _, p := range penalties {
		deductions += p.Amount
	}
	deductions = round2(deductions)

	return Week{
		EmployeeID:  employeeID,
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		Hours:       hours,
		BaseAmount:  base,
		StreakBonus: bonus,
		Deductions:  deductions,
		FinalAmount: round2(base + bonus - deductions),
		Status:      StatusPending,
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// WeekBounds returns the Monday and Sunday of the week containing t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	start := t.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}
