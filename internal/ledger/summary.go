package ledger

import (
	"sort"
	"time"

	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/timecalc"
)

// Summary aggregates the computable totals of a set of records.
type Summary struct {
	Records         int `json:"records"`
	Days            int `json:"days"`
	WorkedMinutes   int `json:"worked_minutes"`
	ExpectedMinutes int `json:"expected_minutes"`
	BalanceMinutes  int `json:"balance_minutes"`
}

// Summarize sums every known total. Records whose total is unknown count
// towards Records only, never towards Days, worked or expected time.
func Summarize(records []model.PunchRecord) Summary {
	s := Summary{Records: len(records)}
	for _, r := range records {
		m, ok := timecalc.ParseTimeToMinutes(r.Total).Value()
		if !ok {
			continue
		}
		s.Days++
		s.WorkedMinutes += m
	}
	s.ExpectedMinutes = s.Days * ExpectedMinutesPerDay
	s.BalanceMinutes = s.WorkedMinutes - s.ExpectedMinutes
	return s
}

// ComputeBank recomputes the banked-hours display string from scratch.
func ComputeBank(records []model.PunchRecord) string {
	return timecalc.FormatBankMinutes(Summarize(records).BalanceMinutes)
}

// WeekSummary is the Summary of one ISO week.
type WeekSummary struct {
	Week string    `json:"week"`
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Summary
}

// WeeklySummaries groups records by the ISO week of their date key, oldest
// week first. Records whose key is not a dd/mm/yyyy date are skipped.
func WeeklySummaries(records []model.PunchRecord, loc *time.Location) []WeekSummary {
	byWeek := map[string][]model.PunchRecord{}
	ranges := map[string][2]time.Time{}
	for _, r := range records {
		day, err := timecalc.ParseDateKey(r.Date, loc)
		if err != nil {
			continue
		}
		label := timecalc.ISOWeekLabel(day)
		if _, seen := ranges[label]; !seen {
			from, to := timecalc.WeekRange(day)
			ranges[label] = [2]time.Time{from, to}
		}
		byWeek[label] = append(byWeek[label], r)
	}

	out := make([]WeekSummary, 0, len(byWeek))
	for label, recs := range byWeek {
		rng := ranges[label]
		out = append(out, WeekSummary{Week: label, From: rng[0], To: rng[1], Summary: Summarize(recs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From.Before(out[j].From) })
	return out
}

// InRange returns the records whose date falls in [from, to], keeping the
// ledger's order. Records with unparseable keys are skipped.
func InRange(records []model.PunchRecord, from, to time.Time) []model.PunchRecord {
	var out []model.PunchRecord
	for _, r := range records {
		day, err := timecalc.ParseDateKey(r.Date, from.Location())
		if err != nil {
			continue
		}
		if timecalc.Within(day, from, to) {
			out = append(out, r)
		}
	}
	return out
}
