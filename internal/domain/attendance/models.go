package attendance

import (
	"encoding/json"
	"math"
	"time"
)

type Action string

const (
	ActionClockIn  Action = "clock_in"
	ActionClockOut Action = "clock_out"
)

const (
	// SummaryDays is the window of the monthly view, today included.
	SummaryDays = 30
	// RecentLimit caps the caller's own recent records.
	RecentLimit = 30
)

func ParseAction(value string) (Action, error) {
	switch Action(value) {
	case ActionClockIn, ActionClockOut:
		return Action(value), nil
	}
	return "", ErrInvalidAction
}

// Record is one employee's attendance for one calendar day.
type Record struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName"`
	Date         time.Time  `json:"date"`
	ClockIn      *time.Time `json:"clockIn"`
	ClockOut     *time.Time `json:"clockOut"`
}

// HoursWorked is clock-out minus clock-in in hours, rounded to two decimals.
// It is zero while either timestamp is missing or when clock-out precedes
// clock-in.
func (r Record) HoursWorked() float64 {
	if r.ClockIn == nil || r.ClockOut == nil {
		return 0
	}
	d := r.ClockOut.Sub(*r.ClockIn)
	if d <= 0 {
		return 0
	}
	return math.Round(d.Hours()*100) / 100
}

func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal(struct {
		alias
		Date        string  `json:"date"`
		HoursWorked float64 `json:"hoursWorked"`
	}{alias: alias(r), Date: dayKey(r.Date), HoursWorked: r.HoursWorked()})
}

// DaySummary is one day of the monthly view.
type DaySummary struct {
	Date       string     `json:"date"`
	ClockIn    *time.Time `json:"clockIn"`
	ClockOut   *time.Time `json:"clockOut"`
	WasPresent bool       `json:"wasPresent"`
}

// EmployeeRef is the slice of an employee profile the ledger needs for
// ownership checks.
type EmployeeRef struct {
	ID           string
	IdentityID   string
	Name         string
	DepartmentID string
	ManagerID    string
}

type Range struct {
	From time.Time
	To   time.Time
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// civilDay truncates t to its calendar date in t's own location, returned as
// midnight UTC so it round-trips through a DATE column unchanged.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Summarize builds the day-by-day view for the `days` calendar days ending
// at today, oldest first. Days without a record are absent.
func Summarize(records []Record, today time.Time, days int) []DaySummary {
	byDay := make(map[string]Record, len(records))
	for _, rec := range records {
		byDay[dayKey(rec.Date)] = rec
	}

	end := civilDay(today)
	out := make([]DaySummary, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := dayKey(end.AddDate(0, 0, -i))
		entry := DaySummary{Date: key}
		if rec, ok := byDay[key]; ok {
			entry.ClockIn = rec.ClockIn
			entry.ClockOut = rec.ClockOut
			entry.WasPresent = rec.ClockIn != nil
		}
		out = append(out, entry)
	}
	return out
}
