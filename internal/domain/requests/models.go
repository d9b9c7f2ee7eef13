package requests

import (
	"encoding/json"
	"time"
)

type Kind string

const (
	KindGeneral Kind = "general"
	KindLeave   Kind = "leave"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDeclined  Status = "declined"
)

type ReviewAction string

const (
	ActionComplete ReviewAction = "complete"
	ActionDecline  ReviewAction = "decline"
)

// Request is something an employee asks the admins for. Leave requests
// carry a leave type and an inclusive date range.
type Request struct {
	ID              string     `json:"id"`
	Kind            Kind       `json:"kind"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	SubmittedBy     string     `json:"submittedBy"`
	SubmittedByName string     `json:"submittedByName"`
	Status          Status     `json:"status"`
	AdminComment    *string    `json:"adminComment"`
	LeaveTypeID     string     `json:"leaveTypeId,omitempty"`
	LeaveTypeName   string     `json:"leaveTypeName,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	SubmittedAt     time.Time  `json:"submittedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt"`
	ReviewedBy      string     `json:"reviewedBy,omitempty"`
}

// DaysRequested is the inclusive length of a leave request, zero otherwise.
func (r Request) DaysRequested() int {
	if r.Kind != KindLeave || r.StartDate == nil || r.EndDate == nil {
		return 0
	}
	days, err := CalculateDays(*r.StartDate, *r.EndDate)
	if err != nil {
		return 0
	}
	return days
}

func (r Request) MarshalJSON() ([]byte, error) {
	type alias Request
	out := struct {
		alias
		StartDate     *string `json:"startDate,omitempty"`
		EndDate       *string `json:"endDate,omitempty"`
		DaysRequested *int    `json:"daysRequested,omitempty"`
	}{alias: alias(r)}
	if r.Kind == KindLeave {
		days := r.DaysRequested()
		out.DaysRequested = &days
	}
	out.StartDate = civilDate(r.StartDate)
	out.EndDate = civilDate(r.EndDate)
	return json.Marshal(out)
}

func civilDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

type LeaveType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DefaultDays int       `json:"defaultDays"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Filter struct {
	// SubmittedBy limits the list to one employee. Empty lists every request.
	SubmittedBy string
	Status      Status
	Kind        Kind
	Limit       int
	Offset      int
}

type Input struct {
	Kind        string
	Name        string
	Description string
	LeaveTypeID string
	StartDate   *time.Time
	EndDate     *time.Time
}

type LeaveTypeInput struct {
	Name        string
	Description string
	DefaultDays int
}
