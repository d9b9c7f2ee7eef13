package requests

import (
	"time"
)

// CalculateDays returns the inclusive number of calendar days between start
// and end.
func CalculateDays(start, end time.Time) (int, error) {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0, ErrInvalidDates
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

// Review applies an admin decision to a pending request. Completed and
// declined requests are terminal.
func Review(r *Request, action string, comment string, reviewerID string, at time.Time) error {
	var next Status
	switch ReviewAction(action) {
	case ActionComplete:
		next = StatusCompleted
	case ActionDecline:
		next = StatusDeclined
	default:
		return ErrInvalidReview
	}
	if r.Status != StatusPending {
		return ErrAlreadyReviewed
	}
	r.Status = next
	r.AdminComment = &comment
	r.ReviewedAt = &at
	r.ReviewedBy = reviewerID
	return nil
}
