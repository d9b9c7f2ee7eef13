package requests

import (
	"testing"
	"time"
)

func TestCalculateDays(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{name: "same day", end: start, want: 1},
		{name: "three days", end: time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), want: 3},
		{name: "time of day ignored", end: time.Date(2025, 1, 12, 23, 30, 0, 0, time.UTC), want: 3},
		{name: "across month", end: time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC), want: 31},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateDays(start, tc.end)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d days, got %d", tc.want, got)
			}
		})
	}
}

func TestCalculateDaysInvalid(t *testing.T) {
	start := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)

	if _, err := CalculateDays(start, end); err == nil {
		t.Fatal("expected error for invalid range")
	}
}

func TestReviewTransitions(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		from    Status
		action  string
		want    Status
		wantErr bool
	}{
		{name: "complete", from: StatusPending, action: "complete", want: StatusCompleted},
		{name: "decline", from: StatusPending, action: "decline", want: StatusDeclined},
		{name: "unknown action", from: StatusPending, action: "approve", want: StatusPending, wantErr: true},
		{name: "completed is terminal", from: StatusCompleted, action: "decline", want: StatusCompleted, wantErr: true},
		{name: "declined is terminal", from: StatusDeclined, action: "complete", want: StatusDeclined, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := Request{Status: tc.from}
			err := Review(&req, tc.action, "ok", "admin-1", at)
			if tc.wantErr != (err != nil) {
				t.Fatalf("unexpected error result: %v", err)
			}
			if req.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, req.Status)
			}
			if err == nil && (req.ReviewedAt == nil || req.ReviewedBy != "admin-1" || *req.AdminComment != "ok") {
				t.Fatalf("review metadata not recorded: %+v", req)
			}
		})
	}
}
