package tasks

import "time"

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusCompleted  Status = "completed"
)

type ReviewAction string

const (
	ReviewAccept ReviewAction = "accept"
	ReviewReject ReviewAction = "reject"
)

// Task is an assignment from one employee (AssignedBy) to another
// (AssignedTo). AssignedBy is empty once the assigner's profile is deleted.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           Status     `json:"status"`
	Deadline         *time.Time `json:"deadline"`
	AssignedTo       string     `json:"assignedTo"`
	AssignedToName   string     `json:"assignedToName"`
	AssignedBy       string     `json:"assignedBy"`
	AssignedByName   string     `json:"assignedByName"`
	RejectionComment *string    `json:"rejectionComment"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type Participant struct {
	EmployeeID string
	IdentityID string
}

type Filter struct {
	// ParticipantID limits the list to tasks assigned to or by this
	// employee. Empty lists every task.
	ParticipantID string
	Status        Status
}

type Input struct {
	Title       string
	Description string
	Deadline    *time.Time
	AssignedTo  string
}

type Update struct {
	Title       *string
	Description *string
	Deadline    *time.Time
	// ClearDeadline removes the deadline; it wins over Deadline.
	ClearDeadline bool
	AssignedTo    *string
}
