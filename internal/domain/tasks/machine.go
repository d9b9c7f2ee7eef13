package tasks

// Submit moves an in-progress task to submitted. The task is left unchanged
// on error.
func Submit(t *Task) error {
	if t.Status != StatusInProgress {
		return ErrNotSubmittable
	}
	t.Status = StatusSubmitted
	return nil
}

// Review applies the assigner's verdict to a submitted task. Accepting
// completes it and clears the rejection comment; rejecting sends it back to
// in progress carrying the comment verbatim. Completed tasks are terminal.
func Review(t *Task, action string, comment string) error {
	act := ReviewAction(action)
	if act != ReviewAccept && act != ReviewReject {
		return ErrInvalidReview
	}
	if t.Status != StatusSubmitted {
		return ErrNotReviewable
	}
	switch act {
	case ReviewAccept:
		t.Status = StatusCompleted
		t.RejectionComment = ptr("")
	case ReviewReject:
		t.Status = StatusInProgress
		t.RejectionComment = ptr(comment)
	}
	return nil
}

func ptr(s string) *string { return &s }
