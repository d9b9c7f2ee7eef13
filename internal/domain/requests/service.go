package requests

import (
	"context"
	"strings"
	"time"

	"peopleops/internal/domain/auth"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit files a pending request owned by the caller's employee profile.
func (s *Service) Submit(ctx context.Context, p auth.Principal, in Input) (Request, error) {
	if err := auth.Authorize(p, auth.OpSubmitRequest, ""); err != nil {
		return Request{}, err
	}
	employeeID, err := s.store.EmployeeByIdentity(ctx, p.IdentityID)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Kind:        Kind(strings.TrimSpace(in.Kind)),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		SubmittedBy: employeeID,
		Status:      StatusPending,
	}
	if req.Kind == "" {
		req.Kind = KindGeneral
	}
	switch req.Kind {
	case KindGeneral:
	case KindLeave:
		if err := s.prepareLeave(ctx, &req, in); err != nil {
			return Request{}, err
		}
	default:
		return Request{}, ErrInvalidRequest.WithMessage("kind must be general or leave")
	}
	if req.Name == "" {
		return Request{}, ErrInvalidRequest.WithMessage("name is required")
	}
	if len(req.Name) > 200 {
		return Request{}, ErrInvalidRequest.WithMessage("name must be at most 200 characters")
	}
	return s.store.Create(ctx, req)
}

func (s *Service) prepareLeave(ctx context.Context, req *Request, in Input) error {
	if in.StartDate == nil || in.EndDate == nil {
		return ErrInvalidDates.WithMessage("startDate and endDate are required for leave requests")
	}
	if _, err := CalculateDays(*in.StartDate, *in.EndDate); err != nil {
		return err
	}
	leaveTypeID := strings.TrimSpace(in.LeaveTypeID)
	if leaveTypeID == "" {
		return ErrInvalidRequest.WithMessage("leaveTypeId is required for leave requests")
	}
	lt, err := s.store.GetLeaveType(ctx, leaveTypeID)
	if err != nil {
		return err
	}
	req.LeaveTypeID = lt.ID
	req.LeaveTypeName = lt.Name
	req.StartDate = in.StartDate
	req.EndDate = in.EndDate
	if req.Name == "" {
		req.Name = lt.Name
	}
	return nil
}

// ListMine returns the caller's own requests, newest first.
func (s *Service) ListMine(ctx context.Context, p auth.Principal, filter Filter) ([]Request, int, error) {
	if err := auth.Authorize(p, auth.OpListOwnRequests, ""); err != nil {
		return nil, 0, err
	}
	employeeID, err := s.store.EmployeeByIdentity(ctx, p.IdentityID)
	if err != nil {
		return nil, 0, err
	}
	filter.SubmittedBy = employeeID
	return s.store.List(ctx, filter)
}

func (s *Service) ListAll(ctx context.Context, p auth.Principal, filter Filter) ([]Request, int, error) {
	if err := auth.Authorize(p, auth.OpListAllRequests, ""); err != nil {
		return nil, 0, err
	}
	return s.store.List(ctx, filter)
}

// Review completes or declines a pending request.
func (s *Service) Review(ctx context.Context, p auth.Principal, id string, action string, comment string) (Request, error) {
	if err := auth.Authorize(p, auth.OpReviewRequest, ""); err != nil {
		return Request{}, err
	}
	at := s.now().UTC()
	return s.store.Mutate(ctx, id, func(req *Request) error {
		return Review(req, action, strings.TrimSpace(comment), p.IdentityID, at)
	})
}

func (s *Service) ListLeaveTypes(ctx context.Context, p auth.Principal) ([]LeaveType, error) {
	if err := auth.Authorize(p, auth.OpReadLeaveTypes, ""); err != nil {
		return nil, err
	}
	return s.store.ListLeaveTypes(ctx)
}

func (s *Service) CreateLeaveType(ctx context.Context, p auth.Principal, in LeaveTypeInput) (LeaveType, error) {
	if err := auth.Authorize(p, auth.OpWriteLeaveTypes, ""); err != nil {
		return LeaveType{}, err
	}
	lt := LeaveType{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		DefaultDays: in.DefaultDays,
	}
	if lt.Name == "" {
		return LeaveType{}, ErrInvalidLeaveType.WithMessage("name is required")
	}
	if lt.DefaultDays < 0 || lt.DefaultDays > 366 {
		return LeaveType{}, ErrInvalidLeaveType.WithMessage("defaultDays must be between 0 and 366")
	}
	return s.store.CreateLeaveType(ctx, lt)
}

func (s *Service) DeleteLeaveType(ctx context.Context, p auth.Principal, id string) error {
	if err := auth.Authorize(p, auth.OpWriteLeaveTypes, ""); err != nil {
		return err
	}
	return s.store.DeleteLeaveType(ctx, id)
}
