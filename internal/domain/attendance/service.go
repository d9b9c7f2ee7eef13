package attendance

import (
	"context"
	"errors"
	"time"

	"peopleops/internal/domain/auth"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
	loc   *time.Location
}

// NewService builds the ledger. loc decides which calendar day "today" is;
// nil means UTC.
func NewService(store StoreAPI, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, now: time.Now, loc: loc}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	return now, civilDay(now)
}

// Mark clocks the employee in or out for today. Callers may mark themselves;
// marking someone else needs the attendance manage capability.
func (s *Service) Mark(ctx context.Context, p auth.Principal, employeeID string, action string) (Record, error) {
	if !p.Authenticated() {
		return Record{}, auth.ErrUnauthenticated
	}
	act, err := ParseAction(action)
	if err != nil {
		return Record{}, err
	}
	emp, err := s.employeeFor(ctx, p, auth.OpMarkAttendance, employeeID)
	if err != nil {
		return Record{}, err
	}
	if err := auth.Authorize(p, auth.OpMarkAttendance, emp.IdentityID); err != nil {
		return Record{}, err
	}
	now, day := s.today()
	return s.store.Mark(ctx, emp.ID, day, act, now)
}

// Monthly returns one entry per day for the last SummaryDays days, oldest
// first and ending today. The employee, their manager and admins may read it.
func (s *Service) Monthly(ctx context.Context, p auth.Principal, employeeID string) (EmployeeRef, []DaySummary, error) {
	if !p.Authenticated() {
		return EmployeeRef{}, nil, auth.ErrUnauthenticated
	}
	emp, err := s.employeeFor(ctx, p, auth.OpReadAttendance, employeeID)
	if err != nil {
		return EmployeeRef{}, nil, err
	}
	if err := s.canReadEmployee(ctx, p, emp); err != nil {
		return EmployeeRef{}, nil, err
	}

	_, day := s.today()
	from := day.AddDate(0, 0, -(SummaryDays - 1))
	records, err := s.store.ListRange(ctx, emp.ID, from, day)
	if err != nil {
		return EmployeeRef{}, nil, err
	}
	return emp, Summarize(records, day, SummaryDays), nil
}

// employeeFor loads the target of op. Callers that may only act on themselves
// or their reports get ErrForbidden for unknown ids as well, so the status
// code does not reveal which ids exist.
func (s *Service) employeeFor(ctx context.Context, p auth.Principal, op auth.Operation, employeeID string) (EmployeeRef, error) {
	emp, err := s.store.Employee(ctx, employeeID)
	if errors.Is(err, ErrEmployeeNotFound) && !auth.Allowed(p, op, "") {
		return EmployeeRef{}, auth.ErrForbidden
	}
	return emp, err
}

func (s *Service) canReadEmployee(ctx context.Context, p auth.Principal, emp EmployeeRef) error {
	if auth.Allowed(p, auth.OpReadAttendance, emp.IdentityID) {
		return nil
	}
	if emp.ManagerID != "" && auth.Allowed(p, auth.OpReadTeamAttendance, "") {
		caller, err := s.store.EmployeeByIdentity(ctx, p.IdentityID)
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			return err
		}
		if err == nil && caller.ID == emp.ManagerID {
			return nil
		}
	}
	return auth.ErrForbidden
}

// MyRecent returns the caller's latest records, newest first.
func (s *Service) MyRecent(ctx context.Context, p auth.Principal) ([]Record, error) {
	if err := auth.Authorize(p, auth.OpReadOwnAttendance, ""); err != nil {
		return nil, err
	}
	emp, err := s.store.EmployeeByIdentity(ctx, p.IdentityID)
	if err != nil {
		return nil, err
	}
	return s.store.ListRecent(ctx, emp.ID, RecentLimit)
}

// Department returns every record of the caller's department. A caller with
// no department gets an empty list.
func (s *Service) Department(ctx context.Context, p auth.Principal, window Range) (EmployeeRef, []Record, error) {
	if err := auth.Authorize(p, auth.OpReadTeamAttendance, ""); err != nil {
		return EmployeeRef{}, nil, err
	}
	caller, err := s.store.EmployeeByIdentity(ctx, p.IdentityID)
	if errors.Is(err, ErrProfileNotFound) {
		return EmployeeRef{}, nil, ErrManagerProfileNotFound
	}
	if err != nil {
		return EmployeeRef{}, nil, err
	}
	if caller.DepartmentID == "" {
		return caller, []Record{}, nil
	}
	records, err := s.store.ListByDepartment(ctx, caller.DepartmentID, window)
	if err != nil {
		return EmployeeRef{}, nil, err
	}
	return caller, records, nil
}
