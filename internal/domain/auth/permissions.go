package auth

import "sort"

type Capability string

const (
	CapSessionSelf      Capability = "session.self"
	CapIdentitiesRead   Capability = "identities.read"
	CapIdentitiesWrite  Capability = "identities.write"
	CapDirectoryRead    Capability = "directory.read"
	CapDirectoryWrite   Capability = "directory.write"
	CapAttendanceOwn    Capability = "attendance.own"
	CapAttendanceManage Capability = "attendance.manage"
	CapAttendanceTeam   Capability = "attendance.team"
	CapTasksUse         Capability = "tasks.use"
	CapTasksManage      Capability = "tasks.manage"
	CapRequestsSubmit   Capability = "requests.submit"
	CapRequestsReview   Capability = "requests.review"
	CapLeaveTypesWrite  Capability = "leave_types.write"
	CapAuditRead        Capability = "audit.read"
	CapMetricsRead      Capability = "metrics.read"
)

var DefaultCapabilities = []Capability{
	CapSessionSelf,
	CapIdentitiesRead,
	CapIdentitiesWrite,
	CapDirectoryRead,
	CapDirectoryWrite,
	CapAttendanceOwn,
	CapAttendanceManage,
	CapAttendanceTeam,
	CapTasksUse,
	CapTasksManage,
	CapRequestsSubmit,
	CapRequestsReview,
	CapLeaveTypesWrite,
	CapAuditRead,
	CapMetricsRead,
}

var baseCapabilities = []Capability{
	CapSessionSelf,
	CapDirectoryRead,
	CapAttendanceOwn,
	CapAttendanceTeam,
	CapTasksUse,
	CapRequestsSubmit,
}

var RoleCapabilities = map[string][]Capability{
	RoleEmployee: baseCapabilities,
	RoleManager:  baseCapabilities,
	RoleAdmin:    DefaultCapabilities,
}

// CapabilitySet is the resolved, immutable set of capabilities for one request.
type CapabilitySet map[Capability]struct{}

// CapabilitiesFor resolves a role to its capability set. Unknown roles get none.
func CapabilitiesFor(role string) CapabilitySet {
	caps := RoleCapabilities[role]
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns the capabilities sorted by name.
func (s CapabilitySet) List() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}
