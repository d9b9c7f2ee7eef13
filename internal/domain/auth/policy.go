package auth

import "peopleops/internal/domain/apperr"

// Operation names one guarded entry point. Every operation has exactly one
// rule in Policy; operations missing from the table are denied.
type Operation string

const (
	OpManageOwnSession   Operation = "session.manage"
	OpListIdentities     Operation = "identities.list"
	OpGetIdentity        Operation = "identities.get"
	OpCreateIdentity     Operation = "identities.create"
	OpUpdateIdentity     Operation = "identities.update"
	OpDeleteIdentity     Operation = "identities.delete"
	OpReadDirectory      Operation = "directory.read"
	OpWriteDirectory     Operation = "directory.write"
	OpMarkAttendance     Operation = "attendance.mark"
	OpReadAttendance     Operation = "attendance.read"
	OpReadOwnAttendance  Operation = "attendance.read_own"
	OpReadTeamAttendance Operation = "attendance.read_team"
	OpUseTasks           Operation = "tasks.use"
	OpManageAnyTask      Operation = "tasks.manage_any"
	OpSubmitRequest      Operation = "requests.submit"
	OpListOwnRequests    Operation = "requests.list_own"
	OpListAllRequests    Operation = "requests.list_all"
	OpReviewRequest      Operation = "requests.review"
	OpReadLeaveTypes     Operation = "leave_types.read"
	OpWriteLeaveTypes    Operation = "leave_types.write"
	OpReadAudit          Operation = "audit.read"
	OpReadMetrics        Operation = "metrics.read"
)

// Rule grants an operation to holders of Capability. OrSelf additionally
// grants it when the caller owns the target record.
type Rule struct {
	Capability Capability
	OrSelf     bool
}

var Policy = map[Operation]Rule{
	OpManageOwnSession:   {Capability: CapSessionSelf},
	OpListIdentities:     {Capability: CapIdentitiesRead},
	OpGetIdentity:        {Capability: CapIdentitiesRead, OrSelf: true},
	OpCreateIdentity:     {Capability: CapIdentitiesWrite},
	OpUpdateIdentity:     {Capability: CapIdentitiesWrite, OrSelf: true},
	OpDeleteIdentity:     {Capability: CapIdentitiesWrite},
	OpReadDirectory:      {Capability: CapDirectoryRead},
	OpWriteDirectory:     {Capability: CapDirectoryWrite},
	OpMarkAttendance:     {Capability: CapAttendanceManage, OrSelf: true},
	OpReadAttendance:     {Capability: CapAttendanceManage, OrSelf: true},
	OpReadOwnAttendance:  {Capability: CapAttendanceOwn},
	OpReadTeamAttendance: {Capability: CapAttendanceTeam},
	OpUseTasks:           {Capability: CapTasksUse},
	OpManageAnyTask:      {Capability: CapTasksManage},
	OpSubmitRequest:      {Capability: CapRequestsSubmit},
	OpListOwnRequests:    {Capability: CapRequestsSubmit},
	OpListAllRequests:    {Capability: CapRequestsReview},
	OpReviewRequest:      {Capability: CapRequestsReview},
	OpReadLeaveTypes:     {Capability: CapRequestsSubmit},
	OpWriteLeaveTypes:    {Capability: CapLeaveTypesWrite},
	OpReadAudit:          {Capability: CapAuditRead},
	OpReadMetrics:        {Capability: CapMetricsRead},
}

// Principal is the authenticated caller, resolved once per request from
// verified token claims.
type Principal struct {
	IdentityID   string
	Username     string
	Role         string
	Capabilities CapabilitySet
}

func NewPrincipal(identityID, username, role string) Principal {
	return Principal{
		IdentityID:   identityID,
		Username:     username,
		Role:         role,
		Capabilities: CapabilitiesFor(role),
	}
}

func (p Principal) Authenticated() bool {
	return p.IdentityID != ""
}

func (p Principal) Can(c Capability) bool {
	return p.Capabilities.Has(c)
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Authorize evaluates the policy for op. ownerIdentityID is the identity that
// owns the target record, or empty when the operation has no single owner.
func Authorize(p Principal, op Operation, ownerIdentityID string) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	rule, ok := Policy[op]
	if !ok {
		return ErrForbidden
	}
	if p.Can(rule.Capability) {
		return nil
	}
	if rule.OrSelf && ownerIdentityID != "" && ownerIdentityID == p.IdentityID {
		return nil
	}
	return ErrForbidden
}

// Allowed is Authorize as a predicate.
func Allowed(p Principal, op Operation, ownerIdentityID string) bool {
	return Authorize(p, op, ownerIdentityID) == nil
}

var (
	ErrUnauthenticated = apperr.New(apperr.ErrUnauthenticated, "unauthorized", "authentication required")
	ErrForbidden       = apperr.New(apperr.ErrForbidden, "forbidden", "insufficient permissions")
)
