package auth

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

var Roles = []string{RoleAdmin, RoleManager, RoleEmployee}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const (
	minPasswordLength = 8
	mfaIssuer         = "PeopleOps"
)
