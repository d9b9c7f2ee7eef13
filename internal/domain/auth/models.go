package auth

import "time"

type Identity struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Role         string     `json:"role"`
	IsStaff      bool       `json:"isStaff"`
	IsActive     bool       `json:"isActive"`
	MFAEnabled   bool       `json:"mfaEnabled"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	PasswordHash string     `json:"-"`
	MFASecretEnc []byte     `json:"-"`
}

// Profile is the identity summary returned alongside session tokens.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (i Identity) Profile() Profile {
	return Profile{ID: i.ID, Username: i.Username, Email: i.Email, Role: i.Role}
}

type NewAccount struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Password  string `json:"password"`
}

// AccountUpdate is a partial update; nil fields are left untouched.
type AccountUpdate struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
	Password  *string `json:"password"`
}

type Session struct {
	AccessToken     string    `json:"access"`
	RefreshToken    string    `json:"refresh"`
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
	User            Profile   `json:"user"`
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}
