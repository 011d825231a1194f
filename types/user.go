package types

import (
	"errors"
	"strings"
	"time"
)

// Role is the account type a user registered with.
type Role string

// Supported roles.
const (
	RoleStudent Role = "student"
	RoleFounder Role = "founder"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a raw role string and reports whether it is supported.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleStudent, RoleFounder, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// User represents an account in the system.
// It contains identity, credentials, role and the role-specific details.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// InstitutionalID is the university-issued identifier. Globally unique.
	InstitutionalID string `json:"institutionalId" db:"institutional_id"`

	// Email is the user's email address. Globally unique.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Role indicates which profile variant applies to the user.
	Role Role `json:"role" db:"role"`

	// Branch is the student's field of study. Students only.
	Branch string `json:"-" db:"branch"`

	// Year is the student's year of study. Students only.
	Year int `json:"-" db:"year"`

	// StartupName is the founder's startup. Founders only.
	StartupName string `json:"-" db:"startup_name"`

	// Designation is the administrator's title. Admins only.
	Designation string `json:"-" db:"designation"`

	// ProfileComplete is set once a founder has saved a FounderProfile.
	ProfileComplete bool `json:"profileComplete" db:"profile_complete"`

	// Active is false for soft-deactivated accounts. Users are never hard-deleted.
	Active bool `json:"active" db:"active"`

	// LastLoginAt is the time of the most recent successful login.
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile is the role-specific part of a user. Exactly one variant applies
// to a user, selected by its Role.
type Profile interface {
	Role() Role
	Validate() error
}

// StudentDetails holds the fields required for students.
type StudentDetails struct {
	Branch string `json:"branch"`
	Year   int    `json:"year"`
}

// FounderDetails holds the fields required for founders.
type FounderDetails struct {
	StartupName string `json:"startupName"`
}

// AdminDetails holds the fields required for administrators.
type AdminDetails struct {
	Designation string `json:"designation"`
}

func (StudentDetails) Role() Role { return RoleStudent }
func (FounderDetails) Role() Role { return RoleFounder }
func (AdminDetails) Role() Role   { return RoleAdmin }

// Validate reports a missing branch or an out-of-range year.
func (d StudentDetails) Validate() error {
	if strings.TrimSpace(d.Branch) == "" {
		return &FieldError{Field: "branch", Message: "branch is required for students"}
	}
	if d.Year < 1 || d.Year > 6 {
		return &FieldError{Field: "year", Message: "year must be between 1 and 6"}
	}
	return nil
}

// Validate reports a missing startup name.
func (d FounderDetails) Validate() error {
	if strings.TrimSpace(d.StartupName) == "" {
		return &FieldError{Field: "startupName", Message: "startup name is required for founders"}
	}
	return nil
}

// Validate reports a missing designation.
func (d AdminDetails) Validate() error {
	if strings.TrimSpace(d.Designation) == "" {
		return &FieldError{Field: "designation", Message: "designation is required for admins"}
	}
	return nil
}

// FieldError describes a missing or malformed field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// ErrUnknownRole is returned when a user carries an unsupported role.
var ErrUnknownRole = errors.New("unknown role")

// Profile returns the role variant carried by the user.
func (u User) Profile() (Profile, error) {
	switch u.Role {
	case RoleStudent:
		return StudentDetails{Branch: u.Branch, Year: u.Year}, nil
	case RoleFounder:
		return FounderDetails{StartupName: u.StartupName}, nil
	case RoleAdmin:
		return AdminDetails{Designation: u.Designation}, nil
	default:
		return nil, ErrUnknownRole
	}
}

// SetProfile stores the variant on the user and clears the fields of the
// other variants.
func (u *User) SetProfile(p Profile) {
	u.Role = p.Role()
	u.Branch, u.Year, u.StartupName, u.Designation = "", 0, "", ""
	switch v := p.(type) {
	case StudentDetails:
		u.Branch = strings.TrimSpace(v.Branch)
		u.Year = v.Year
	case FounderDetails:
		u.StartupName = strings.TrimSpace(v.StartupName)
	case AdminDetails:
		u.Designation = strings.TrimSpace(v.Designation)
	}
}

// UserBase is the part of a user's served representation shared by all roles.
type UserBase struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	InstitutionalID string     `json:"institutionalId"`
	Email           string     `json:"email"`
	Role            Role       `json:"role"`
	Active          bool       `json:"active"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// StudentView is the served representation of a student.
type StudentView struct {
	UserBase
	StudentDetails
}

// FounderView is the served representation of a founder.
type FounderView struct {
	UserBase
	FounderDetails
	ProfileComplete bool `json:"profileComplete"`
}

// AdminView is the served representation of an administrator.
type AdminView struct {
	UserBase
	AdminDetails
}

// NewUserView returns the served representation matching the user's role.
func NewUserView(u User) any {
	base := UserBase{
		ID:              u.ID,
		Name:            u.Name,
		InstitutionalID: u.InstitutionalID,
		Email:           u.Email,
		Role:            u.Role,
		Active:          u.Active,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
	switch u.Role {
	case RoleStudent:
		return StudentView{UserBase: base, StudentDetails: StudentDetails{Branch: u.Branch, Year: u.Year}}
	case RoleFounder:
		return FounderView{UserBase: base, FounderDetails: FounderDetails{StartupName: u.StartupName}, ProfileComplete: u.ProfileComplete}
	case RoleAdmin:
		return AdminView{UserBase: base, AdminDetails: AdminDetails{Designation: u.Designation}}
	default:
		return base
	}
}

// PublicUser is the subset of a user shown alongside content they authored.
type PublicUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NewPublicUser returns the public display fields of u.
func NewPublicUser(u User) PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
