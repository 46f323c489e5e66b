package user

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher      = "teacher:"
	RoleClassTeacher = "teacher:class"

	// Staff
	RoleAccountant = "staff:accountant"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminPrincipal}
	TeacherRoles = []string{RoleTeacher, RoleClassTeacher}
	StaffRoles   = []string{RoleAccountant}
	AllRoles     = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminPrincipal: 30,
		RoleAdmin:          21,

		// Teachers: 20 - 11
		RoleClassTeacher: 12,
		RoleTeacher:      11,

		// Staff: 10 - 1
		RoleAccountant: 1,
	}

	Roles = []Role{
		{Name: "Accountant", Value: RoleAccountant},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Class Teacher", Value: RoleClassTeacher},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Head Teacher", Value: RoleAdminPrincipal},
	}

	phoneLoginRegex = regexp.MustCompile(`^0\d{9}$`)
	phoneLoginHost  = "@email.com"
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, TeacherRoles...)
	all = append(all, StaffRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

// LoginEmail maps a login identifier to the email stored for the account.
// Phone numbers like 0991234567 are stored as "0991234567@email.com".
func LoginEmail(identifier string) string {
	identifier = core.CleanString(identifier, true /* lower */)
	if phoneLoginRegex.MatchString(identifier) {
		return identifier + phoneLoginHost
	}
	return identifier
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RoleList is stored as a JSON array so role prefixes can be matched with LIKE.
type RoleList []string

func (rl RoleList) Value() (driver.Value, error) {
	if rl == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(rl))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (rl *RoleList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*rl = RoleList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.Errorf("cannot scan %T into RoleList", src)
	}
	var roles []string
	if err := json.Unmarshal(data, &roles); err != nil {
		return errors.Wrap(err, "decoding roles")
	}
	*rl = roles
	return nil
}

type User struct {
	ID           string     `json:"id" db:"id"`
	FullName     string     `json:"full_name" db:"full_name"`
	Email        string     `json:"email" db:"email"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	Roles        RoleList   `json:"roles" db:"roles"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    *time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsTeacher() bool {
	return u.RoleStartsWith(RoleTeacher)
}

func (u *User) IsClassTeacher() bool {
	return u.HasRole(RoleClassTeacher)
}

func (u *User) IsAccountant() bool {
	return u.HasRole(RoleAccountant)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FullName        string   `json:"full_name" validate:"max=255"`
	Email           string   `json:"email" validate:"required,email,max=255"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.FullName = core.CleanString(nu.FullName)
	nu.Email = LoginEmail(nu.Email)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided by an admin to modify an existing User.
type UpdateUser struct {
	FullName        string   `json:"full_name" validate:"max=255"`
	Email           string   `json:"email" validate:"omitempty,email,max=255"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(uu.FullName); name != "" {
		uu.FullName = name
	} else {
		uu.FullName = origUsr.FullName
	}

	if email := LoginEmail(uu.Email); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Email, origUsr)
}

// UpdateMe defines what a User may change on their own profile.
type UpdateMe struct {
	FullName string `json:"full_name" validate:"max=255"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
}

func (um *UpdateMe) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(um.FullName); name != "" {
		um.FullName = name
	} else {
		um.FullName = origUsr.FullName
	}

	if email := LoginEmail(um.Email); email != "" {
		um.Email = email
	} else {
		um.Email = origUsr.Email
	}

	if err := validate.Struct(um); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, um.Email, origUsr)
}

// UpdatePassword is sent by a User changing their own password.
type UpdatePassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=NewPassword"`

	// user attributes checked for similarity; not bound from requests
	fullName, email string
}

func (up *UpdatePassword) Validate(usr User, validate *validator.Validate) error {
	up.fullName = usr.FullName
	up.email = usr.Email
	if err := validate.Struct(up); err != nil {
		return err
	}
	if err := usr.CheckPassword(up.CurrentPassword); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "current_password", Error: "incorrect password"})
	}
	if up.CurrentPassword == up.NewPassword {
		return core.NewValidationError(nil, core.FieldError{
			Field: "new_password",
			Error: "new password cannot be the same as the current one",
		})
	}
	return nil
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"new_password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"omitempty,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search      string
	Roles       []string
	IsActive    *bool
	CreatedFrom time.Time
	CreatedTo   time.Time
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

type GetFilter struct {
	ID    string
	Email string
}
