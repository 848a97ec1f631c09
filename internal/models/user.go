package models

import "time"

// UserRole represents the account kinds managed by the admin panel.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleParent UserRole = "parent"
	RoleDriver UserRole = "driver"
)

// User represents an account stored in the users table.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Password  string    `db:"password" json:"-"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"fullName"`
	Phone     *string   `db:"phone" json:"phone"`
	Role      UserRole  `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewUser is the insertable shape of a user.
type NewUser struct {
	Username string   `json:"username" validate:"required,max=50"`
	Password string   `json:"password" validate:"required,min=6"`
	Email    string   `json:"email" validate:"required,email"`
	FullName string   `json:"fullName" validate:"required,max=100"`
	Phone    *string  `json:"phone" validate:"omitempty,max=20"`
	Role     UserRole `json:"role" validate:"required,oneof=admin parent driver"`
}

// UserPatch carries a partial user update. Nil fields are left unchanged; an
// empty phone clears the stored value.
type UserPatch struct {
	Username *string   `json:"username" validate:"omitempty,max=50"`
	Password *string   `json:"password" validate:"omitempty,min=6"`
	Email    *string   `json:"email" validate:"omitempty,email"`
	FullName *string   `json:"fullName" validate:"omitempty,max=100"`
	Phone    *string   `json:"phone" validate:"omitempty,max=20"`
	Role     *UserRole `json:"role" validate:"omitempty,oneof=admin parent driver"`
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Password == nil && p.Email == nil &&
		p.FullName == nil && p.Phone == nil && p.Role == nil
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role *UserRole
}
