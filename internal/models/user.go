package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Role and Status are reference rows looked up by name
type Role struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

type Status struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never expose in JSON
	RoleID       uuid.UUID `db:"role_id" json:"-"`
	Role         string    `db:"role" json:"role"`
	StatusID     uuid.UUID `db:"status_id" json:"-"`
	Status       string    `db:"status" json:"status"`
	TokenVersion int       `db:"token_version" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// UserView is the staff listing projection
type UserView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserView(u User) UserView {
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Role:      strings.ToUpper(u.Role),
		Status:    strings.ToLower(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

// LoginRequest carries credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserRequest is used for user registration
type UserRequest struct {
	Name     string `json:"name" validate:"required,notblank,min=2,max=100"`
	Username string `json:"username" validate:"required,notblank,min=2,max=50"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

// UserUpdateRequest is used for updating user information. Absent fields
// are left unchanged.
type UserUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,notblank,min=2,max=100"`
	Username *string `json:"username" validate:"omitempty,notblank,min=2,max=50"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Role     *string `json:"role" validate:"omitempty,min=1"`
	IsActive *bool   `json:"isActive"`
}
