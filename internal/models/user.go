package models

import (
	"time"
)

// User is a directory entry. ID is assigned by the repository on first save.
type User struct {
	ID          int64     `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"nombreCompleto"`
	Email       string    `db:"email" json:"email"`
	PhoneNumber string    `db:"phone_number" json:"numeroTelefono"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// UserRequest is the body accepted by the create and update endpoints.
type UserRequest struct {
	FullName    string `json:"nombreCompleto"`
	Email       string `json:"email"`
	PhoneNumber string `json:"numeroTelefono"`
}

func (r UserRequest) ToUser() *User {
	return &User{
		FullName:    r.FullName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
	}
}

// IsNew reports whether the user has not been persisted yet.
func (u *User) IsNew() bool {
	return u.ID == 0
}

// Clone returns a copy that shares nothing with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
