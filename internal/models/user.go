package models

import (
	"time"
)

// Role represents the authorization role of a user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a user in the system
type User struct {
	ID        string     `json:"id" gorm:"primaryKey" bson:"_id"`
	Name      string     `json:"name" gorm:"not null" bson:"name"`
	Email     string     `json:"email" gorm:"uniqueIndex;not null" bson:"email"`
	Password  string     `json:"-" gorm:"not null" bson:"password"`
	Role      Role       `json:"role" gorm:"not null;default:'user'" bson:"role"`
	IsActive  bool       `json:"isActive" gorm:"not null;default:true" bson:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// TableName specifies the table name for User Model
func (User) TableName() string {
	return "users"
}

// Principal returns the identity used for authorization decisions.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email}
}

// Summary returns the public projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserSummary is the populated form of a user reference in responses
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

// Principal is the authenticated requester. It is always passed explicitly.
type Principal struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IsAdmin reports whether the principal holds the admin role
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
