package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of user roles. Role changes happen through the
// admin endpoints only.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleFaculty Role = "Faculty"
	RoleStudent Role = "Student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;not null"`
	Role         Role           `json:"role" gorm:"not null;default:'Student'"`
	PasswordHash string         `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
