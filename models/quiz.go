package models

import (
	"time"

	"gorm.io/gorm"
)

// QuizStatus is the quiz lifecycle state. Only published quizzes inside
// their time window are attemptable.
type QuizStatus string

const (
	StatusDraft     QuizStatus = "DRAFT"
	StatusPublished QuizStatus = "PUBLISHED"
)

func (s QuizStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished:
		return true
	}
	return false
}

type Quiz struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Title              string         `json:"title" gorm:"not null"`
	Description        string         `json:"description"`
	Subject            string         `json:"subject"`
	DurationInMinutes  int            `json:"duration_in_minutes" gorm:"not null"`
	TotalMarks         int            `json:"total_marks" gorm:"not null"`
	StartTime          *time.Time     `json:"start_time"`
	EndTime            *time.Time     `json:"end_time"`
	Status             QuizStatus     `json:"status" gorm:"not null;default:'DRAFT'"`
	AssignmentCriteria string         `json:"assignment_criteria"`
	CreatedByID        uint           `json:"created_by_id" gorm:"not null"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	CreatedBy User       `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	Questions []Question `json:"questions,omitempty" gorm:"many2many:quiz_questions;"`
}

// ActiveAt reports whether the quiz is open for attempts at the given
// instant: published, with a defined window containing t.
func (q *Quiz) ActiveAt(t time.Time) bool {
	if q.Status != StatusPublished {
		return false
	}
	if q.StartTime == nil || q.EndTime == nil {
		return false
	}
	return !t.Before(*q.StartTime) && !t.After(*q.EndTime)
}
