package models

import (
	"time"

	"gorm.io/gorm"
)

// QuizAttempt is one student's single timed engagement with one quiz.
// Score and SubmissionTime stay nil until the attempt is submitted; an
// attempt with a non-nil SubmissionTime is terminal and never regraded.
type QuizAttempt struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	QuizID         uint           `json:"quiz_id" gorm:"not null;index"`
	StudentID      uint           `json:"student_id" gorm:"not null;index"`
	StartTime      time.Time      `json:"start_time" gorm:"not null"`
	SubmissionTime *time.Time     `json:"submission_time"`
	Score          *int           `json:"score"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Quiz    Quiz `json:"quiz,omitempty"`
	Student User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// Submitted reports whether the attempt has reached its terminal state.
func (a *QuizAttempt) Submitted() bool {
	return a.SubmissionTime != nil
}
