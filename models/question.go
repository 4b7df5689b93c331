package models

import (
	"time"

	"gorm.io/gorm"
)

type Question struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Category        string         `json:"category"`
	DifficultyLevel string         `json:"difficulty_level"`
	QuestionTitle   string         `json:"question_title" gorm:"not null"`
	Option1         *string        `json:"option1"`
	Option2         *string        `json:"option2"`
	Option3         *string        `json:"option3"`
	Option4         *string        `json:"option4"`
	RightAnswer     string         `json:"right_answer" gorm:"not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// Options returns the non-nil option strings in stored order.
func (q *Question) Options() []string {
	var options []string
	for _, opt := range []*string{q.Option1, q.Option2, q.Option3, q.Option4} {
		if opt != nil {
			options = append(options, *opt)
		}
	}
	return options
}
