package services

import (
	"errors"
	"log"
	"strings"

	"campusquiz/models"

	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

func (s *QuestionService) GetAllQuestions() ([]models.Question, error) {
	var questions []models.Question
	if err := s.db.Find(&questions).Error; err != nil {
		log.Printf("Error fetching all questions: %v", err)
		return nil, err
	}
	return questions, nil
}

func (s *QuestionService) GetQuestionsByCategory(category string) ([]models.Question, error) {
	if strings.TrimSpace(category) == "" {
		return nil, ErrInvalidInput
	}
	var questions []models.Question
	if err := s.db.Where("category = ?", category).Find(&questions).Error; err != nil {
		log.Printf("Error fetching questions for category %s: %v", category, err)
		return nil, err
	}
	return questions, nil
}

func (s *QuestionService) AddQuestion(question *models.Question) error {
	if strings.TrimSpace(question.QuestionTitle) == "" || strings.TrimSpace(question.RightAnswer) == "" {
		log.Printf("Attempted to add question with missing title or answer")
		return ErrInvalidInput
	}
	if err := s.db.Create(question).Error; err != nil {
		log.Printf("Error adding question: %v", err)
		return err
	}
	log.Printf("Added new question with ID %d", question.ID)
	return nil
}

// ReplaceQuestion overwrites every field of an existing question. Grading
// reads live question rows, so edits affect attempts submitted afterwards.
func (s *QuestionService) ReplaceQuestion(id uint, updated *models.Question) error {
	if strings.TrimSpace(updated.QuestionTitle) == "" || strings.TrimSpace(updated.RightAnswer) == "" {
		log.Printf("Attempted to update question %d with missing title or answer", id)
		return ErrInvalidInput
	}

	var existing models.Question
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Attempted to update non-existent question %d", id)
			return ErrQuestionNotFound
		}
		return err
	}

	existing.QuestionTitle = updated.QuestionTitle
	existing.Category = updated.Category
	existing.DifficultyLevel = updated.DifficultyLevel
	existing.RightAnswer = updated.RightAnswer
	existing.Option1 = updated.Option1
	existing.Option2 = updated.Option2
	existing.Option3 = updated.Option3
	existing.Option4 = updated.Option4

	if err := s.db.Save(&existing).Error; err != nil {
		log.Printf("Error updating question %d: %v", id, err)
		return err
	}
	log.Printf("Updated question %d", id)
	return nil
}

func (s *QuestionService) DeleteQuestion(id uint) error {
	var existing models.Question
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Attempted to delete non-existent question %d", id)
			return ErrQuestionNotFound
		}
		return err
	}

	var refs int64
	if err := s.db.Table("quiz_questions").Where("question_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		log.Printf("Cannot delete question %d: referenced by %d quizzes", id, refs)
		return ErrQuestionInUse
	}

	if err := s.db.Delete(&existing).Error; err != nil {
		log.Printf("Error deleting question %d: %v", id, err)
		return err
	}
	log.Printf("Deleted question %d", id)
	return nil
}
