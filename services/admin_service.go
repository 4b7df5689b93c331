package services

import (
	"errors"
	"log"

	"campusquiz/models"

	"gorm.io/gorm"
)

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) GetAllUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		log.Printf("Error fetching all users: %v", err)
		return nil, err
	}
	return users, nil
}

func (s *AdminService) GetAllQuizzes() ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := s.db.Preload("Questions").Order("created_at DESC").Find(&quizzes).Error; err != nil {
		log.Printf("Error fetching all quizzes: %v", err)
		return nil, err
	}
	return quizzes, nil
}

// UpdateUserRole switches a user between Student and Faculty. Admin
// accounts are never touched through this path, in either direction.
func (s *AdminService) UpdateUserRole(userID uint, newRole models.Role) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.Role == models.RoleAdmin {
		log.Printf("Blocked attempt to change role of Admin user %d", userID)
		return ErrNotAuthorized
	}
	if newRole != models.RoleStudent && newRole != models.RoleFaculty {
		log.Printf("Invalid role %q specified for user %d", newRole, userID)
		return ErrInvalidInput
	}
	if user.Role == newRole {
		return nil
	}

	user.Role = newRole
	if err := s.db.Save(&user).Error; err != nil {
		log.Printf("Error updating role for user %d: %v", userID, err)
		return err
	}
	log.Printf("Updated role for user %d to %s", userID, newRole)
	return nil
}

// DeleteUser removes a non-Admin user and their attempts.
func (s *AdminService) DeleteUser(userID uint) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.Role == models.RoleAdmin {
		log.Printf("Blocked attempt to delete Admin user %d", userID)
		return ErrNotAuthorized
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", userID).Delete(&models.QuizAttempt{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		log.Printf("Error deleting user %d: %v", userID, err)
		return err
	}
	log.Printf("Deleted user %d", userID)
	return nil
}

// DeleteAnyQuiz is the Admin override for quiz deletion; ownership is not
// checked.
func (s *AdminService) DeleteAnyQuiz(quizID uint) error {
	var quiz models.Quiz
	if err := s.db.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&quiz).Association("Questions").Clear(); err != nil {
			return err
		}
		return tx.Delete(&quiz).Error
	})
	if err != nil {
		log.Printf("Error deleting quiz %d: %v", quizID, err)
		return err
	}
	log.Printf("Admin deleted quiz %d", quizID)
	return nil
}
