package services

import (
	"errors"
	"log"
	"time"

	"campusquiz/models"

	"gorm.io/gorm"
)

type QuizService struct {
	db      *gorm.DB
	matcher MatcherConfig
	now     func() time.Time
}

func NewQuizService(db *gorm.DB, matcher MatcherConfig) *QuizService {
	return &QuizService{
		db:      db,
		matcher: matcher,
		now:     time.Now,
	}
}

type SaveQuizRequest struct {
	ID                 uint       `json:"id"`
	Title              string     `json:"title" binding:"required,max=255"`
	Description        string     `json:"description" binding:"max=1000"`
	Subject            string     `json:"subject" binding:"max=100"`
	DurationInMinutes  int        `json:"duration_in_minutes" binding:"required,min=1"`
	TotalMarks         int        `json:"total_marks" binding:"min=0"`
	StartTime          *time.Time `json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	Status             string     `json:"status"`
	AssignmentCriteria string     `json:"assignment_criteria" binding:"max=1000"`
	QuestionIDs        []uint     `json:"question_ids"`
}

// SaveQuiz creates a quiz, or updates one when the request carries an ID.
// Only Faculty and Admins may save; updates are restricted to the owner
// unless the caller is an Admin. The question ID list is validated with a
// bulk existence check before anything is written.
func (s *QuizService) SaveQuiz(req *SaveQuizRequest, userEmail string) (*models.Quiz, error) {
	caller, err := s.userByEmail(userEmail)
	if err != nil {
		return nil, ErrNotAuthorized
	}
	if caller.Role != models.RoleAdmin && caller.Role != models.RoleFaculty {
		log.Printf("Unauthorized attempt to save quiz by user %s", userEmail)
		return nil, ErrNotAuthorized
	}

	status := models.QuizStatus(req.Status)
	if req.Status == "" {
		status = models.StatusDraft
	}
	if !status.Valid() {
		return nil, ErrInvalidInput
	}
	if req.StartTime != nil && req.EndTime != nil && req.StartTime.After(*req.EndTime) {
		log.Printf("Attempt to save quiz %d with start time after end time", req.ID)
		return nil, ErrInvalidInput
	}

	questionIDs := dedupeIDs(req.QuestionIDs)
	var questions []models.Question
	if len(questionIDs) > 0 {
		var count int64
		if err := s.db.Model(&models.Question{}).Where("id IN ?", questionIDs).Count(&count).Error; err != nil {
			return nil, err
		}
		if count != int64(len(questionIDs)) {
			log.Printf("Attempt to save quiz %d with non-existent question IDs by %s", req.ID, userEmail)
			return nil, ErrUnknownQuestionIDs
		}
		if err := s.db.Where("id IN ?", questionIDs).Find(&questions).Error; err != nil {
			return nil, err
		}
	}

	quiz := models.Quiz{
		ID:                 req.ID,
		Title:              req.Title,
		Description:        req.Description,
		Subject:            req.Subject,
		DurationInMinutes:  req.DurationInMinutes,
		TotalMarks:         req.TotalMarks,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Status:             status,
		AssignmentCriteria: req.AssignmentCriteria,
		CreatedByID:        caller.ID,
	}

	if req.ID != 0 { // Update
		var existing models.Quiz
		if err := s.db.First(&existing, req.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrQuizNotFound
			}
			return nil, err
		}
		if caller.Role != models.RoleAdmin && existing.CreatedByID != caller.ID {
			log.Printf("Unauthorized attempt to update quiz %d by non-owner %s", req.ID, userEmail)
			return nil, ErrNotAuthorized
		}
		quiz.CreatedByID = existing.CreatedByID
		quiz.CreatedAt = existing.CreatedAt
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.ID != 0 {
			if err := tx.Omit("Questions").Save(&quiz).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Omit("Questions").Create(&quiz).Error; err != nil {
				return err
			}
		}
		return tx.Model(&quiz).Association("Questions").Replace(&questions)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Quiz %d saved by user %s", quiz.ID, userEmail)
	return s.QuizWithQuestions(quiz.ID)
}

// QuizWithQuestions returns the quiz with its question list eagerly
// resolved. Callers never rely on on-access loading.
func (s *QuizService) QuizWithQuestions(quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.Preload("Questions").First(&quiz, quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// QuizzesByCreator lists the quizzes owned by the calling Faculty member,
// or every quiz when the caller is an Admin.
func (s *QuizService) QuizzesByCreator(userEmail string) ([]models.Quiz, error) {
	caller, err := s.userByEmail(userEmail)
	if err != nil {
		return nil, ErrNotAuthorized
	}

	var quizzes []models.Quiz
	switch caller.Role {
	case models.RoleAdmin:
		err = s.db.Preload("Questions").Order("created_at DESC").Find(&quizzes).Error
	case models.RoleFaculty:
		err = s.db.Preload("Questions").Where("created_by_id = ?", caller.ID).
			Order("created_at DESC").Find(&quizzes).Error
	default:
		log.Printf("Unauthorized attempt to list quizzes by creator: %s", userEmail)
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

// DeleteQuiz removes a quiz and its attempts. Owner-Faculty or Admin only.
func (s *QuizService) DeleteQuiz(quizID uint, userEmail string) error {
	var quiz models.Quiz
	if err := s.db.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return err
	}

	caller, err := s.userByEmail(userEmail)
	if err != nil {
		log.Printf("Attempt to delete quiz %d by non-existent user %s", quizID, userEmail)
		return ErrNotAuthorized
	}

	isAdmin := caller.Role == models.RoleAdmin
	isOwner := quiz.CreatedByID == caller.ID && caller.Role == models.RoleFaculty
	if !isAdmin && !isOwner {
		log.Printf("Unauthorized attempt to delete quiz %d by user %s", quizID, userEmail)
		return ErrNotAuthorized
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&quiz).Association("Questions").Clear(); err != nil {
			return err
		}
		return tx.Delete(&quiz).Error
	})
	if err != nil {
		return err
	}

	log.Printf("Quiz %d deleted by user %s", quizID, userEmail)
	return nil
}

// AssignedQuizzes returns the quizzes the caller may currently see:
// published active quizzes matching the assignment criteria, plus drafts
// for their creator and for Admins. Drafts are visible, never attemptable.
func (s *QuizService) AssignedQuizzes(userEmail string) ([]models.Quiz, error) {
	now := s.now()

	var active []models.Quiz
	err := s.db.Where("status = ? AND start_time <= ? AND end_time >= ?",
		models.StatusPublished, now, now).Find(&active).Error
	if err != nil {
		return nil, err
	}

	assigned := EligibleQuizzes(userEmail, active, now, s.matcher)

	_, isStudent := DeriveIdentifier(userEmail, s.matcher)
	if isStudent {
		return assigned, nil
	}

	caller, err := s.userByEmail(userEmail)
	if err != nil {
		return assigned, nil
	}

	var drafts []models.Quiz
	if err := s.db.Where("status = ?", models.StatusDraft).Find(&drafts).Error; err != nil {
		log.Printf("Error fetching draft quizzes for user %s: %v", userEmail, err)
		return assigned, nil
	}

	seen := make(map[uint]bool, len(assigned))
	for _, q := range assigned {
		seen[q.ID] = true
	}
	for _, draft := range drafts {
		if seen[draft.ID] {
			continue
		}
		if caller.Role == models.RoleAdmin || draft.CreatedByID == caller.ID {
			assigned = append(assigned, draft)
		}
	}
	return assigned, nil
}

type SubmissionResult struct {
	StudentName    string     `json:"student_name"`
	Score          *int       `json:"score"`
	TotalMarks     int        `json:"total_marks"`
	SubmissionTime *time.Time `json:"submission_time"`
}

// SubmissionsForQuiz lists the graded submissions for a quiz. Restricted
// to the quiz owner and Admins; submissions are read-only aggregates.
func (s *QuizService) SubmissionsForQuiz(quizID uint, userEmail string) ([]SubmissionResult, error) {
	var quiz models.Quiz
	if err := s.db.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	caller, err := s.userByEmail(userEmail)
	if err != nil {
		return nil, ErrNotAuthorized
	}
	if caller.Role != models.RoleAdmin && quiz.CreatedByID != caller.ID {
		log.Printf("Unauthorized attempt to view submissions for quiz %d by user %s", quizID, userEmail)
		return nil, ErrNotAuthorized
	}

	var attempts []models.QuizAttempt
	err = s.db.Preload("Student").
		Where("quiz_id = ? AND submission_time IS NOT NULL", quizID).
		Order("submission_time").Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	results := make([]SubmissionResult, 0, len(attempts))
	for _, attempt := range attempts {
		results = append(results, SubmissionResult{
			StudentName:    attempt.Student.Name,
			Score:          attempt.Score,
			TotalMarks:     quiz.TotalMarks,
			SubmissionTime: attempt.SubmissionTime,
		})
	}
	return results, nil
}

// CanViewSubmissions checks that the caller may watch a quiz's
// submissions: the owner or an Admin.
func (s *QuizService) CanViewSubmissions(quizID uint, userEmail string) error {
	var quiz models.Quiz
	if err := s.db.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return err
	}

	caller, err := s.userByEmail(userEmail)
	if err != nil {
		return ErrNotAuthorized
	}
	if caller.Role != models.RoleAdmin && quiz.CreatedByID != caller.ID {
		return ErrNotAuthorized
	}
	return nil
}

func (s *QuizService) userByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
