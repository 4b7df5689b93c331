package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"campusquiz/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// graceMinutes is the extra time tolerated after a quiz's nominal duration
// before a submission is recorded as late with score 0.
const graceMinutes = 1

type AttemptService struct {
	db    *gorm.DB
	redis *redis.Client
	hub   *Hub
	now   func() time.Time
}

func NewAttemptService(db *gorm.DB, redisClient *redis.Client, hub *Hub) *AttemptService {
	return &AttemptService{
		db:    db,
		redis: redisClient,
		hub:   hub,
		now:   time.Now,
	}
}

// SanitizedQuestion is a question as shown to a student mid-attempt:
// shuffled non-nil options, never the right answer.
type SanitizedQuestion struct {
	ID            uint     `json:"id"`
	QuestionTitle string   `json:"question_title"`
	Options       []string `json:"options"`
}

type QuizSummary struct {
	ID                uint   `json:"id"`
	Title             string `json:"title"`
	DurationInMinutes int    `json:"duration_in_minutes"`
	TotalMarks        int    `json:"total_marks"`
}

type StartAttemptResponse struct {
	AttemptID uint                `json:"attempt_id"`
	Quiz      QuizSummary         `json:"quiz"`
	Questions []SanitizedQuestion `json:"questions"`
}

// StartAttempt opens a new attempt for the given quiz and student. The
// question set is resolved before the attempt row is written, so a
// misconfigured quiz never leaves an orphaned attempt behind. An earlier
// attempt that was never submitted does not block a fresh start.
func (s *AttemptService) StartAttempt(quizID uint, userEmail string) (*StartAttemptResponse, error) {
	var quiz models.Quiz
	if err := s.db.Preload("Questions").First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Attempt to start non-existent quiz %d by %s", quizID, userEmail)
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	var student models.User
	if err := s.db.Where("email = ?", userEmail).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var submitted int64
	err := s.db.Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND student_id = ? AND submission_time IS NOT NULL", quizID, student.ID).
		Count(&submitted).Error
	if err != nil {
		return nil, err
	}
	if submitted > 0 {
		log.Printf("User %s attempted to restart already submitted quiz %d", userEmail, quizID)
		return nil, ErrAlreadyAttempted
	}

	now := s.now()
	if !quiz.ActiveAt(now) {
		log.Printf("User %s attempted to start inactive quiz %d", userEmail, quizID)
		return nil, ErrQuizNotActive
	}

	if len(quiz.Questions) == 0 {
		log.Printf("Quiz %d has no questions; refusing to start an attempt", quizID)
		return nil, ErrNoQuestions
	}

	attempt := models.QuizAttempt{
		QuizID:    quizID,
		StudentID: student.ID,
		StartTime: now,
	}
	if err := s.db.Create(&attempt).Error; err != nil {
		log.Printf("Error saving new quiz attempt for user %s, quiz %d: %v", userEmail, quizID, err)
		return nil, err
	}

	questions := make([]models.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	sanitized := make([]SanitizedQuestion, 0, len(questions))
	for _, q := range questions {
		options := q.Options()
		rand.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
		sanitized = append(sanitized, SanitizedQuestion{
			ID:            q.ID,
			QuestionTitle: q.QuestionTitle,
			Options:       options,
		})
	}

	s.cacheSession(&attempt, &quiz)

	log.Printf("User %s started attempt %d for quiz %d", userEmail, attempt.ID, quizID)
	return &StartAttemptResponse{
		AttemptID: attempt.ID,
		Quiz: QuizSummary{
			ID:                quiz.ID,
			Title:             quiz.Title,
			DurationInMinutes: quiz.DurationInMinutes,
			TotalMarks:        quiz.TotalMarks,
		},
		Questions: sanitized,
	}, nil
}

// SubmitAttempt grades and finalizes an attempt. Resubmission is
// idempotent: an already submitted attempt returns its recorded score
// without regrading. A submission past duration plus grace is recorded
// with score 0 and reported late. The score write is a conditional update
// guarded by "submission_time IS NULL", so of two concurrent submits only
// one grades; the other observes the stored score.
func (s *AttemptService) SubmitAttempt(attemptID uint, userEmail string, responses []Response) (score int, late bool, err error) {
	var attempt models.QuizAttempt
	if err := s.db.Preload("Student").First(&attempt, attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Attempt to submit non-existent attempt %d", attemptID)
			return 0, false, ErrAttemptNotFound
		}
		return 0, false, err
	}

	if attempt.Student.Email != userEmail {
		log.Printf("Unauthorized attempt to submit attempt %d by user %s", attemptID, userEmail)
		return 0, false, ErrNotAuthorized
	}

	if attempt.Submitted() {
		log.Printf("Attempt %d already submitted, returning existing score", attemptID)
		return storedScore(&attempt), false, nil
	}

	var quiz models.Quiz
	if err := s.db.Preload("Questions").First(&quiz, attempt.QuizID).Error; err != nil {
		log.Printf("Error loading quiz %d for attempt %d: %v", attempt.QuizID, attemptID, err)
		return 0, false, err
	}

	now := s.now()
	minutesElapsed := int(now.Sub(attempt.StartTime).Minutes())

	if minutesElapsed > quiz.DurationInMinutes+graceMinutes {
		log.Printf("Attempt %d submitted late by user %s", attemptID, userEmail)
		score, err = s.finalize(&attempt, &quiz, 0, now)
		return score, true, err
	}

	// A quiz emptied of questions after the attempt started grades to 0.
	score = Grade(quiz.Questions, responses)
	score, err = s.finalize(&attempt, &quiz, score, now)
	if err == nil {
		log.Printf("Attempt %d submitted by user %s with score %d", attemptID, userEmail, score)
	}
	return score, false, err
}

// finalize writes score and submission time exactly once. When a
// concurrent submit won the race, the stored result is returned instead.
func (s *AttemptService) finalize(attempt *models.QuizAttempt, quiz *models.Quiz, score int, now time.Time) (int, error) {
	res := s.db.Model(&models.QuizAttempt{}).
		Where("id = ? AND submission_time IS NULL", attempt.ID).
		Updates(map[string]interface{}{"score": score, "submission_time": now})
	if res.Error != nil {
		log.Printf("Error saving score for attempt %d: %v", attempt.ID, res.Error)
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		var current models.QuizAttempt
		if err := s.db.First(&current, attempt.ID).Error; err != nil {
			return 0, err
		}
		log.Printf("Attempt %d was submitted concurrently, returning existing score", attempt.ID)
		return storedScore(&current), nil
	}

	s.dropSession(attempt.ID)
	if s.hub != nil {
		s.hub.BroadcastSubmission(attempt.QuizID, SubmissionResult{
			StudentName:    attempt.Student.Name,
			Score:          &score,
			TotalMarks:     quiz.TotalMarks,
			SubmissionTime: &now,
		})
	}
	return score, nil
}

type AttemptResult struct {
	AttemptID           uint       `json:"attempt_id"`
	Score               *int       `json:"score"`
	StartTime           time.Time  `json:"start_time"`
	SubmissionTime      *time.Time `json:"submission_time"`
	QuizTitle           string     `json:"quiz_title"`
	QuizSubject         string     `json:"quiz_subject"`
	QuizDurationMinutes int        `json:"quiz_duration_minutes"`
	QuizTotalMarks      int        `json:"quiz_total_marks"`
}

// GetAttempt returns the caller's own attempt with its quiz metadata.
func (s *AttemptService) GetAttempt(attemptID uint, userEmail string) (*AttemptResult, error) {
	var attempt models.QuizAttempt
	err := s.db.Preload("Student").Preload("Quiz").First(&attempt, attemptID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}

	if attempt.Student.Email != userEmail {
		log.Printf("Unauthorized attempt to view attempt %d by user %s", attemptID, userEmail)
		return nil, ErrNotAuthorized
	}

	result := attemptResult(&attempt)
	return &result, nil
}

// ListAttempts returns all of the caller's attempts, newest first.
func (s *AttemptService) ListAttempts(userEmail string) ([]AttemptResult, error) {
	var student models.User
	if err := s.db.Where("email = ?", userEmail).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var attempts []models.QuizAttempt
	err := s.db.Preload("Quiz").Where("student_id = ?", student.ID).
		Order("start_time DESC").Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	results := make([]AttemptResult, 0, len(attempts))
	for i := range attempts {
		results = append(results, attemptResult(&attempts[i]))
	}
	return results, nil
}

func attemptResult(attempt *models.QuizAttempt) AttemptResult {
	return AttemptResult{
		AttemptID:           attempt.ID,
		Score:               attempt.Score,
		StartTime:           attempt.StartTime,
		SubmissionTime:      attempt.SubmissionTime,
		QuizTitle:           attempt.Quiz.Title,
		QuizSubject:         attempt.Quiz.Subject,
		QuizDurationMinutes: attempt.Quiz.DurationInMinutes,
		QuizTotalMarks:      attempt.Quiz.TotalMarks,
	}
}

func storedScore(attempt *models.QuizAttempt) int {
	if attempt.Score != nil {
		return *attempt.Score
	}
	return 0
}

// attemptSession is the ephemeral redis mirror of a live attempt. The
// database row stays authoritative; the cache only serves liveness views
// and expires on its own after the window closes.
type attemptSession struct {
	AttemptID uint      `json:"attempt_id"`
	QuizID    uint      `json:"quiz_id"`
	StudentID uint      `json:"student_id"`
	StartTime time.Time `json:"start_time"`
	Deadline  time.Time `json:"deadline"`
}

func (s *AttemptService) cacheSession(attempt *models.QuizAttempt, quiz *models.Quiz) {
	if s.redis == nil {
		return
	}

	ttl := time.Duration(quiz.DurationInMinutes+graceMinutes) * time.Minute
	session := attemptSession{
		AttemptID: attempt.ID,
		QuizID:    quiz.ID,
		StudentID: attempt.StudentID,
		StartTime: attempt.StartTime,
		Deadline:  attempt.StartTime.Add(ttl),
	}

	data, err := json.Marshal(session)
	if err != nil {
		log.Printf("Error marshaling attempt session %d: %v", attempt.ID, err)
		return
	}

	if err := s.redis.Set(context.Background(), sessionKey(attempt.ID), data, ttl).Err(); err != nil {
		log.Printf("Failed to store attempt session in Redis: %v", err)
	}
}

func (s *AttemptService) dropSession(attemptID uint) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(context.Background(), sessionKey(attemptID)).Err(); err != nil {
		log.Printf("Failed to drop attempt session from Redis: %v", err)
	}
}

func sessionKey(attemptID uint) string {
	return fmt.Sprintf("attempt:%d", attemptID)
}
