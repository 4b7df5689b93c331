package services

import (
	"testing"
	"time"

	"campusquiz/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// An in-memory sqlite DB exists per connection; keep the pool at one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Question{}, &models.Quiz{}, &models.QuizAttempt{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, email string, role models.Role) *models.User {
	t.Helper()
	user := models.User{Name: name, Email: email, Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return &user
}

func strPtr(s string) *string { return &s }

func createQuestion(t *testing.T, db *gorm.DB, title, answer string, options ...string) *models.Question {
	t.Helper()
	question := models.Question{QuestionTitle: title, RightAnswer: answer, Category: "general"}
	opts := []**string{&question.Option1, &question.Option2, &question.Option3, &question.Option4}
	for i, opt := range options {
		if i >= len(opts) {
			break
		}
		*opts[i] = strPtr(opt)
	}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("failed to create question %q: %v", title, err)
	}
	return &question
}

func createQuiz(t *testing.T, db *gorm.DB, owner *models.User, status models.QuizStatus, start, end *time.Time, questions ...*models.Question) *models.Quiz {
	t.Helper()
	quiz := models.Quiz{
		Title:             "Test Quiz",
		Subject:           "testing",
		DurationInMinutes: 30,
		TotalMarks:        10,
		Status:            status,
		StartTime:         start,
		EndTime:           end,
		CreatedByID:       owner.ID,
	}
	if err := db.Omit("Questions").Create(&quiz).Error; err != nil {
		t.Fatalf("failed to create quiz: %v", err)
	}
	for _, q := range questions {
		if err := db.Model(&quiz).Association("Questions").Append(q); err != nil {
			t.Fatalf("failed to attach question %d: %v", q.ID, err)
		}
	}
	return &quiz
}

func timePtr(tm time.Time) *time.Time { return &tm }
