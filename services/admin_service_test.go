package services

import (
	"errors"
	"testing"

	"campusquiz/models"
)

func TestUpdateUserRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db)
	student := createUser(t, db, "Student", "bt21cs045@student.campus.edu", models.RoleStudent)
	admin := createUser(t, db, "Admin", "admin@campus.edu", models.RoleAdmin)

	if err := svc.UpdateUserRole(student.ID, models.RoleFaculty); err != nil {
		t.Fatalf("UpdateUserRole failed: %v", err)
	}
	var reloaded models.User
	db.First(&reloaded, student.ID)
	if reloaded.Role != models.RoleFaculty {
		t.Errorf("role = %s, want FACULTY", reloaded.Role)
	}

	// Promotions to Admin and changes to Admin accounts are both blocked.
	if err := svc.UpdateUserRole(student.ID, models.RoleAdmin); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("promote to admin: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.UpdateUserRole(admin.ID, models.RoleStudent); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("demote admin: expected ErrNotAuthorized, got %v", err)
	}
	if err := svc.UpdateUserRole(999, models.RoleFaculty); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: expected ErrUserNotFound, got %v", err)
	}
	if err := svc.UpdateUserRole(student.ID, models.RoleFaculty); err != nil {
		t.Errorf("same-role update should be a no-op, got %v", err)
	}
}

func TestDeleteUser_CascadesAttempts(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db)
	attemptSvc := newAttemptService(db)
	owner := createUser(t, db, "Prof", "prof@campus.edu", models.RoleFaculty)
	admin := createUser(t, db, "Admin", "admin@campus.edu", models.RoleAdmin)
	student := createUser(t, db, "Student", "bt21cs045@student.campus.edu", models.RoleStudent)

	q := createQuestion(t, db, "q1", "A", "A", "B")
	quiz := activeQuiz(t, db, owner, q)
	if _, err := attemptSvc.StartAttempt(quiz.ID, student.Email); err != nil {
		t.Fatalf("StartAttempt failed: %v", err)
	}

	if err := svc.DeleteUser(admin.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("delete admin: expected ErrNotAuthorized, got %v", err)
	}
	if err := svc.DeleteUser(student.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	var count int64
	db.Model(&models.QuizAttempt{}).Where("student_id = ?", student.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected the student's attempts deleted, found %d", count)
	}
	if err := svc.DeleteUser(student.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound after delete, got %v", err)
	}
}

func TestDeleteAnyQuiz_IgnoresOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db)
	attemptSvc := newAttemptService(db)
	owner := createUser(t, db, "Prof", "prof@campus.edu", models.RoleFaculty)
	student := createUser(t, db, "Student", "bt21cs045@student.campus.edu", models.RoleStudent)

	q := createQuestion(t, db, "q1", "A", "A", "B")
	quiz := activeQuiz(t, db, owner, q)
	if _, err := attemptSvc.StartAttempt(quiz.ID, student.Email); err != nil {
		t.Fatalf("StartAttempt failed: %v", err)
	}

	if err := svc.DeleteAnyQuiz(quiz.ID); err != nil {
		t.Fatalf("DeleteAnyQuiz failed: %v", err)
	}
	var count int64
	db.Model(&models.QuizAttempt{}).Where("quiz_id = ?", quiz.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected attempts deleted with quiz, found %d", count)
	}
	if err := svc.DeleteAnyQuiz(quiz.ID); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestGetAllUsersAndQuizzes(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db)
	owner := createUser(t, db, "Prof", "prof@campus.edu", models.RoleFaculty)
	createUser(t, db, "Student", "bt21cs045@student.campus.edu", models.RoleStudent)
	createQuiz(t, db, owner, models.StatusDraft, nil, nil)

	users, err := svc.GetAllUsers()
	if err != nil {
		t.Fatalf("GetAllUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	quizzes, err := svc.GetAllQuizzes()
	if err != nil {
		t.Fatalf("GetAllQuizzes failed: %v", err)
	}
	if len(quizzes) != 1 {
		t.Errorf("expected 1 quiz, got %d", len(quizzes))
	}
}
