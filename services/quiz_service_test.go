package services

import (
	"errors"
	"testing"
	"time"

	"campusquiz/models"

	"gorm.io/gorm"
)

func newQuizService(db *gorm.DB) *QuizService {
	return NewQuizService(db, testMatcher)
}

func saveRequest(questionIDs ...uint) *SaveQuizRequest {
	now := time.Now()
	return &SaveQuizRequest{
		Title:             "Midterm",
		Subject:           "algorithms",
		DurationInMinutes: 30,
		TotalMarks:        10,
		StartTime:         timePtr(now.Add(-time.Hour)),
		EndTime:           timePtr(now.Add(time.Hour)),
		Status:            string(models.StatusPublished),
		QuestionIDs:       questionIDs,
	}
}

func TestSaveQuiz_CreatesWithQuestions(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	faculty := createUser(t, db, "Prof", "prof@campus.edu", models.RoleFaculty)
	q1 := createQuestion(t, db, "q1", "A", "A", "B")
	q2 := createQuestion(t, db, "q2", "B", "A", "B")

	// Duplicate IDs in the request collapse to one reference.
	quiz, err := svc.SaveQuiz(saveRequest(q1.ID, q1.ID, q2.ID), faculty.Email)
	if err != nil {
		t.Fatalf("SaveQuiz failed: %v", err)
	}
	if quiz.CreatedByID != faculty.ID {
		t.Errorf("quiz owner = %d, want %d", quiz.CreatedByID, faculty.ID)
	}
	if len(quiz.Questions) != 2 {
		t.Errorf("expected 2 questions after dedupe, got %d", len(quiz.Questions))
	}
}

func TestSaveQuiz_DefaultsToDraft(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	faculty := createUser(t, db, "Prof", "prof@campus.edu", models.RoleFaculty)

	req := saveRequest()
	req.Status = ""
	quiz, err := svc.SaveQuiz(req, faculty.Email)
	if err != nil {
		t.Fatalf("SaveQuiz failed: %v", err)
	}
	if quiz.Status != models.StatusDraft {
		t.Errorf("status = %s, want DRAFT", quiz.Status)
	}
}

func TestSaveQuiz_RejectsUnknownQuestionIDs(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	faculty := createUser(t, db, "Prof", "prof@campus.edu", models.RoleFaculty)
	q := createQuestion(t, db, "q1", "A", "A", "B")

	_, err := svc.SaveQuiz(saveRequest(q.ID, 999), faculty.Email)
	if !errors.Is(err, ErrUnknownQuestionIDs) {
		t.Fatalf("expected ErrUnknownQuestionIDs, got %v", err)
	}

	// The failed save must not have created anything.
	var count int64
	db.Model(&models.Quiz{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no quizzes persisted, found %d", count)
	}
}

func TestSaveQuiz_RejectsInvertedWindow(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	faculty := createUser(t, db, "Prof", "prof@campus.edu", models.RoleFaculty)

	req := saveRequest()
	req.StartTime = timePtr(time.Now().Add(2 * time.Hour))
	req.EndTime = timePtr(time.Now().Add(time.Hour))
	if _, err := svc.SaveQuiz(req, faculty.Email); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveQuiz_StudentForbidden(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	createUser(t, db, "Student", "bt21cs045@student.campus.edu", models.RoleStudent)

	if _, err := svc.SaveQuiz(saveRequest(), "bt21cs045@student.campus.edu"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestSaveQuiz_UpdateOwnershipChecks(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	owner := createUser(t, db, "Owner", "owner@campus.edu", models.RoleFaculty)
	other := createUser(t, db, "Other", "other@campus.edu", models.RoleFaculty)
	admin := createUser(t, db, "Admin", "admin@campus.edu", models.RoleAdmin)

	quiz, err := svc.SaveQuiz(saveRequest(), owner.Email)
	if err != nil {
		t.Fatalf("SaveQuiz failed: %v", err)
	}

	req := saveRequest()
	req.ID = quiz.ID
	req.Title = "Renamed"

	if _, err := svc.SaveQuiz(req, other.Email); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("non-owner faculty update: expected ErrNotAuthorized, got %v", err)
	}

	updated, err := svc.SaveQuiz(req, admin.Email)
	if err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("title = %q, want %q", updated.Title, "Renamed")
	}
	if updated.CreatedByID != owner.ID {
		t.Errorf("admin update must preserve ownership, got owner %d", updated.CreatedByID)
	}
}

func TestAssignedQuizzes_CriteriaAndDrafts(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	faculty := createUser(t, db, "Prof", "prof@campus.edu", models.RoleFaculty)
	otherFaculty := createUser(t, db, "Other", "other@campus.edu", models.RoleFaculty)
	createUser(t, db, "Admin", "admin@campus.edu", models.RoleAdmin)
	createUser(t, db, "Student", "bt21cs045@student.campus.edu", models.RoleStudent)

	now := time.Now()
	window := []*time.Time{timePtr(now.Add(-time.Hour)), timePtr(now.Add(time.Hour))}

	open := createQuiz(t, db, faculty, models.StatusPublished, window[0], window[1])
	cohort := createQuiz(t, db, faculty, models.StatusPublished, window[0], window[1])
	db.Model(cohort).Update("assignment_criteria", "21cs")
	otherCohort := createQuiz(t, db, faculty, models.StatusPublished, window[0], window[1])
	db.Model(otherCohort).Update("assignment_criteria", "22ee")
	draft := createQuiz(t, db, faculty, models.StatusDraft, nil, nil)
	otherDraft := createQuiz(t, db, otherFaculty, models.StatusDraft, nil, nil)

	// Student: matching published quizzes only, never drafts.
	got, err := svc.AssignedQuizzes("bt21cs045@student.campus.edu")
	if err != nil {
		t.Fatalf("AssignedQuizzes failed: %v", err)
	}
	wantIDs := map[uint]bool{open.ID: true, cohort.ID: true}
	if len(got) != 2 {
		t.Fatalf("student: expected 2 quizzes, got %v", quizIDs(got))
	}
	for _, q := range got {
		if !wantIDs[q.ID] {
			t.Errorf("student: unexpected quiz %d", q.ID)
		}
	}

	// Faculty: open-enrollment quizzes plus their own drafts.
	got, err = svc.AssignedQuizzes(faculty.Email)
	if err != nil {
		t.Fatalf("AssignedQuizzes failed: %v", err)
	}
	seen := map[uint]bool{}
	for _, q := range got {
		seen[q.ID] = true
	}
	if !seen[draft.ID] {
		t.Error("faculty should see their own draft")
	}
	if seen[otherDraft.ID] {
		t.Error("faculty should not see another faculty's draft")
	}

	// Admin: sees every draft.
	got, err = svc.AssignedQuizzes("admin@campus.edu")
	if err != nil {
		t.Fatalf("AssignedQuizzes failed: %v", err)
	}
	seen = map[uint]bool{}
	for _, q := range got {
		seen[q.ID] = true
	}
	if !seen[draft.ID] || !seen[otherDraft.ID] {
		t.Errorf("admin should see all drafts, got %v", quizIDs(got))
	}
}

func TestSubmissionsForQuiz_Authorization(t *testing.T) {
	db := newTestDB(t)
	quizSvc := newQuizService(db)
	attemptSvc := newAttemptService(db)
	owner := createUser(t, db, "Owner", "owner@campus.edu", models.RoleFaculty)
	other := createUser(t, db, "Other", "other@campus.edu", models.RoleFaculty)
	createUser(t, db, "Admin", "admin@campus.edu", models.RoleAdmin)
	student := createUser(t, db, "Student", "bt21cs045@student.campus.edu", models.RoleStudent)

	q := createQuestion(t, db, "q1", "A", "A", "B")
	quiz := activeQuiz(t, db, owner, q)

	started, err := attemptSvc.StartAttempt(quiz.ID, student.Email)
	if err != nil {
		t.Fatalf("StartAttempt failed: %v", err)
	}
	if _, _, err := attemptSvc.SubmitAttempt(started.AttemptID, student.Email, []Response{{ID: q.ID, Response: "A"}}); err != nil {
		t.Fatalf("SubmitAttempt failed: %v", err)
	}

	// A second student is still mid-attempt; only submitted rows appear.
	inProgress := createUser(t, db, "Second", "bt21cs046@student.campus.edu", models.RoleStudent)
	if _, err := attemptSvc.StartAttempt(quiz.ID, inProgress.Email); err != nil {
		t.Fatalf("StartAttempt failed: %v", err)
	}
	results, err := quizSvc.SubmissionsForQuiz(quiz.ID, owner.Email)
	if err != nil {
		t.Fatalf("SubmissionsForQuiz failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(results))
	}
	if results[0].StudentName != student.Name || results[0].Score == nil || *results[0].Score != 1 {
		t.Errorf("unexpected submission row: %+v", results[0])
	}
	if results[0].TotalMarks != quiz.TotalMarks {
		t.Errorf("total marks = %d, want %d", results[0].TotalMarks, quiz.TotalMarks)
	}

	if _, err := quizSvc.SubmissionsForQuiz(quiz.ID, "admin@campus.edu"); err != nil {
		t.Errorf("admin access failed: %v", err)
	}
	if _, err := quizSvc.SubmissionsForQuiz(quiz.ID, other.Email); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized for non-owner faculty, got %v", err)
	}
	if _, err := quizSvc.SubmissionsForQuiz(quiz.ID, student.Email); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized for student, got %v", err)
	}
}

func TestDeleteQuiz_CascadesAttempts(t *testing.T) {
	db := newTestDB(t)
	quizSvc := newQuizService(db)
	attemptSvc := newAttemptService(db)
	owner := createUser(t, db, "Owner", "owner@campus.edu", models.RoleFaculty)
	other := createUser(t, db, "Other", "other@campus.edu", models.RoleFaculty)
	student := createUser(t, db, "Student", "bt21cs045@student.campus.edu", models.RoleStudent)

	q := createQuestion(t, db, "q1", "A", "A", "B")
	quiz := activeQuiz(t, db, owner, q)

	if _, err := attemptSvc.StartAttempt(quiz.ID, student.Email); err != nil {
		t.Fatalf("StartAttempt failed: %v", err)
	}

	if err := quizSvc.DeleteQuiz(quiz.ID, other.Email); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for non-owner, got %v", err)
	}
	if err := quizSvc.DeleteQuiz(quiz.ID, owner.Email); err != nil {
		t.Fatalf("DeleteQuiz failed: %v", err)
	}

	var count int64
	db.Model(&models.QuizAttempt{}).Where("quiz_id = ?", quiz.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected attempts deleted with quiz, found %d", count)
	}
	if err := quizSvc.DeleteQuiz(quiz.ID, owner.Email); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("expected ErrQuizNotFound after delete, got %v", err)
	}
}

func TestQuizzesByCreator(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	owner := createUser(t, db, "Owner", "owner@campus.edu", models.RoleFaculty)
	other := createUser(t, db, "Other", "other@campus.edu", models.RoleFaculty)
	createUser(t, db, "Admin", "admin@campus.edu", models.RoleAdmin)
	createUser(t, db, "Student", "bt21cs045@student.campus.edu", models.RoleStudent)

	createQuiz(t, db, owner, models.StatusDraft, nil, nil)
	createQuiz(t, db, other, models.StatusDraft, nil, nil)

	mine, err := svc.QuizzesByCreator(owner.Email)
	if err != nil {
		t.Fatalf("QuizzesByCreator failed: %v", err)
	}
	if len(mine) != 1 || mine[0].CreatedByID != owner.ID {
		t.Errorf("expected only the owner's quiz, got %v", quizIDs(mine))
	}

	all, err := svc.QuizzesByCreator("admin@campus.edu")
	if err != nil {
		t.Fatalf("QuizzesByCreator failed for admin: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin should see all quizzes, got %v", quizIDs(all))
	}

	if _, err := svc.QuizzesByCreator("bt21cs045@student.campus.edu"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized for student, got %v", err)
	}
}
