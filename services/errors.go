package services

import "errors"

// Service errors. Handlers map these onto HTTP statuses with errors.Is.
var (
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrAttemptNotFound  = errors.New("attempt not found")

	ErrNotAuthorized = errors.New("not authorized")
	ErrQuizNotActive = errors.New("quiz is not published or is no longer active")

	ErrAlreadyAttempted = errors.New("quiz already attempted")
	ErrQuestionInUse    = errors.New("question is in use by a quiz")

	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownQuestionIDs = errors.New("one or more question IDs do not exist")

	// ErrNoQuestions marks a misconfigured quiz with an empty question set;
	// a server-side fault, not a client error.
	ErrNoQuestions = errors.New("quiz has no questions")
)
