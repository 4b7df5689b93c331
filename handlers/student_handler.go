package handlers

import (
	"net/http"

	"campusquiz/middleware"
	"campusquiz/services"

	"github.com/gin-gonic/gin"
)

type StudentHandler struct {
	quizService    *services.QuizService
	attemptService *services.AttemptService
}

func NewStudentHandler(quizService *services.QuizService, attemptService *services.AttemptService) *StudentHandler {
	return &StudentHandler{
		quizService:    quizService,
		attemptService: attemptService,
	}
}

func (h *StudentHandler) GetAssignedQuizzes(c *gin.Context) {
	email, ok := middleware.CallerEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quizzes, err := h.quizService.AssignedQuizzes(email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *StudentHandler) StartAttempt(c *gin.Context) {
	email, ok := middleware.CallerEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.attemptService.StartAttempt(quizID, email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StudentHandler) SubmitAttempt(c *gin.Context) {
	email, ok := middleware.CallerEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	attemptID, ok := parseIDParam(c, "attemptId")
	if !ok {
		return
	}

	var responses []services.Response
	if err := c.ShouldBindJSON(&responses); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	score, late, err := h.attemptService.SubmitAttempt(attemptID, email, responses)
	if err != nil {
		respondError(c, err)
		return
	}

	// A late submission is recorded (score 0), but signaled distinctly.
	if late {
		c.JSON(http.StatusRequestTimeout, gin.H{"score": score, "late": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score, "late": false})
}

func (h *StudentHandler) GetAttempt(c *gin.Context) {
	email, ok := middleware.CallerEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	attemptID, ok := parseIDParam(c, "attemptId")
	if !ok {
		return
	}

	result, err := h.attemptService.GetAttempt(attemptID, email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *StudentHandler) GetMyAttempts(c *gin.Context) {
	email, ok := middleware.CallerEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	results, err := h.attemptService.ListAttempts(email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
