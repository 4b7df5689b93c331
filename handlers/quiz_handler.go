package handlers

import (
	"net/http"

	"campusquiz/middleware"
	"campusquiz/services"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizService *services.QuizService
}

func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

func (h *QuizHandler) SaveQuiz(c *gin.Context) {
	email, ok := middleware.CallerEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req services.SaveQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.SaveQuiz(&req, email)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.ID == 0 {
		c.JSON(http.StatusCreated, quiz)
	} else {
		c.JSON(http.StatusOK, quiz)
	}
}

func (h *QuizHandler) GetMyQuizzes(c *gin.Context) {
	email, ok := middleware.CallerEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quizzes, err := h.quizService.QuizzesByCreator(email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	email, ok := middleware.CallerEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.quizService.DeleteQuiz(quizID, email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted successfully"})
}

func (h *QuizHandler) GetSubmissions(c *gin.Context) {
	email, ok := middleware.CallerEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	results, err := h.quizService.SubmissionsForQuiz(quizID, email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
