package routes

import (
	"log"
	"net/http"
	"strconv"

	"campusquiz/handlers"
	"campusquiz/middleware"
	"campusquiz/models"
	"campusquiz/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	questionHandler *handlers.QuestionHandler,
	quizHandler *handlers.QuizHandler,
	studentHandler *handlers.StudentHandler,
	adminHandler *handlers.AdminHandler,
	hub *services.Hub,
	quizService *services.QuizService,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/googlelogin", authHandler.GoogleLogin)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			// User profile
			protected.GET("/auth/me", authHandler.GetProfile)

			// Question bank (Faculty/Admin)
			questions := protected.Group("/questions")
			questions.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty))
			{
				questions.GET("/all", questionHandler.GetAllQuestions)
				questions.GET("/category/:category", questionHandler.GetQuestionsByCategory)
				questions.POST("/add", questionHandler.AddQuestion)
				questions.PUT("/replace/:id", questionHandler.ReplaceQuestion)
				questions.DELETE("/delete/:id", questionHandler.DeleteQuestion)
			}

			// Quiz authoring (Faculty/Admin)
			quizzes := protected.Group("/quizzes")
			quizzes.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty))
			{
				quizzes.POST("", quizHandler.SaveQuiz)
				quizzes.GET("/mine", quizHandler.GetMyQuizzes)
				quizzes.DELETE("/:id", quizHandler.DeleteQuiz)
				quizzes.GET("/:id/submissions", quizHandler.GetSubmissions)
			}

			// Student routes
			student := protected.Group("/student")
			{
				student.GET("/quizzes/assigned", studentHandler.GetAssignedQuizzes)
				student.POST("/quizzes/:id/attempt", studentHandler.StartAttempt)
				student.POST("/attempts/:attemptId/submit", studentHandler.SubmitAttempt)
				student.GET("/attempts/:attemptId", studentHandler.GetAttempt)
				student.GET("/attempts", studentHandler.GetMyAttempts)
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRoles(models.RoleAdmin))
			{
				admin.GET("/users", adminHandler.GetAllUsers)
				admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
				admin.DELETE("/users/:id", adminHandler.DeleteUser)
				admin.GET("/quizzes", adminHandler.GetAllQuizzes)
				admin.DELETE("/quizzes/:id", adminHandler.DeleteAnyQuiz)
			}
		}
	}

	// WebSocket endpoint for the live submissions feed. The token comes in
	// as a query parameter since browsers cannot set headers on websocket
	// connects.
	router.GET("/ws/quizzes/:id/submissions", func(c *gin.Context) {
		quizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
			return
		}

		email, _, err := services.ParseToken(c.Query("token"), jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		if err := quizService.CanViewSubmissions(uint(quizID), email); err != nil {
			log.Printf("Submissions feed access denied for quiz %d, user %s: %v", quizID, email, err)
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view submissions"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for quiz %d, user %s: %v", quizID, email, err)
			return
		}

		hub.RegisterClient(conn, uint(quizID), email)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
