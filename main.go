package main

import (
	"log"

	"campusquiz/config"
	"campusquiz/handlers"
	"campusquiz/middleware"
	"campusquiz/models"
	"campusquiz/routes"
	"campusquiz/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present, then configuration
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.Quiz{},
		&models.QuizAttempt{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	matcher := services.MatcherConfig{
		StudentEmailDomain: cfg.StudentEmailDomain,
		RollPrefixLength:   cfg.RollPrefixLength,
	}

	// Initialize WebSocket hub for the live submissions feed
	hub := services.NewHub()
	go hub.Run()

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.JWTExpiryHours, cfg.GoogleClientID)
	questionService := services.NewQuestionService(db)
	quizService := services.NewQuizService(db, matcher)
	attemptService := services.NewAttemptService(db, redisClient, hub)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	questionHandler := handlers.NewQuestionHandler(questionService)
	quizHandler := handlers.NewQuizHandler(quizService)
	studentHandler := handlers.NewStudentHandler(quizService, attemptService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, questionHandler, quizHandler, studentHandler, adminHandler, hub, quizService, cfg.JWTSecret)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
