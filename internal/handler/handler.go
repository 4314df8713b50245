package handler

import (
	"database/sql"
	"net/http"
	"task_tracker/internal/config"
	"task_tracker/internal/middleware"
	"task_tracker/internal/task"
	"task_tracker/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// SetupHandler initializes all dependencies and routes
func SetupHandler(db *sql.DB, redisClient *redis.Client, cfg *config.Config) *gin.Engine {

	r := gin.Default()

	// Initialize repositories
	userRepo := user.NewUserRepository()
	taskRepo := task.NewTaskRepository()

	// Initialize services
	userService := user.NewUserService(userRepo, db)
	taskService := task.NewTaskService(taskRepo, db, redisClient)

	// Initialize controllers
	userController := user.NewUserController(userService, cfg.JWT.Secret)
	taskController := task.NewTaskController(taskService)

	// Setup routes
	setupRoutes(r, userController, taskController, redisClient, cfg.JWT.Secret)

	return r
}

// setupRoutes configures all application routes
func setupRoutes(r *gin.Engine, userCtrl *user.UserController, taskCtrl *task.TaskController, redisClient *redis.Client, jwtSecret string) {

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes - Authentication. Login and refresh sit behind the
	// strict limiter, bucketed per route and source IP since there is no
	// authenticated user yet.
	strictLimiter := middleware.RateLimiterMiddleware(redisClient, middleware.StrictRateLimiter(), middleware.ClientIPKey())

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", userCtrl.Register)
		authGroup.POST("/login", strictLimiter, userCtrl.Login)
		authGroup.POST("/refresh", strictLimiter, userCtrl.RefreshToken)
	}

	// Protected routes - API v1
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtSecret))
	api.Use(middleware.RateLimiterMiddleware(redisClient, middleware.DefaultRateLimiterConfig(), middleware.UserKey()))
	{
		api.GET("/tasks", taskCtrl.ListTasks)
		api.POST("/tasks", taskCtrl.CreateTask)
		api.GET("/tasks/:id", taskCtrl.GetTask)
		api.PUT("/tasks/:id", taskCtrl.UpdateTask)
		api.PATCH("/tasks/:id", taskCtrl.UpdateTask)
		api.DELETE("/tasks/:id", taskCtrl.DeleteTask)
	}
}
