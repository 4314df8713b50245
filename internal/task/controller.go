package task

import (
	"errors"
	"net/http"
	"strconv"
	"task_tracker/internal/auth"
	"task_tracker/internal/utils"

	"github.com/gin-gonic/gin"
)

type TaskController struct {
	service TaskServiceInterface
}

func NewTaskController(service TaskServiceInterface) *TaskController {
	return &TaskController{
		service: service,
	}
}

// CreateTask handles task creation for the authenticated user
func (tc *TaskController) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ValidationErrorMap(err)})
		return
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := tc.service.CreateTask(userID, req.Title, req.Description, Status(req.Status))
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, task)
}

// ListTasks returns all tasks of the authenticated user, most recent first
func (tc *TaskController) ListTasks(c *gin.Context) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	tasks, err := tc.service.ListTasks(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetTask returns one task. Missing and foreign ids both read as 404.
func (tc *TaskController) GetTask(c *gin.Context) {
	userID, taskID, ok := tc.callerAndTaskID(c)
	if !ok {
		return
	}

	task, err := tc.service.GetTask(userID, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get task"})
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTask applies a partial update. PUT and PATCH share this handler:
// only supplied fields change either way.
func (tc *TaskController) UpdateTask(c *gin.Context) {
	userID, taskID, ok := tc.callerAndTaskID(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ValidationErrorMap(err)})
		return
	}

	fields := UpdateFields{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := Status(*req.Status)
		fields.Status = &status
	}

	task, err := tc.service.UpdateTask(userID, taskID, fields)
	if err != nil {
		switch {
		case errors.Is(err, ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		case isValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		}
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task. Deleting an already-deleted id reports 404.
func (tc *TaskController) DeleteTask(c *gin.Context) {
	userID, taskID, ok := tc.callerAndTaskID(c)
	if !ok {
		return
	}

	if err := tc.service.DeleteTask(userID, taskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.Status(http.StatusNoContent)
}

// callerAndTaskID pulls the authenticated user and the :id path parameter
func (tc *TaskController) callerAndTaskID(c *gin.Context) (userID, taskID int, ok bool) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, 0, false
	}

	taskID, err = strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return 0, 0, false
	}

	return userID, taskID, true
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrTitleTooLong) ||
		errors.Is(err, ErrInvalidStatus)
}
