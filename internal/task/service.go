package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"task_tracker/internal/cache"
	"task_tracker/internal/observability"
	"task_tracker/internal/utils"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// UpdateFields carries a partial update: nil means "leave unchanged"
type UpdateFields struct {
	Title       *string
	Description *string
	Status      *Status
}

type TaskServiceInterface interface {
	CreateTask(userID int, title, description string, status Status) (*Task, error)
	GetTask(userID, taskID int) (*Task, error)
	ListTasks(userID int) ([]*Task, error)
	UpdateTask(userID, taskID int, fields UpdateFields) (*Task, error)
	DeleteTask(userID, taskID int) error
}

type TaskService struct {
	repo  TaskRepositoryInterface
	DB    *sql.DB
	cache *cache.TaskCache
}

func NewTaskService(repo TaskRepositoryInterface, db *sql.DB, redisClient *redis.Client) TaskServiceInterface {
	return &TaskService{
		repo:  repo,
		DB:    db,
		cache: cache.NewTaskCache(redisClient),
	}
}

// CreateTask creates a task owned by userID. The owner always comes from
// the authenticated caller, never from the request payload.
func (s *TaskService) CreateTask(userID int, title, description string, status Status) (*Task, error) {
	if status == "" {
		status = StatusTodo
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	task := &Task{
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      status,
	}

	if err := utils.WithTransaction(s.DB, func(tx *sql.Tx) error {
		return s.repo.Create(tx, task)
	}); err != nil {
		return nil, err
	}

	s.invalidate(task.ID, userID)

	if observability.GlobalMetrics != nil {
		observability.GlobalMetrics.TasksCreatedTotal.WithLabelValues(string(task.Status)).Inc()
	}

	return task, nil
}

func (s *TaskService) GetTask(userID, taskID int) (*Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Try cache first. The key carries the owner, so another user's
	// request for the same id can never hit this entry.
	cacheKey := cache.TaskKey(taskID, userID)
	cachedData, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cachedData != nil {
		var task Task
		if json.Unmarshal(cachedData, &task) == nil {
			s.countCache("task", true)
			return &task, nil
		}
	}
	s.countCache("task", false)

	// Cache miss, get from DB (ownership-scoped)
	task, err := s.repo.GetByID(s.DB, taskID, userID)
	if err != nil {
		return nil, err
	}

	// Set cache (ignore error, cache is best-effort)
	if err := s.cache.Set(ctx, cacheKey, task); err != nil {
		logrus.WithError(err).Warn("Failed to set cache for task")
	}

	return task, nil
}

func (s *TaskService) ListTasks(userID int) ([]*Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cacheKey := cache.UserTasksKey(userID)
	cachedData, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cachedData != nil {
		var tasks []*Task
		if json.Unmarshal(cachedData, &tasks) == nil {
			s.countCache("user_tasks", true)
			return tasks, nil
		}
	}
	s.countCache("user_tasks", false)

	tasks, err := s.repo.ListByUser(s.DB, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, tasks); err != nil {
		logrus.WithError(err).Warn("Failed to set cache for user tasks")
	}

	return tasks, nil
}

// UpdateTask applies only the supplied fields. Ownership is checked the
// same way as GetTask: a foreign task id reads as not found.
func (s *TaskService) UpdateTask(userID, taskID int, fields UpdateFields) (*Task, error) {
	task, err := s.repo.GetByID(s.DB, taskID, userID)
	if err != nil {
		return nil, err
	}

	if fields.Title != nil {
		if err := validateTitle(*fields.Title); err != nil {
			return nil, err
		}
		task.Title = *fields.Title
	}
	if fields.Description != nil {
		task.Description = *fields.Description
	}
	if fields.Status != nil {
		if !fields.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *fields.Status
	}

	if err := utils.WithTransaction(s.DB, func(tx *sql.Tx) error {
		return s.repo.Update(tx, task)
	}); err != nil {
		return nil, err
	}

	s.invalidate(taskID, userID)

	if observability.GlobalMetrics != nil {
		observability.GlobalMetrics.TasksUpdatedTotal.WithLabelValues(string(task.Status)).Inc()
	}

	// Reload for the fresh updated_at
	updated, err := s.repo.GetByID(s.DB, taskID, userID)
	if err != nil {
		return task, nil
	}

	return updated, nil
}

// DeleteTask removes the task. A second delete of the same id reports
// not found rather than succeeding silently.
func (s *TaskService) DeleteTask(userID, taskID int) error {
	if err := utils.WithTransaction(s.DB, func(tx *sql.Tx) error {
		return s.repo.Delete(tx, taskID, userID)
	}); err != nil {
		return err
	}

	s.invalidate(taskID, userID)

	if observability.GlobalMetrics != nil {
		observability.GlobalMetrics.TasksDeletedTotal.Inc()
	}

	return nil
}

func (s *TaskService) invalidate(taskID, userID int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.cache.InvalidateTask(ctx, taskID, userID); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate task cache")
	}
}

func (s *TaskService) countCache(keyType string, hit bool) {
	if observability.GlobalMetrics == nil {
		return
	}
	if hit {
		observability.GlobalMetrics.CacheHitsTotal.WithLabelValues(keyType).Inc()
	} else {
		observability.GlobalMetrics.CacheMissesTotal.WithLabelValues(keyType).Inc()
	}
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > TitleMaxLength {
		return ErrTitleTooLong
	}
	return nil
}
