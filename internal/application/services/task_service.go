package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viortio/core/internal/domain/entities"
	"github.com/viortio/core/internal/infrastructure/logger"
	"github.com/viortio/core/internal/ports"
)

// TaskService handles task operations. Every call takes the owning user
// explicitly; there is no ambient request user.
type TaskService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates and persists a new task owned by ownerID. The start date
// defaults to the current time when omitted.
func (s *TaskService) Create(ctx context.Context, ownerID int64, req ports.CreateTaskRequest) (*entities.Task, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, entities.ErrNameRequired
	}
	if len(name) > 140 {
		return nil, entities.ErrNameTooLong
	}
	if req.Project != nil && len(*req.Project) > 140 {
		return nil, entities.ErrProjectTooLong
	}

	start := s.now().UTC()
	if req.StartDate != nil {
		start = *req.StartDate
	}

	task := &entities.Task{
		Name:      name,
		StartDate: start,
		DueDate:   req.DueDate,
		Project:   req.Project,
		UserID:    ownerID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "user_id", ownerID)
	return task, nil
}

// Complete marks a task as finished. Completion is one-way and idempotent:
// completing an already-complete task succeeds without change.
func (s *TaskService) Complete(ctx context.Context, ownerID, taskID int64) (*entities.Task, error) {
	task, err := s.taskRepo.MarkComplete(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Task completed", "task_id", taskID, "user_id", ownerID)
	return task, nil
}

// Update overwrites only the fields present in the patch. A task owned by a
// different user is reported as not found.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID int64, patch ports.TaskPatch) (*entities.Task, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, entities.ErrNameRequired
		}
		if len(name) > 140 {
			return nil, entities.ErrNameTooLong
		}
		patch.Name = &name
	}
	if patch.Project != nil && len(*patch.Project) > 140 {
		return nil, entities.ErrProjectTooLong
	}

	return s.taskRepo.Patch(ctx, ownerID, taskID, patch)
}

// Delete removes a task, subject to the same ownership opacity as Update.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID int64) error {
	if err := s.taskRepo.Delete(ctx, ownerID, taskID); err != nil {
		return err
	}

	s.logger.Infow("Task deleted", "task_id", taskID, "user_id", ownerID)
	return nil
}

// Active lists incomplete tasks whose start date has passed, soonest first.
// Tasks scheduled for the future stay hidden until their start date arrives.
func (s *TaskService) Active(ctx context.Context, ownerID int64) ([]*entities.Task, error) {
	return s.taskRepo.ListActive(ctx, ownerID, s.now().UTC())
}

// Completed lists finished tasks, most recent start date first.
func (s *TaskService) Completed(ctx context.Context, ownerID int64) ([]*entities.Task, error) {
	return s.taskRepo.ListCompleted(ctx, ownerID)
}

// ByProject lists the owner's active tasks carrying the given project tag.
func (s *TaskService) ByProject(ctx context.Context, ownerID int64, project string) ([]*entities.Task, error) {
	return s.taskRepo.ListByProject(ctx, ownerID, project, s.now().UTC())
}

// Projects lists the owner's distinct project tags, alphabetically.
func (s *TaskService) Projects(ctx context.Context, ownerID int64) ([]string, error) {
	return s.taskRepo.DistinctProjects(ctx, ownerID)
}
