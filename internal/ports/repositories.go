package ports

import (
	"context"
	"time"

	"github.com/viortio/core/internal/domain/entities"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	GetByNickname(ctx context.Context, nickname string) (*entities.User, error)
}

// TaskRepository defines the interface for task data operations. Every
// task-scoped method takes the owner explicitly; a task that exists but
// belongs to someone else is reported as entities.ErrTaskNotFound.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetOwned(ctx context.Context, ownerID, id int64) (*entities.Task, error)
	ListActive(ctx context.Context, ownerID int64, now time.Time) ([]*entities.Task, error)
	ListCompleted(ctx context.Context, ownerID int64) ([]*entities.Task, error)
	ListByProject(ctx context.Context, ownerID int64, project string, now time.Time) ([]*entities.Task, error)
	DistinctProjects(ctx context.Context, ownerID int64) ([]string, error)
	MarkComplete(ctx context.Context, ownerID, id int64) (*entities.Task, error)
	Patch(ctx context.Context, ownerID, id int64, patch TaskPatch) (*entities.Task, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// TaskPatch enumerates the fields a partial update may overwrite. Only
// non-nil fields are applied.
type TaskPatch struct {
	Name      *string
	StartDate *time.Time
	DueDate   *time.Time
	Project   *string
	Complete  *bool
}

// Empty reports whether the patch would change nothing.
func (p TaskPatch) Empty() bool {
	return p.Name == nil && p.StartDate == nil && p.DueDate == nil && p.Project == nil && p.Complete == nil
}
