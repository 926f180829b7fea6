package ports

import (
	"context"
	"time"

	"github.com/viortio/core/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*entities.User, error)
	Authenticate(ctx context.Context, nickname, password string) (*entities.User, error)
	IssueSession(user *entities.User, remember bool) (string, error)
	ParseSession(token string) (int64, error)
}

// UserService interface for user lookups
type UserService interface {
	GetUser(ctx context.Context, id int64) (*entities.User, error)
}

// TaskService interface for task operations, always scoped to an owner
type TaskService interface {
	Create(ctx context.Context, ownerID int64, req CreateTaskRequest) (*entities.Task, error)
	Complete(ctx context.Context, ownerID, taskID int64) (*entities.Task, error)
	Update(ctx context.Context, ownerID, taskID int64, patch TaskPatch) (*entities.Task, error)
	Delete(ctx context.Context, ownerID, taskID int64) error
	Active(ctx context.Context, ownerID int64) ([]*entities.Task, error)
	Completed(ctx context.Context, ownerID int64) ([]*entities.Task, error)
	ByProject(ctx context.Context, ownerID int64, project string) ([]*entities.Task, error)
	Projects(ctx context.Context, ownerID int64) ([]string, error)
}

// RegisterRequest carries a registration attempt. Confirm must match
// Password; API registration sends the password twice.
type RegisterRequest struct {
	Nickname string `json:"username" validate:"required,min=4,max=80"`
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"-"`
}

// CreateTaskRequest carries a new task. StartDate defaults to the current
// time when nil.
type CreateTaskRequest struct {
	Name      string `validate:"required,max=140"`
	StartDate *time.Time
	DueDate   *time.Time
	Project   *string `validate:"omitempty,max=140"`
}
