package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/viortio/core/internal/domain/entities"
	"github.com/viortio/core/internal/ports"
)

const taskColumns = "id, name, start_date, due_date, project, complete, user_id"

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO task (name, start_date, due_date, project, complete, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		task.Name, task.StartDate, task.DueDate, task.Project, task.Complete, task.UserID,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetOwned(ctx context.Context, ownerID, id int64) (*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM task
		WHERE id = $1 AND user_id = $2`, taskColumns)

	var task entities.Task
	err := r.db.GetContext(ctx, &task, query, id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) ListActive(ctx context.Context, ownerID int64, now time.Time) ([]*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM task
		WHERE user_id = $1 AND complete = FALSE AND start_date <= $2
		ORDER BY start_date ASC`, taskColumns)

	var tasks []*entities.Task
	err := r.db.SelectContext(ctx, &tasks, query, ownerID, now)
	if err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListCompleted(ctx context.Context, ownerID int64) ([]*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM task
		WHERE user_id = $1 AND complete = TRUE
		ORDER BY start_date DESC`, taskColumns)

	var tasks []*entities.Task
	err := r.db.SelectContext(ctx, &tasks, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListByProject(ctx context.Context, ownerID int64, project string, now time.Time) ([]*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM task
		WHERE user_id = $1 AND project = $2 AND complete = FALSE AND start_date <= $3
		ORDER BY start_date ASC`, taskColumns)

	var tasks []*entities.Task
	err := r.db.SelectContext(ctx, &tasks, query, ownerID, project, now)
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) DistinctProjects(ctx context.Context, ownerID int64) ([]string, error) {
	query := `
		SELECT DISTINCT project
		FROM task
		WHERE user_id = $1 AND project IS NOT NULL
		ORDER BY project ASC`

	var projects []string
	err := r.db.SelectContext(ctx, &projects, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list distinct projects: %w", err)
	}

	return projects, nil
}

func (r *TaskRepositoryImpl) MarkComplete(ctx context.Context, ownerID, id int64) (*entities.Task, error) {
	query := fmt.Sprintf(`
		UPDATE task
		SET complete = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING %s`, taskColumns)

	var task entities.Task
	err := r.db.GetContext(ctx, &task, query, id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("mark task complete: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Patch(ctx context.Context, ownerID, id int64, patch ports.TaskPatch) (*entities.Task, error) {
	if patch.Empty() {
		return r.GetOwned(ctx, ownerID, id)
	}

	var set []string
	var args []interface{}
	assign := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		assign("name", *patch.Name)
	}
	if patch.StartDate != nil {
		assign("start_date", *patch.StartDate)
	}
	if patch.DueDate != nil {
		assign("due_date", *patch.DueDate)
	}
	if patch.Project != nil {
		assign("project", *patch.Project)
	}
	if patch.Complete != nil {
		assign("complete", *patch.Complete)
	}

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`
		UPDATE task
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s`, strings.Join(set, ", "), len(args)-1, len(args), taskColumns)

	var task entities.Task
	err := r.db.GetContext(ctx, &task, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("patch task: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, ownerID, id int64) error {
	query := `DELETE FROM task WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}
