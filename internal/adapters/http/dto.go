package http

import (
	"github.com/viortio/core/internal/domain/entities"
)

// BasePath is the prefix every REST endpoint lives under.
const BasePath = "/viortio/api/v1.0"

// TaskJSON is the canonical wire projection of a task. Dates use the
// YYYY-MM-DD HH:MM:SS layout.
type TaskJSON struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	DueDate   *string `json:"due_date"`
	StartDate string  `json:"start_date"`
	Project   *string `json:"project"`
	Complete  bool    `json:"complete"`
}

// MessageResponse is a generic message payload
type MessageResponse struct {
	Message string `json:"message"`
}

func taskJSON(t *entities.Task) TaskJSON {
	out := TaskJSON{
		ID:        t.ID,
		Name:      t.Name,
		StartDate: entities.FormatTime(t.StartDate),
		Project:   t.Project,
		Complete:  t.Complete,
	}
	if t.DueDate != nil {
		due := entities.FormatTime(*t.DueDate)
		out.DueDate = &due
	}
	return out
}

func tasksJSON(tasks []*entities.Task) []TaskJSON {
	out := make([]TaskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskJSON(t))
	}
	return out
}

type registerBody struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createTaskBody struct {
	Name      string  `json:"name" validate:"required"`
	DueDate   *string `json:"due_date"`
	StartDate *string `json:"start_date"`
	Project   *string `json:"project"`
}

type updateTaskBody struct {
	Name      *string `json:"name"`
	DueDate   *string `json:"due_date"`
	StartDate *string `json:"start_date"`
	Project   *string `json:"project"`
	Complete  *bool   `json:"complete"`
}
