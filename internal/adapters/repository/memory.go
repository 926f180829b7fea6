package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/viortio/core/internal/domain/entities"
	"github.com/viortio/core/internal/ports"
)

// memoryState is the shared backing store for the in-memory repositories.
type memoryState struct {
	mu       sync.Mutex
	users    map[int64]entities.User
	byNick   map[string]int64
	tasks    map[int64]entities.Task
	nextUser int64
	nextTask int64
}

// MemoryUserRepository is an in-memory UserRepository, used where a real
// Postgres instance is unavailable and by the test suite.
type MemoryUserRepository struct {
	state *memoryState
}

// MemoryTaskRepository is the in-memory counterpart of the task repository.
type MemoryTaskRepository struct {
	state *memoryState
}

// NewMemory creates a user and task repository pair sharing one store.
func NewMemory() (*MemoryUserRepository, *MemoryTaskRepository) {
	state := &memoryState{
		users:  make(map[int64]entities.User),
		byNick: make(map[string]int64),
		tasks:  make(map[int64]entities.Task),
	}
	return &MemoryUserRepository{state: state}, &MemoryTaskRepository{state: state}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *entities.User) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, exists := r.state.byNick[user.Nickname]; exists {
		return entities.ErrNicknameTaken
	}

	r.state.nextUser++
	user.ID = r.state.nextUser
	r.state.users[user.ID] = *user
	r.state.byNick[user.Nickname] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	user, ok := r.state.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByNickname(ctx context.Context, nickname string) (*entities.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	id, ok := r.state.byNick[nickname]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	user := r.state.users[id]
	return &user, nil
}

func (r *MemoryTaskRepository) Create(ctx context.Context, task *entities.Task) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	r.state.nextTask++
	task.ID = r.state.nextTask
	r.state.tasks[task.ID] = *task
	return nil
}

func (r *MemoryTaskRepository) GetOwned(ctx context.Context, ownerID, id int64) (*entities.Task, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	task, ok := r.state.tasks[id]
	if !ok || task.UserID != ownerID {
		return nil, entities.ErrTaskNotFound
	}
	return &task, nil
}

func (r *MemoryTaskRepository) ListActive(ctx context.Context, ownerID int64, now time.Time) ([]*entities.Task, error) {
	tasks := r.collect(func(t entities.Task) bool {
		return t.UserID == ownerID && t.Active(now)
	})
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].StartDate.Before(tasks[j].StartDate) })
	return tasks, nil
}

func (r *MemoryTaskRepository) ListCompleted(ctx context.Context, ownerID int64) ([]*entities.Task, error) {
	tasks := r.collect(func(t entities.Task) bool {
		return t.UserID == ownerID && t.Complete
	})
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].StartDate.After(tasks[j].StartDate) })
	return tasks, nil
}

func (r *MemoryTaskRepository) ListByProject(ctx context.Context, ownerID int64, project string, now time.Time) ([]*entities.Task, error) {
	tasks := r.collect(func(t entities.Task) bool {
		return t.UserID == ownerID && t.Project != nil && *t.Project == project && t.Active(now)
	})
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].StartDate.Before(tasks[j].StartDate) })
	return tasks, nil
}

func (r *MemoryTaskRepository) DistinctProjects(ctx context.Context, ownerID int64) ([]string, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	seen := make(map[string]bool)
	var projects []string
	for _, task := range r.state.tasks {
		if task.UserID != ownerID || task.Project == nil || seen[*task.Project] {
			continue
		}
		seen[*task.Project] = true
		projects = append(projects, *task.Project)
	}
	sort.Strings(projects)
	return projects, nil
}

func (r *MemoryTaskRepository) MarkComplete(ctx context.Context, ownerID, id int64) (*entities.Task, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	task, ok := r.state.tasks[id]
	if !ok || task.UserID != ownerID {
		return nil, entities.ErrTaskNotFound
	}
	task.Complete = true
	r.state.tasks[id] = task
	return &task, nil
}

func (r *MemoryTaskRepository) Patch(ctx context.Context, ownerID, id int64, patch ports.TaskPatch) (*entities.Task, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	task, ok := r.state.tasks[id]
	if !ok || task.UserID != ownerID {
		return nil, entities.ErrTaskNotFound
	}

	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.StartDate != nil {
		task.StartDate = *patch.StartDate
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Project != nil {
		task.Project = patch.Project
	}
	if patch.Complete != nil {
		task.Complete = *patch.Complete
	}

	r.state.tasks[id] = task
	return &task, nil
}

func (r *MemoryTaskRepository) Delete(ctx context.Context, ownerID, id int64) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	task, ok := r.state.tasks[id]
	if !ok || task.UserID != ownerID {
		return entities.ErrTaskNotFound
	}
	delete(r.state.tasks, task.ID)
	return nil
}

func (r *MemoryTaskRepository) collect(keep func(entities.Task) bool) []*entities.Task {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	var tasks []*entities.Task
	for _, task := range r.state.tasks {
		if keep(task) {
			t := task
			tasks = append(tasks, &t)
		}
	}
	return tasks
}
