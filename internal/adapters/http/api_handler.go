package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/viortio/core/internal/application/services"
	"github.com/viortio/core/internal/domain/entities"
	"github.com/viortio/core/internal/infrastructure/logger"
	"github.com/viortio/core/internal/ports"
)

// APIHandler serves the JSON API. Task endpoints authenticate every request
// independently via HTTP basic auth; no session is kept between calls.
type APIHandler struct {
	authService *services.AuthService
	userService *services.UserService
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(authService *services.AuthService, userService *services.UserService, taskService *services.TaskService, logger *logger.Logger) *APIHandler {
	return &APIHandler{
		authService: authService,
		userService: userService,
		taskService: taskService,
		logger:      logger,
	}
}

// Register mounts the API routes on a group rooted at BasePath.
func (h *APIHandler) Register(g *echo.Group) {
	g.GET("/users/:id", h.GetUser)
	g.POST("/register", h.RegisterUser)

	secured := g.Group("", middleware.BasicAuth(h.verifyPassword))
	secured.GET("/tasks", h.ListTasks)
	secured.POST("/tasks/create", h.CreateTask)
	secured.POST("/tasks/update/:id", h.UpdateTask)
	secured.POST("/tasks/delete/:id", h.DeleteTask)
	secured.GET("/tasks/completed", h.CompletedTasks)
	secured.GET("/projects", h.ListProjects)
	secured.GET("/projects/:name", h.ProjectTasks)
}

func (h *APIHandler) verifyPassword(username, password string, c echo.Context) (bool, error) {
	user, err := h.authService.Authenticate(c.Request().Context(), username, password)
	if err != nil {
		return false, nil
	}
	c.Set(ctxUserKey, user)
	return true, nil
}

// GetUser returns a user's nickname. An unknown ID is a 400, matching the
// public surface of the registration flow.
func (h *APIHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := h.userService.GetUser(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown user")
	}

	return c.JSON(http.StatusOK, map[string]string{"username": user.Nickname})
}

// RegisterUser creates an account from a JSON body.
func (h *APIHandler) RegisterUser(c echo.Context) error {
	var body registerBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterRequest{
		Nickname: body.Username,
		Password: body.Password,
		Confirm:  body.Password,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("%s/users/%d", BasePath, user.ID))
	return c.JSON(http.StatusCreated, map[string]string{"username": user.Nickname})
}

// ListTasks returns the authenticated user's active tasks.
func (h *APIHandler) ListTasks(c echo.Context) error {
	owner := apiUser(c)

	tasks, err := h.taskService.Active(c.Request().Context(), owner.ID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	return c.JSON(http.StatusOK, map[string][]TaskJSON{"tasks": tasksJSON(tasks)})
}

// CreateTask creates a task owned by the authenticated user.
func (h *APIHandler) CreateTask(c echo.Context) error {
	owner := apiUser(c)

	var body createTaskBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, entities.ErrNameRequired.Error())
	}

	req := ports.CreateTaskRequest{Name: body.Name, Project: body.Project}
	var err error
	if req.StartDate, err = parseDatePtr(body.StartDate); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DueDate, err = parseDatePtr(body.DueDate); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Create(c.Request().Context(), owner.ID, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, taskJSON(task))
}

// UpdateTask applies a partial update to an owned task.
func (h *APIHandler) UpdateTask(c echo.Context) error {
	owner := apiUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}

	var body updateTaskBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	patch := ports.TaskPatch{Name: body.Name, Project: body.Project, Complete: body.Complete}
	if patch.StartDate, err = parseDatePtr(body.StartDate); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if patch.DueDate, err = parseDatePtr(body.DueDate); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Update(c.Request().Context(), owner.ID, id, patch)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, taskJSON(task))
}

// DeleteTask removes an owned task.
func (h *APIHandler) DeleteTask(c echo.Context) error {
	owner := apiUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}

	if err := h.taskService.Delete(c.Request().Context(), owner.ID, id); err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return fmt.Errorf("delete task: %w", err)
	}

	return c.JSON(http.StatusCreated, map[string]int64{"deleted": id})
}

// CompletedTasks returns the authenticated user's finished tasks.
func (h *APIHandler) CompletedTasks(c echo.Context) error {
	owner := apiUser(c)

	tasks, err := h.taskService.Completed(c.Request().Context(), owner.ID)
	if err != nil {
		return fmt.Errorf("list completed tasks: %w", err)
	}

	return c.JSON(http.StatusOK, map[string][]TaskJSON{"completed": tasksJSON(tasks)})
}

// ListProjects returns the authenticated user's distinct project tags.
func (h *APIHandler) ListProjects(c echo.Context) error {
	owner := apiUser(c)

	projects, err := h.taskService.Projects(c.Request().Context(), owner.ID)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if projects == nil {
		projects = []string{}
	}

	return c.JSON(http.StatusOK, map[string][]string{"projects": projects})
}

// ProjectTasks returns the authenticated user's active tasks for one project.
func (h *APIHandler) ProjectTasks(c echo.Context) error {
	owner := apiUser(c)
	name := c.Param("name")

	tasks, err := h.taskService.ByProject(c.Request().Context(), owner.ID, name)
	if err != nil {
		return fmt.Errorf("list project tasks: %w", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"project": name,
		"tasks":   tasksJSON(tasks),
	})
}

func apiUser(c echo.Context) *entities.User {
	user, _ := c.Get(ctxUserKey).(*entities.User)
	return user
}

func parseDatePtr(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := entities.ParseTime(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
