package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/viortio/core/internal/application/services"
	"github.com/viortio/core/internal/domain/entities"
	"github.com/viortio/core/internal/infrastructure/config"
	"github.com/viortio/core/internal/infrastructure/logger"
	"github.com/viortio/core/internal/ports"
)

const (
	ctxUserKey  = "user"
	flashCookie = "viortio_flash"
)

// WebHandler serves the session-backed HTML pages.
type WebHandler struct {
	authService   *services.AuthService
	userService   *services.UserService
	taskService   *services.TaskService
	sessionConfig config.SessionConfig
	logger        *logger.Logger
}

// NewWebHandler creates a new web handler
func NewWebHandler(authService *services.AuthService, userService *services.UserService, taskService *services.TaskService, sessionConfig config.SessionConfig, logger *logger.Logger) *WebHandler {
	return &WebHandler{
		authService:   authService,
		userService:   userService,
		taskService:   taskService,
		sessionConfig: sessionConfig,
		logger:        logger,
	}
}

// Register mounts the web routes.
func (h *WebHandler) Register(e *echo.Echo) {
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login)
	e.GET("/logout", h.Logout)
	e.GET("/register", h.RegisterForm)
	e.POST("/register", h.RegisterSubmit)

	// RequireSession is attached per route: passing it to an empty-prefix
	// group would register a catch-all that intercepts unmatched paths and
	// redirects them to /login instead of rendering the 404 page.
	e.GET("/", h.Index, h.RequireSession)
	e.POST("/", h.Index, h.RequireSession)
	e.GET("/index", h.Index, h.RequireSession)
	e.POST("/index", h.Index, h.RequireSession)
	e.GET("/completed", h.Completed, h.RequireSession)
	e.POST("/completed", h.Completed, h.RequireSession)
	e.GET("/project/:name", h.Project, h.RequireSession)
	e.POST("/project/:name", h.Project, h.RequireSession)
	e.GET("/addtask", h.AddTaskForm, h.RequireSession)
	e.POST("/addtask", h.AddTask, h.RequireSession)
}

// RequireSession resolves the session cookie to a user, or redirects the
// visitor to the login page.
func (h *WebHandler) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := h.sessionUser(c)
		if user == nil {
			return c.Redirect(http.StatusFound, "/login")
		}
		c.Set(ctxUserKey, user)
		return next(c)
	}
}

// Index lists active tasks and project tags. A POST carrying `is_finished`
// marks that task complete before the list is rendered.
func (h *WebHandler) Index(c echo.Context) error {
	user := webUser(c)

	if err := h.finishFromForm(c, user.ID); err != nil {
		return err
	}

	tasks, err := h.taskService.Active(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	projects, err := h.taskService.Projects(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return h.render(c, "index", echo.Map{"Tasks": tasks, "Projects": projects})
}

// Completed lists finished tasks.
func (h *WebHandler) Completed(c echo.Context) error {
	user := webUser(c)

	tasks, err := h.taskService.Completed(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return h.render(c, "completed", echo.Map{"Tasks": tasks})
}

// Project lists the user's active tasks for one project tag.
func (h *WebHandler) Project(c echo.Context) error {
	user := webUser(c)
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		name = c.Param("name")
	}

	if err := h.finishFromForm(c, user.ID); err != nil {
		return err
	}

	tasks, err := h.taskService.ByProject(c.Request().Context(), user.ID, name)
	if err != nil {
		return err
	}

	return h.render(c, "project", echo.Map{"Tasks": tasks, "Title": name})
}

// AddTaskForm renders the task creation form.
func (h *WebHandler) AddTaskForm(c echo.Context) error {
	return h.render(c, "addtask", nil)
}

// AddTask handles the task creation form submission.
func (h *WebHandler) AddTask(c echo.Context) error {
	user := webUser(c)

	req := ports.CreateTaskRequest{Name: c.FormValue("task")}
	if project := c.FormValue("project"); project != "" {
		req.Project = &project
	}

	var err error
	if req.StartDate, err = parseFormDate(c.FormValue("start_date")); err != nil {
		return h.render(c, "addtask", echo.Map{"Error": err.Error()})
	}
	if req.DueDate, err = parseFormDate(c.FormValue("due_date")); err != nil {
		return h.render(c, "addtask", echo.Map{"Error": err.Error()})
	}

	if _, err := h.taskService.Create(c.Request().Context(), user.ID, req); err != nil {
		return h.render(c, "addtask", echo.Map{"Error": err.Error()})
	}

	setFlash(c, "Task added!")
	return c.Redirect(http.StatusFound, "/")
}

// LoginForm renders the login page, or sends an already signed-in visitor
// back to the task list.
func (h *WebHandler) LoginForm(c echo.Context) error {
	if h.sessionUser(c) != nil {
		return c.Redirect(http.StatusFound, "/")
	}
	return h.render(c, "login", nil)
}

// Login handles the login form submission.
func (h *WebHandler) Login(c echo.Context) error {
	if h.sessionUser(c) != nil {
		return c.Redirect(http.StatusFound, "/")
	}

	remember := c.FormValue("remember_me") != ""

	user, err := h.authService.Authenticate(c.Request().Context(), c.FormValue("username"), c.FormValue("password"))
	if err != nil {
		setFlash(c, "Username or password is invalid")
		return c.Redirect(http.StatusFound, "/login")
	}

	token, err := h.authService.IssueSession(user, remember)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.MaxAge = int(h.sessionConfig.RememberFor.Seconds())
	}
	c.SetCookie(cookie)

	setFlash(c, "Login successful")
	return c.Redirect(http.StatusFound, "/")
}

// Logout clears the session. Logging out twice is harmless.
func (h *WebHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	setFlash(c, "You were logged out")
	return c.Redirect(http.StatusFound, "/login")
}

// RegisterForm renders the registration page.
func (h *WebHandler) RegisterForm(c echo.Context) error {
	return h.render(c, "register", nil)
}

// RegisterSubmit handles the registration form. Success returns the visitor
// to the login page; it does not sign them in.
func (h *WebHandler) RegisterSubmit(c echo.Context) error {
	req := ports.RegisterRequest{
		Nickname: c.FormValue("username"),
		Password: c.FormValue("password"),
		Confirm:  c.FormValue("confirm"),
	}

	if _, err := h.authService.Register(c.Request().Context(), req); err != nil {
		return h.render(c, "register", echo.Map{"Error": err.Error()})
	}

	setFlash(c, "You have been registered")
	return c.Redirect(http.StatusFound, "/login")
}

// finishFromForm completes the task named by the `is_finished` form field,
// when present.
func (h *WebHandler) finishFromForm(c echo.Context, ownerID int64) error {
	value := c.FormValue("is_finished")
	if value == "" {
		return nil
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, entities.ErrTaskNotFound.Error())
	}

	if _, err := h.taskService.Complete(c.Request().Context(), ownerID, id); err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	return nil
}

// sessionUser resolves the session cookie to a user, or nil.
func (h *WebHandler) sessionUser(c echo.Context) *entities.User {
	cookie, err := c.Cookie(h.sessionConfig.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	userID, err := h.authService.ParseSession(cookie.Value)
	if err != nil {
		return nil
	}

	user, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return nil
	}

	return user
}

func (h *WebHandler) render(c echo.Context, name string, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	if user := webUser(c); user != nil {
		data["User"] = user
	}
	if flash := takeFlash(c); flash != "" {
		data["Flash"] = flash
	}
	return c.Render(http.StatusOK, name, data)
}

func webUser(c echo.Context) *entities.User {
	user, _ := c.Get(ctxUserKey).(*entities.User)
	return user
}

func parseFormDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := entities.ParseTime(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// setFlash stores a one-shot notice shown on the next rendered page.
func setFlash(c echo.Context, message string) {
	c.SetCookie(&http.Cookie{
		Name:  flashCookie,
		Value: url.QueryEscape(message),
		Path:  "/",
	})
}

// takeFlash reads and clears the pending notice, if any.
func takeFlash(c echo.Context) string {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}

	c.SetCookie(&http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}
