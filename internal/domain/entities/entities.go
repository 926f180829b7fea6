package entities

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Common errors
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNicknameTaken      = errors.New("nickname is already taken")
	ErrNicknameFormat     = errors.New("nickname must be 4-80 characters of letters, digits, underscore or hyphen")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrNameRequired       = errors.New("task name is required")
	ErrNameTooLong        = errors.New("task name must be at most 140 characters")
	ErrProjectTooLong     = errors.New("project must be at most 140 characters")
)

// TimeLayout is the wire format for task dates.
const TimeLayout = "2006-01-02 15:04:05"

var nicknameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{4,80}$`)

// User represents a registered account. The password hash is never exposed.
type User struct {
	ID           int64  `json:"id" db:"id"`
	Nickname     string `json:"username" db:"nickname"`
	PasswordHash string `json:"-" db:"password_hash"`
}

// ValidNickname reports whether a nickname satisfies the registration format.
func ValidNickname(nickname string) bool {
	return nicknameRe.MatchString(nickname)
}

// Task represents a single user-owned unit of work.
type Task struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	StartDate time.Time  `json:"start_date" db:"start_date"`
	DueDate   *time.Time `json:"due_date" db:"due_date"`
	Project   *string    `json:"project" db:"project"`
	Complete  bool       `json:"complete" db:"complete"`
	UserID    int64      `json:"-" db:"user_id"`
}

// Active reports whether the task should appear on the task list: not yet
// completed and its start date has already passed.
func (t *Task) Active(now time.Time) bool {
	return !t.Complete && !t.StartDate.After(now)
}

// FormatTime renders a task date in the wire format.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseTime accepts the wire format, a bare date, or RFC 3339.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
