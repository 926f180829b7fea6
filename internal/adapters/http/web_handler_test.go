package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webRequest(t *testing.T, e *echo.Echo, method, target string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "viortio_session" && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func signUpAndIn(t *testing.T, e *echo.Echo, username, password string) *http.Cookie {
	t.Helper()

	rec := webRequest(t, e, http.MethodPost, "/register", url.Values{
		"username": {username},
		"password": {password},
		"confirm":  {password},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	rec = webRequest(t, e, http.MethodPost, "/login", url.Values{
		"username": {username},
		"password": {password},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	return sessionCookie(t, rec)
}

func TestPagesRedirectAnonymousVisitors(t *testing.T) {
	e := newTestApp(t)

	for _, target := range []string{"/", "/index", "/completed", "/addtask", "/project/home"} {
		rec := webRequest(t, e, http.MethodGet, target, nil, nil)
		assert.Equal(t, http.StatusFound, rec.Code, target)
		assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation), target)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newTestApp(t)

	rec := webRequest(t, e, http.MethodPost, "/login", url.Values{
		"username": {"nobody99"},
		"password": {"nope"},
	}, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
}

func TestLoginSetsSessionCookie(t *testing.T) {
	e := newTestApp(t)
	session := signUpAndIn(t, e, "alice_1", "s3cret")

	assert.True(t, session.HttpOnly)
	assert.Zero(t, session.MaxAge)

	rec := webRequest(t, e, http.MethodGet, "/", nil, []*http.Cookie{session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice_1")
	assert.Contains(t, rec.Body.String(), "Nothing to do.")
}

func TestRememberMeSetsPersistentCookie(t *testing.T) {
	e := newTestApp(t)
	signUpAndIn(t, e, "alice_1", "s3cret")

	rec := webRequest(t, e, http.MethodGet, "/logout", nil, nil)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = webRequest(t, e, http.MethodPost, "/login", url.Values{
		"username":    {"alice_1"},
		"password":    {"s3cret"},
		"remember_me": {"on"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)

	session := sessionCookie(t, rec)
	assert.Equal(t, 720*60*60, session.MaxAge)
}

func TestAddTaskAndCompleteFlow(t *testing.T) {
	e := newTestApp(t)
	session := signUpAndIn(t, e, "alice_1", "s3cret")

	rec := webRequest(t, e, http.MethodPost, "/addtask", url.Values{
		"task":    {"Buy milk"},
		"project": {"home"},
	}, []*http.Cookie{session})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	rec = webRequest(t, e, http.MethodGet, "/", nil, []*http.Cookie{session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Buy milk")
	assert.Contains(t, rec.Body.String(), "/project/home")

	rec = webRequest(t, e, http.MethodPost, "/", url.Values{
		"is_finished": {"1"},
	}, []*http.Cookie{session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Buy milk")

	rec = webRequest(t, e, http.MethodGet, "/completed", nil, []*http.Cookie{session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Buy milk")
}

func TestAddTaskRejectsBadDate(t *testing.T) {
	e := newTestApp(t)
	session := signUpAndIn(t, e, "alice_1", "s3cret")

	rec := webRequest(t, e, http.MethodPost, "/addtask", url.Values{
		"task":       {"Buy milk"},
		"start_date": {"someday"},
	}, []*http.Cookie{session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "class=\"error\"")
}

func TestProjectPageShowsOnlyThatProject(t *testing.T) {
	e := newTestApp(t)
	session := signUpAndIn(t, e, "alice_1", "s3cret")

	for _, tc := range []struct{ name, project string }{
		{"Buy milk", "home"},
		{"Write report", "work"},
	} {
		rec := webRequest(t, e, http.MethodPost, "/addtask", url.Values{
			"task":    {tc.name},
			"project": {tc.project},
		}, []*http.Cookie{session})
		require.Equal(t, http.StatusFound, rec.Code)
	}

	rec := webRequest(t, e, http.MethodGet, "/project/home", nil, []*http.Cookie{session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Buy milk")
	assert.NotContains(t, rec.Body.String(), "Write report")
}

func TestCompletingSomeoneElsesTaskIs404(t *testing.T) {
	e := newTestApp(t)
	alice := signUpAndIn(t, e, "alice_1", "s3cret")

	rec := webRequest(t, e, http.MethodPost, "/addtask", url.Values{
		"task": {"private"},
	}, []*http.Cookie{alice})
	require.Equal(t, http.StatusFound, rec.Code)

	bob := signUpAndIn(t, e, "bob_22", "hunter2")
	rec = webRequest(t, e, http.MethodPost, "/", url.Values{
		"is_finished": {"1"},
	}, []*http.Cookie{bob})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	e := newTestApp(t)
	signUpAndIn(t, e, "alice_1", "s3cret")

	rec := webRequest(t, e, http.MethodGet, "/logout", nil, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	var cleared bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "viortio_session" {
			cleared = cookie.MaxAge < 0
		}
	}
	assert.True(t, cleared)
}

func TestRegisterFormValidation(t *testing.T) {
	e := newTestApp(t)

	rec := webRequest(t, e, http.MethodPost, "/register", url.Values{
		"username": {"alice_1"},
		"password": {"pw"},
		"confirm":  {"different"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "class=\"error\"")
}
