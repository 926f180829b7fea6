package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viortio/core/internal/adapters/repository"
	"github.com/viortio/core/internal/application/services"
	"github.com/viortio/core/internal/domain/entities"
	"github.com/viortio/core/internal/infrastructure/config"
	"github.com/viortio/core/internal/infrastructure/logger"
	"github.com/viortio/core/internal/ports"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:      "test-secret",
		ExpiresIn:   time.Hour,
		RememberFor: 720 * time.Hour,
		CookieName:  "viortio_session",
		Issuer:      "viortio",
	}
}

func newAuthService() *services.AuthService {
	userRepo, _ := repository.NewMemory()
	return services.NewAuthService(userRepo, testSessionConfig(), logger.NewNop())
}

func TestRegisterAndAuthenticate(t *testing.T) {
	auth := newAuthService()
	ctx := context.Background()

	user, err := auth.Register(ctx, ports.RegisterRequest{Nickname: "alice_1", Password: "s3cret", Confirm: "s3cret"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice_1", user.Nickname)
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	got, err := auth.Authenticate(ctx, "alice_1", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	auth := newAuthService()
	ctx := context.Background()

	_, err := auth.Register(ctx, ports.RegisterRequest{Nickname: "alice_1", Password: "s3cret", Confirm: "s3cret"})
	require.NoError(t, err)

	_, wrongPassword := auth.Authenticate(ctx, "alice_1", "nope")
	_, unknownUser := auth.Authenticate(ctx, "nobody99", "s3cret")

	assert.ErrorIs(t, wrongPassword, entities.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, entities.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestRegisterDuplicateNickname(t *testing.T) {
	auth := newAuthService()
	ctx := context.Background()

	_, err := auth.Register(ctx, ports.RegisterRequest{Nickname: "alice_1", Password: "pw", Confirm: "pw"})
	require.NoError(t, err)

	_, err = auth.Register(ctx, ports.RegisterRequest{Nickname: "alice_1", Password: "other", Confirm: "other"})
	assert.ErrorIs(t, err, entities.ErrNicknameTaken)
}

func TestRegisterValidation(t *testing.T) {
	auth := newAuthService()
	ctx := context.Background()

	_, err := auth.Register(ctx, ports.RegisterRequest{Nickname: "alice_1", Password: "pw", Confirm: "different"})
	assert.ErrorIs(t, err, entities.ErrPasswordMismatch)

	_, err = auth.Register(ctx, ports.RegisterRequest{Nickname: "ab", Password: "pw", Confirm: "pw"})
	assert.ErrorIs(t, err, entities.ErrNicknameFormat)

	_, err = auth.Register(ctx, ports.RegisterRequest{Nickname: "has spaces", Password: "pw", Confirm: "pw"})
	assert.ErrorIs(t, err, entities.ErrNicknameFormat)

	_, err = auth.Register(ctx, ports.RegisterRequest{Nickname: "alice_1", Password: "", Confirm: ""})
	assert.ErrorIs(t, err, entities.ErrPasswordRequired)
}

func TestSessionRoundTrip(t *testing.T) {
	auth := newAuthService()
	ctx := context.Background()

	user, err := auth.Register(ctx, ports.RegisterRequest{Nickname: "alice_1", Password: "pw", Confirm: "pw"})
	require.NoError(t, err)

	token, err := auth.IssueSession(user, false)
	require.NoError(t, err)

	userID, err := auth.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	_, err = auth.ParseSession(token + "tampered")
	assert.Error(t, err)

	_, err = auth.ParseSession("not-a-token")
	assert.Error(t, err)
}
