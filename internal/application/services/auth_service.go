package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/viortio/core/internal/domain/entities"
	"github.com/viortio/core/internal/infrastructure/config"
	"github.com/viortio/core/internal/infrastructure/logger"
	"github.com/viortio/core/internal/ports"
)

// sessionClaims is the payload of a signed session cookie.
type sessionClaims struct {
	Remember bool `json:"remember"`
	jwt.RegisteredClaims
}

// AuthService handles registration, credential checks and web sessions.
type AuthService struct {
	userRepo      ports.UserRepository
	sessionConfig config.SessionConfig
	logger        *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, sessionConfig config.SessionConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessionConfig: sessionConfig,
		logger:        logger,
	}
}

// Register creates a new user account. The nickname must match the allowed
// format and be unused; the confirmation must repeat the password.
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*entities.User, error) {
	if req.Password == "" {
		return nil, entities.ErrPasswordRequired
	}
	if req.Password != req.Confirm {
		return nil, entities.ErrPasswordMismatch
	}
	if !entities.ValidNickname(req.Nickname) {
		return nil, entities.ErrNicknameFormat
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Nickname:     req.Nickname,
		PasswordHash: hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, entities.ErrNicknameTaken) {
			return nil, entities.ErrNicknameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Infow("User registered", "user_id", user.ID, "nickname", user.Nickname)
	return user, nil
}

// Authenticate looks up a user by exact nickname and verifies the password.
// An unknown nickname and a wrong password are indistinguishable to callers.
func (s *AuthService) Authenticate(ctx context.Context, nickname, password string) (*entities.User, error) {
	user, err := s.userRepo.GetByNickname(ctx, nickname)
	if err != nil {
		s.logger.Warnw("Login attempt with unknown nickname", "nickname", nickname)
		return nil, entities.ErrInvalidCredentials
	}

	if !CheckPassword(user.PasswordHash, password) {
		s.logger.Warnw("Login attempt with invalid password", "user_id", user.ID)
		return nil, entities.ErrInvalidCredentials
	}

	return user, nil
}

// IssueSession mints a signed session token identifying the user. Remembered
// sessions live for the configured remember duration instead of the default.
func (s *AuthService) IssueSession(user *entities.User, remember bool) (string, error) {
	lifetime := s.sessionConfig.ExpiresIn
	if remember {
		lifetime = s.sessionConfig.RememberFor
	}

	claims := &sessionClaims{
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.sessionConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.sessionConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

// ParseSession validates a session token and returns the user it identifies.
func (s *AuthService) ParseSession(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.sessionConfig.Secret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid session claims")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid session subject: %w", err)
	}

	return userID, nil
}
