package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/viortio/core/internal/domain/entities"
	"github.com/viortio/core/internal/ports"
)

// uniqueViolation is the Postgres error code for a unique index conflict.
const uniqueViolation = "23505"

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO "user" (nickname, password_hash)
		VALUES ($1, $2)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query, user.Nickname, user.PasswordHash).Scan(&user.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return entities.ErrNicknameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `
		SELECT id, nickname, password_hash
		FROM "user"
		WHERE id = $1`

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) GetByNickname(ctx context.Context, nickname string) (*entities.User, error) {
	query := `
		SELECT id, nickname, password_hash
		FROM "user"
		WHERE nickname = $1`

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, nickname)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by nickname: %w", err)
	}

	return &user, nil
}
