package repository

import (
	"context"
	"time"

	"github.com/senyabanana/gig-market/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository - интерфейс для работы с пользователями.
type UserRepository interface {
	CreateUser(ctx context.Context, userReq models.UserRequest) (*models.User, error)
}

// PostgresUserRepository - реализация UserRepository для базы данных.
type PostgresUserRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresUserRepository создает новый экземпляр PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser создает нового пользователя.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, userReq models.UserRequest) (*models.User, error) {
	newUser := models.User{
		ID:        uuid.New().String(),
		Name:      userReq.Name,
		Email:     userReq.Email,
		CreatedAt: time.Now().UTC(),
	}
	insertQuery := `INSERT INTO users (id, name, email, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.DB.Exec(ctx, insertQuery, newUser.ID, newUser.Name, newUser.Email, newUser.CreatedAt)
	if isPgError(err, pgUniqueViolation) {
		return nil, models.NewErrorResponse(models.ConflictError, "user already exists with this email")
	}
	if err != nil {
		return nil, err
	}
	return &newUser, nil
}
