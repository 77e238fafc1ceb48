package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/gig-market/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// GigRepository - интерфейс для работы с заказами.
type GigRepository interface {
	CreateGig(ctx context.Context, gigReq models.GigRequest) (*models.Gig, error)
	GetGigs(ctx context.Context, statuses []string, limit, offset int) ([]models.Gig, error)
	GetGigByID(ctx context.Context, gigId string) (*models.Gig, error)
	EditGig(ctx context.Context, gigId string, updateFields map[string]interface{}) (*models.Gig, error)
	DeleteGig(ctx context.Context, gigId string) error
	HasBids(ctx context.Context, gigId string) (bool, error)
}

// PostgresGigRepository - реализация GigRepository для базы данных.
type PostgresGigRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresGigRepository создает новый экземпляр PostgresGigRepository.
func NewPostgresGigRepository(db *pgxpool.Pool) *PostgresGigRepository {
	return &PostgresGigRepository{DB: db}
}

// CreateGig создает новый заказ со статусом open.
func (r *PostgresGigRepository) CreateGig(ctx context.Context, gigReq models.GigRequest) (*models.Gig, error) {
	newGig := models.Gig{
		ID:          uuid.New().String(),
		OwnerID:     gigReq.OwnerID,
		Title:       gigReq.Title,
		Description: gigReq.Description,
		Budget:      gigReq.Budget,
		Status:      models.OpenGig,
		CreatedAt:   time.Now().UTC(),
	}
	insertQuery := `INSERT INTO gig (id, owner_id, title, description, budget, status, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		newGig.ID,
		newGig.OwnerID,
		newGig.Title,
		newGig.Description,
		newGig.Budget,
		newGig.Status,
		newGig.CreatedAt)
	if err != nil {
		return nil, err
	}

	ownerQuery := `SELECT name FROM users WHERE id = $1`
	if err := r.DB.QueryRow(ctx, ownerQuery, newGig.OwnerID).Scan(&newGig.OwnerName); err != nil {
		return nil, err
	}
	return &newGig, nil
}

// GetGigs возвращает список заказов с фильтром по статусу, новые первыми.
func (r *PostgresGigRepository) GetGigs(ctx context.Context, statuses []string, limit, offset int) ([]models.Gig, error) {
	query := `
		SELECT g.id, g.owner_id, u.name, g.title, g.description, g.budget, g.status, g.created_at
		FROM gig g
		JOIN users u ON g.owner_id = u.id`
	var filters []string
	var args []interface{}
	argIndex := 1

	if len(statuses) > 0 {
		filters = append(filters, fmt.Sprintf("g.status = ANY($%d)", argIndex))
		args = append(args, pq.Array(statuses))
		argIndex++
	}

	if len(filters) > 0 {
		query += " WHERE " + strings.Join(filters, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY g.created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gigs []models.Gig
	for rows.Next() {
		var gig models.Gig
		if err := rows.Scan(
			&gig.ID,
			&gig.OwnerID,
			&gig.OwnerName,
			&gig.Title,
			&gig.Description,
			&gig.Budget,
			&gig.Status,
			&gig.CreatedAt); err != nil {
			return nil, err
		}
		gigs = append(gigs, gig)
	}
	return gigs, nil
}

// GetGigByID возвращает заказ вместе с именем владельца.
func (r *PostgresGigRepository) GetGigByID(ctx context.Context, gigId string) (*models.Gig, error) {
	var gig models.Gig
	query := `
		SELECT g.id, g.owner_id, u.name, g.title, g.description, g.budget, g.status, g.created_at
		FROM gig g
		JOIN users u ON g.owner_id = u.id
		WHERE g.id = $1`
	err := r.DB.QueryRow(ctx, query, gigId).Scan(
		&gig.ID,
		&gig.OwnerID,
		&gig.OwnerName,
		&gig.Title,
		&gig.Description,
		&gig.Budget,
		&gig.Status,
		&gig.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewErrorResponse(models.NotFoundError, "gig not found")
	}
	if err != nil {
		return nil, err
	}
	return &gig, nil
}

// EditGig меняет название, описание или бюджет открытого заказа. Проверка
// статуса стоит в WHERE, чтобы закрепленный заказ нельзя было изменить
// даже по устаревшему чтению.
func (r *PostgresGigRepository) EditGig(ctx context.Context, gigId string, updateFields map[string]interface{}) (*models.Gig, error) {
	var updates []string
	args := []interface{}{gigId}
	argIndex := 2

	if title, ok := updateFields["title"].(string); ok && title != "" {
		updates = append(updates, fmt.Sprintf("title = $%d", argIndex))
		args = append(args, title)
		argIndex++
	}

	if description, ok := updateFields["description"].(string); ok && description != "" {
		updates = append(updates, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, description)
		argIndex++
	}

	if budget, ok := updateFields["budget"].(float64); ok && budget > 0 {
		updates = append(updates, fmt.Sprintf("budget = $%d", argIndex))
		args = append(args, budget)
		argIndex++
	}

	if len(updates) == 0 {
		return nil, models.NewErrorResponse(models.ValidationError, "no valid fields to update")
	}

	updateQuery := fmt.Sprintf(`
		UPDATE gig SET %s WHERE id = $1 AND status = 'open'
		RETURNING id, owner_id, title, description, budget, status, created_at`,
		strings.Join(updates, ", "))

	var updatedGig models.Gig
	err := r.DB.QueryRow(ctx, updateQuery, args...).Scan(
		&updatedGig.ID,
		&updatedGig.OwnerID,
		&updatedGig.Title,
		&updatedGig.Description,
		&updatedGig.Budget,
		&updatedGig.Status,
		&updatedGig.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewErrorResponse(models.ConflictError, "cannot update assigned gig")
	}
	if err != nil {
		return nil, err
	}

	ownerQuery := `SELECT name FROM users WHERE id = $1`
	if err := r.DB.QueryRow(ctx, ownerQuery, updatedGig.OwnerID).Scan(&updatedGig.OwnerName); err != nil {
		return nil, err
	}
	return &updatedGig, nil
}

// DeleteGig удаляет открытый заказ вместе с предложениями.
func (r *PostgresGigRepository) DeleteGig(ctx context.Context, gigId string) error {
	result, err := r.DB.Exec(ctx, `DELETE FROM gig WHERE id = $1 AND status = 'open'`, gigId)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return models.NewErrorResponse(models.ConflictError, "cannot delete assigned gig")
	}
	return nil
}

// HasBids проверяет, есть ли по заказу хотя бы одно предложение.
func (r *PostgresGigRepository) HasBids(ctx context.Context, gigId string) (bool, error) {
	var hasBids bool
	query := `SELECT EXISTS(SELECT 1 FROM bid WHERE gig_id = $1)`
	if err := r.DB.QueryRow(ctx, query, gigId).Scan(&hasBids); err != nil {
		return false, err
	}
	return hasBids, nil
}
