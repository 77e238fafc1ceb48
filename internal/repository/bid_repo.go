package repository

import (
	"context"
	"errors"
	"time"

	"github.com/senyabanana/gig-market/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgForeignKeyViolation  = "23503"
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
)

// BidRepository - интерфейс для работы с предложениями.
type BidRepository interface {
	CreateBid(ctx context.Context, bidReq models.BidRequest) (*models.Bid, error)
	GetGigBids(ctx context.Context, gigId, requesterId string) ([]models.Bid, error)
	GetUserBids(ctx context.Context, freelancerId string) ([]models.Bid, error)
	RejectBid(ctx context.Context, bidId, requesterId string) (*models.Bid, error)
	HireBid(ctx context.Context, bidId, requesterId string) (*models.Bid, error)
}

// PostgresBidRepository - реализация BidRepository для базы данных.
type PostgresBidRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresBidRepository создает новый экземпляр PostgresBidRepository.
func NewPostgresBidRepository(db *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{DB: db}
}

// CreateBid создает новое предложение со статусом pending. Проверка
// открытости заказа встроена в сам INSERT, чтобы закрытие заказа между
// чтением и записью не пропустило предложение.
func (r *PostgresBidRepository) CreateBid(ctx context.Context, bidReq models.BidRequest) (*models.Bid, error) {
	var ownerId string
	var status models.GigStatus
	gigQuery := `SELECT owner_id, status FROM gig WHERE id = $1`
	err := r.DB.QueryRow(ctx, gigQuery, bidReq.GigID).Scan(&ownerId, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewErrorResponse(models.NotFoundError, "gig not found")
	}
	if err != nil {
		return nil, err
	}

	if ownerId == bidReq.FreelancerID {
		return nil, models.NewErrorResponse(models.ForbiddenError, "cannot bid on your own gig")
	}
	if status != models.OpenGig {
		return nil, models.NewErrorResponse(models.ConflictError, "this gig is no longer accepting bids")
	}

	newBid := models.Bid{
		ID:           uuid.New().String(),
		GigID:        bidReq.GigID,
		FreelancerID: bidReq.FreelancerID,
		Message:      bidReq.Message,
		Price:        bidReq.Price,
		Status:       models.PendingBid,
		CreatedAt:    time.Now().UTC(),
	}
	insertQuery := `
		INSERT INTO bid (id, gig_id, freelancer_id, message, price, status, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE EXISTS (SELECT 1 FROM gig WHERE id = $2 AND status = 'open')`
	result, err := r.DB.Exec(
		ctx,
		insertQuery,
		newBid.ID,
		newBid.GigID,
		newBid.FreelancerID,
		newBid.Message,
		newBid.Price,
		newBid.Status,
		newBid.CreatedAt)
	if isPgError(err, pgUniqueViolation) {
		return nil, models.NewErrorResponse(models.ConflictError, "you have already submitted a bid for this gig")
	}
	if isPgError(err, pgForeignKeyViolation) {
		return nil, models.NewErrorResponse(models.NotFoundError, "user does not exist")
	}
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, models.NewErrorResponse(models.ConflictError, "this gig is no longer accepting bids")
	}

	displayQuery := `SELECT u.name, g.title FROM users u, gig g WHERE u.id = $1 AND g.id = $2`
	var gigTitle string
	if err := r.DB.QueryRow(ctx, displayQuery, newBid.FreelancerID, newBid.GigID).Scan(&newBid.FreelancerName, &gigTitle); err != nil {
		return nil, err
	}
	newBid.Gig = &models.GigSummary{ID: newBid.GigID, Title: gigTitle}
	return &newBid, nil
}

// GetGigBids возвращает все предложения по заказу, новые первыми.
// Список доступен только владельцу заказа.
func (r *PostgresBidRepository) GetGigBids(ctx context.Context, gigId, requesterId string) ([]models.Bid, error) {
	var ownerId string
	err := r.DB.QueryRow(ctx, `SELECT owner_id FROM gig WHERE id = $1`, gigId).Scan(&ownerId)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewErrorResponse(models.NotFoundError, "gig not found")
	}
	if err != nil {
		return nil, err
	}
	if ownerId != requesterId {
		return nil, models.NewErrorResponse(models.ForbiddenError, "not authorized to view bids for this gig")
	}

	query := `
		SELECT b.id, b.gig_id, b.freelancer_id, u.name, b.message, b.price, b.status, b.created_at
		FROM bid b
		JOIN users u ON b.freelancer_id = u.id
		WHERE b.gig_id = $1
		ORDER BY b.created_at DESC`
	rows, err := r.DB.Query(ctx, query, gigId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		var bid models.Bid
		if err := rows.Scan(
			&bid.ID,
			&bid.GigID,
			&bid.FreelancerID,
			&bid.FreelancerName,
			&bid.Message,
			&bid.Price,
			&bid.Status,
			&bid.CreatedAt); err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, nil
}

// GetUserBids возвращает предложения фрилансера с краткой информацией
// о заказах, новые первыми.
func (r *PostgresBidRepository) GetUserBids(ctx context.Context, freelancerId string) ([]models.Bid, error) {
	query := `
		SELECT b.id, b.gig_id, b.freelancer_id, b.message, b.price, b.status, b.created_at,
		       g.id, g.title, g.description, g.budget, g.status
		FROM bid b
		JOIN gig g ON b.gig_id = g.id
		WHERE b.freelancer_id = $1
		ORDER BY b.created_at DESC`
	rows, err := r.DB.Query(ctx, query, freelancerId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		var bid models.Bid
		var gig models.GigSummary
		if err := rows.Scan(
			&bid.ID,
			&bid.GigID,
			&bid.FreelancerID,
			&bid.Message,
			&bid.Price,
			&bid.Status,
			&bid.CreatedAt,
			&gig.ID,
			&gig.Title,
			&gig.Description,
			&gig.Budget,
			&gig.Status); err != nil {
			return nil, err
		}
		bid.Gig = &gig
		bids = append(bids, bid)
	}
	return bids, nil
}

// RejectBid переводит одно ожидающее предложение в rejected. Проверки
// статусов повторяются в самом UPDATE: отклонение, проигравшее гонку
// найму, затрагивает ноль строк и не перезаписывает статус hired.
func (r *PostgresBidRepository) RejectBid(ctx context.Context, bidId, requesterId string) (*models.Bid, error) {
	bid, gigOwnerId, gigStatus, err := r.getBidWithGig(ctx, r.DB, bidId)
	if err != nil {
		return nil, err
	}

	if gigOwnerId != requesterId {
		return nil, models.NewErrorResponse(models.ForbiddenError, "not authorized to reject this bid")
	}
	if bid.Status != models.PendingBid {
		return nil, models.NewErrorResponse(models.ConflictError, "only pending bids can be rejected")
	}
	if gigStatus != models.OpenGig {
		return nil, models.NewErrorResponse(models.ConflictError, "cannot reject bids for closed gigs")
	}

	updateQuery := `
		UPDATE bid SET status = 'rejected'
		WHERE id = $1 AND status = 'pending'
		AND EXISTS (SELECT 1 FROM gig WHERE id = bid.gig_id AND status = 'open')`
	result, err := r.DB.Exec(ctx, updateQuery, bidId)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, models.NewErrorResponse(models.ConflictError, "bid is no longer available for rejection")
	}

	bid.Status = models.RejectedBid
	return bid, nil
}

// HireBid выполняет решение о найме одной serializable-транзакцией:
// проверяет предложение и заказ, закрепляет заказ, переводит предложение
// в hired и отклоняет остальные ожидающие предложения. Из N конкурентных
// попыток по одному заказу фиксируется ровно одна, остальные получают
// ConflictError. Повтор после перечитывания остается за вызывающим.
func (r *PostgresBidRepository) HireBid(ctx context.Context, bidId, requesterId string) (*models.Bid, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bid, gigOwnerId, gigStatus, err := r.getBidWithGig(ctx, tx, bidId)
	if err != nil {
		return nil, translateTxError(err)
	}

	if gigOwnerId != requesterId {
		return nil, models.NewErrorResponse(models.ForbiddenError, "not authorized to hire for this gig")
	}
	if gigStatus != models.OpenGig {
		return nil, models.NewErrorResponse(models.ConflictError, "this gig is no longer accepting hires")
	}
	if bid.Status != models.PendingBid {
		return nil, models.NewErrorResponse(models.ConflictError, "this bid is no longer available for hiring")
	}

	if _, err = tx.Exec(ctx, `UPDATE gig SET status = 'assigned' WHERE id = $1`, bid.GigID); err != nil {
		return nil, translateTxError(err)
	}
	if _, err = tx.Exec(ctx, `UPDATE bid SET status = 'hired' WHERE id = $1`, bid.ID); err != nil {
		return nil, translateTxError(err)
	}

	sweepQuery := `UPDATE bid SET status = 'rejected' WHERE gig_id = $1 AND id <> $2 AND status = 'pending'`
	if _, err = tx.Exec(ctx, sweepQuery, bid.GigID, bid.ID); err != nil {
		return nil, translateTxError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, translateTxError(err)
	}

	hiredBid, _, _, err := r.getBidWithGig(ctx, r.DB, bidId)
	if err != nil {
		return nil, err
	}
	return hiredBid, nil
}

// getBidWithGig читает предложение вместе с фрилансером и заказом,
// через пул или открытую транзакцию.
func (r *PostgresBidRepository) getBidWithGig(ctx context.Context, q querier, bidId string) (*models.Bid, string, models.GigStatus, error) {
	var bid models.Bid
	var gig models.GigSummary
	var gigOwnerId string
	query := `
		SELECT b.id, b.gig_id, b.freelancer_id, u.name, b.message, b.price, b.status, b.created_at,
		       g.id, g.title, g.description, g.budget, g.status, g.owner_id
		FROM bid b
		JOIN users u ON b.freelancer_id = u.id
		JOIN gig g ON b.gig_id = g.id
		WHERE b.id = $1`
	err := q.QueryRow(ctx, query, bidId).Scan(
		&bid.ID,
		&bid.GigID,
		&bid.FreelancerID,
		&bid.FreelancerName,
		&bid.Message,
		&bid.Price,
		&bid.Status,
		&bid.CreatedAt,
		&gig.ID,
		&gig.Title,
		&gig.Description,
		&gig.Budget,
		&gig.Status,
		&gigOwnerId,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", "", models.NewErrorResponse(models.NotFoundError, "bid not found")
	}
	if err != nil {
		return nil, "", "", err
	}
	bid.Gig = &gig
	return &bid, gigOwnerId, gig.Status, nil
}

// querier - общая поверхность чтения для pgxpool.Pool и pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isPgError проверяет, является ли err ошибкой Postgres с указанным кодом.
func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// translateTxError превращает обрыв сериализации в ConflictError,
// остальные ошибки проходят без изменений.
func translateTxError(err error) error {
	if isPgError(err, pgSerializationFailure) {
		return models.NewErrorResponse(models.ConflictError, "another hire decision was committed first, refetch and retry")
	}
	return err
}
