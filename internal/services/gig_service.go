package services

import (
	"context"
	"fmt"

	"github.com/senyabanana/gig-market/internal/models"
	"github.com/senyabanana/gig-market/internal/repository"
	"github.com/senyabanana/gig-market/internal/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

type GigService struct {
	Repo   repository.GigRepository
	dbPool *pgxpool.Pool
}

// NewGigService создает новый экземпляр GigService.
func NewGigService(repo repository.GigRepository, dbPool *pgxpool.Pool) *GigService {
	return &GigService{Repo: repo, dbPool: dbPool}
}

// CreateGig создает новый открытый заказ.
func (s *GigService) CreateGig(ctx context.Context, gigReq models.GigRequest) (*models.Gig, error) {
	if gigReq.Title == "" || gigReq.Description == "" || gigReq.OwnerID == "" {
		return nil, models.NewErrorResponse(models.ValidationError, "missing required fields")
	}
	if gigReq.Budget <= 0 {
		return nil, models.NewErrorResponse(models.ValidationError, "budget must be a positive number")
	}

	ownerExists, err := utils.CheckUserExistsById(ctx, s.dbPool, gigReq.OwnerID)
	if err != nil {
		return nil, err
	}
	if !ownerExists {
		return nil, models.NewErrorResponse(models.NotFoundError, "owner does not exist")
	}
	return s.Repo.CreateGig(ctx, gigReq)
}

// FetchGigs возвращает список заказов с фильтром по статусу.
func (s *GigService) FetchGigs(ctx context.Context, limitStr, offsetStr string, statuses []string) ([]models.Gig, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(models.ValidationError, err.Error())
	}

	allowedStatuses := map[models.GigStatus]bool{
		models.OpenGig:     true,
		models.AssignedGig: true,
	}
	for _, status := range statuses {
		if !allowedStatuses[models.GigStatus(status)] {
			return nil, models.NewErrorResponse(models.ValidationError, fmt.Sprintf("unsupported gig status: %s", status))
		}
	}

	if len(statuses) == 0 {
		statuses = []string{string(models.OpenGig)}
	}
	return s.Repo.GetGigs(ctx, statuses, limit, offset)
}

// GetGigByID возвращает один заказ.
func (s *GigService) GetGigByID(ctx context.Context, gigId string) (*models.Gig, error) {
	if gigId == "" {
		return nil, models.NewErrorResponse(models.ValidationError, "missing required parameter: gigId")
	}
	return s.Repo.GetGigByID(ctx, gigId)
}

// EditGig меняет заказ. Менять может только владелец и только открытый
// заказ; бюджет замораживается после первого предложения.
func (s *GigService) EditGig(ctx context.Context, gigId, requesterId string, updateFields map[string]interface{}) (*models.Gig, error) {
	if gigId == "" || requesterId == "" {
		return nil, models.NewErrorResponse(models.ValidationError, "missing required parameter: gigId or userId")
	}

	gig, err := s.Repo.GetGigByID(ctx, gigId)
	if err != nil {
		return nil, err
	}
	if gig.OwnerID != requesterId {
		return nil, models.NewErrorResponse(models.ForbiddenError, "not authorized to update this gig")
	}
	if gig.Status != models.OpenGig {
		return nil, models.NewErrorResponse(models.ConflictError, "cannot update assigned gig")
	}

	if budget, ok := updateFields["budget"].(float64); ok {
		if budget <= 0 {
			return nil, models.NewErrorResponse(models.ValidationError, "budget must be a positive number")
		}
		hasBids, err := s.Repo.HasBids(ctx, gigId)
		if err != nil {
			return nil, err
		}
		if hasBids {
			return nil, models.NewErrorResponse(models.ConflictError, "budget cannot be changed after bids have been submitted")
		}
	}
	return s.Repo.EditGig(ctx, gigId, updateFields)
}

// DeleteGig удаляет заказ. Удалять может только владелец, закрепленный
// заказ удалить нельзя.
func (s *GigService) DeleteGig(ctx context.Context, gigId, requesterId string) error {
	if gigId == "" || requesterId == "" {
		return models.NewErrorResponse(models.ValidationError, "missing required parameter: gigId or userId")
	}

	gig, err := s.Repo.GetGigByID(ctx, gigId)
	if err != nil {
		return err
	}
	if gig.OwnerID != requesterId {
		return models.NewErrorResponse(models.ForbiddenError, "not authorized to delete this gig")
	}
	if gig.Status != models.OpenGig {
		return models.NewErrorResponse(models.ConflictError, "cannot delete assigned gig")
	}
	return s.Repo.DeleteGig(ctx, gigId)
}
