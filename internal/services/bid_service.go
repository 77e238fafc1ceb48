package services

import (
	"context"
	"fmt"

	"github.com/senyabanana/gig-market/internal/models"
	"github.com/senyabanana/gig-market/internal/notify"
	"github.com/senyabanana/gig-market/internal/repository"
)

// BidService реализует жизненный цикл предложений и решение о найме.
// Проверки состояния выполняются в репозитории, где они атомарны вместе
// с записью; сервис валидирует ввод и шлет уведомления после коммита.
type BidService struct {
	Repo       repository.BidRepository
	dispatcher notify.Dispatcher
}

// NewBidService создает новый экземпляр BidService.
func NewBidService(repo repository.BidRepository, dispatcher notify.Dispatcher) *BidService {
	return &BidService{Repo: repo, dispatcher: dispatcher}
}

// CreateBid создает новое предложение от имени фрилансера.
func (s *BidService) CreateBid(ctx context.Context, bidReq models.BidRequest) (*models.Bid, error) {
	if bidReq.GigID == "" || bidReq.FreelancerID == "" || bidReq.Message == "" {
		return nil, models.NewErrorResponse(models.ValidationError, "missing required fields")
	}
	if bidReq.Price <= 0 {
		return nil, models.NewErrorResponse(models.ValidationError, "price must be a positive number")
	}
	return s.Repo.CreateBid(ctx, bidReq)
}

// GetGigBids возвращает все предложения по заказу для его владельца.
func (s *BidService) GetGigBids(ctx context.Context, gigId, requesterId string) ([]models.Bid, error) {
	if gigId == "" || requesterId == "" {
		return nil, models.NewErrorResponse(models.ValidationError, "missing required parameter: gigId or userId")
	}
	return s.Repo.GetGigBids(ctx, gigId, requesterId)
}

// GetUserBids возвращает предложения фрилансера с информацией о заказах.
func (s *BidService) GetUserBids(ctx context.Context, freelancerId string) ([]models.Bid, error) {
	if freelancerId == "" {
		return nil, models.NewErrorResponse(models.ValidationError, "missing required parameter: userId")
	}
	return s.Repo.GetUserBids(ctx, freelancerId)
}

// RejectBid отклоняет одно ожидающее предложение и уведомляет фрилансера.
func (s *BidService) RejectBid(ctx context.Context, bidId, requesterId string) (*models.Bid, error) {
	if bidId == "" || requesterId == "" {
		return nil, models.NewErrorResponse(models.ValidationError, "missing required parameter: bidId or userId")
	}

	bid, err := s.Repo.RejectBid(ctx, bidId, requesterId)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Notify(bid.FreelancerID, notify.Event{
		Kind:     notify.BidRejectedEvent,
		Message:  fmt.Sprintf("Your bid for %q has been rejected", bid.Gig.Title),
		GigTitle: bid.Gig.Title,
		GigID:    bid.GigID,
		BidID:    bid.ID,
	})
	return bid, nil
}

// HireBid выполняет решение о найме и уведомляет победителя. Уведомление
// уходит только после коммита транзакции; потерянное событие не ломает найм.
func (s *BidService) HireBid(ctx context.Context, bidId, requesterId string) (*models.Bid, error) {
	if bidId == "" || requesterId == "" {
		return nil, models.NewErrorResponse(models.ValidationError, "missing required parameter: bidId or userId")
	}

	bid, err := s.Repo.HireBid(ctx, bidId, requesterId)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Notify(bid.FreelancerID, notify.Event{
		Kind:     notify.HiredEvent,
		Message:  fmt.Sprintf("You have been hired for %q!", bid.Gig.Title),
		GigTitle: bid.Gig.Title,
		GigID:    bid.GigID,
		BidID:    bid.ID,
	})
	return bid, nil
}
