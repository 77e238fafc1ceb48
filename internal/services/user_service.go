package services

import (
	"context"
	"strings"

	"github.com/senyabanana/gig-market/internal/models"
	"github.com/senyabanana/gig-market/internal/repository"
)

type UserService struct {
	Repo repository.UserRepository
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{Repo: repo}
}

// CreateUser создает нового пользователя.
func (s *UserService) CreateUser(ctx context.Context, userReq models.UserRequest) (*models.User, error) {
	if userReq.Name == "" || userReq.Email == "" {
		return nil, models.NewErrorResponse(models.ValidationError, "missing required fields")
	}
	if !strings.Contains(userReq.Email, "@") {
		return nil, models.NewErrorResponse(models.ValidationError, "invalid email address")
	}
	return s.Repo.CreateUser(ctx, userReq)
}
