package user

import (
	"context"
	"time"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, username, email, password string, role Role) (User, error)
	Login(ctx context.Context, email, password string) (string, User, error)
	GetProfile(ctx context.Context, userID string) (User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, username, email, password string, role Role) (User, error) {
	log := logger.FromCtx(ctx)

	if !role.Valid() {
		role = RoleUser
	}

	hashed, err := HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return User{}, err
	}

	u, err := s.repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if err != ErrUserExists {
			log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		}
		return User{}, err
	}

	log.Info("user registered",
		zap.String("user_id", u.ID),
		zap.String("email", email),
	)

	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", User{}, ErrInvalidCredentials
	}

	if !CheckPasswordHash(password, u.PasswordHash) {
		return "", User{}, ErrInvalidCredentials
	}

	token, err := GenerateJWT(u.ID, u.Username, u.Role)
	return token, u, err
}

func (s *service) GetProfile(ctx context.Context, userID string) (User, error) {
	return s.repo.FindByID(ctx, userID)
}
