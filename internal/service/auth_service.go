package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password" binding:"required,min=6"`
	Role        string `json:"role" binding:"required,oneof=owner mechanic"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// UserResponse returns the account without its password hash.
type UserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

// AuthService realizes the identity collaborator: it hands out tokens carrying
// the {userId, role} pair. The ledgers never read users.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
}

type authService struct {
	db       *gorm.DB
	tokenTTL time.Duration
}

func NewAuthService(db *gorm.DB) AuthService {
	return &authService{db: db, tokenTTL: 24 * time.Hour}
}

// --- Implementation ---

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	var existing model.User
	err := s.db.WithContext(ctx).First(&existing, "username = ?", req.Username).Error
	if err == nil {
		return nil, errors.New("username already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := model.User{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Password:    string(hashed),
		Role:        req.Role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	return &UserResponse{
		ID:          user.ID.String(),
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", req.Username).Error; err != nil {
		return nil, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := middleware.IssueToken(user.ID.String(), user.DisplayName, user.Role, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{Token: token}, nil
}
