package service

import (
	"context"
	"errors"
	"fmt"

	"anime-market/internal/models"
	"anime-market/internal/util"
	"anime-market/internal/validator"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore persists accounts
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	Issue(userID int64, role string) (string, error)
}

// UserService handles registration and login
type UserService struct {
	store    UserStore
	tokens   TokenIssuer
	hashCost int
	logger   *zap.Logger
}

func NewUserService(store UserStore, tokens TokenIssuer) *UserService {
	return &UserService{
		store:    store,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		logger:   util.Named("user"),
	}
}

// RegisterRequest represents a sign-up form
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

// LoginResponse carries the access token
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register validates the form and creates a buyer or seller account
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := validator.Username(req.Username); err != nil {
		return nil, err
	}
	if err := validator.Email(req.Email); err != nil {
		return nil, err
	}
	if err := validator.Password(req.Password); err != nil {
		return nil, err
	}

	var phone *string
	if req.Phone != "" {
		if err := validator.Phone(req.Phone); err != nil {
			return nil, err
		}
		phone = &req.Phone
	}

	role := req.Role
	switch role {
	case "":
		role = models.RoleBuyer
	case models.RoleBuyer, models.RoleSeller:
	default:
		return nil, &models.PermissionError{Role: role, Action: "self-register with this role"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        phone,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("role", user.Role))
	return user, nil
}

// Login checks the password and issues a token
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if user.Banned {
		return nil, fmt.Errorf("%w: %d", models.ErrUserBanned, user.ID)
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return &LoginResponse{Token: token, User: user}, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// CheckActive fails for accounts that were banned or deleted after their token was issued.
func (s *UserService) CheckActive(ctx context.Context, id int64) error {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Banned {
		return fmt.Errorf("%w: %d", models.ErrUserBanned, id)
	}
	return nil
}
