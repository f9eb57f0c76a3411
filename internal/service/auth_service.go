package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"carrental/internal/auth"
	"carrental/internal/db"
	"carrental/internal/entities"
	apperrors "carrental/internal/errors"
	"carrental/internal/repository"
	"carrental/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	log    *zerolog.Logger
	cost   int
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, logger *zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: logger, cost: bcrypt.DefaultCost}
}

func (s *AuthService) Register(ctx context.Context, req *entities.RegisterRequest) (*entities.AuthResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, invalid(err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &db.User{
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         db.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrConflict("User already exists with this email")
		}
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return s.authResponse(user)
}

func (s *AuthService) Login(ctx context.Context, req *entities.LoginRequest) (*entities.AuthResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, invalid(err)
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized("Invalid credentials")
		}
		return nil, err
	}
	if !checkPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrUnauthorized("Invalid credentials")
	}
	return s.authResponse(user)
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*db.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req *entities.UpdateProfileRequest) (*db.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, invalid(err)
	}
	user, err := s.users.UpdateProfile(ctx, userID, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req *entities.ChangePasswordRequest) error {
	if err := validation.Struct(req); err != nil {
		return invalid(err)
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrUnauthorized("Current password is incorrect")
	}

	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errUserNotFound
		}
		return err
	}
	return nil
}

// CreateAdmin registers an administrator account. It is reached from the CLI only.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, firstName, lastName string) (*db.User, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password cannot be empty")
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &db.User{
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         db.RoleAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("user %s already exists", user.Email)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) authResponse(user *db.User) (*entities.AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(bytes), nil
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
