package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/config"
	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/model"
	"github.com/kerem-gursoy/uup/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, req dto.CredentialsRequest) (*dto.AuthResult, error)
	Login(ctx context.Context, req dto.CredentialsRequest) (*dto.AuthResult, error)
	Me(ctx context.Context, userID uint) (*dto.UserResponse, error)
	// SetPassword creates the user or resets its password (CLI provisioning).
	SetPassword(ctx context.Context, req dto.CredentialsRequest) (*dto.UserResponse, error)
	TokenTTL() time.Duration
}

type authService struct {
	repo repository.UserRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

var errInvalidCredentials = apierror.Unauthorized("invalid credentials")

func (s *authService) TokenTTL() time.Duration {
	return time.Duration(s.cfg.JWTExpirationHours) * time.Hour
}

func (s *authService) Register(ctx context.Context, req dto.CredentialsRequest) (*dto.AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, apierror.Conflict("username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: username, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req dto.CredentialsRequest) (*dto.AuthResult, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Unauthorized("user not found")
		}
		return nil, err
	}
	return &dto.UserResponse{ID: user.ID, Username: user.Username}, nil
}

func (s *authService) SetPassword(ctx context.Context, req dto.CredentialsRequest) (*dto.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: strings.TrimSpace(req.Username), PasswordHash: string(hash)}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	stored, err := s.repo.FindByUsername(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	return &dto.UserResponse{ID: stored.ID, Username: stored.Username}, nil
}

func (s *authService) issue(user *model.User) (*dto.AuthResult, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.TokenTTL()).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}
	return &dto.AuthResult{
		Token: token,
		User:  dto.UserResponse{ID: user.ID, Username: user.Username},
	}, nil
}
