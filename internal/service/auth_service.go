package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spynners/api/internal/auth"
	"github.com/spynners/api/internal/config"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

// AuthService handles local signup and login.
type AuthService struct {
	store *store.Store
	jwt   config.JWTConfig
}

func NewAuthService(st *store.Store, jwtCfg config.JWTConfig) *AuthService {
	return &AuthService{store: st, jwt: jwtCfg}
}

// Signup registers a new account and issues a token.
func (s *AuthService) Signup(ctx context.Context, req *model.SignupRequest) (*model.AuthResponse, error) {
	userType := model.UserType(req.UserType)
	if userType == "" {
		userType = model.UserTypeDJ
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hashPassword(req.Password),
		FullName:     req.FullName,
		UserType:     userType,
		CreatedAt:    time.Now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueToken(user)
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	hash := hashPassword(req.Password)
	if subtle.ConstantTimeCompare([]byte(hash), []byte(user.PasswordHash)) != 1 {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// GetUser loads a user profile.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *AuthService) issueToken(user *model.User) (*model.AuthResponse, error) {
	token, err := auth.GenerateToken(user.ID, user.Email, string(user.UserType), s.jwt.Secret,
		time.Duration(s.jwt.Expiration)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &model.AuthResponse{
		Success: true,
		Token:   token,
		User:    *user,
	}, nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
