package model

import "time"

// User is a locally registered account (fallback when the hosted
// platform is unavailable).
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FullName      string    `json:"full_name"`
	UserType      UserType  `json:"user_type"`
	Diamonds      int       `json:"diamonds"`
	BlackDiamonds int       `json:"black_diamonds"`
	IsVIP         bool      `json:"is_vip"`
	CreatedAt     time.Time `json:"created_at"`
}

// SignupRequest registers a local account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	UserType string `json:"user_type" validate:"omitempty,oneof=dj producer dj_producer label"`
}

// LoginRequest authenticates a local account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the issued token and user profile.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}
