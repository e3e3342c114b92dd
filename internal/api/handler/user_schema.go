package handler

import "time"

// errorResponse is the envelope used for payload errors rejected before
// reaching a service.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type registerRequest struct {
	Username  string `json:"username"  validate:"required,min=3,max=50"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
	Residence string `json:"residence" validate:"omitempty,max=150"`
	Role      string `json:"role"      validate:"required"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password"        validate:"required"`
}

type updateUserRequest struct {
	Username  *string `json:"username"  validate:"omitempty,min=3,max=50"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName"  validate:"omitempty,max=100"`
	Residence *string `json:"residence" validate:"omitempty,max=150"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8"`
}

// --- Response types ---

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Residence string    `json:"residence"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        userResponse `json:"user"`
}
