package handler

import (
	"github.com/devoops/user-service/internal/core/domain"
	"github.com/devoops/user-service/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest, role domain.Role) ports.RegisterInput {
	return ports.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Residence: req.Residence,
		Role:      role,
	}
}

func toUpdateInput(req updateUserRequest) ports.UpdateProfileInput {
	return ports.UpdateProfileInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Residence: req.Residence,
	}
}

// --- Domain → Response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Residence: u.Residence,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

func toAuthResponse(res *ports.AuthResult) authResponse {
	return authResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		ExpiresIn:   res.ExpiresIn,
		User:        toUserResponse(res.User),
	}
}
