package response

import (
	"time"

	"cargo-booking/internal/data/entity"
)

type UserResponse struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	FullName *string         `json:"fullName,omitempty"`
	Email    *string         `json:"email,omitempty"`
	Role     entity.UserRole `json:"role"`
}

type AuthResponse struct {
	UserResponse
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
	}
}

func AuthToResponse(user *entity.User, session *entity.Session) AuthResponse {
	resp := AuthResponse{UserResponse: UserToResponse(user)}

	if session != nil {
		resp.Token = session.Token.String()
		resp.ExpiresAt = session.ExpiresAt
	}

	return resp
}
