package request

type RegisterRequest struct {
	Username     string  `json:"username" validate:"required,min=1,max=50"`
	Password     string  `json:"password" validate:"required,min=1"`
	FullName     string  `json:"fullName" validate:"required,min=1"`
	Email        string  `json:"email" validate:"required,email"`
	PhoneNumber  string  `json:"phoneNumber" validate:"required,min=10,max=20"`
	ProfileImage *string `json:"profileImage,omitempty"`
	Role         string  `json:"role,omitempty" validate:"omitempty,oneof=customer driver"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
