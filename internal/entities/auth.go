package entities

import "carrental/internal/db"

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=100"`
	FirstName string `json:"firstName" validate:"required,min=2,max=50,personname"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50,personname"`
	Phone     string `json:"phone" validate:"required,min=10,max=15,phone"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=100"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=50,personname"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=50,personname"`
	Phone     *string `json:"phone" validate:"omitempty,min=10,max=15,phone"`
}

type AuthResponse struct {
	User  *db.User `json:"user"`
	Token string   `json:"token"`
}
