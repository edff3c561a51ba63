package models

import "time"

type User struct {
	ID           string    `json:"_id"`
	FirstName    string    `json:"fName"`
	LastName     string    `json:"lName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	UserType     string    `json:"userType,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	FirstName string `json:"fName" validate:"required"`
	LastName  string `json:"lName" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	UserType  string `json:"userType,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Status   string `json:"status"`
	Data     string `json:"data"`
	UserType string `json:"userType,omitempty"`
}

type UserDataRequest struct {
	Token string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}
