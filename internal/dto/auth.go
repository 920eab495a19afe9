package dto

import "time"

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"max=120"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserDTO struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type SessionResponse struct {
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

type CapabilitiesResponse struct {
	Role              string `json:"role"`
	CanViewOrders     bool   `json:"canViewOrders"`
	CanUpdateOrders   bool   `json:"canUpdateOrders"`
	CanDeleteOrders   bool   `json:"canDeleteOrders"`
	CanManageProducts bool   `json:"canManageProducts"`
	CanReadMessages   bool   `json:"canReadMessages"`
	CanManageRoles    bool   `json:"canManageRoles"`
}

type GrantRoleRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type UserRoleDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
