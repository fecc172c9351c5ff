package transport

import "time"

type GrantRoleRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=admin driver support"`
}

type RolesResponse struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}

type GrantResponse struct {
	UserID    string     `json:"userId"`
	Role      string     `json:"role"`
	GrantedBy *string    `json:"grantedBy,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type GrantListResponse struct {
	Role   string          `json:"role"`
	Grants []GrantResponse `json:"grants"`
}
