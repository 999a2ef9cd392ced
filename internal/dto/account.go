package dto

import "github.com/noah-isme/bk-portal-api/internal/models"

// UpdateRoleRequest is the only mutation an administrator may apply to another profile.
type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,portal_role"`
}

// UpdateProfileRequest carries the self-editable profile fields.
type UpdateProfileRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	NotifyEmail *bool   `json:"notify_email"`
}

// UpdateNotificationRequest toggles email notifications for the caller.
type UpdateNotificationRequest struct {
	NotifyEmail bool `json:"notify_email"`
}

// AccountKPIResponse holds independent counters; a nil field means the counter failed.
type AccountKPIResponse struct {
	Total    *int `json:"total"`
	Students *int `json:"siswa"`
	Teachers *int `json:"guru"`
	Admins   *int `json:"admin"`
}

// AccountCountResponse returns a single counter.
type AccountCountResponse struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// DeleteUserRequest is the privileged delete function payload. UserID is
// decoded loosely so that a non-string value can be rejected explicitly.
type DeleteUserRequest struct {
	UserID interface{} `json:"userId"`
}

// DeleteUserResponse mirrors the function contract {ok, error}.
type DeleteUserResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Warning string `json:"warning,omitempty"`
}
