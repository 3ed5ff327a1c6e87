package dto

import "github.com/spec-kit/school-portal/internal/domain"

// DashboardResponse is the payload of a role dashboard.
type DashboardResponse struct {
	User     domain.Principal   `json:"user"`
	Children []domain.Principal `json:"children,omitempty"`
}
