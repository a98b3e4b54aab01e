package models

// Swagger / API docs: common request and response models referenced by handler annotations

// ErrorResponse is used in @Failure for error responses
type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid input"`
	Details string `json:"details,omitempty" example:""`
}

// LoginRequest is used in @Param for login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"buyer@example.com"`
	Password string `json:"password" binding:"required" example:"password"`
	IP       string `json:"ip" example:"192.168.1.1"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Message     string `json:"message" example:"Login successful"`
	AccessToken string `json:"access_token" example:""`
	SessionID   string `json:"session_id" example:""`
	Role        string `json:"role" example:"Buyer"`
	UserID      int    `json:"user_id" example:"1"`
}

// MessageResponse is a generic success message wrapper
type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

// ComparisonBuildResponse is returned by the comparison workspace endpoints.
type ComparisonBuildResponse struct {
	Comparison    *QuotationComparison `json:"comparison"`
	EligibleCount int                  `json:"eligible_count" example:"4"`
	ViewOnly      bool                 `json:"view_only" example:"false"`
}

// ActivityLogPage wraps a paginated activity log listing.
type ActivityLogPage struct {
	Page         int           `json:"page" example:"1"`
	Limit        int           `json:"limit" example:"10"`
	TotalRecords int           `json:"total_records" example:"42"`
	TotalPages   int           `json:"total_pages" example:"5"`
	Logs         []ActivityLog `json:"logs"`
}
