package models

import (
	"time"
)

type User struct {
	ID          int       `json:"id" example:"1"`
	EmployeeId  string    `json:"employee_id" example:"EMP001"`
	Email       string    `json:"email" example:"buyer@example.com"`
	Password    string    `json:"password" example:""`
	FirstName   string    `json:"first_name" example:"John"`
	LastName    string    `json:"last_name" example:"Doe"`
	RoleID      int       `json:"role_id" example:"1"`
	RoleName    string    `json:"role_name" example:"Buyer"`
	Suspended   bool      `json:"suspended" example:"false"`
	CreatedAt   time.Time `json:"created_at" example:"2026-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updated_at" example:"2026-01-15T10:30:00Z"`
	FirstAccess time.Time `json:"first_access,omitempty" example:"2026-01-15T10:30:00Z"`
	LastAccess  time.Time `json:"last_access,omitempty" example:"2026-01-15T10:30:00Z"`
}

type Session struct {
	UserID                int       `json:"user_id"`
	SessionID             string    `json:"session_id"`
	HostName              string    `json:"host_name"`
	IPAddress             string    `json:"ip_address"`
	Timestamp             time.Time `json:"timestp"`
	ExpiresAt             time.Time `json:"expires_at"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
}

// Setting represents one row of the settings table (string key/value pairs).
// The submit policy gate reads "RequireThreeQuotations" through this table;
// an absent row is treated as "true".
type Setting struct {
	Key       string    `json:"key" example:"RequireThreeQuotations"`
	Value     string    `json:"value" example:"true"`
	UpdatedBy string    `json:"updated_by" example:"admin"`
	UpdatedAt time.Time `json:"updated_at" example:"2026-01-15T10:30:00Z"`
}

type Role struct {
	RoleID   int    `json:"role_id" example:"1"`
	RoleName string `json:"role_name" example:"Buyer"`
}

type ActivityLog struct {
	ID                int       `json:"id" example:"1"`
	CreatedAt         time.Time `json:"created_at" example:"2026-01-15T10:30:00Z"`
	UserName          string    `json:"user_name" example:"John Doe"`
	HostName          string    `json:"host_name" example:"workstation-01"`
	EventContext      string    `json:"event_context" example:"Comparison"`
	IPAddress         string    `json:"ip_address" example:"192.168.1.1"`
	Description       string    `json:"description" example:"Submitted comparison for approval"`
	EventName         string    `json:"event_name" example:"Submit"`
	AffectedUserName  string    `json:"affected_user_name" example:"Jane Doe"`
	AffectedUserEmail string    `json:"affected_user_email" example:"jane@example.com"`
	PRID              int       `json:"pr_id" example:"1"`
}
