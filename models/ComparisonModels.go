package models

import (
	"time"
)

// Comparison lifecycle statuses. Approved and Rejected are terminal; a
// rejected comparison can only be followed by a brand-new draft for the
// same requisition.
const (
	ComparisonStatusDraft     = "Draft"
	ComparisonStatusSubmitted = "Submitted"
	ComparisonStatusApproved  = "Approved"
	ComparisonStatusRejected  = "Rejected"
)

// Approval decisions accepted by the approval bridge.
const (
	ApprovalDecisionApproved = "Approved"
	ApprovalDecisionRejected = "Rejected"
)

// QuotationComparison represents the quotation_comparisons table. One working
// record per comparison session: one detail line per eligible quotation plus
// the final selection. Editable while Draft, frozen once Approved.
type QuotationComparison struct {
	ID                  string             `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	PRID                int                `gorm:"column:pr_id;not null;index" json:"pr_id"`
	ItemID              int                `gorm:"column:item_id" json:"item_id"`
	ComparisonDate      time.Time          `gorm:"column:comparison_date;not null" json:"comparison_date"`
	SelectedQuotationID int                `gorm:"column:selected_quotation_id;default:0" json:"selected_quotation_id"`
	SelectedSupplierID  int                `gorm:"column:selected_supplier_id;default:0" json:"selected_supplier_id"`
	SelectionReason     string             `gorm:"column:selection_reason;type:text" json:"selection_reason"`
	Status              string             `gorm:"column:status;not null;default:'Draft'" json:"status"`
	CreatedBy           string             `gorm:"column:created_by" json:"created_by"`
	CreatedAt           time.Time          `gorm:"column:created_at" json:"created_at"`
	UpdatedAt           time.Time          `gorm:"column:updated_at" json:"updated_at"`
	Details             []ComparisonDetail `gorm:"foreignKey:ComparisonID;references:ID" json:"details"`
}

// TableName specifies the table name for QuotationComparison
func (QuotationComparison) TableName() string {
	return "quotation_comparisons"
}

// ComparisonDetail represents the comparison_details table: one comparable
// line per eligible quotation. PriceRating, QualityRating and OverallScore are
// derived fields; they are only ever written by the scoring engine, always all
// three together.
type ComparisonDetail struct {
	ID              int        `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ComparisonID    string     `gorm:"column:comparison_id;type:uuid;index" json:"comparison_id"`
	QuotationID     int        `gorm:"column:quotation_id;not null" json:"quotation_id"`
	QuotationNumber string     `gorm:"column:quotation_number" json:"quotation_number"`
	SupplierID      int        `gorm:"column:supplier_id;not null" json:"supplier_id"`
	SupplierName    string     `gorm:"column:supplier_name" json:"supplier_name"`
	UnitPrice       float64    `gorm:"column:unit_price;type:numeric(14,2)" json:"unit_price"`
	TotalPrice      float64    `gorm:"column:total_price;type:numeric(14,2)" json:"total_price"`
	DeliveryDays    int        `gorm:"column:delivery_days" json:"delivery_days"`
	DeliveryCost    float64    `gorm:"column:delivery_cost;type:numeric(14,2)" json:"delivery_cost"`
	OtherCosts      float64    `gorm:"column:other_costs;type:numeric(14,2)" json:"other_costs"`
	PaymentTerms    string     `gorm:"column:payment_terms" json:"payment_terms"`
	ValidityDate    *time.Time `gorm:"column:validity_date" json:"validity_date,omitempty"`
	Grade           string     `gorm:"column:grade" json:"grade"`
	PriceRating     float64    `gorm:"column:price_rating;type:numeric(4,1)" json:"price_rating"`
	QualityRating   float64    `gorm:"column:quality_rating;type:numeric(4,1)" json:"quality_rating"`
	OverallScore    float64    `gorm:"column:overall_score;type:numeric(4,1)" json:"overall_score"`
}

// TableName specifies the table name for ComparisonDetail
func (ComparisonDetail) TableName() string {
	return "comparison_details"
}

// ApprovalRequest represents the approval_requests table. One row per
// submitted comparison awaiting a decision.
type ApprovalRequest struct {
	ID           string     `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	ComparisonID string     `gorm:"column:comparison_id;type:uuid;not null;index" json:"comparison_id"`
	Status       string     `gorm:"column:status;not null;default:'Pending'" json:"status"`
	RequestedBy  int        `gorm:"column:requested_by" json:"requested_by"`
	ResolvedBy   int        `gorm:"column:resolved_by" json:"resolved_by"`
	Comments     string     `gorm:"column:comments;type:text" json:"comments"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	ResolvedAt   *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

// TableName specifies the table name for ApprovalRequest
func (ApprovalRequest) TableName() string {
	return "approval_requests"
}

// SaveComparisonRequest is the body for create/update/submit of a comparison.
type SaveComparisonRequest struct {
	PRID                int                `json:"pr_id" binding:"required" example:"1"`
	ItemID              int                `json:"item_id" example:"301"`
	SelectedQuotationID int                `json:"selected_quotation_id" example:"3"`
	SelectionReason     string             `json:"selection_reason" example:"lowest available price"`
	Details             []ComparisonDetail `json:"details"`
}

// ApprovalActionRequest is the body for the approval bridge endpoint.
type ApprovalActionRequest struct {
	Decision string `json:"decision" binding:"required" example:"Approved"`
	Comments string `json:"comments" example:"Within budget"`
}

// DetailCostOverride is the body for a manual cost edit on one detail line.
type DetailCostOverride struct {
	QuotationID  int      `json:"quotation_id" binding:"required" example:"3"`
	DeliveryCost *float64 `json:"delivery_cost,omitempty" example:"1500"`
	OtherCosts   *float64 `json:"other_costs,omitempty" example:"0"`
	DeliveryDays *int     `json:"delivery_days,omitempty" example:"5"`
}

// POHandoff carries the navigation parameters produced for PO creation.
type POHandoff struct {
	QuotationID  int    `json:"quotation_id" example:"3"`
	ComparisonID string `json:"comparison_id" example:"e4b1c8a0-0f3d-4f7a-9a2b-1c6d5e8f9a01"`
}
