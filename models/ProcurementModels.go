package models

import (
	"time"
)

// PurchaseRequisition represents the purchase_requisitions table. Only
// requisitions with status "Approved" are eligible for comparison.
type PurchaseRequisition struct {
	ID           int       `json:"id" example:"1"`
	PRNumber     string    `json:"pr_number" example:"PR-2026-0042"`
	Title        string    `json:"title" example:"Polymer resin Q3 restock"`
	Status       string    `json:"status" example:"Approved"`
	RequestedBy  int       `json:"requested_by" example:"4"`
	Department   string    `json:"department" example:"Production"`
	RequiredDate time.Time `json:"required_date" example:"2026-09-30T00:00:00Z"`
	CreatedAt    time.Time `json:"created_at" example:"2026-08-01T10:30:00Z"`
	UpdatedAt    time.Time `json:"updated_at" example:"2026-08-01T10:30:00Z"`
	Items        []PRItem  `json:"items,omitempty"`
}

// PRItem represents the pr_items table (one requested line of a requisition).
type PRItem struct {
	ID       int     `json:"id" example:"1"`
	PRID     int     `json:"pr_id" example:"1"`
	ItemID   int     `json:"item_id" example:"301"`
	ItemName string  `json:"item_name" example:"HDPE granulate"`
	Quantity float64 `json:"quantity" example:"500"`
	Unit     string  `json:"unit" example:"kg"`
}

// RFQ represents the rfqs table. An RFQ links supplier quotations back to the
// requisition they answer.
type RFQ struct {
	ID        int       `json:"id" example:"1"`
	RFQNumber string    `json:"rfq_number" example:"RFQ-2026-0101"`
	PRID      int       `json:"pr_id" example:"1"`
	Status    string    `json:"status" example:"sent"`
	SentAt    time.Time `json:"sent_at" example:"2026-08-05T09:00:00Z"`
	CreatedAt time.Time `json:"created_at" example:"2026-08-05T09:00:00Z"`
}

// SupplierQuotation represents the supplier_quotations table. Read-only to the
// comparison engine; suppliers own these records.
type SupplierQuotation struct {
	ID              int             `json:"id" example:"1"`
	QuotationNumber string          `json:"quotation_number" example:"SQ-88121"`
	RFQID           int             `json:"rfq_id" example:"1"`
	SupplierID      int             `json:"supplier_id" example:"12"`
	SupplierName    string          `json:"supplier_name" example:"Apex Polymers Pvt Ltd"`
	TotalAmount     float64         `json:"total_amount" example:"98500.00"`
	DeliveryCost    float64         `json:"delivery_cost" example:"1200.00"`
	OtherCosts      float64         `json:"other_costs" example:"300.00"`
	DeliveryDays    int             `json:"delivery_days" example:"7"`
	PaymentTerms    string          `json:"payment_terms" example:"Net 30"`
	ValidityDate    *time.Time      `json:"validity_date,omitempty" example:"2026-09-15T00:00:00Z"`
	Status          string          `json:"status" example:"received"`
	CreatedAt       time.Time       `json:"created_at" example:"2026-08-10T14:00:00Z"`
	UpdatedAt       time.Time       `json:"updated_at" example:"2026-08-10T14:00:00Z"`
	Items           []QuotationItem `json:"items,omitempty"`
}

// QuotationItem represents the quotation_items table.
type QuotationItem struct {
	ID           int     `json:"id" example:"1"`
	QuotationID  int     `json:"quotation_id" example:"1"`
	ItemName     string  `json:"item_name" example:"HDPE granulate"`
	Quantity     float64 `json:"quantity" example:"500"`
	Unit         string  `json:"unit" example:"kg"`
	UnitPrice    float64 `json:"unit_price" example:"195.00"`
	TotalPrice   float64 `json:"total_price" example:"97500.00"`
	PolymerGrade string  `json:"polymer_grade,omitempty" example:"PE-100"`
}

// PurchaseOrder represents the purchase_orders table. Created only from an
// approved comparison (the hand-off target of the lifecycle controller).
type PurchaseOrder struct {
	ID           int       `json:"id" example:"1"`
	PONumber     string    `json:"po_number" example:"PO-7F3A21C4"`
	ComparisonID string    `json:"comparison_id" example:"e4b1c8a0-0f3d-4f7a-9a2b-1c6d5e8f9a01"`
	QuotationID  int       `json:"quotation_id" example:"1"`
	SupplierID   int       `json:"supplier_id" example:"12"`
	PRID         int       `json:"pr_id" example:"1"`
	TotalAmount  float64   `json:"total_amount" example:"98500.00"`
	Status       string    `json:"status" example:"open"`
	CreatedBy    string    `json:"created_by" example:"John Doe"`
	CreatedAt    time.Time `json:"created_at" example:"2026-08-20T11:00:00Z"`
}
