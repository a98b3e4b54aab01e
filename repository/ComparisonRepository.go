package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"procurement/models"
	"procurement/services"
)

// GetApprovedRequisitions returns requisitions eligible for comparison,
// newest first. Only status "Approved" qualifies.
func GetApprovedRequisitions(db *sql.DB) ([]models.PurchaseRequisition, error) {
	rows, err := db.Query(`
		SELECT id, pr_number, title, status, requested_by, department, required_date, created_at, updated_at
		FROM purchase_requisitions
		WHERE status = 'Approved'
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approved requisitions: %w", err)
	}
	defer rows.Close()

	var prs []models.PurchaseRequisition
	for rows.Next() {
		var pr models.PurchaseRequisition
		if err := rows.Scan(&pr.ID, &pr.PRNumber, &pr.Title, &pr.Status, &pr.RequestedBy,
			&pr.Department, &pr.RequiredDate, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan requisition: %w", err)
		}
		prs = append(prs, pr)
	}
	return prs, rows.Err()
}

// GetRequisitionByID returns one requisition with its line items.
func GetRequisitionByID(db *sql.DB, prID int) (*models.PurchaseRequisition, error) {
	var pr models.PurchaseRequisition
	err := db.QueryRow(`
		SELECT id, pr_number, title, status, requested_by, department, required_date, created_at, updated_at
		FROM purchase_requisitions WHERE id = $1`, prID).Scan(
		&pr.ID, &pr.PRNumber, &pr.Title, &pr.Status, &pr.RequestedBy,
		&pr.Department, &pr.RequiredDate, &pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch requisition %d: %w", prID, err)
	}

	rows, err := db.Query(`
		SELECT id, pr_id, item_id, item_name, quantity, unit
		FROM pr_items WHERE pr_id = $1 ORDER BY id`, prID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requisition items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.PRItem
		if err := rows.Scan(&item.ID, &item.PRID, &item.ItemID, &item.ItemName, &item.Quantity, &item.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan requisition item: %w", err)
		}
		pr.Items = append(pr.Items, item)
	}
	return &pr, rows.Err()
}

// GetRFQsForPR returns the RFQs raised against one requisition.
func GetRFQsForPR(db *sql.DB, prID int) ([]models.RFQ, error) {
	rows, err := db.Query(`
		SELECT id, rfq_number, pr_id, status, sent_at, created_at
		FROM rfqs WHERE pr_id = $1 ORDER BY id`, prID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch RFQs for PR %d: %w", prID, err)
	}
	defer rows.Close()

	var rfqs []models.RFQ
	for rows.Next() {
		var r models.RFQ
		if err := rows.Scan(&r.ID, &r.RFQNumber, &r.PRID, &r.Status, &r.SentAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan RFQ: %w", err)
		}
		rfqs = append(rfqs, r)
	}
	return rfqs, rows.Err()
}

// GetQuotationsForPR returns every supplier quotation linked to the
// requisition through its RFQs, line items included. Expiry filtering is the
// normalizer's job, not the query's.
func GetQuotationsForPR(db *sql.DB, prID int) ([]models.SupplierQuotation, error) {
	rows, err := db.Query(`
		SELECT q.id, q.quotation_number, q.rfq_id, q.supplier_id, q.supplier_name,
		       q.total_amount, q.delivery_cost, q.other_costs, q.delivery_days,
		       q.payment_terms, q.validity_date, q.status, q.created_at, q.updated_at
		FROM supplier_quotations q
		JOIN rfqs r ON q.rfq_id = r.id
		WHERE r.pr_id = $1
		ORDER BY q.id`, prID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quotations for PR %d: %w", prID, err)
	}
	defer rows.Close()

	var quotations []models.SupplierQuotation
	for rows.Next() {
		var q models.SupplierQuotation
		if err := rows.Scan(&q.ID, &q.QuotationNumber, &q.RFQID, &q.SupplierID, &q.SupplierName,
			&q.TotalAmount, &q.DeliveryCost, &q.OtherCosts, &q.DeliveryDays,
			&q.PaymentTerms, &q.ValidityDate, &q.Status, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quotation: %w", err)
		}
		quotations = append(quotations, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range quotations {
		items, err := getQuotationItems(db, quotations[i].ID)
		if err != nil {
			return nil, err
		}
		quotations[i].Items = items
	}
	return quotations, nil
}

func getQuotationItems(db *sql.DB, quotationID int) ([]models.QuotationItem, error) {
	rows, err := db.Query(`
		SELECT id, quotation_id, item_name, quantity, unit, unit_price, total_price, COALESCE(polymer_grade, '')
		FROM quotation_items WHERE quotation_id = $1 ORDER BY id`, quotationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items for quotation %d: %w", quotationID, err)
	}
	defer rows.Close()

	var items []models.QuotationItem
	for rows.Next() {
		var it models.QuotationItem
		if err := rows.Scan(&it.ID, &it.QuotationID, &it.ItemName, &it.Quantity, &it.Unit,
			&it.UnitPrice, &it.TotalPrice, &it.PolymerGrade); err != nil {
			return nil, fmt.Errorf("failed to scan quotation item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetSettingBool reads a boolean policy flag from the settings table.
// An absent row or an unparseable value falls back to the provided default.
func GetSettingBool(db *sql.DB, key string, defaultValue bool) (bool, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return defaultValue, nil
	}
	if err != nil {
		return defaultValue, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return defaultValue, nil
}

// UpsertSetting writes a settings key/value pair.
func UpsertSetting(db *sql.DB, key, value, updatedBy string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_by = $3, updated_at = NOW()`,
		key, value, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}
	return nil
}

// MarkExpiredQuotations flags quotations whose validity date has passed.
// Run by the nightly maintenance cron; the normalizer excludes them either
// way, this just keeps the listing honest.
func MarkExpiredQuotations(db *sql.DB) (int64, error) {
	result, err := db.Exec(`
		UPDATE supplier_quotations
		SET status = 'expired', updated_at = NOW()
		WHERE validity_date IS NOT NULL
		  AND validity_date < CURRENT_DATE
		  AND status <> 'expired'`)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired quotations: %w", err)
	}
	return result.RowsAffected()
}

// CreatePurchaseOrder inserts the PO spawned from an approved comparison.
func CreatePurchaseOrder(db *sql.DB, po *models.PurchaseOrder) error {
	err := db.QueryRow(`
		INSERT INTO purchase_orders (po_number, comparison_id, quotation_id, supplier_id, pr_id, total_amount, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		po.PONumber, po.ComparisonID, po.QuotationID, po.SupplierID, po.PRID,
		po.TotalAmount, po.Status, po.CreatedBy, po.CreatedAt,
	).Scan(&po.ID)
	if err != nil {
		return fmt.Errorf("failed to insert purchase order: %w", err)
	}
	return nil
}

// GetPurchaseOrderByID returns one purchase order.
func GetPurchaseOrderByID(db *sql.DB, id int) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := db.QueryRow(`
		SELECT id, po_number, comparison_id, quotation_id, supplier_id, pr_id, total_amount, status, created_by, created_at
		FROM purchase_orders WHERE id = $1`, id).Scan(
		&po.ID, &po.PONumber, &po.ComparisonID, &po.QuotationID, &po.SupplierID,
		&po.PRID, &po.TotalAmount, &po.Status, &po.CreatedBy, &po.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// ComparisonRepository is the persistence adapter behind the lifecycle
// controller and the approval bridge. The comparison aggregate goes through
// GORM; the quotation read path stays on raw SQL.
type ComparisonRepository struct {
	db     *sql.DB
	gormDB *gorm.DB
}

func NewComparisonRepository(db *sql.DB, gormDB *gorm.DB) *ComparisonRepository {
	return &ComparisonRepository{db: db, gormDB: gormDB}
}

// Save creates or updates a comparison together with its detail lines.
// It writes copies; the caller's comparison is only updated once the
// transaction has committed.
func (r *ComparisonRepository) Save(cmp *models.QuotationComparison) error {
	head := *cmp
	head.Details = nil
	head.UpdatedAt = time.Now()
	if head.CreatedAt.IsZero() {
		head.CreatedAt = head.UpdatedAt
	}

	details := make([]models.ComparisonDetail, len(cmp.Details))
	copy(details, cmp.Details)
	for i := range details {
		details[i].ID = 0
		details[i].ComparisonID = head.ID
	}

	err := r.gormDB.Transaction(func(tx *gorm.DB) error {
		// The ID is assigned before the first save, so a plain Save would
		// only ever issue an UPDATE. Upsert on the primary key instead.
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&head).Error; err != nil {
			return fmt.Errorf("failed to save comparison %s: %w", head.ID, err)
		}

		if err := tx.Where("comparison_id = ?", head.ID).Delete(&models.ComparisonDetail{}).Error; err != nil {
			return fmt.Errorf("failed to clear details for comparison %s: %w", head.ID, err)
		}
		if len(details) > 0 {
			if err := tx.Create(&details).Error; err != nil {
				return fmt.Errorf("failed to save details for comparison %s: %w", head.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	head.Details = details
	*cmp = head
	return nil
}

// Submit persists the comparison and raises the approval request in one
// transaction; a failure leaves neither behind. The stored row is locked and
// must still be in Draft, so two racing submits cannot both raise a request.
func (r *ComparisonRepository) Submit(cmp *models.QuotationComparison, requestedBy int) error {
	return r.gormDB.Transaction(func(tx *gorm.DB) error {
		var current models.QuotationComparison
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("status").
			First(&current, "id = ?", cmp.ID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to lock comparison %s: %w", cmp.ID, err)
		}
		if err == nil && current.Status != models.ComparisonStatusDraft {
			return &services.ValidationError{Msg: "comparison has already been submitted"}
		}

		inner := &ComparisonRepository{db: r.db, gormDB: tx}
		if err := inner.Save(cmp); err != nil {
			return err
		}

		request := models.ApprovalRequest{
			ID:           uuid.New().String(),
			ComparisonID: cmp.ID,
			Status:       "Pending",
			RequestedBy:  requestedBy,
			CreatedAt:    time.Now(),
		}
		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("failed to raise approval request for comparison %s: %w", cmp.ID, err)
		}
		return nil
	})
}

// GetByID loads one comparison with its detail lines.
func (r *ComparisonRepository) GetByID(id string) (*models.QuotationComparison, error) {
	var cmp models.QuotationComparison
	err := r.gormDB.Preload("Details").First(&cmp, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch comparison %s: %w", id, err)
	}
	return &cmp, nil
}

// GetLatestByPR returns the most recent comparison for a requisition, or
// gorm.ErrRecordNotFound when none exists yet.
func (r *ComparisonRepository) GetLatestByPR(prID int) (*models.QuotationComparison, error) {
	var cmp models.QuotationComparison
	err := r.gormDB.Preload("Details").
		Where("pr_id = ?", prID).
		Order("created_at DESC").
		First(&cmp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch comparison for PR %d: %w", prID, err)
	}
	return &cmp, nil
}

// EligibleForPR implements the quotation source behind the policy gate:
// quotations linked to the PR through its RFQs and not expired relative to
// the reference date.
func (r *ComparisonRepository) EligibleForPR(prID int, now time.Time) ([]models.SupplierQuotation, error) {
	rfqs, err := GetRFQsForPR(r.db, prID)
	if err != nil {
		return nil, err
	}
	quotations, err := GetQuotationsForPR(r.db, prID)
	if err != nil {
		return nil, err
	}
	return services.EligibleQuotations(prID, rfqs, quotations, now), nil
}

// Resolve records an approve/reject decision on a pending approval request
// and flips the comparison status to match, atomically. This is the approval
// workflow side; the engine only ever observes the new status on next read.
func (r *ComparisonRepository) Resolve(approvalID string, actorID int, decision, comments string) error {
	return r.gormDB.Transaction(func(tx *gorm.DB) error {
		var request models.ApprovalRequest
		if err := tx.First(&request, "id = ?", approvalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return fmt.Errorf("failed to fetch approval request %s: %w", approvalID, err)
		}
		if request.Status != "Pending" {
			return fmt.Errorf("approval request %s is already resolved (%s)", approvalID, request.Status)
		}

		now := time.Now()
		request.Status = decision
		request.ResolvedBy = actorID
		request.Comments = comments
		request.ResolvedAt = &now
		if err := tx.Save(&request).Error; err != nil {
			return fmt.Errorf("failed to resolve approval request %s: %w", approvalID, err)
		}

		result := tx.Model(&models.QuotationComparison{}).
			Where("id = ? AND status = ?", request.ComparisonID, models.ComparisonStatusSubmitted).
			Update("status", decision)
		if result.Error != nil {
			return fmt.Errorf("failed to update comparison %s status: %w", request.ComparisonID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("comparison %s is not awaiting approval", request.ComparisonID)
		}
		return nil
	})
}

// PendingApprovals lists unresolved approval requests, oldest first.
func (r *ComparisonRepository) PendingApprovals() ([]models.ApprovalRequest, error) {
	var requests []models.ApprovalRequest
	err := r.gormDB.Where("status = ?", "Pending").Order("created_at ASC").Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return requests, nil
}
