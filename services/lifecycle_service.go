package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"procurement/models"
)

// ComparisonStore persists comparisons. Submit must be atomic: the status
// flip to Submitted and the approval request row either both land or neither
// does.
type ComparisonStore interface {
	Save(cmp *models.QuotationComparison) error
	Submit(cmp *models.QuotationComparison, requestedBy int) error
	GetByID(id string) (*models.QuotationComparison, error)
}

// QuotationSource supplies the normalizer-retained (non-expired, PR-linked)
// quotations the policy gate counts.
type QuotationSource interface {
	EligibleForPR(prID int, now time.Time) ([]models.SupplierQuotation, error)
}

// LifecycleService owns the comparison status machine:
// Draft -> Submitted -> Approved/Rejected. The require-three policy flag is an
// explicit parameter on Submit so the gate stays testable in isolation.
type LifecycleService struct {
	store  ComparisonStore
	quotes QuotationSource
	now    func() time.Time
}

func NewLifecycleService(store ComparisonStore, quotes QuotationSource) *LifecycleService {
	return &LifecycleService{store: store, quotes: quotes, now: time.Now}
}

// IsViewOnly reports whether the comparison must render read-only. Approved
// comparisons are never editable again, independent of any explicit view
// request. Derived, never stored.
func IsViewOnly(cmp *models.QuotationComparison, viewRequested bool) bool {
	return viewRequested || cmp.Status == models.ComparisonStatusApproved
}

// Save persists a draft without submitting it. Only drafts are writable: an
// approved comparison is frozen and a submitted one is with the approver.
// Each quotation may appear on at most one detail line, and a selection, when
// present, must point at one of those lines.
func (s *LifecycleService) Save(cmp *models.QuotationComparison) error {
	switch cmp.Status {
	case models.ComparisonStatusDraft, "":
	case models.ComparisonStatusApproved:
		return &ValidationError{Msg: "an approved comparison is read-only"}
	default:
		return &ValidationError{Msg: "only a draft comparison can be edited"}
	}

	seen := make(map[int]struct{}, len(cmp.Details))
	for _, d := range cmp.Details {
		if _, dup := seen[d.QuotationID]; dup {
			return &ValidationError{Msg: "quotation " + strconv.Itoa(d.QuotationID) + " appears on more than one comparison line"}
		}
		seen[d.QuotationID] = struct{}{}
	}
	if cmp.SelectedQuotationID != 0 {
		if _, found := supplierForQuotation(cmp.Details, cmp.SelectedQuotationID); !found {
			return &ValidationError{Msg: "selected quotation is not part of this comparison"}
		}
	}

	if cmp.ID == "" {
		cmp.ID = uuid.New().String()
		cmp.Status = models.ComparisonStatusDraft
		cmp.ComparisonDate = truncateToDay(s.now())
	}
	if err := s.store.Save(cmp); err != nil {
		return &UpstreamError{Op: "persist comparison", Err: err}
	}
	return nil
}

// Submit runs the gates in order and, when all pass, persists the comparison
// and hands it to the approval workflow in one step. Either every gate passes
// and both persistence and submission succeed, or the comparison is left
// exactly as it was before the attempt.
//
// Gate order: minimum-quotation policy, selection, reason.
func (s *LifecycleService) Submit(cmp *models.QuotationComparison, requireThree bool, requestedBy int) error {
	if cmp.Status != models.ComparisonStatusDraft {
		return &ValidationError{Msg: "only a draft comparison can be submitted"}
	}

	eligible, err := s.quotes.EligibleForPR(cmp.PRID, s.now())
	if err != nil {
		return &UpstreamError{Op: "load eligible quotations", Err: err}
	}
	if requireThree && len(eligible) < 3 {
		return &ValidationError{Msg: "at least three valid quotations are required before a selection can be submitted"}
	}

	if cmp.SelectedQuotationID == 0 {
		return &ValidationError{Msg: "a quotation must be selected"}
	}
	if strings.TrimSpace(cmp.SelectionReason) == "" {
		return &ValidationError{Msg: "a selection reason is required"}
	}

	supplierID, found := supplierForQuotation(cmp.Details, cmp.SelectedQuotationID)
	if !found {
		return &NotFoundError{Entity: "selected quotation", ID: strconv.Itoa(cmp.SelectedQuotationID)}
	}

	// Work on a copy, detail rows included, so a failed persist/submit
	// leaves the caller's comparison untouched.
	prepared := *cmp
	prepared.Details = append([]models.ComparisonDetail(nil), cmp.Details...)
	prepared.SelectedSupplierID = supplierID
	prepared.Status = models.ComparisonStatusSubmitted
	if prepared.ID == "" {
		prepared.ID = uuid.New().String()
		prepared.ComparisonDate = truncateToDay(s.now())
	}

	if err := s.store.Submit(&prepared, requestedBy); err != nil {
		return &UpstreamError{Op: "submit comparison", Err: err}
	}

	*cmp = prepared
	return nil
}

// StartRevision opens a fresh draft against the same requisition after a
// rejection. Details start empty, forcing re-normalization from current
// quotation data.
func (s *LifecycleService) StartRevision(rejected *models.QuotationComparison, createdBy string) (*models.QuotationComparison, error) {
	if rejected.Status != models.ComparisonStatusRejected {
		return nil, &ValidationError{Msg: "a new comparison can only be started from a rejected one"}
	}
	return &models.QuotationComparison{
		ID:             uuid.New().String(),
		PRID:           rejected.PRID,
		ItemID:         rejected.ItemID,
		ComparisonDate: truncateToDay(s.now()),
		Status:         models.ComparisonStatusDraft,
		CreatedBy:      createdBy,
	}, nil
}

// PurchaseOrderHandoff produces the navigation parameters for PO creation.
// Allowed only on an approved comparison with a selection. Invoked on a
// draft, it first runs the full submit flow; if the result is still not
// approved (pending external approval) the hand-off is refused.
func (s *LifecycleService) PurchaseOrderHandoff(cmp *models.QuotationComparison, requireThree bool, requestedBy int) (*models.POHandoff, error) {
	if cmp.Status == models.ComparisonStatusDraft {
		if err := s.Submit(cmp, requireThree, requestedBy); err != nil {
			return nil, err
		}
	}
	if cmp.Status != models.ComparisonStatusApproved {
		return nil, &ValidationError{Msg: "comparison is awaiting approval; a purchase order can be raised only once it is approved"}
	}
	if cmp.SelectedQuotationID == 0 {
		return nil, &ValidationError{Msg: "comparison has no selected quotation"}
	}
	return &models.POHandoff{
		QuotationID:  cmp.SelectedQuotationID,
		ComparisonID: cmp.ID,
	}, nil
}

func supplierForQuotation(details []models.ComparisonDetail, quotationID int) (int, bool) {
	for _, d := range details {
		if d.QuotationID == quotationID {
			return d.SupplierID, true
		}
	}
	return 0, false
}
