package services

import (
	"errors"
	"testing"
	"time"

	"procurement/models"
)

type fakeComparisonStore struct {
	saveErr   error
	submitErr error

	saved       *models.QuotationComparison
	submitted   *models.QuotationComparison
	requestedBy int
}

func (f *fakeComparisonStore) Save(cmp *models.QuotationComparison) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	copied := *cmp
	f.saved = &copied
	return nil
}

func (f *fakeComparisonStore) Submit(cmp *models.QuotationComparison, requestedBy int) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	copied := *cmp
	f.submitted = &copied
	f.requestedBy = requestedBy
	return nil
}

func (f *fakeComparisonStore) GetByID(id string) (*models.QuotationComparison, error) {
	return nil, errors.New("not implemented")
}

type fakeQuotationSource struct {
	quotations []models.SupplierQuotation
	err        error
}

func (f *fakeQuotationSource) EligibleForPR(prID int, now time.Time) ([]models.SupplierQuotation, error) {
	return f.quotations, f.err
}

func nQuotations(n int) []models.SupplierQuotation {
	out := make([]models.SupplierQuotation, n)
	for i := range out {
		out[i] = models.SupplierQuotation{ID: i + 1}
	}
	return out
}

func draftComparison() *models.QuotationComparison {
	return &models.QuotationComparison{
		ID:     "cmp-1",
		PRID:   7,
		Status: models.ComparisonStatusDraft,
		Details: []models.ComparisonDetail{
			{QuotationID: 1, SupplierID: 100, TotalPrice: 1000},
			{QuotationID: 2, SupplierID: 200, TotalPrice: 900},
			{QuotationID: 3, SupplierID: 300, TotalPrice: 1100},
		},
		SelectedQuotationID: 2,
		SelectionReason:     ReasonLowestPrice,
	}
}

func TestSubmitGates(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*models.QuotationComparison)
		eligible     int
		requireThree bool
		wantMsg      string
	}{
		{
			name:         "policy gate blocks with two eligible quotations",
			mutate:       func(c *models.QuotationComparison) {},
			eligible:     2,
			requireThree: true,
			wantMsg:      "at least three valid quotations are required before a selection can be submitted",
		},
		{
			name:         "selection gate",
			mutate:       func(c *models.QuotationComparison) { c.SelectedQuotationID = 0 },
			eligible:     3,
			requireThree: true,
			wantMsg:      "a quotation must be selected",
		},
		{
			name:         "reason gate",
			mutate:       func(c *models.QuotationComparison) { c.SelectionReason = "   " },
			eligible:     3,
			requireThree: true,
			wantMsg:      "a selection reason is required",
		},
		{
			name:         "non-draft refused",
			mutate:       func(c *models.QuotationComparison) { c.Status = models.ComparisonStatusSubmitted },
			eligible:     3,
			requireThree: true,
			wantMsg:      "only a draft comparison can be submitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeComparisonStore{}
			svc := NewLifecycleService(store, &fakeQuotationSource{quotations: nQuotations(tt.eligible)})

			cmp := draftComparison()
			tt.mutate(cmp)
			before := *cmp

			err := svc.Submit(cmp, tt.requireThree, 4)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if vErr.Msg != tt.wantMsg {
				t.Errorf("message = %q, want %q", vErr.Msg, tt.wantMsg)
			}
			if store.submitted != nil {
				t.Error("store must not be touched when a gate fails")
			}
			if cmp.Status != before.Status {
				t.Errorf("status changed %q -> %q on a failed submit", before.Status, cmp.Status)
			}
			if cmp.SelectedSupplierID != before.SelectedSupplierID {
				t.Errorf("selectedSupplierID mutated by failed submit: %d", cmp.SelectedSupplierID)
			}
		})
	}
}

func TestSubmitPolicyGateDisabled(t *testing.T) {
	store := &fakeComparisonStore{}
	svc := NewLifecycleService(store, &fakeQuotationSource{quotations: nQuotations(2)})

	cmp := draftComparison()
	if err := svc.Submit(cmp, false, 4); err != nil {
		t.Fatalf("submit with policy disabled and 2 quotations failed: %v", err)
	}
	if store.submitted == nil {
		t.Fatal("store never received the submission")
	}
}

func TestSubmitSuccess(t *testing.T) {
	store := &fakeComparisonStore{}
	svc := NewLifecycleService(store, &fakeQuotationSource{quotations: nQuotations(3)})

	cmp := draftComparison()
	if err := svc.Submit(cmp, true, 4); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if cmp.Status != models.ComparisonStatusSubmitted {
		t.Errorf("status = %q, want Submitted", cmp.Status)
	}
	if cmp.SelectedSupplierID != 200 {
		t.Errorf("selectedSupplierID = %d, want 200 (derived from quotation 2)", cmp.SelectedSupplierID)
	}
	if store.submitted == nil {
		t.Fatal("store never received the submission")
	}
	if store.submitted.Status != models.ComparisonStatusSubmitted {
		t.Errorf("persisted status = %q, want Submitted", store.submitted.Status)
	}
	if store.requestedBy != 4 {
		t.Errorf("requestedBy = %d, want 4", store.requestedBy)
	}
}

func TestSubmitSelectedQuotationNotInDetails(t *testing.T) {
	store := &fakeComparisonStore{}
	svc := NewLifecycleService(store, &fakeQuotationSource{quotations: nQuotations(3)})

	cmp := draftComparison()
	cmp.SelectedQuotationID = 99

	err := svc.Submit(cmp, true, 4)
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if cmp.Status != models.ComparisonStatusDraft {
		t.Errorf("status = %q, want Draft", cmp.Status)
	}
}

func TestSubmitStoreFailureLeavesComparisonUntouched(t *testing.T) {
	store := &fakeComparisonStore{submitErr: errors.New("connection reset")}
	svc := NewLifecycleService(store, &fakeQuotationSource{quotations: nQuotations(3)})

	cmp := draftComparison()
	err := svc.Submit(cmp, true, 4)

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if cmp.Status != models.ComparisonStatusDraft {
		t.Errorf("status = %q, want Draft (no partial transition)", cmp.Status)
	}
	if cmp.SelectedSupplierID != 0 {
		t.Errorf("selectedSupplierID = %d, want 0 (no partial mutation)", cmp.SelectedSupplierID)
	}
}

// mutatingStore rewrites the detail row keys it receives, the way the real
// persistence layer does when re-inserting lines, and then fails.
type mutatingStore struct {
	fakeComparisonStore
}

func (s *mutatingStore) Submit(cmp *models.QuotationComparison, requestedBy int) error {
	for i := range cmp.Details {
		cmp.Details[i].ID = 0
		cmp.Details[i].ComparisonID = cmp.ID
	}
	return errors.New("connection reset")
}

func TestSubmitStoreFailureLeavesDetailRowsUntouched(t *testing.T) {
	svc := NewLifecycleService(&mutatingStore{}, &fakeQuotationSource{quotations: nQuotations(3)})

	cmp := draftComparison()
	for i := range cmp.Details {
		cmp.Details[i].ID = i + 11
	}

	if err := svc.Submit(cmp, true, 4); err == nil {
		t.Fatal("submit must fail")
	}
	for i, d := range cmp.Details {
		if d.ID != i+11 {
			t.Errorf("detail %d row id = %d, want %d after a failed submit", i, d.ID, i+11)
		}
		if d.ComparisonID != "" {
			t.Errorf("detail %d comparison id = %q, want empty after a failed submit", i, d.ComparisonID)
		}
	}
}

func TestSubmitQuotationSourceFailure(t *testing.T) {
	store := &fakeComparisonStore{}
	svc := NewLifecycleService(store, &fakeQuotationSource{err: errors.New("timeout")})

	cmp := draftComparison()
	err := svc.Submit(cmp, true, 4)

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if cmp.Status != models.ComparisonStatusDraft {
		t.Errorf("status = %q, want Draft", cmp.Status)
	}
}

func TestSaveOnlyDraftsAreWritable(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		wantMsg string
	}{
		{"approved read-only", models.ComparisonStatusApproved, "an approved comparison is read-only"},
		{"submitted not editable", models.ComparisonStatusSubmitted, "only a draft comparison can be edited"},
		{"rejected not editable", models.ComparisonStatusRejected, "only a draft comparison can be edited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeComparisonStore{}
			svc := NewLifecycleService(store, &fakeQuotationSource{})

			cmp := draftComparison()
			cmp.Status = tt.status

			err := svc.Save(cmp)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if vErr.Msg != tt.wantMsg {
				t.Errorf("message = %q, want %q", vErr.Msg, tt.wantMsg)
			}
			if store.saved != nil {
				t.Errorf("%s comparison must never be written", tt.status)
			}
		})
	}
}

func TestSaveRejectsDuplicateQuotationLines(t *testing.T) {
	store := &fakeComparisonStore{}
	svc := NewLifecycleService(store, &fakeQuotationSource{})

	cmp := draftComparison()
	cmp.Details = append(cmp.Details, models.ComparisonDetail{QuotationID: 1, SupplierID: 400, TotalPrice: 950})

	err := svc.Save(cmp)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if vErr.Msg != "quotation 1 appears on more than one comparison line" {
		t.Errorf("message = %q", vErr.Msg)
	}
	if store.saved != nil {
		t.Error("duplicate detail lines must never be persisted")
	}
}

func TestSaveRejectsSelectionOutsideDetails(t *testing.T) {
	store := &fakeComparisonStore{}
	svc := NewLifecycleService(store, &fakeQuotationSource{})

	cmp := draftComparison()
	cmp.SelectedQuotationID = 42

	err := svc.Save(cmp)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if vErr.Msg != "selected quotation is not part of this comparison" {
		t.Errorf("message = %q", vErr.Msg)
	}
	if store.saved != nil {
		t.Error("a dangling selection must never be persisted")
	}
}

func TestSaveAssignsIDToNewDraft(t *testing.T) {
	store := &fakeComparisonStore{}
	svc := NewLifecycleService(store, &fakeQuotationSource{})

	cmp := &models.QuotationComparison{PRID: 7}
	if err := svc.Save(cmp); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if cmp.ID == "" {
		t.Error("new comparison must be assigned an id")
	}
	if cmp.Status != models.ComparisonStatusDraft {
		t.Errorf("status = %q, want Draft", cmp.Status)
	}
}

func TestIsViewOnly(t *testing.T) {
	tests := []struct {
		name          string
		status        string
		viewRequested bool
		want          bool
	}{
		{"draft editable", models.ComparisonStatusDraft, false, false},
		{"explicit view request", models.ComparisonStatusDraft, true, true},
		{"approved always read-only", models.ComparisonStatusApproved, false, true},
		{"submitted editable view off", models.ComparisonStatusSubmitted, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp := &models.QuotationComparison{Status: tt.status}
			if got := IsViewOnly(cmp, tt.viewRequested); got != tt.want {
				t.Errorf("IsViewOnly(%s, %v) = %v, want %v", tt.status, tt.viewRequested, got, tt.want)
			}
		})
	}
}

func TestStartRevision(t *testing.T) {
	svc := NewLifecycleService(&fakeComparisonStore{}, &fakeQuotationSource{})

	rejected := draftComparison()
	rejected.Status = models.ComparisonStatusRejected

	fresh, err := svc.StartRevision(rejected, "John Doe")
	if err != nil {
		t.Fatalf("StartRevision failed: %v", err)
	}
	if fresh.PRID != rejected.PRID {
		t.Errorf("fresh draft PRID = %d, want %d", fresh.PRID, rejected.PRID)
	}
	if fresh.ID == rejected.ID || fresh.ID == "" {
		t.Errorf("fresh draft must get its own id, got %q", fresh.ID)
	}
	if len(fresh.Details) != 0 {
		t.Error("fresh draft must start with empty details to force re-normalization")
	}
	if fresh.Status != models.ComparisonStatusDraft {
		t.Errorf("status = %q, want Draft", fresh.Status)
	}
	if fresh.SelectedQuotationID != 0 || fresh.SelectionReason != "" {
		t.Errorf("fresh draft carried over a selection: %+v", fresh)
	}
}

func TestStartRevisionOnlyFromRejected(t *testing.T) {
	svc := NewLifecycleService(&fakeComparisonStore{}, &fakeQuotationSource{})

	for _, status := range []string{models.ComparisonStatusDraft, models.ComparisonStatusSubmitted, models.ComparisonStatusApproved} {
		cmp := draftComparison()
		cmp.Status = status
		if _, err := svc.StartRevision(cmp, "John Doe"); err == nil {
			t.Errorf("StartRevision from %s must fail", status)
		}
	}
}

func TestPurchaseOrderHandoff(t *testing.T) {
	t.Run("approved with selection hands off", func(t *testing.T) {
		svc := NewLifecycleService(&fakeComparisonStore{}, &fakeQuotationSource{})
		cmp := draftComparison()
		cmp.Status = models.ComparisonStatusApproved

		handoff, err := svc.PurchaseOrderHandoff(cmp, true, 4)
		if err != nil {
			t.Fatalf("handoff failed: %v", err)
		}
		if handoff.QuotationID != 2 || handoff.ComparisonID != cmp.ID {
			t.Errorf("handoff = %+v, want quotation 2 / comparison %s", handoff, cmp.ID)
		}
	})

	t.Run("draft triggers submit then refuses while pending", func(t *testing.T) {
		store := &fakeComparisonStore{}
		svc := NewLifecycleService(store, &fakeQuotationSource{quotations: nQuotations(3)})
		cmp := draftComparison()

		_, err := svc.PurchaseOrderHandoff(cmp, true, 4)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("err = %v, want ValidationError (awaiting approval)", err)
		}
		if store.submitted == nil {
			t.Error("the full submit flow must have run first")
		}
		if cmp.Status != models.ComparisonStatusSubmitted {
			t.Errorf("status = %q, want Submitted", cmp.Status)
		}
	})

	t.Run("draft failing a gate surfaces the gate error", func(t *testing.T) {
		svc := NewLifecycleService(&fakeComparisonStore{}, &fakeQuotationSource{quotations: nQuotations(2)})
		cmp := draftComparison()

		_, err := svc.PurchaseOrderHandoff(cmp, true, 4)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
		if cmp.Status != models.ComparisonStatusDraft {
			t.Errorf("status = %q, want Draft", cmp.Status)
		}
	})

	t.Run("rejected comparison refused", func(t *testing.T) {
		svc := NewLifecycleService(&fakeComparisonStore{}, &fakeQuotationSource{})
		cmp := draftComparison()
		cmp.Status = models.ComparisonStatusRejected

		if _, err := svc.PurchaseOrderHandoff(cmp, true, 4); err == nil {
			t.Error("rejected comparison must not hand off to PO creation")
		}
	})
}
