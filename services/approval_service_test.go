package services

import (
	"errors"
	"testing"

	"procurement/models"
)

type fakeApprovalStore struct {
	err error

	approvalID string
	actorID    int
	decision   string
	comments   string
	calls      int
}

func (f *fakeApprovalStore) Resolve(approvalID string, actorID int, decision, comments string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.approvalID = approvalID
	f.actorID = actorID
	f.decision = decision
	f.comments = comments
	return nil
}

func TestTakeActionForwardsDecision(t *testing.T) {
	store := &fakeApprovalStore{}
	svc := NewApprovalService(store)

	if err := svc.TakeAction("apr-1", 9, models.ApprovalDecisionApproved, "within budget"); err != nil {
		t.Fatalf("TakeAction failed: %v", err)
	}
	if store.approvalID != "apr-1" || store.actorID != 9 ||
		store.decision != models.ApprovalDecisionApproved || store.comments != "within budget" {
		t.Errorf("decision not forwarded verbatim: %+v", store)
	}
}

func TestTakeActionValidation(t *testing.T) {
	tests := []struct {
		name       string
		approvalID string
		decision   string
	}{
		{"missing approval id", "", models.ApprovalDecisionApproved},
		{"unknown decision", "apr-1", "Maybe"},
		{"lowercase decision rejected", "apr-1", "approved"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeApprovalStore{}
			svc := NewApprovalService(store)

			err := svc.TakeAction(tt.approvalID, 9, tt.decision, "")
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if store.calls != 0 {
				t.Error("store must not be called on validation failure")
			}
		})
	}
}

func TestTakeActionUpstreamFailure(t *testing.T) {
	cause := errors.New("workflow service unavailable")
	svc := NewApprovalService(&fakeApprovalStore{err: cause})

	err := svc.TakeAction("apr-1", 9, models.ApprovalDecisionRejected, "")
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("UpstreamError must wrap the collaborator failure")
	}
}
