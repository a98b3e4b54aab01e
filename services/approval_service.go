package services

import (
	"procurement/models"
)

// ApprovalStore is the external approval workflow collaborator. Resolving a
// request records the decision; the comparison's status reflects it on the
// next read.
type ApprovalStore interface {
	Resolve(approvalID string, actorID int, decision, comments string) error
}

// ApprovalService relays an external approve/reject decision into the
// approval workflow. It never flips comparison status locally; it only
// triggers the external transition and reports success or failure.
type ApprovalService struct {
	store ApprovalStore
}

func NewApprovalService(store ApprovalStore) *ApprovalService {
	return &ApprovalService{store: store}
}

// TakeAction forwards a decision against an approval request.
func (s *ApprovalService) TakeAction(approvalID string, actorID int, decision, comments string) error {
	if approvalID == "" {
		return &ValidationError{Msg: "approval id is required"}
	}
	if decision != models.ApprovalDecisionApproved && decision != models.ApprovalDecisionRejected {
		return &ValidationError{Msg: "decision must be Approved or Rejected"}
	}
	if err := s.store.Resolve(approvalID, actorID, decision, comments); err != nil {
		return &UpstreamError{Op: "record approval decision", Err: err}
	}
	return nil
}
