package services

import (
	"errors"
	"testing"

	"procurement/models"
)

func TestStaleQuotationLoadDiscarded(t *testing.T) {
	s := NewBuyerSession()

	oldToken := s.SelectRequisition(7)
	newToken := s.SelectRequisition(8)

	// the load for PR 7 resolves after PR 8 was selected
	err := s.ApplyQuotationLoad(oldToken, []models.ComparisonDetail{{QuotationID: 1}})
	if !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("err = %v, want ErrStaleResponse", err)
	}
	if len(s.Details()) != 0 {
		t.Error("stale load must not overwrite workspace state")
	}

	if err := s.ApplyQuotationLoad(newToken, []models.ComparisonDetail{{QuotationID: 2}}); err != nil {
		t.Fatalf("current load rejected: %v", err)
	}
	details := s.Details()
	if len(details) != 1 || details[0].QuotationID != 2 {
		t.Errorf("workspace holds %+v, want the PR 8 load", details)
	}
	if s.CurrentPR() != 8 {
		t.Errorf("current PR = %d, want 8", s.CurrentPR())
	}
}

func TestSelectRequisitionClearsDetails(t *testing.T) {
	s := NewBuyerSession()
	token := s.SelectRequisition(7)
	if err := s.ApplyQuotationLoad(token, []models.ComparisonDetail{{QuotationID: 1}}); err != nil {
		t.Fatalf("load rejected: %v", err)
	}

	s.SelectRequisition(9)
	if len(s.Details()) != 0 {
		t.Error("switching requisitions must clear the previous workspace")
	}
}

func TestTransitionLatch(t *testing.T) {
	s := NewBuyerSession()

	if err := s.BeginTransition(); err != nil {
		t.Fatalf("first transition refused: %v", err)
	}
	if err := s.BeginTransition(); !errors.Is(err, ErrTransitionInFlight) {
		t.Fatalf("err = %v, want ErrTransitionInFlight", err)
	}

	s.EndTransition()
	if err := s.BeginTransition(); err != nil {
		t.Errorf("latch not released: %v", err)
	}
}
