package services

import (
	"sync"
	"sync/atomic"

	"procurement/models"
)

// BuyerSession guards one buyer's comparison workspace. Operations are
// triggered by discrete user actions; quotation loads run in the background
// and may resolve after the buyer has already moved on to another
// requisition. Each requisition selection bumps a sequence number, and a load
// carrying a stale sequence token is rejected so it cannot overwrite newer
// state. A CAS latch keeps two lifecycle transitions from being in flight at
// once for the same session.
type BuyerSession struct {
	mu           sync.Mutex
	loadSeq      int64
	currentPRID  int
	details      []models.ComparisonDetail
	transitionOn int32
}

func NewBuyerSession() *BuyerSession {
	return &BuyerSession{}
}

// SelectRequisition switches the workspace to another requisition and returns
// the token background loads for it must carry. Any load started for a
// previous selection becomes stale immediately.
func (s *BuyerSession) SelectRequisition(prID int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPRID = prID
	s.details = nil
	return atomic.AddInt64(&s.loadSeq, 1)
}

// CurrentPR returns the requisition the workspace is on.
func (s *BuyerSession) CurrentPR() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPRID
}

// ApplyQuotationLoad installs the details produced by a background load.
// A stale token returns ErrStaleResponse and leaves state untouched; callers
// discard that silently rather than surfacing it.
func (s *BuyerSession) ApplyQuotationLoad(token int64, details []models.ComparisonDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != atomic.LoadInt64(&s.loadSeq) {
		return ErrStaleResponse
	}
	s.details = details
	return nil
}

// Details returns a copy of the currently loaded comparison lines.
func (s *BuyerSession) Details() []models.ComparisonDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ComparisonDetail, len(s.details))
	copy(out, s.details)
	return out
}

// BeginTransition claims the save/submit latch. While held, further
// transitions are refused with ErrTransitionInFlight.
func (s *BuyerSession) BeginTransition() error {
	if !atomic.CompareAndSwapInt32(&s.transitionOn, 0, 1) {
		return ErrTransitionInFlight
	}
	return nil
}

// EndTransition releases the latch.
func (s *BuyerSession) EndTransition() {
	atomic.StoreInt32(&s.transitionOn, 0)
}
