package services

import (
	"testing"
	"time"

	"procurement/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func TestEligibleQuotations(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 42, 0, 0, time.UTC)

	rfqs := []models.RFQ{
		{ID: 1, PRID: 7},
		{ID: 2, PRID: 7},
		{ID: 3, PRID: 9},
	}

	tests := []struct {
		name      string
		quotation models.SupplierQuotation
		want      bool
	}{
		{"linked, no validity date", models.SupplierQuotation{ID: 1, RFQID: 1}, true},
		{"linked, expires today", models.SupplierQuotation{ID: 2, RFQID: 1, ValidityDate: datePtr(day(2026, 3, 10))}, true},
		{"linked, expires today with time component", models.SupplierQuotation{ID: 3, RFQID: 2, ValidityDate: datePtr(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))}, true},
		{"linked, expired yesterday", models.SupplierQuotation{ID: 4, RFQID: 1, ValidityDate: datePtr(day(2026, 3, 9))}, false},
		{"linked, valid next week", models.SupplierQuotation{ID: 5, RFQID: 2, ValidityDate: datePtr(day(2026, 3, 17))}, true},
		{"rfq of another requisition", models.SupplierQuotation{ID: 6, RFQID: 3}, false},
		{"unknown rfq", models.SupplierQuotation{ID: 7, RFQID: 42}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EligibleQuotations(7, rfqs, []models.SupplierQuotation{tt.quotation}, now)
			if (len(got) == 1) != tt.want {
				t.Errorf("eligible = %v, want %v", len(got) == 1, tt.want)
			}
		})
	}
}

func TestReconcileCosts(t *testing.T) {
	tests := []struct {
		name         string
		quotation    models.SupplierQuotation
		wantDelivery float64
		wantOther    float64
	}{
		{
			name: "lump total back-computes delivery",
			quotation: models.SupplierQuotation{
				TotalAmount: 1000,
				Items:       []models.QuotationItem{{TotalPrice: 500}, {TotalPrice: 300}},
			},
			wantDelivery: 200,
			wantOther:    0,
		},
		{
			name: "declared costs used unchanged regardless of totals",
			quotation: models.SupplierQuotation{
				TotalAmount:  1000,
				DeliveryCost: 50,
				OtherCosts:   10,
				Items:        []models.QuotationItem{{TotalPrice: 800}},
			},
			wantDelivery: 50,
			wantOther:    10,
		},
		{
			name: "only other costs declared",
			quotation: models.SupplierQuotation{
				TotalAmount: 1000,
				OtherCosts:  25,
				Items:       []models.QuotationItem{{TotalPrice: 975}},
			},
			wantDelivery: 0,
			wantOther:    25,
		},
		{
			name: "line items exceed total floors at zero",
			quotation: models.SupplierQuotation{
				TotalAmount: 700,
				Items:       []models.QuotationItem{{TotalPrice: 800}},
			},
			wantDelivery: 0,
			wantOther:    0,
		},
		{
			name:         "no line items",
			quotation:    models.SupplierQuotation{TotalAmount: 900},
			wantDelivery: 900,
			wantOther:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivery, other := ReconcileCosts(tt.quotation)
			if delivery != tt.wantDelivery || other != tt.wantOther {
				t.Errorf("ReconcileCosts() = (%v, %v), want (%v, %v)",
					delivery, other, tt.wantDelivery, tt.wantOther)
			}
		})
	}
}

func TestBuildComparisonDetails(t *testing.T) {
	now := day(2026, 3, 10)
	rfqs := []models.RFQ{{ID: 1, PRID: 7}}
	quotations := []models.SupplierQuotation{
		{
			ID: 11, QuotationNumber: "SQ-1", RFQID: 1, SupplierID: 100, SupplierName: "Apex",
			TotalAmount: 1000, DeliveryDays: 5, PaymentTerms: "Net 30",
			Items: []models.QuotationItem{{UnitPrice: 9.5, TotalPrice: 950, PolymerGrade: "PE-100"}},
		},
		{
			// no line items: unit price falls back to the total amount
			ID: 12, QuotationNumber: "SQ-2", RFQID: 1, SupplierID: 101, SupplierName: "Borex",
			TotalAmount: 800, DeliveryDays: 9,
		},
	}

	details := BuildComparisonDetails(7, rfqs, quotations, now)
	if len(details) != 2 {
		t.Fatalf("got %d details, want 2", len(details))
	}

	first := details[0]
	if first.QuotationID != 11 || first.SupplierID != 100 || first.UnitPrice != 9.5 ||
		first.TotalPrice != 1000 || first.DeliveryDays != 5 || first.Grade != "PE-100" {
		t.Errorf("first detail not assembled from quotation: %+v", first)
	}
	if first.DeliveryCost != 50 {
		t.Errorf("first detail delivery cost = %v, want back-computed 50", first.DeliveryCost)
	}

	second := details[1]
	if second.UnitPrice != 800 {
		t.Errorf("zero-line-item unit price = %v, want total amount 800", second.UnitPrice)
	}

	// the build hands straight to the scoring engine
	if second.PriceRating != 10.0 {
		t.Errorf("cheapest detail priceRating = %v, want 10.0", second.PriceRating)
	}
	if first.QualityRating != 10.0 {
		t.Errorf("fastest detail qualityRating = %v, want 10.0", first.QualityRating)
	}
}

func TestBuildComparisonDetailsEmpty(t *testing.T) {
	details := BuildComparisonDetails(7, nil, nil, day(2026, 3, 10))
	if len(details) != 0 {
		t.Fatalf("got %d details for a requisition with no quotations, want 0", len(details))
	}
}

func TestRefreshCostsPreservesUserEdits(t *testing.T) {
	details := []models.ComparisonDetail{
		{QuotationID: 11, TotalPrice: 1000, DeliveryDays: 4, DeliveryCost: 999, OtherCosts: 999, UnitPrice: 9.5},
	}
	quotations := []models.SupplierQuotation{
		{ID: 11, TotalAmount: 1000, Items: []models.QuotationItem{{TotalPrice: 800}}},
	}

	RefreshCosts(details, quotations)

	if details[0].DeliveryCost != 200 || details[0].OtherCosts != 0 {
		t.Errorf("costs = (%v, %v), want reconciled (200, 0)",
			details[0].DeliveryCost, details[0].OtherCosts)
	}
	if details[0].DeliveryDays != 4 || details[0].UnitPrice != 9.5 {
		t.Errorf("user-owned fields were touched: %+v", details[0])
	}

	// idempotent
	RefreshCosts(details, quotations)
	if details[0].DeliveryCost != 200 || details[0].OtherCosts != 0 {
		t.Errorf("second reconciliation changed costs: %+v", details[0])
	}
}

func TestScoreDetails(t *testing.T) {
	details := []models.ComparisonDetail{
		{QuotationID: 1, TotalPrice: 1000, DeliveryDays: 5},
		{QuotationID: 2, TotalPrice: 900, DeliveryDays: 7},
		{QuotationID: 3, TotalPrice: 1100, DeliveryDays: 3},
		{QuotationID: 4, TotalPrice: 950, DeliveryDays: 6},
	}

	ScoreDetails(details)

	wantPrice := []float64{9.0, 10.0, 8.2, 9.5}
	wantQuality := []float64{6.0, 4.3, 10.0, 5.0}
	for i, d := range details {
		if d.PriceRating != wantPrice[i] {
			t.Errorf("detail %d priceRating = %v, want %v", d.QuotationID, d.PriceRating, wantPrice[i])
		}
		if d.QualityRating != wantQuality[i] {
			t.Errorf("detail %d qualityRating = %v, want %v", d.QuotationID, d.QualityRating, wantQuality[i])
		}
		if d.PriceRating < 0 || d.PriceRating > 10 || d.QualityRating < 0 || d.QualityRating > 10 ||
			d.OverallScore < 0 || d.OverallScore > 10 {
			t.Errorf("detail %d rating out of [0,10]: %+v", d.QuotationID, d)
		}
	}

	if details[0].OverallScore != 7.5 {
		t.Errorf("detail 1 overallScore = %v, want 7.5", details[0].OverallScore)
	}
	if details[2].OverallScore != 9.1 {
		t.Errorf("detail 3 overallScore = %v, want 9.1", details[2].OverallScore)
	}
}

func TestScoreDetailsIdempotent(t *testing.T) {
	details := []models.ComparisonDetail{
		{QuotationID: 1, TotalPrice: 333, DeliveryDays: 11},
		{QuotationID: 2, TotalPrice: 299, DeliveryDays: 14},
		{QuotationID: 3, TotalPrice: 512},
	}

	ScoreDetails(details)
	snapshot := make([]models.ComparisonDetail, len(details))
	copy(snapshot, details)

	ScoreDetails(details)
	for i := range details {
		if details[i] != snapshot[i] {
			t.Errorf("rescoring an unchanged set moved detail %d: %+v -> %+v",
				details[i].QuotationID, snapshot[i], details[i])
		}
	}
}

func TestScoreDetailsMissingValues(t *testing.T) {
	details := []models.ComparisonDetail{
		{QuotationID: 1, TotalPrice: 0, DeliveryDays: 0},
		{QuotationID: 2, TotalPrice: -5, DeliveryDays: -1},
	}
	ScoreDetails(details)
	for _, d := range details {
		if d.PriceRating != 0 || d.QualityRating != 0 || d.OverallScore != 0 {
			t.Errorf("non-positive inputs must score 0 on every axis: %+v", d)
		}
	}
}

func TestApplyHeuristicLowestPriceStable(t *testing.T) {
	cmp := &models.QuotationComparison{
		Details: []models.ComparisonDetail{
			{QuotationID: 1, TotalPrice: 500},
			{QuotationID: 2, TotalPrice: 300},
			{QuotationID: 3, TotalPrice: 300},
		},
	}

	if ok := ApplyHeuristic(cmp, HeuristicLowestPrice); !ok {
		t.Fatal("heuristic reported failure on a populated list")
	}
	if cmp.SelectedQuotationID != 2 {
		t.Errorf("selected %d, want 2 (first of the tied 300s in input order)", cmp.SelectedQuotationID)
	}
	if cmp.SelectionReason != ReasonLowestPrice {
		t.Errorf("reason = %q, want %q", cmp.SelectionReason, ReasonLowestPrice)
	}
}

func TestApplyHeuristicFastestDelivery(t *testing.T) {
	cmp := &models.QuotationComparison{
		Details: []models.ComparisonDetail{
			{QuotationID: 1, DeliveryDays: 0}, // no estimate sorts last
			{QuotationID: 2, DeliveryDays: 7},
			{QuotationID: 3, DeliveryDays: 5},
		},
	}

	ApplyHeuristic(cmp, HeuristicFastestDelivery)
	if cmp.SelectedQuotationID != 3 {
		t.Errorf("selected %d, want 3", cmp.SelectedQuotationID)
	}
	if cmp.SelectionReason != ReasonFastestDelivery {
		t.Errorf("reason = %q, want %q", cmp.SelectionReason, ReasonFastestDelivery)
	}
}

func TestApplyHeuristicHighestScoreEndToEnd(t *testing.T) {
	// PR with 4 valid quotations: totals [1000,900,1100,950], days [5,7,3,6].
	now := day(2026, 3, 10)
	rfqs := []models.RFQ{{ID: 1, PRID: 7}}
	quotations := []models.SupplierQuotation{
		{ID: 1, RFQID: 1, SupplierID: 10, TotalAmount: 1000, DeliveryDays: 5},
		{ID: 2, RFQID: 1, SupplierID: 20, TotalAmount: 900, DeliveryDays: 7},
		{ID: 3, RFQID: 1, SupplierID: 30, TotalAmount: 1100, DeliveryDays: 3},
		{ID: 4, RFQID: 1, SupplierID: 40, TotalAmount: 950, DeliveryDays: 6},
	}

	details := BuildComparisonDetails(7, rfqs, quotations, now)

	var minPriceDetail, minDaysDetail models.ComparisonDetail
	for _, d := range details {
		if d.QuotationID == 2 {
			minPriceDetail = d
		}
		if d.QuotationID == 3 {
			minDaysDetail = d
		}
	}
	if minPriceDetail.PriceRating != 10.0 {
		t.Errorf("minPrice detail priceRating = %v, want 10.0", minPriceDetail.PriceRating)
	}
	if minDaysDetail.QualityRating != 10.0 {
		t.Errorf("minDays detail qualityRating = %v, want 10.0", minDaysDetail.QualityRating)
	}

	// the winner must maximize the mean of its own two ratings, computed
	// from the scored set rather than assumed
	expected := details[0]
	for _, d := range details[1:] {
		if d.OverallScore > expected.OverallScore {
			expected = d
		}
	}

	cmp := &models.QuotationComparison{Details: details}
	ApplyHeuristic(cmp, HeuristicHighestScore)

	if cmp.SelectedQuotationID != expected.QuotationID {
		t.Errorf("selected %d, want %d (overall %v)", cmp.SelectedQuotationID, expected.QuotationID, expected.OverallScore)
	}
	if cmp.SelectionReason != ReasonHighestScore {
		t.Errorf("reason = %q, want %q", cmp.SelectionReason, ReasonHighestScore)
	}
}

func TestApplyHeuristicNoOps(t *testing.T) {
	empty := &models.QuotationComparison{SelectionReason: "keep me"}
	if ok := ApplyHeuristic(empty, HeuristicLowestPrice); ok {
		t.Error("heuristic on an empty detail list must be a no-op")
	}
	if empty.SelectedQuotationID != 0 || empty.SelectionReason != "keep me" {
		t.Errorf("no-op mutated the comparison: %+v", empty)
	}

	populated := &models.QuotationComparison{
		Details: []models.ComparisonDetail{{QuotationID: 1, TotalPrice: 100}},
	}
	if ok := ApplyHeuristic(populated, "coin_flip"); ok {
		t.Error("unknown heuristic must be rejected")
	}
	if populated.SelectedQuotationID != 0 {
		t.Errorf("unknown heuristic mutated the comparison: %+v", populated)
	}
}

func TestApplyHeuristicDoesNotMutateDetails(t *testing.T) {
	details := []models.ComparisonDetail{
		{QuotationID: 1, TotalPrice: 500, DeliveryDays: 2, OverallScore: 5},
		{QuotationID: 2, TotalPrice: 300, DeliveryDays: 9, OverallScore: 8},
	}
	snapshot := make([]models.ComparisonDetail, len(details))
	copy(snapshot, details)

	cmp := &models.QuotationComparison{Details: details}
	for _, h := range []string{HeuristicLowestPrice, HeuristicFastestDelivery, HeuristicHighestScore} {
		ApplyHeuristic(cmp, h)
	}

	for i := range details {
		if details[i] != snapshot[i] {
			t.Errorf("heuristics must not touch detail fields, detail %d changed: %+v", i, details[i])
		}
	}
}
