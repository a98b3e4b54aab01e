package services

import (
	"math"
	"sort"
	"time"

	"procurement/models"
)

// Selection heuristic names accepted by ApplyHeuristic.
const (
	HeuristicLowestPrice     = "lowest_price"
	HeuristicFastestDelivery = "fastest_delivery"
	HeuristicHighestScore    = "highest_score"
)

// Justification strings recorded by the heuristics.
const (
	ReasonLowestPrice     = "lowest available price"
	ReasonFastestDelivery = "fastest delivery time"
	ReasonHighestScore    = "best combined technical/financial rating"
)

// deliveryDaysSentinel sorts quotations with no delivery estimate last.
const deliveryDaysSentinel = int(^uint32(0) >> 1)

// truncateToDay drops the time-of-day component so validity checks work at
// day granularity.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// round1 rounds to one decimal place, half away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// EligibleQuotations returns the quotations linked to the requisition through
// its RFQs whose validity date is absent or not yet passed. A quotation whose
// validity date equals today is still eligible; one that expired yesterday is
// excluded entirely, never shown and never scored.
func EligibleQuotations(prID int, rfqs []models.RFQ, quotations []models.SupplierQuotation, now time.Time) []models.SupplierQuotation {
	today := truncateToDay(now)

	rfqIDs := make(map[int]bool, len(rfqs))
	for _, r := range rfqs {
		if r.PRID == prID {
			rfqIDs[r.ID] = true
		}
	}

	var eligible []models.SupplierQuotation
	for _, q := range quotations {
		if !rfqIDs[q.RFQID] {
			continue
		}
		if q.ValidityDate != nil && truncateToDay(*q.ValidityDate).Before(today) {
			continue
		}
		eligible = append(eligible, q)
	}
	return eligible
}

// ReconcileCosts resolves the delivery/other cost breakdown of a quotation.
// Suppliers either itemize freight and other charges, or bury them inside one
// lump total. When both declared fields are zero, the delivery cost is
// back-computed as the gap between the total amount and the line-item sum
// (floored at zero), with other costs set to zero. Declared values are used
// unchanged regardless of totals.
func ReconcileCosts(q models.SupplierQuotation) (deliveryCost, otherCosts float64) {
	if q.DeliveryCost != 0 || q.OtherCosts != 0 {
		return q.DeliveryCost, q.OtherCosts
	}

	var lineSum float64
	for _, item := range q.Items {
		lineSum += item.TotalPrice
	}
	return math.Max(0, q.TotalAmount-lineSum), 0
}

// representativeUnitPrice uses the first quoted line's unit price. A quotation
// with no line items falls back to its total amount so the line stays
// comparable instead of poisoning the price axis with a zero.
func representativeUnitPrice(q models.SupplierQuotation) float64 {
	if len(q.Items) == 0 {
		return q.TotalAmount
	}
	return q.Items[0].UnitPrice
}

// representativeGrade picks the first declared polymer grade, if any.
func representativeGrade(q models.SupplierQuotation) string {
	for _, item := range q.Items {
		if item.PolymerGrade != "" {
			return item.PolymerGrade
		}
	}
	return ""
}

// BuildComparisonDetails assembles one comparison line per eligible quotation
// for a first load (no existing details) and scores the set. Quotation order
// is preserved so the heuristics' stability guarantees hold.
func BuildComparisonDetails(prID int, rfqs []models.RFQ, quotations []models.SupplierQuotation, now time.Time) []models.ComparisonDetail {
	eligible := EligibleQuotations(prID, rfqs, quotations, now)

	details := make([]models.ComparisonDetail, 0, len(eligible))
	for _, q := range eligible {
		delivery, other := ReconcileCosts(q)
		details = append(details, models.ComparisonDetail{
			QuotationID:     q.ID,
			QuotationNumber: q.QuotationNumber,
			SupplierID:      q.SupplierID,
			SupplierName:    q.SupplierName,
			UnitPrice:       representativeUnitPrice(q),
			TotalPrice:      q.TotalAmount,
			DeliveryDays:    q.DeliveryDays,
			DeliveryCost:    delivery,
			OtherCosts:      other,
			PaymentTerms:    q.PaymentTerms,
			ValidityDate:    q.ValidityDate,
			Grade:           representativeGrade(q),
			OverallScore:    0,
		})
	}

	ScoreDetails(details)
	return details
}

// RefreshCosts re-runs cost reconciliation against current quotation data on
// reload of an existing comparison. Only the cost fields the reconciliation
// owns are touched; user edits to delivery days, prices or manual fields
// survive. Idempotent.
func RefreshCosts(details []models.ComparisonDetail, quotations []models.SupplierQuotation) {
	byID := make(map[int]models.SupplierQuotation, len(quotations))
	for _, q := range quotations {
		byID[q.ID] = q
	}

	for i := range details {
		q, ok := byID[details[i].QuotationID]
		if !ok {
			continue
		}
		delivery, other := ReconcileCosts(q)
		details[i].DeliveryCost = delivery
		details[i].OtherCosts = other
	}
}

// ScoreDetails recomputes priceRating, qualityRating and overallScore for the
// whole detail set, in place. Ratings are relative to the best (minimum)
// strictly-positive value present: the cheapest quotation scores exactly 10
// on the price axis, the fastest scores 10 on the delivery axis, everything
// else proportionally lower. A missing or non-positive source value scores 0
// on that axis. All three figures are rounded to one decimal place.
//
// The recompute is always full, never incremental: changing one supplier's
// price can move every other supplier's relative rating.
func ScoreDetails(details []models.ComparisonDetail) {
	var minPrice, minDays float64
	for _, d := range details {
		if d.TotalPrice > 0 && (minPrice == 0 || d.TotalPrice < minPrice) {
			minPrice = d.TotalPrice
		}
		if d.DeliveryDays > 0 && (minDays == 0 || float64(d.DeliveryDays) < minDays) {
			minDays = float64(d.DeliveryDays)
		}
	}

	for i := range details {
		d := &details[i]

		d.PriceRating = 0
		if minPrice > 0 && d.TotalPrice > 0 {
			d.PriceRating = round1(minPrice / d.TotalPrice * 10)
		}

		d.QualityRating = 0
		if minDays > 0 && d.DeliveryDays > 0 {
			d.QualityRating = round1(minDays / float64(d.DeliveryDays) * 10)
		}

		d.OverallScore = round1((d.PriceRating + d.QualityRating) / 2)
	}
}

// ApplyHeuristic runs the named selection heuristic over the comparison's
// current detail list and records the winning quotation id plus a
// human-readable justification. Detail fields are never mutated; on an empty
// detail list or an unknown heuristic name nothing changes and ok is false.
func ApplyHeuristic(cmp *models.QuotationComparison, heuristic string) (ok bool) {
	if len(cmp.Details) == 0 {
		return false
	}

	var winner int
	var reason string
	switch heuristic {
	case HeuristicLowestPrice:
		winner = selectLowestPrice(cmp.Details)
		reason = ReasonLowestPrice
	case HeuristicFastestDelivery:
		winner = selectFastestDelivery(cmp.Details)
		reason = ReasonFastestDelivery
	case HeuristicHighestScore:
		winner = selectHighestScore(cmp.Details)
		reason = ReasonHighestScore
	default:
		return false
	}

	cmp.SelectedQuotationID = winner
	cmp.SelectionReason = reason
	return true
}

// selectLowestPrice picks the first detail after a stable ascending sort by
// total price. Ties keep input order, so the earliest-listed supplier wins.
func selectLowestPrice(details []models.ComparisonDetail) int {
	sorted := make([]models.ComparisonDetail, len(details))
	copy(sorted, details)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalPrice < sorted[j].TotalPrice
	})
	return sorted[0].QuotationID
}

// selectFastestDelivery sorts ascending by delivery days; a missing estimate
// sorts last via the sentinel.
func selectFastestDelivery(details []models.ComparisonDetail) int {
	sorted := make([]models.ComparisonDetail, len(details))
	copy(sorted, details)
	sort.SliceStable(sorted, func(i, j int) bool {
		return effectiveDays(sorted[i]) < effectiveDays(sorted[j])
	})
	return sorted[0].QuotationID
}

func effectiveDays(d models.ComparisonDetail) int {
	if d.DeliveryDays <= 0 {
		return deliveryDaysSentinel
	}
	return d.DeliveryDays
}

// selectHighestScore sorts descending by overall score.
func selectHighestScore(details []models.ComparisonDetail) int {
	sorted := make([]models.ComparisonDetail, len(details))
	copy(sorted, details)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OverallScore > sorted[j].OverallScore
	})
	return sorted[0].QuotationID
}
