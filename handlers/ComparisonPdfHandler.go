package handlers

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"procurement/repository"
	"procurement/utils"
)

// ExportComparisonPDFHandler godoc
// @Summary      Export a comparison summary as PDF
// @Tags         comparisons
// @Produce      application/pdf
// @Param        id  path  string  true  "Comparison ID"
// @Success      200  {file}    file  "PDF file"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/comparisons/{id}/export/pdf [get]
func ExportComparisonPDFHandler(db *sql.DB, repo *repository.ComparisonRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session ID required"})
			return
		}
		if _, _, err := GetSessionDetails(db, sessionID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		cmp, err := repo.GetByID(c.Param("id"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comparison"})
			return
		}

		ctx, cancel := utils.GetFastQueryContext(c.Request.Context())
		defer cancel()

		var prNumber, prTitle string
		err = db.QueryRowContext(ctx, `SELECT pr_number, title FROM purchase_requisitions WHERE id = $1`, cmp.PRID).
			Scan(&prNumber, &prTitle)
		if err != nil && err != sql.ErrNoRows {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requisition"})
			return
		}

		titleCaser := cases.Title(language.Und)

		pdf := gofpdf.New("L", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)

		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(277, 10, "QUOTATION COMPARISON")
		pdf.Ln(12)

		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(140, 6, fmt.Sprintf("Requisition: %s", prNumber))
		pdf.Cell(137, 6, fmt.Sprintf("Date: %s", cmp.ComparisonDate.Format("02-Jan-2006")))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(140, 6, prTitle)
		pdf.Cell(137, 6, fmt.Sprintf("Status: %s", titleCaser.String(strings.ToLower(cmp.Status))))
		pdf.Ln(10)

		// Table header
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(35, 8, "Quotation", "1", 0, "L", true, 0, "")
		pdf.CellFormat(55, 8, "Supplier", "1", 0, "L", true, 0, "")
		pdf.CellFormat(28, 8, "Total Price", "1", 0, "C", true, 0, "")
		pdf.CellFormat(22, 8, "Days", "1", 0, "C", true, 0, "")
		pdf.CellFormat(28, 8, "Delivery", "1", 0, "C", true, 0, "")
		pdf.CellFormat(28, 8, "Other", "1", 0, "C", true, 0, "")
		pdf.CellFormat(27, 8, "Price", "1", 0, "C", true, 0, "")
		pdf.CellFormat(27, 8, "Quality", "1", 0, "C", true, 0, "")
		pdf.CellFormat(27, 8, "Overall", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 9)
		for _, d := range cmp.Details {
			selected := d.QuotationID == cmp.SelectedQuotationID
			if selected {
				pdf.SetFont("Arial", "B", 9)
				pdf.SetFillColor(198, 239, 206)
			}
			pdf.CellFormat(35, 8, d.QuotationNumber, "1", 0, "L", selected, 0, "")
			pdf.CellFormat(55, 8, d.SupplierName, "1", 0, "L", selected, 0, "")
			pdf.CellFormat(28, 8, fmt.Sprintf("%.2f", d.TotalPrice), "1", 0, "R", selected, 0, "")
			pdf.CellFormat(22, 8, fmt.Sprintf("%d", d.DeliveryDays), "1", 0, "C", selected, 0, "")
			pdf.CellFormat(28, 8, fmt.Sprintf("%.2f", d.DeliveryCost), "1", 0, "R", selected, 0, "")
			pdf.CellFormat(28, 8, fmt.Sprintf("%.2f", d.OtherCosts), "1", 0, "R", selected, 0, "")
			pdf.CellFormat(27, 8, fmt.Sprintf("%.1f", d.PriceRating), "1", 0, "C", selected, 0, "")
			pdf.CellFormat(27, 8, fmt.Sprintf("%.1f", d.QualityRating), "1", 0, "C", selected, 0, "")
			pdf.CellFormat(27, 8, fmt.Sprintf("%.1f", d.OverallScore), "1", 1, "C", selected, 0, "")
			if selected {
				pdf.SetFont("Arial", "", 9)
			}
		}

		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(277, 8, "Selection Reason:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(277, 6, cmp.SelectionReason, "", "L", false)

		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
			return
		}

		fileName := fmt.Sprintf("comparison_pr%d_%s.pdf", cmp.PRID, time.Now().Format("20060102"))
		c.Header("Content-Disposition", "attachment; filename="+fileName)
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	}
}
