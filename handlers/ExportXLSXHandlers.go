package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"procurement/repository"
)

var comparisonSheetHeaders = []string{
	"Quotation No", "Supplier", "Unit Price", "Total Price", "Delivery Days",
	"Delivery Cost", "Other Costs", "Payment Terms", "Validity", "Grade",
	"Price Rating", "Quality Rating", "Overall Score",
}

// ExportComparisonXLSXHandler godoc
// @Summary      Export a comparison matrix as XLSX
// @Tags         comparisons
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id  path  string  true  "Comparison ID"
// @Success      200  {file}    file  "XLSX file"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/comparisons/{id}/export/xlsx [get]
func ExportComparisonXLSXHandler(db *sql.DB, repo *repository.ComparisonRepository) gin.HandlerFunc {
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

		f := excelize.NewFile()
		sheet := "Comparison"
		f.SetSheetName("Sheet1", sheet)

		headerStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
			Alignment: &excelize.Alignment{
				Horizontal: "center",
				Vertical:   "center",
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build spreadsheet"})
			return
		}
		selectedStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build spreadsheet"})
			return
		}

		f.SetCellValue(sheet, "A1", fmt.Sprintf("Quotation Comparison - PR #%d", cmp.PRID))
		f.SetCellValue(sheet, "A2", "Date: "+cmp.ComparisonDate.Format("02-Jan-2006"))
		f.SetCellValue(sheet, "A3", "Status: "+cmp.Status)

		headerRow := 5
		for i, h := range comparisonSheetHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
			f.SetCellValue(sheet, cell, h)
		}
		firstHeader, _ := excelize.CoordinatesToCellName(1, headerRow)
		lastHeader, _ := excelize.CoordinatesToCellName(len(comparisonSheetHeaders), headerRow)
		f.SetCellStyle(sheet, firstHeader, lastHeader, headerStyle)

		for i, d := range cmp.Details {
			row := headerRow + 1 + i
			validity := ""
			if d.ValidityDate != nil {
				validity = d.ValidityDate.Format("02-Jan-2006")
			}
			values := []interface{}{
				d.QuotationNumber, d.SupplierName, d.UnitPrice, d.TotalPrice,
				d.DeliveryDays, d.DeliveryCost, d.OtherCosts, d.PaymentTerms,
				validity, d.Grade, d.PriceRating, d.QualityRating, d.OverallScore,
			}
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			if d.QuotationID == cmp.SelectedQuotationID {
				first, _ := excelize.CoordinatesToCellName(1, row)
				last, _ := excelize.CoordinatesToCellName(len(values), row)
				f.SetCellStyle(sheet, first, last, selectedStyle)
			}
		}

		summaryRow := headerRow + len(cmp.Details) + 3
		cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
		f.SetCellValue(sheet, cell, "Selection reason: "+cmp.SelectionReason)

		f.SetColWidth(sheet, "A", "B", 24)
		f.SetColWidth(sheet, "C", "M", 14)

		buf, err := f.WriteToBuffer()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write spreadsheet"})
			return
		}

		fileName := fmt.Sprintf("comparison_pr%d_%s.xlsx", cmp.PRID, time.Now().Format("20060102"))
		c.Header("Content-Disposition", "attachment; filename="+fileName)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}
}
