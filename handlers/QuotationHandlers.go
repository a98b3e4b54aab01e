package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"procurement/repository"
	"procurement/services"
)

// GetQuotationsForPRHandler godoc
// @Summary      List valid quotations for a requisition
// @Description  Returns quotations linked to the requisition through its RFQs.
// @Description  Expired quotations are excluded unless all=true is passed.
// @Tags         quotations
// @Produce      json
// @Param        pr_id  path   int     true   "Requisition ID"
// @Param        all    query  bool    false  "Include expired quotations"
// @Success      200  {array}   models.SupplierQuotation
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/requisitions/{pr_id}/quotations [get]
func GetQuotationsForPRHandler(db *sql.DB) gin.HandlerFunc {
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

		prID, err := strconv.Atoi(c.Param("pr_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid requisition ID"})
			return
		}

		quotations, err := repository.GetQuotationsForPR(db, prID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quotations"})
			return
		}

		if c.Query("all") == "true" {
			c.JSON(http.StatusOK, quotations)
			return
		}

		rfqs, err := repository.GetRFQsForPR(db, prID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch RFQs"})
			return
		}
		c.JSON(http.StatusOK, services.EligibleQuotations(prID, rfqs, quotations, time.Now()))
	}
}
