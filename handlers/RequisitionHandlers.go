package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"procurement/repository"
)

// GetApprovedRequisitionsHandler godoc
// @Summary      List requisitions eligible for comparison
// @Tags         requisitions
// @Produce      json
// @Success      200  {array}   models.PurchaseRequisition
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/requisitions [get]
func GetApprovedRequisitionsHandler(db *sql.DB) gin.HandlerFunc {
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

		prs, err := repository.GetApprovedRequisitions(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requisitions"})
			return
		}
		c.JSON(http.StatusOK, prs)
	}
}

// GetRequisitionHandler godoc
// @Summary      Get one requisition with its line items
// @Tags         requisitions
// @Produce      json
// @Param        pr_id  path  int  true  "Requisition ID"
// @Success      200  {object}  models.PurchaseRequisition
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/requisitions/{pr_id} [get]
func GetRequisitionHandler(db *sql.DB) gin.HandlerFunc {
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

		pr, err := repository.GetRequisitionByID(db, prID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Requisition not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requisition"})
			return
		}
		c.JSON(http.StatusOK, pr)
	}
}
