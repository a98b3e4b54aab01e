package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"procurement/models"
	"procurement/repository"
	"procurement/services"
)

// CreatePurchaseOrderHandler godoc
// @Summary      Raise a purchase order from an approved comparison
// @Description  A draft comparison is first taken through the full submit flow;
// @Description  if it is still awaiting approval the hand-off is refused. The
// @Description  PO is created against the selected quotation's supplier.
// @Tags         purchase-orders
// @Produce      json
// @Param        id  path  string  true  "Comparison ID"
// @Success      201  {object}  models.PurchaseOrder
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/comparisons/{id}/purchase-order [post]
func CreatePurchaseOrderHandler(db *sql.DB, repo *repository.ComparisonRepository) gin.HandlerFunc {
	lifecycle := services.NewLifecycleService(repo, repo)

	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session ID required"})
			return
		}
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		// The hand-off may run the submit flow on a draft, so it takes the
		// same per-session latch as the save and submit routes.
		ws := workspaceFor(sessionID)
		if err := ws.BeginTransition(); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Another save or submit is already in progress"})
			return
		}
		defer ws.EndTransition()

		cmp, err := repo.GetByID(c.Param("id"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comparison"})
			return
		}

		requireThree, err := repository.GetSettingBool(db, requireThreeSettingKey, true)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read submission policy"})
			return
		}

		handoff, err := lifecycle.PurchaseOrderHandoff(cmp, requireThree, session.UserID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		po := models.PurchaseOrder{
			PONumber:     generatePONumber(),
			ComparisonID: handoff.ComparisonID,
			QuotationID:  handoff.QuotationID,
			SupplierID:   cmp.SelectedSupplierID,
			PRID:         cmp.PRID,
			TotalAmount:  selectedLineTotal(cmp),
			Status:       "open",
			CreatedBy:    userName,
			CreatedAt:    time.Now(),
		}
		if err := repository.CreatePurchaseOrder(db, &po); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create purchase order"})
			return
		}

		_ = SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     userName,
			HostName:     session.HostName,
			EventContext: "PurchaseOrder",
			IPAddress:    session.IPAddress,
			Description:  "Created purchase order " + po.PONumber,
			EventName:    "CreatePO",
			PRID:         cmp.PRID,
		})

		c.JSON(http.StatusCreated, po)
	}
}

func generatePONumber() string {
	return "PO-" + strings.ToUpper(uuid.New().String()[:8])
}

// selectedLineTotal is the landed cost of the winning quotation: quoted total
// plus its reconciled delivery and other charges.
func selectedLineTotal(cmp *models.QuotationComparison) float64 {
	for _, d := range cmp.Details {
		if d.QuotationID == cmp.SelectedQuotationID {
			return d.TotalPrice + d.DeliveryCost + d.OtherCosts
		}
	}
	return 0
}

// GetPurchaseOrderHandler godoc
// @Summary      Get one purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id  path  int  true  "Purchase order ID"
// @Success      200  {object}  models.PurchaseOrder
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func GetPurchaseOrderHandler(db *sql.DB) gin.HandlerFunc {
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

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase order ID"})
			return
		}

		po, err := repository.GetPurchaseOrderByID(db, id)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchase order"})
			return
		}
		c.JSON(http.StatusOK, po)
	}
}
