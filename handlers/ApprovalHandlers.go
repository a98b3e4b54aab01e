package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"procurement/models"
	"procurement/repository"
	"procurement/services"
	"procurement/utils"
)

// GetPendingApprovalsHandler godoc
// @Summary      List approval requests awaiting a decision
// @Tags         approvals
// @Produce      json
// @Success      200  {array}   models.ApprovalRequest
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/approvals [get]
func GetPendingApprovalsHandler(db *sql.DB, repo *repository.ComparisonRepository) gin.HandlerFunc {
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

		requests, err := repo.PendingApprovals()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list approvals"})
			return
		}
		c.JSON(http.StatusOK, requests)
	}
}

// ApprovalActionHandler godoc
// @Summary      Approve or reject a submitted comparison
// @Description  Records the decision on the approval request and moves the
// @Description  comparison to Approved or Rejected. The requesting buyer is
// @Description  notified by email, best-effort.
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "Approval request ID"
// @Param        body  body  models.ApprovalActionRequest true  "Decision"
// @Success      200  {object}  models.MessageResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/approvals/{id} [put]
func ApprovalActionHandler(db *sql.DB, repo *repository.ComparisonRepository, emailer *services.EmailService) gin.HandlerFunc {
	approvals := services.NewApprovalService(repo)

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

		var req models.ApprovalActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		approvalID := c.Param("id")
		if err := approvals.TakeAction(approvalID, session.UserID, req.Decision, req.Comments); err != nil {
			respondServiceError(c, err)
			return
		}

		notifyRequester(db, repo, emailer, approvalID, req.Decision)

		_ = SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     userName,
			HostName:     session.HostName,
			EventContext: "Approval",
			IPAddress:    session.IPAddress,
			Description:  "Comparison " + req.Decision,
			EventName:    req.Decision,
		})

		c.JSON(http.StatusOK, models.MessageResponse{Message: "Decision recorded"})
	}
}

// notifyRequester mails the approval outcome to the buyer who submitted the
// comparison. Failures are logged, never surfaced.
func notifyRequester(db *sql.DB, repo *repository.ComparisonRepository, emailer *services.EmailService, approvalID, decision string) {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	var email, comparisonID string
	err := db.QueryRowContext(ctx, `
		SELECT u.email, ar.comparison_id
		FROM approval_requests ar
		JOIN users u ON ar.requested_by = u.id
		WHERE ar.id = $1`, approvalID).Scan(&email, &comparisonID)
	if err != nil {
		log.Printf("decision notice lookup for approval %s failed: %v", approvalID, err)
		return
	}

	cmp, err := repo.GetByID(comparisonID)
	if err != nil {
		log.Printf("decision notice load for comparison %s failed: %v", comparisonID, err)
		return
	}

	go func() {
		if err := emailer.SendDecisionNotice(email, cmp, decision); err != nil {
			log.Printf("decision notice for comparison %s failed: %v", comparisonID, err)
		}
	}()
}
