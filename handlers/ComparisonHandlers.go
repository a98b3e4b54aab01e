package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"procurement/models"
	"procurement/repository"
	"procurement/services"
)

// requireThreeSettingKey is the policy flag behind the minimum-quotation gate.
const requireThreeSettingKey = "RequireThreeQuotations"

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Msg})
		return
	}
	var nfErr *services.NotFoundError
	if errors.As(err, &nfErr) {
		c.JSON(http.StatusNotFound, gin.H{"error": nfErr.Error()})
		return
	}
	var upErr *services.UpstreamError
	if errors.As(err, &upErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": upErr.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// Workspaces are keyed by session ID so one buyer's in-flight transition or
// superseded quotation load never affects another buyer.
var (
	workspacesMu sync.Mutex
	workspaces   = map[string]*services.BuyerSession{}
)

func workspaceFor(sessionID string) *services.BuyerSession {
	workspacesMu.Lock()
	defer workspacesMu.Unlock()
	ws, ok := workspaces[sessionID]
	if !ok {
		ws = services.NewBuyerSession()
		workspaces[sessionID] = ws
	}
	return ws
}

// BuildComparisonHandler godoc
// @Summary      Open the comparison workspace for a requisition
// @Description  Loads the latest comparison for the requisition if one exists,
// @Description  refreshing its cost breakdown against current quotation data
// @Description  and rescoring. Otherwise assembles a fresh, unsaved detail set
// @Description  from the currently valid quotations.
// @Tags         comparisons
// @Produce      json
// @Param        pr_id  path   int   true   "Requisition ID"
// @Param        view   query  bool  false  "Open read-only"
// @Success      200  {object}  models.ComparisonBuildResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/requisitions/{pr_id}/comparison [get]
func BuildComparisonHandler(db *sql.DB, repo *repository.ComparisonRepository) gin.HandlerFunc {
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
		viewRequested := c.Query("view") == "true"
		now := time.Now()

		ws := workspaceFor(sessionID)
		loadToken := ws.SelectRequisition(prID)

		rfqs, err := repository.GetRFQsForPR(db, prID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch RFQs"})
			return
		}
		quotations, err := repository.GetQuotationsForPR(db, prID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quotations"})
			return
		}

		cmp, err := repo.GetLatestByPR(prID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comparison"})
			return
		}

		eligible := services.EligibleQuotations(prID, rfqs, quotations, now)

		if cmp == nil {
			cmp = &models.QuotationComparison{
				PRID:    prID,
				Status:  models.ComparisonStatusDraft,
				Details: services.BuildComparisonDetails(prID, rfqs, quotations, now),
			}
		} else if cmp.Status == models.ComparisonStatusDraft {
			services.RefreshCosts(cmp.Details, quotations)
			services.ScoreDetails(cmp.Details)
		}

		// The buyer switched to another requisition while this load was
		// running; the newer selection wins and this result is dropped.
		if err := ws.ApplyQuotationLoad(loadToken, cmp.Details); err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		c.JSON(http.StatusOK, models.ComparisonBuildResponse{
			Comparison:    cmp,
			EligibleCount: len(eligible),
			ViewOnly:      services.IsViewOnly(cmp, viewRequested),
		})
	}
}

// GetComparisonHandler godoc
// @Summary      Get one comparison by ID
// @Tags         comparisons
// @Produce      json
// @Param        id    path   string  true   "Comparison ID"
// @Param        view  query  bool    false  "Open read-only"
// @Success      200  {object}  object
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/comparisons/{id} [get]
func GetComparisonHandler(db *sql.DB, repo *repository.ComparisonRepository) gin.HandlerFunc {
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

		c.JSON(http.StatusOK, gin.H{
			"comparison": cmp,
			"view_only":  services.IsViewOnly(cmp, c.Query("view") == "true"),
		})
	}
}

// SaveComparisonHandler godoc
// @Summary      Create or update a comparison draft
// @Tags         comparisons
// @Accept       json
// @Produce      json
// @Param        id    path  string                        false  "Comparison ID (update)"
// @Param        body  body  models.SaveComparisonRequest  true   "Comparison draft"
// @Success      200  {object}  models.QuotationComparison
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/comparisons [post]
func SaveComparisonHandler(db *sql.DB, repo *repository.ComparisonRepository) gin.HandlerFunc {
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

		ws := workspaceFor(sessionID)
		if err := ws.BeginTransition(); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Another save or submit is already in progress"})
			return
		}
		defer ws.EndTransition()

		var req models.SaveComparisonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		cmp := comparisonFromRequest(repo, c.Param("id"), &req, userName)
		if cmp == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison not found"})
			return
		}

		services.ScoreDetails(cmp.Details)
		if err := lifecycle.Save(cmp); err != nil {
			respondServiceError(c, err)
			return
		}

		_ = SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     userName,
			HostName:     session.HostName,
			EventContext: "Comparison",
			IPAddress:    session.IPAddress,
			Description:  "Saved comparison draft for PR #" + strconv.Itoa(cmp.PRID),
			EventName:    "Save",
			PRID:         cmp.PRID,
		})

		c.JSON(http.StatusOK, cmp)
	}
}

// comparisonFromRequest merges a save request into a fresh draft or an
// existing comparison. Returns nil when an explicit id does not resolve.
func comparisonFromRequest(repo *repository.ComparisonRepository, id string, req *models.SaveComparisonRequest, userName string) *models.QuotationComparison {
	cmp := &models.QuotationComparison{
		PRID:      req.PRID,
		ItemID:    req.ItemID,
		Status:    models.ComparisonStatusDraft,
		CreatedBy: userName,
	}
	if id != "" {
		existing, err := repo.GetByID(id)
		if err != nil {
			return nil
		}
		cmp = existing
		cmp.ItemID = req.ItemID
	}
	cmp.SelectedQuotationID = req.SelectedQuotationID
	cmp.SelectionReason = req.SelectionReason
	cmp.Details = req.Details
	return cmp
}

// SubmitComparisonHandler godoc
// @Summary      Submit a comparison for approval
// @Description  Runs the submission gates (minimum-quotation policy, selection,
// @Description  reason) and raises the approval request. The approver is
// @Description  notified by email, best-effort.
// @Tags         comparisons
// @Produce      json
// @Param        id  path  string  true  "Comparison ID"
// @Success      200  {object}  models.QuotationComparison
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/comparisons/{id}/submit [post]
func SubmitComparisonHandler(db *sql.DB, repo *repository.ComparisonRepository, emailer *services.EmailService) gin.HandlerFunc {
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

		if err := lifecycle.Submit(cmp, requireThree, session.UserID); err != nil {
			respondServiceError(c, err)
			return
		}

		if approver := os.Getenv("APPROVER_EMAIL"); approver != "" {
			go func(cmp models.QuotationComparison) {
				if err := emailer.SendComparisonSubmitted(approver, &cmp); err != nil {
					log.Printf("submission notice for comparison %s failed: %v", cmp.ID, err)
				}
			}(*cmp)
		}

		_ = SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     userName,
			HostName:     session.HostName,
			EventContext: "Comparison",
			IPAddress:    session.IPAddress,
			Description:  "Submitted comparison for approval",
			EventName:    "Submit",
			PRID:         cmp.PRID,
		})

		c.JSON(http.StatusOK, cmp)
	}
}

// ApplyHeuristicHandler godoc
// @Summary      Apply a selection heuristic to a comparison draft
// @Description  Supported heuristics: lowest_price, fastest_delivery,
// @Description  highest_score. Records the winning quotation and a
// @Description  justification; the buyer can still override both.
// @Tags         comparisons
// @Produce      json
// @Param        id    path   string  true  "Comparison ID"
// @Param        name  query  string  true  "Heuristic name"
// @Success      200  {object}  models.QuotationComparison
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/comparisons/{id}/heuristic [post]
func ApplyHeuristicHandler(db *sql.DB, repo *repository.ComparisonRepository) gin.HandlerFunc {
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

		cmp, err := repo.GetByID(c.Param("id"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comparison"})
			return
		}
		if cmp.Status != models.ComparisonStatusDraft {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only a draft comparison can be changed"})
			return
		}

		name := c.Query("name")
		if !services.ApplyHeuristic(cmp, name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown heuristic or empty comparison"})
			return
		}

		if err := lifecycle.Save(cmp); err != nil {
			respondServiceError(c, err)
			return
		}

		_ = SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     userName,
			HostName:     session.HostName,
			EventContext: "Comparison",
			IPAddress:    session.IPAddress,
			Description:  "Applied heuristic " + name,
			EventName:    "ApplyHeuristic",
			PRID:         cmp.PRID,
		})

		c.JSON(http.StatusOK, cmp)
	}
}

// OverrideCostsHandler godoc
// @Summary      Override cost fields on one comparison line
// @Description  Manual edits to delivery cost, other costs or delivery days on
// @Description  a single line trigger a full rescore of every line.
// @Tags         comparisons
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "Comparison ID"
// @Param        body  body  models.DetailCostOverride  true  "Cost override"
// @Success      200  {object}  models.QuotationComparison
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/comparisons/{id}/costs [put]
func OverrideCostsHandler(db *sql.DB, repo *repository.ComparisonRepository) gin.HandlerFunc {
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

		var req models.DetailCostOverride
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
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
		if cmp.Status != models.ComparisonStatusDraft {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only a draft comparison can be changed"})
			return
		}

		applied := false
		for i := range cmp.Details {
			if cmp.Details[i].QuotationID != req.QuotationID {
				continue
			}
			if req.DeliveryCost != nil {
				cmp.Details[i].DeliveryCost = *req.DeliveryCost
			}
			if req.OtherCosts != nil {
				cmp.Details[i].OtherCosts = *req.OtherCosts
			}
			if req.DeliveryDays != nil {
				cmp.Details[i].DeliveryDays = *req.DeliveryDays
			}
			applied = true
			break
		}
		if !applied {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quotation not part of this comparison"})
			return
		}

		services.ScoreDetails(cmp.Details)

		if err := lifecycle.Save(cmp); err != nil {
			respondServiceError(c, err)
			return
		}

		_ = SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     userName,
			HostName:     session.HostName,
			EventContext: "Comparison",
			IPAddress:    session.IPAddress,
			Description:  "Edited cost breakdown and rescored",
			EventName:    "OverrideCosts",
			PRID:         cmp.PRID,
		})

		c.JSON(http.StatusOK, cmp)
	}
}

// StartRevisionHandler godoc
// @Summary      Start a new comparison after a rejection
// @Tags         comparisons
// @Produce      json
// @Param        id  path  string  true  "Rejected comparison ID"
// @Success      200  {object}  models.QuotationComparison
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/comparisons/{id}/revision [post]
func StartRevisionHandler(db *sql.DB, repo *repository.ComparisonRepository) gin.HandlerFunc {
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

		rejected, err := repo.GetByID(c.Param("id"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comparison"})
			return
		}

		draft, err := lifecycle.StartRevision(rejected, userName)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if err := lifecycle.Save(draft); err != nil {
			respondServiceError(c, err)
			return
		}

		_ = SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     userName,
			HostName:     session.HostName,
			EventContext: "Comparison",
			IPAddress:    session.IPAddress,
			Description:  "Started a new comparison after rejection",
			EventName:    "StartRevision",
			PRID:         draft.PRID,
		})

		c.JSON(http.StatusOK, draft)
	}
}
