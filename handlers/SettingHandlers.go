package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"procurement/models"
	"procurement/repository"
)

// GetRequireThreeSettingHandler godoc
// @Summary      Read the minimum-quotation submission policy
// @Description  When the flag is on (the default, including when the setting
// @Description  row is absent) a comparison needs at least three valid
// @Description  quotations before it can be submitted.
// @Tags         settings
// @Produce      json
// @Success      200  {object}  object
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/settings/require-three-quotations [get]
func GetRequireThreeSettingHandler(db *sql.DB) gin.HandlerFunc {
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

		value, err := repository.GetSettingBool(db, requireThreeSettingKey, true)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read setting"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": requireThreeSettingKey, "value": value})
	}
}

// UpdateRequireThreeSettingHandler godoc
// @Summary      Update the minimum-quotation submission policy
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  object  true  "New value, e.g. {\"value\": false}"
// @Success      200  {object}  models.MessageResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/settings/require-three-quotations [put]
func UpdateRequireThreeSettingHandler(db *sql.DB) gin.HandlerFunc {
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

		var req struct {
			Value *bool `json:"value" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		value := "false"
		if *req.Value {
			value = "true"
		}
		if err := repository.UpsertSetting(db, requireThreeSettingKey, value, userName); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update setting"})
			return
		}

		_ = SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     userName,
			HostName:     session.HostName,
			EventContext: "Settings",
			IPAddress:    session.IPAddress,
			Description:  "Set " + requireThreeSettingKey + " to " + value,
			EventName:    "UpdateSetting",
		})

		c.JSON(http.StatusOK, models.MessageResponse{Message: "Setting updated"})
	}
}
