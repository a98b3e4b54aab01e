package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"procurement/models"
	"procurement/storage"
	"procurement/utils"
)

// LoginHandler godoc
// @Summary      Log in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  models.LoginRequest  true  "Credentials"
// @Success      200   {object}  models.LoginResponse
// @Failure      401   {object}  models.ErrorResponse
// @Router       /api/login [post]
func LoginHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		user, err := storage.GetUserByEmail(db, req.Email)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		if user.Suspended {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
			return
		}
		if !utils.ValidatePassword(user.Password, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}

		accessToken, err := utils.GenerateJWT(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
			return
		}

		sessionID := uuid.New().String()
		refreshToken, err := utils.GenerateRefreshToken(user.Email, sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
			return
		}

		now := time.Now()
		session := models.Session{
			UserID:                user.ID,
			SessionID:             sessionID,
			HostName:              c.Request.Host,
			IPAddress:             req.IP,
			Timestamp:             now,
			ExpiresAt:             now.Add(24 * time.Hour),
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: now.Add(15 * 24 * time.Hour),
		}
		if session.IPAddress == "" {
			session.IPAddress = c.ClientIP()
		}

		if err := storage.SaveSession(db, &session, false); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		_ = SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    now,
			UserName:     user.FirstName + " " + user.LastName,
			HostName:     session.HostName,
			EventContext: "Auth",
			IPAddress:    session.IPAddress,
			Description:  "User logged in",
			EventName:    "Login",
		})

		c.JSON(http.StatusOK, models.LoginResponse{
			Message:     "Login successful",
			AccessToken: accessToken,
			SessionID:   sessionID,
			Role:        user.RoleName,
			UserID:      user.ID,
		})
	}
}

// LogoutHandler godoc
// @Summary      Log out and delete the current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  models.MessageResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/logout [post]
func LogoutHandler(db *sql.DB) gin.HandlerFunc {
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

		if err := storage.DeleteSessionByID(db, sessionID, session.UserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
			return
		}

		_ = SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     userName,
			HostName:     session.HostName,
			EventContext: "Auth",
			IPAddress:    session.IPAddress,
			Description:  "User logged out",
			EventName:    "Logout",
		})

		c.JSON(http.StatusOK, models.MessageResponse{Message: "Logged out"})
	}
}
