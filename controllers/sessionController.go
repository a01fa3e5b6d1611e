package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"studyquest/helpers"
	"studyquest/services"
)

// CreateStudySession logs a finished study session for the current user and
// credits session XP.
func CreateStudySession(ledger services.ExperienceLedger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		var body struct {
			Mode       string `json:"mode"`        // timer | stopwatch
			Goal       string `json:"goal"`        // coding, studying, etc.
			PlannedMin int    `json:"planned_min"` // only for timer
			ActualMin  int    `json:"actual_min"`
			Completed  *bool  `json:"completed"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session payload"})
			return
		}
		body.Mode = strings.ToLower(strings.TrimSpace(body.Mode))
		if body.Mode != "timer" && body.Mode != "stopwatch" {
			body.Mode = "stopwatch"
		}
		if strings.TrimSpace(body.Goal) == "" {
			body.Goal = "unspecified"
		}
		if body.ActualMin <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "actual_min must be greater than 0"})
			return
		}
		completed := true
		if body.Completed != nil {
			completed = *body.Completed
		}

		session, err := services.CreateStudySession(
			ledger,
			userID,
			body.Mode,
			body.Goal,
			body.PlannedMin,
			body.ActualMin,
			completed,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func getUserID(c *gin.Context) string {
	claimsVal, ok := c.Get("claims")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return ""
	}
	claims, ok := claimsVal.(*helpers.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid claims"})
		return ""
	}
	return claims.UserID
}

func queryLimit(c *gin.Context, fallback int64) int64 {
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.ParseInt(l, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// GetMySessions returns study sessions for the current user.
func GetMySessions() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		sessions, err := services.GetSessionsByUser(userID, queryLimit(c, 30))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sessions)
	}
}

// GetMyXpHistory returns the current user's XP ledger entries.
func GetMyXpHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		entries, err := services.GetXpHistory(userID, queryLimit(c, 50))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}
