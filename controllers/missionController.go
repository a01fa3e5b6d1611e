package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"studyquest/services"
)

var missionValidate = validator.New()

// GetMyMissions lists active missions joined with the user's progress.
// Before listing, it lazily reconciles expired progress, gated by the
// per-user reset throttle so bursts of reads do not rescan every time.
func GetMyMissions(engine *services.MissionEngine, throttle *services.ResetThrottle) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if throttle.DueForReset(userID) {
			if _, err := engine.Reconcile(ctx, userID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			throttle.MarkRan(userID)
		}

		board, err := engine.MissionBoard(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, board)
	}
}

// StartMission accepts a mission. Re-starting an already active mission
// returns the existing progress unchanged.
func StartMission(engine *services.MissionEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		progress, err := engine.StartMission(ctx, userID, c.Param("id"))
		if errors.Is(err, services.ErrMissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, services.ErrMissionInactive) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, progress)
	}
}

// CheckMission evaluates one active mission and completes it when its
// target is met.
func CheckMission(engine *services.MissionEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		completed, err := engine.CheckCompletion(ctx, userID, c.Param("id"))
		if errors.Is(err, services.ErrProgressNotFound) || errors.Is(err, services.ErrMissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"completed": completed})
	}
}

// WithdrawMission abandons an active mission, spending a pardon token or
// coins. No XP is touched either way.
func WithdrawMission(engine *services.MissionEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := engine.Withdraw(ctx, userID, c.Param("id"))
		if errors.Is(err, services.ErrProgressNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, services.ErrProgressNotActive) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, services.ErrNoPardonOrCoins) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Mission withdrawn"})
	}
}

// CreateMission adds a mission definition (admin only).
func CreateMission() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Title    string `json:"title" validate:"required,min=3,max=120"`
			Type     string `json:"type" validate:"required,oneof=DAILY WEEKLY LONG_TERM"`
			Criteria string `json:"criteria" validate:"required"`
			XpReward int    `json:"xp_reward" validate:"required,gt=0"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mission payload"})
			return
		}
		if err := missionValidate.Struct(body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mission, err := services.CreateMission(body.Title, body.Type, body.Criteria, body.XpReward)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, mission)
	}
}

// UpdateMission edits a mission definition (admin only). Omitted fields are
// left alone; setting active=false retires the mission from the board.
func UpdateMission() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Title    *string `json:"title"`
			Criteria *string `json:"criteria"`
			XpReward *int    `json:"xp_reward"`
			Active   *bool   `json:"active"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mission payload"})
			return
		}
		if body.XpReward != nil && *body.XpReward <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "xp_reward must be greater than 0"})
			return
		}
		mission, err := services.UpdateMission(c.Param("id"), body.Title, body.Criteria, body.XpReward, body.Active)
		if errors.Is(err, services.ErrMissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, mission)
	}
}
