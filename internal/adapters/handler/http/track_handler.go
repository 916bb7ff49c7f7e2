package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ritmohq/ritmo-engine/internal/adapters/handler/http/middleware"
	"github.com/ritmohq/ritmo-engine/internal/core/domain"
	"github.com/ritmohq/ritmo-engine/internal/core/services"
)

type TrackHandler struct {
	svc *services.TrackService
}

func NewTrackHandler(svc *services.TrackService) *TrackHandler {
	return &TrackHandler{
		svc: svc,
	}
}

type setStatusRequest struct {
	HabitID string `json:"habit_id" binding:"required"`
	Date    string `json:"date" binding:"required"`
	Time    string `json:"time" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

type overrideRequest struct {
	HabitID string `json:"habit_id" binding:"required"`
	Date    string `json:"date" binding:"required"`

	Note       *string        `json:"note"`
	SlotGoals  map[string]int `json:"slot_goals"`
	DailyTimes []string       `json:"daily_times"`
	Version    int            `json:"version"`
}

type dayResponse struct {
	HabitID string            `json:"habit_id"`
	Date    string            `json:"date"`
	Slots   map[string]string `json:"slots"`
}

func newDayResponse(habitID, date string, d domain.DayStatus) dayResponse {
	slots := make(map[string]string, 3)
	for _, t := range domain.AllTimesOfDay {
		slots[t.String()] = d.Get(t).String()
	}
	return dayResponse{HabitID: habitID, Date: date, Slots: slots}
}

func (h *TrackHandler) RegisterRoutes(router *gin.RouterGroup) {
	track := router.Group("/track")
	{
		track.PUT("/status", h.SetStatus)
		track.GET("/status", h.GetDay)
		track.PUT("/overrides", h.SetOverride)
		track.GET("/overrides", h.GetOverride)
		track.GET("/overrides/sync", h.SyncOverrides)
		track.GET("/export/:month", h.ExportMonth)
		track.POST("/import", h.ImportShard)
	}
}

func (h *TrackHandler) SetStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	day, err := h.svc.SetStatus(c.Request.Context(), services.SetStatusInput{
		HabitID: req.HabitID,
		UserID:  userID,
		Date:    req.Date,
		Time:    req.Time,
		Status:  req.Status,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newDayResponse(req.HabitID, req.Date, day))
}

func (h *TrackHandler) GetDay(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	habitID := c.Query("habit_id")
	date := c.Query("date")
	if habitID == "" || !domain.IsValidDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "habit_id and date are required"})
		return
	}

	day, err := h.svc.GetDay(c.Request.Context(), habitID, userID, date)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newDayResponse(habitID, date, day))
}

func (h *TrackHandler) SetOverride(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ov, err := h.svc.SetOverride(c.Request.Context(), services.OverrideInput{
		HabitID:    req.HabitID,
		UserID:     userID,
		Date:       req.Date,
		Note:       req.Note,
		SlotGoals:  req.SlotGoals,
		DailyTimes: req.DailyTimes,
		Version:    req.Version,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ov)
}

func (h *TrackHandler) GetOverride(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	habitID := c.Query("habit_id")
	date := c.Query("date")
	if habitID == "" || !domain.IsValidDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "habit_id and date are required"})
		return
	}

	ov, err := h.svc.GetOverride(c.Request.Context(), habitID, userID, date)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ov)
}

func (h *TrackHandler) SyncOverrides(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	sinceStr := c.Query("since")
	var since time.Time

	if sinceStr != "" {
		var err error
		since, err = time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format (use RFC3339)"})
			return
		}
	}

	changes, err := h.svc.GetOverrideDelta(c.Request.Context(), userID, since)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   changes,
		"timestamp": time.Now().UTC(),
	})
}

func (h *TrackHandler) ExportMonth(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	shard, err := h.svc.ExportMonth(c.Request.Context(), userID, c.Param("month"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, shard)
}

func (h *TrackHandler) ImportShard(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var shard domain.Shard
	if err := c.ShouldBindJSON(&shard); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.svc.ImportShard(c.Request.Context(), userID, shard); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

var badRequestErrors = []error{
	domain.ErrInvalidDate,
	domain.ErrInvalidTimeOfDay,
	domain.ErrInvalidStatus,
	domain.ErrInvalidShardKey,
	domain.ErrInvalidEntryKey,
	domain.ErrInvalidEntryValue,
	domain.ErrInvalidOverride,
	domain.ErrInvalidGoalOverride,
	domain.ErrEmptyDailyTimes,
	domain.ErrHabitNameEmpty,
	domain.ErrHabitNameTooLong,
	domain.ErrInvalidColor,
	domain.ErrEmptyTimes,
	domain.ErrInvalidGoalType,
	domain.ErrInvalidGoalTotal,
	domain.ErrInvalidFrequency,
	domain.ErrInvalidUnit,
	domain.ErrInvalidAmount,
	domain.ErrInvalidWeekdays,
	domain.ErrEditBeforeCurrent,
	domain.ErrHabitDeleted,
	domain.ErrHabitGraduated,
	domain.ErrHabitNoHistory,
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})

	case errors.Is(err, domain.ErrHabitNotFound) || errors.Is(err, domain.ErrOverrideNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	case errors.Is(err, domain.ErrHabitConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "data has been modified elsewhere, please sync",
		})

	default:
		for _, sentinel := range badRequestErrors {
			if errors.Is(err, sentinel) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		log.Printf("[ERROR] Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)

		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
