package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ritmohq/ritmo-engine/internal/adapters/handler/http/middleware"
	"github.com/ritmohq/ritmo-engine/internal/core/services"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type scheduleRequest struct {
	Name  string   `json:"name"`
	Icon  string   `json:"icon"`
	Color string   `json:"color"`
	Times []string `json:"times"`

	GoalType  string `json:"goal_type"`
	GoalTotal int    `json:"goal_total"`
	GoalUnit  string `json:"goal_unit"`

	FrequencyType  string `json:"frequency_type"`
	Weekdays       []int  `json:"weekdays"`
	IntervalUnit   string `json:"interval_unit"`
	IntervalAmount int    `json:"interval_amount"`
	Anchor         string `json:"anchor"`
}

func (r scheduleRequest) toInput() services.ScheduleInput {
	return services.ScheduleInput{
		Name:           r.Name,
		Icon:           r.Icon,
		Color:          r.Color,
		Times:          r.Times,
		GoalType:       r.GoalType,
		GoalTotal:      r.GoalTotal,
		GoalUnit:       r.GoalUnit,
		FrequencyType:  r.FrequencyType,
		Weekdays:       r.Weekdays,
		IntervalUnit:   r.IntervalUnit,
		IntervalAmount: r.IntervalAmount,
		Anchor:         r.Anchor,
	}
}

type createHabitRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	Template  string `json:"template"`
	scheduleRequest
}

type editScheduleRequest struct {
	EffectiveDate string `json:"effective_date" binding:"required"`
	Version       int    `json:"version"`
	scheduleRequest
}

type lifecycleRequest struct {
	Date string `json:"date" binding:"required"`
}

type positionRequest struct {
	Position int `json:"position"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/sync", h.Sync)
		habits.GET("/:id", h.Get)
		habits.PUT("/:id/schedule", h.EditSchedule)
		habits.POST("/:id/tombstone", h.Tombstone)
		habits.POST("/:id/graduate", h.Graduate)
		habits.PUT("/:id/position", h.Reorder)
		habits.DELETE("/:id", h.Delete)
	}
}

func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		UserID:       userID,
		StartDate:    req.StartDate,
		TemplateSlug: req.Template,
		Schedule:     req.toInput(),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}

func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	habit, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Sync(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	lastSyncStr := c.Query("last_sync")
	var lastSync time.Time
	var err error

	if lastSyncStr != "" {
		lastSync, err = time.Parse(time.RFC3339, lastSyncStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_sync format, use RFC3339"})
			return
		}
	}

	deltas, err := h.svc.GetDelta(c.Request.Context(), userID, lastSync)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   deltas,
		"timestamp": time.Now().UTC(),
	})
}

func (h *HabitHandler) EditSchedule(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req editScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	habit, err := h.svc.EditSchedule(c.Request.Context(), services.EditScheduleInput{
		ID:            c.Param("id"),
		UserID:        userID,
		EffectiveDate: req.EffectiveDate,
		Schedule:      req.toInput(),
		Version:       req.Version,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Tombstone(c *gin.Context) {
	h.lifecycle(c, h.svc.Tombstone)
}

func (h *HabitHandler) Graduate(c *gin.Context) {
	h.lifecycle(c, h.svc.Graduate)
}

func (h *HabitHandler) lifecycle(c *gin.Context, op func(ctx context.Context, id, userID, date string) error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req lifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := op(c.Request.Context(), c.Param("id"), userID, req.Date); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *HabitHandler) Reorder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.svc.Reorder(c.Request.Context(), c.Param("id"), userID, req.Position); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *HabitHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
