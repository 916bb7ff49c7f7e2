package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ritmohq/ritmo-engine/internal/adapters/handler/http/middleware"
	"github.com/ritmohq/ritmo-engine/internal/core/domain"
	"github.com/ritmohq/ritmo-engine/internal/core/engine"
	"github.com/ritmohq/ritmo-engine/internal/core/services"
)

type InsightHandler struct {
	svc *services.InsightService
}

func NewInsightHandler(svc *services.InsightService) *InsightHandler {
	return &InsightHandler{
		svc: svc,
	}
}

func (h *InsightHandler) RegisterRoutes(router *gin.RouterGroup) {
	insights := router.Group("/insights")
	{
		insights.GET("/summary", h.Summary)
		insights.GET("/summary/weekly", h.WeeklySummary)
		insights.GET("/day", h.ActiveHabits)
		insights.GET("/display", h.Display)
		insights.GET("/habits/:id/streak", h.Streak)
		insights.GET("/habits/:id/goal", h.SmartGoal)
	}
}

// queryDate validates the date query parameter, writing the 400 itself
// so callers can bail with a bare return.
func queryDate(c *gin.Context) (string, bool) {
	date := c.Query("date")
	if !domain.IsValidDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required (YYYY-MM-DD)"})
		return "", false
	}
	return date, true
}

func (h *InsightHandler) Summary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	date, ok := queryDate(c)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), userID, date)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *InsightHandler) WeeklySummary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	end := c.Query("end")
	if !domain.IsValidDate(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end is required (YYYY-MM-DD)"})
		return
	}

	week, err := h.svc.WeeklySummary(c.Request.Context(), userID, end)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": week})
}

func (h *InsightHandler) ActiveHabits(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	date, ok := queryDate(c)
	if !ok {
		return
	}

	habits, err := h.svc.ActiveHabits(c.Request.Context(), userID, date)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "habits": habits})
}

func (h *InsightHandler) Display(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	date, ok := queryDate(c)
	if !ok {
		return
	}

	t, err := domain.ParseTimeOfDay(c.Query("time"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ref engine.DisplayRef
	switch {
	case c.Query("habit_id") != "":
		ref = engine.LiveRef(c.Query("habit_id"))
	case c.Query("template") != "":
		ref = engine.TemplateRef(c.Query("template"))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "habit_id or template is required"})
		return
	}

	info, err := h.svc.Display(c.Request.Context(), userID, ref, date, t)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *InsightHandler) Streak(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	date, ok := queryDate(c)
	if !ok {
		return
	}

	streak, err := h.svc.Streak(c.Request.Context(), userID, c.Param("id"), date)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit_id": c.Param("id"),
		"date":     date,
		"streak":   streak,
	})
}

func (h *InsightHandler) SmartGoal(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	date, ok := queryDate(c)
	if !ok {
		return
	}

	t, err := domain.ParseTimeOfDay(c.Query("time"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goal, err := h.svc.SmartGoal(c.Request.Context(), userID, c.Param("id"), date, t)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit_id": c.Param("id"),
		"date":     date,
		"time":     t.String(),
		"goal":     goal,
	})
}
