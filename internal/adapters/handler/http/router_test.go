package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/ritmohq/ritmo-engine/internal/adapters/handler/http"
	"github.com/ritmohq/ritmo-engine/internal/adapters/handler/http/middleware"
	"github.com/ritmohq/ritmo-engine/internal/adapters/repository"
	"github.com/ritmohq/ritmo-engine/internal/core/domain"
	"github.com/ritmohq/ritmo-engine/internal/core/services"
	"github.com/ritmohq/ritmo-engine/internal/core/workers"
)

// testEnv wires the full handler stack over in-memory repositories.
// Identity comes from the X-User-ID header instead of a JWT so handler
// tests exercise routing and error mapping, not token parsing (the
// middleware package covers that).
type testEnv struct {
	router   *gin.Engine
	habits   *repository.InMemoryHabitRepository
	habitSvc *services.HabitService
	trackSvc *services.TrackService
}

func headerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-User-ID")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		c.Set(middleware.ContextUserIDKey, id)
		c.Next()
	}
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	habitRepo := repository.NewInMemoryHabitRepository()
	statusRepo := repository.NewInMemoryStatusRepository()
	overrideRepo := repository.NewInMemoryOverrideRepository()

	insight := services.NewInsightService(habitRepo, statusRepo, overrideRepo)
	worker := workers.NewStreakWorker(habitRepo, statusRepo, overrideRepo)
	habitSvc := services.NewHabitService(habitRepo, insight)
	trackSvc := services.NewTrackService(statusRepo, overrideRepo, habitRepo, worker, insight)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(headerIdentity())
	adapterHTTP.NewHabitHandler(habitSvc).RegisterRoutes(api)
	adapterHTTP.NewTrackHandler(trackSvc).RegisterRoutes(api)
	adapterHTTP.NewInsightHandler(insight).RegisterRoutes(api)

	return &testEnv{
		router:   r,
		habits:   habitRepo,
		habitSvc: habitSvc,
		trackSvc: trackSvc,
	}
}

func (e *testEnv) do(method, path, userID, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}

	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createHabit(t *testing.T, userID, startDate, name string) *domain.Habit {
	t.Helper()
	h, err := e.habitSvc.Create(context.Background(), services.CreateHabitInput{
		UserID:    userID,
		StartDate: startDate,
		Schedule: services.ScheduleInput{
			Name:  name,
			Color: "#FFB74D",
			Times: []string{"morning"},
		},
	})
	require.NoError(t, err)
	return h
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
