package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStatus(t *testing.T) {
	t.Run("Success: 200 OK", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", "2024-01-01", "Run")

		body := `{"habit_id": "` + h.ID + `", "date": "2024-03-05", "time": "morning", "status": "done"}`

		w := env.do("PUT", "/api/v1/track/status", "user-1", body)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Slots map[string]string `json:"slots"`
		}
		decodeBody(t, w, &resp)
		assert.Equal(t, "done", resp.Slots["morning"])
		assert.Equal(t, "pending", resp.Slots["evening"])
	})

	t.Run("Fail: 400 Bad Request (Unknown Status)", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", "2024-01-01", "Run")

		body := `{"habit_id": "` + h.ID + `", "date": "2024-03-05", "time": "morning", "status": "skipped"}`

		w := env.do("PUT", "/api/v1/track/status", "user-1", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: 403 Forbidden (Foreign Habit)", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", "2024-01-01", "Run")

		body := `{"habit_id": "` + h.ID + `", "date": "2024-03-05", "time": "morning", "status": "done"}`

		w := env.do("PUT", "/api/v1/track/status", "user-2", body)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Round Trip via GET", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", "2024-01-01", "Run")

		body := `{"habit_id": "` + h.ID + `", "date": "2024-03-05", "time": "evening", "status": "deferred"}`
		w := env.do("PUT", "/api/v1/track/status", "user-1", body)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do("GET", "/api/v1/track/status?habit_id="+h.ID+"&date=2024-03-05", "user-1", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"evening":"deferred"`)
	})
}

func TestOverrideEndpoints(t *testing.T) {
	t.Run("Create and Amend Same Day", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", "2024-01-01", "Read")

		body := `{"habit_id": "` + h.ID + `", "date": "2024-03-10", "note": "travel day"}`
		w := env.do("PUT", "/api/v1/track/overrides", "user-1", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "travel day")

		body = `{"habit_id": "` + h.ID + `", "date": "2024-03-10", "slot_goals": {"morning": 15}}`
		w = env.do("PUT", "/api/v1/track/overrides", "user-1", body)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do("GET", "/api/v1/track/overrides?habit_id="+h.ID+"&date=2024-03-10", "user-1", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "travel day")
		assert.Contains(t, w.Body.String(), `"morning":15`)
	})

	t.Run("Fail: 400 Bad Request (Zero Goal)", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", "2024-01-01", "Read")

		body := `{"habit_id": "` + h.ID + `", "date": "2024-03-10", "slot_goals": {"morning": 0}}`
		w := env.do("PUT", "/api/v1/track/overrides", "user-1", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: 404 Not Found (No Override)", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", "2024-01-01", "Read")

		w := env.do("GET", "/api/v1/track/overrides?habit_id="+h.ID+"&date=2024-03-10", "user-1", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Sync Returns Recent Writes", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", "2024-01-01", "Read")

		body := `{"habit_id": "` + h.ID + `", "date": "2024-03-10", "note": "fresh"}`
		w := env.do("PUT", "/api/v1/track/overrides", "user-1", body)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do("GET", "/api/v1/track/overrides/sync", "user-1", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "fresh")
	})
}

func TestShardEndpoints(t *testing.T) {
	t.Run("Export and Import Round Trip", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", "2024-01-01", "Run")

		body := `{"habit_id": "` + h.ID + `", "date": "2024-03-05", "time": "morning", "status": "done"}`
		w := env.do("PUT", "/api/v1/track/status", "user-1", body)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do("GET", "/api/v1/track/export/2024-03", "user-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"logs:2024-03"`)
		assert.Contains(t, w.Body.String(), h.ID+"_2024-03-05")

		shardJSON := w.Body.String()

		// Clear the slot, then restore it from the exported shard.
		body = `{"habit_id": "` + h.ID + `", "date": "2024-03-05", "time": "morning", "status": "pending"}`
		w = env.do("PUT", "/api/v1/track/status", "user-1", body)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do("POST", "/api/v1/track/import", "user-1", shardJSON)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = env.do("GET", "/api/v1/track/status?habit_id="+h.ID+"&date=2024-03-05", "user-1", "")
		assert.Contains(t, w.Body.String(), `"morning":"done"`)
	})

	t.Run("Fail: 400 Bad Request (Bad Month)", func(t *testing.T) {
		env := newTestEnv()

		w := env.do("GET", "/api/v1/track/export/march", "user-1", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: 403 Forbidden (Import of Foreign Habit)", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", "2024-01-01", "Run")

		body := `{"habit_id": "` + h.ID + `", "date": "2024-03-05", "time": "morning", "status": "done"}`
		w := env.do("PUT", "/api/v1/track/status", "user-1", body)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do("GET", "/api/v1/track/export/2024-03", "user-1", "")
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do("POST", "/api/v1/track/import", "user-2", w.Body.String())
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
