package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"libraryhub/database"
	"libraryhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	db := testutil.NewDB(t)
	r := setupRouter()
	NewHealthHandler(db, nil).RegisterRoutes(r)

	w := doJSON(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp readinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Dependencies["database"].Status)
	assert.NotContains(t, resp.Dependencies, "redis")

	require.NoError(t, database.Close(db))

	w = doJSON(r, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}
