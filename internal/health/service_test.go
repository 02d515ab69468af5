package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func TestService_Check(t *testing.T) {
	s := NewService(zerolog.Nop())

	var dbErr error
	s.RegisterItem(CategoryDatabase, "sqlite", "SQLite", func(context.Context) error { return dbErr })
	s.RegisterItem(CategoryMetadata, "tmdb", "TMDB", ok)

	resp := s.Check(context.Background())
	assert.Equal(t, StatusOK, resp.Status)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, CategoryDatabase, resp.Items[0].Category)
	assert.True(t, s.IsHealthy(CategoryDatabase, "sqlite"))

	dbErr = errors.New("database is locked")
	resp = s.Check(context.Background())
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "database is locked", resp.Items[0].Message)
	assert.NotNil(t, resp.Items[0].Timestamp)
	assert.False(t, s.IsHealthy(CategoryDatabase, "sqlite"))

	dbErr = nil
	resp = s.Check(context.Background())
	assert.Equal(t, StatusOK, resp.Status)
	assert.Nil(t, resp.Items[0].Timestamp)
}

func TestService_Warning(t *testing.T) {
	s := NewService(zerolog.Nop())
	s.RegisterItem(CategoryMetadata, "tmdb", "TMDB", func(context.Context) error {
		return &Warning{Message: "no API key configured"}
	})

	resp := s.Check(context.Background())
	assert.Equal(t, StatusWarning, resp.Status)
	assert.Equal(t, StatusWarning, resp.Items[0].Status)
}

func TestHealthItem_MarshalOmitsDetailsWhenOK(t *testing.T) {
	data, err := json.Marshal(HealthItem{ID: "tmdb", Status: StatusOK, Message: "stale"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestService_GetHealthHandler(t *testing.T) {
	s := NewService(zerolog.Nop())
	s.RegisterItem(CategoryDatabase, "sqlite", "SQLite", ok)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), rec)
	require.NoError(t, s.GetHealth(c))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusOK, resp.Status)
	assert.Len(t, resp.Items, 1)
}
