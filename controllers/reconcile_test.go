package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dateRangeContext(t *testing.T, query string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/"+query, nil)
	return c, w
}

func TestParseDateRange_DateOnlySnapsToDayBounds(t *testing.T) {
	t.Parallel()

	c, _ := dateRangeContext(t, "?from=2026-03-01&to=2026-03-05")

	from, to, ok := parseDateRange(c)
	require.True(t, ok)
	require.NotNil(t, from)
	require.NotNil(t, to)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *from)
	assert.Equal(t, time.Date(2026, 3, 5, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), *to)
}

func TestParseDateRange_RFC3339PassesThrough(t *testing.T) {
	t.Parallel()

	c, _ := dateRangeContext(t, "?from=2026-03-01T14:30:00Z")

	from, to, ok := parseDateRange(c)
	require.True(t, ok)
	require.NotNil(t, from)
	assert.Nil(t, to)
	assert.Equal(t, time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC), *from)
}

func TestParseDateRange_RejectsMalformedInput(t *testing.T) {
	t.Parallel()

	c, w := dateRangeContext(t, "?from=yesterday")

	_, _, ok := parseDateRange(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
