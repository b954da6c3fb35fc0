package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMiddleware(authHeader string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	AuthMiddleware()(c)
	return c, w
}

func TestAuthMiddleware_ExposesSessionClaims(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("user-1", "salon-1")
	require.NoError(t, err)

	c, _ := runMiddleware("Bearer " + token)
	require.False(t, c.IsAborted())

	userID, _ := c.Get("userId")
	salonID, _ := c.Get("salonId")
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "salon-1", salonID)
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	c, w := runMiddleware("")
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := GenerateToken("user-1", "salon-1")
	require.NoError(t, err)

	c, w = runMiddleware("Bearer " + token + "x")
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RejectsTokenWithoutSalon(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("user-1", "")
	require.NoError(t, err)

	c, w := runMiddleware("Bearer " + token)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := GenerateToken("user-1", "salon-1")
	require.Error(t, err)
}
