package http_auth_middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	service_jwt_auth "github.com/reeltrack/core/internal/service/auth/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service_jwt_auth.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := service_jwt_auth.New("test-secret", time.Hour)
	require.NoError(t, err)

	m := New(tokens)

	router := gin.New()
	router.GET("/protected", m.AuthRequired(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"user_id": UserID(ctx)})
	})
	router.GET("/optional", m.Optional(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"user_id": UserID(ctx)})
	})

	return router, tokens
}

// Middleware rejections use the {"msg": ...} body, not the shared envelope.
func TestAuthRequiredMissingHeader(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "msg")
	assert.NotContains(t, body, "success")
}

func TestAuthRequiredBadToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequiredValidToken(t *testing.T) {
	router, tokens := newTestRouter(t)

	token, err := tokens.IssueToken(7)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 7, body["user_id"])
}

func TestOptionalWithoutToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 0, body["user_id"])
}

func TestBearerParsing(t *testing.T) {
	router, tokens := newTestRouter(t)

	token, err := tokens.IssueToken(7)
	require.NoError(t, err)

	// Scheme is case-insensitive; a missing scheme is rejected.
	for header, wantCode := range map[string]int{
		"bearer " + token: http.StatusOK,
		token:             http.StatusUnauthorized,
		"Basic " + token:  http.StatusUnauthorized,
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(rec, req)
		assert.Equal(t, wantCode, rec.Code, "header %q", header)
	}
}
