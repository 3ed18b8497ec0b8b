package http_interaction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	http_auth_middleware "github.com/reeltrack/core/internal/delivery/http/middleware/auth"
	"github.com/reeltrack/core/internal/model"
	service_jwt_auth "github.com/reeltrack/core/internal/service/auth/jwt"
	usecase_interaction "github.com/reeltrack/core/internal/usecase/interaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes standing in for the Postgres repositories.

type interactionRepoStub struct {
	ratings map[int64]float64
}

func (s *interactionRepoStub) Load(context.Context, int64, int64) (model.Interaction, error) {
	return model.Interaction{}, nil
}
func (s *interactionRepoStub) MarkWatched(context.Context, int64, int64) error { return nil }
func (s *interactionRepoStub) SetRating(_ context.Context, _ int64, movieID int64, rating float64) error {
	if s.ratings == nil {
		s.ratings = make(map[int64]float64)
	}
	s.ratings[movieID] = rating
	return nil
}
func (s *interactionRepoStub) MarkSkipped(context.Context, int64, int64) error         { return nil }
func (s *interactionRepoStub) AddToWatchlist(context.Context, int64, int64) error      { return nil }
func (s *interactionRepoStub) RemoveFromWatchlist(context.Context, int64, int64) error { return nil }
func (s *interactionRepoStub) ListWatched(context.Context, int64, string, int, int) ([]model.WatchedMovie, int, error) {
	return nil, 0, nil
}
func (s *interactionRepoStub) ListWatchlist(context.Context, int64, int, int) ([]*model.Movie, int, error) {
	return nil, 0, nil
}
func (s *interactionRepoStub) Stats(context.Context, int64) (model.UserStats, error) {
	return model.UserStats{}, nil
}
func (s *interactionRepoStub) Recent(context.Context, int64, int) ([]model.Interaction, error) {
	return nil, nil
}
func (s *interactionRepoStub) Delete(context.Context, int64, int64) error { return nil }
func (s *interactionRepoStub) ClearAll(context.Context, int64) (int64, error) {
	return 0, nil
}

type movieRepoStub struct{}

func (movieRepoStub) LoadByID(_ context.Context, id int64) (model.Movie, error) {
	return model.Movie{ID: id, Title: "Stub Movie"}, nil
}
func (movieRepoStub) LoadByIDs(context.Context, []int64) ([]*model.Movie, error) {
	return nil, nil
}

type testEnv struct {
	router *gin.Engine
	token  string
	repo   *interactionRepoStub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := service_jwt_auth.New("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := tokens.IssueToken(1)
	require.NoError(t, err)

	repo := &interactionRepoStub{}
	usecase := usecase_interaction.New(repo, movieRepoStub{})
	controller := New(usecase, http_auth_middleware.New(tokens))

	router := gin.New()
	controller.RegisterRoutes(router.Group("/api/v1"))

	return &testEnv{router: router, token: token, repo: repo}
}

func (e *testEnv) post(t *testing.T, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestRateEndpoint(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		expectedCode int
	}{
		{name: "Valid rating", body: `{"rating": 8.5}`, expectedCode: http.StatusOK},
		{name: "Rating above ten", body: `{"rating": 11}`, expectedCode: http.StatusBadRequest},
		{name: "Negative rating", body: `{"rating": -1}`, expectedCode: http.StatusBadRequest},
		{name: "Missing rating", body: `{}`, expectedCode: http.StatusBadRequest},
		{name: "Malformed body", body: `{"rating": "ten"}`, expectedCode: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.post(t, "/api/v1/movies/42/rate", tc.body, true)

			assert.Equal(t, tc.expectedCode, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.expectedCode == http.StatusOK, body["success"])
		})
	}
}

func TestRateRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/api/v1/movies/42/rate", `{"rating": 8}`, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "msg")
}

// Rating twice keeps a single record per movie: the stub sees the second
// value overwrite the first.
func TestRateOverwrites(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/api/v1/movies/42/rate", `{"rating": 6}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.post(t, "/api/v1/movies/42/rate", `{"rating": 9}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.InDelta(t, 9.0, env.repo.ratings[42], 1e-9)
}

func TestWatchlistAddIdempotent(t *testing.T) {
	env := newTestEnv(t)

	first := env.post(t, "/api/v1/movies/42/watchlist/add", "", true)
	second := env.post(t, "/api/v1/movies/42/watchlist/add", "", true)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
}

func TestClearAllReportsCount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/api/v1/profile/clear-all-data", "", true)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "records_removed")
}
