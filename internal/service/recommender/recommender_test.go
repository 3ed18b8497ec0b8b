package service_recommender

import (
	"testing"
	"time"

	infra_embeddings "github.com/reeltrack/core/internal/infra/embeddings"
	"github.com/reeltrack/core/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Four unit vectors in 3-space: movies 1 and 2 point the same way, movie 3 is
// orthogonal, movie 4 opposes movie 3.
func testMatrix(t *testing.T) *infra_embeddings.Matrix {
	t.Helper()
	data := []float32{
		1, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, -1, 0,
	}
	m, err := infra_embeddings.NewMatrix(data, 4, 3)
	require.NoError(t, err)
	return m
}

func testRefs() []model.EmbeddingRef {
	return []model.EmbeddingRef{
		{MovieID: 1, Index: 0},
		{MovieID: 2, Index: 1},
		{MovieID: 3, Index: 2},
		{MovieID: 4, Index: 3},
	}
}

func testGenres() map[int64][]string {
	return map[int64][]string{
		1: {"Action"},
		2: {"Action"},
		3: {"Drama"},
		4: {"Drama"},
	}
}

func newTestRecommender(t *testing.T) *Recommender {
	t.Helper()
	r, err := New(testMatrix(t), testRefs(), testGenres())
	require.NoError(t, err)
	return r
}

func watchedAt(daysAgo int) *time.Time {
	ts := time.Now().AddDate(0, 0, -daysAgo)
	return &ts
}

func TestAdaptiveWeights(t *testing.T) {
	small := adaptiveWeights(2)
	assert.InDelta(t, 0.4, small.category, 1e-9, "sparse history leans on genres")

	medium := adaptiveWeights(10)
	assert.InDelta(t, 0.35, medium.interest, 1e-9)

	large := adaptiveWeights(30)
	assert.InDelta(t, 0.4, large.interest, 1e-9, "rich history leans on taste")
	assert.InDelta(t, 0.1, large.category, 1e-9)
}

func TestNewRejectsEmptyIndex(t *testing.T) {
	_, err := New(testMatrix(t), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestNewRejectsIndexDrift(t *testing.T) {
	refs := []model.EmbeddingRef{{MovieID: 1, Index: 99}}
	_, err := New(testMatrix(t), refs, nil)
	assert.ErrorIs(t, err, ErrIndexDrift)
}

func TestRecommendNoHistory(t *testing.T) {
	r := newTestRecommender(t)

	_, err := r.Recommend(nil, 3, 0.7, time.Now())
	assert.ErrorIs(t, err, ErrNoHistory)

	// A watchlist-only user is still cold: no watch or skip signal.
	onlyWatchlisted := []model.Interaction{{MovieID: 1, Watchlisted: true}}
	_, err = r.Recommend(onlyWatchlisted, 3, 0.7, time.Now())
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestRecommendExcludesWatched(t *testing.T) {
	r := newTestRecommender(t)

	history := []model.Interaction{
		{MovieID: 1, Watched: true, WatchedAt: watchedAt(1)},
	}

	scored, err := r.Recommend(history, 4, 1.0, time.Now())
	require.NoError(t, err)

	for _, s := range scored {
		assert.NotEqual(t, int64(1), s.MovieID, "watched movie must not come back")
	}
}

func TestRecommendPrefersSimilar(t *testing.T) {
	r := newTestRecommender(t)

	rating := 9.0
	history := []model.Interaction{
		{MovieID: 1, Watched: true, WatchedAt: watchedAt(1), Rating: &rating},
	}

	scored, err := r.Recommend(history, 3, 1.0, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, scored)

	assert.Equal(t, int64(2), scored[0].MovieID, "the nearest neighbour of the liked movie should rank first")
	assert.InDelta(t, scored[0].Score, scored[0].Explanation.Total, 1e-9)
}

func TestRecommendRespectsK(t *testing.T) {
	r := newTestRecommender(t)

	history := []model.Interaction{
		{MovieID: 1, Watched: true, WatchedAt: watchedAt(1)},
	}

	scored, err := r.Recommend(history, 2, 0.7, time.Now())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(scored), 2)
}

func TestSimilarTo(t *testing.T) {
	r := newTestRecommender(t)

	scored, err := r.SimilarTo(1, 2, nil)
	require.NoError(t, err)
	require.NotEmpty(t, scored)

	assert.Equal(t, int64(2), scored[0].MovieID)
	assert.InDelta(t, 1.0, scored[0].Score, 1e-6)

	for _, s := range scored {
		assert.NotEqual(t, int64(1), s.MovieID, "the query movie must be excluded")
	}
}

func TestSimilarToExcludes(t *testing.T) {
	r := newTestRecommender(t)

	scored, err := r.SimilarTo(1, 3, map[int64]bool{2: true})
	require.NoError(t, err)

	for _, s := range scored {
		assert.NotEqual(t, int64(2), s.MovieID)
	}
}

func TestSimilarToUnknownMovie(t *testing.T) {
	r := newTestRecommender(t)

	_, err := r.SimilarTo(999, 3, nil)
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestRankBySimilarity(t *testing.T) {
	r := newTestRecommender(t)

	scored, err := r.RankBySimilarity(model.Embedding{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.Equal(t, int64(3), scored[0].MovieID)
	assert.InDelta(t, 1.0, scored[0].Score, 1e-6)
	assert.GreaterOrEqual(t, scored[0].Score, scored[1].Score)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{0, 0}, []float32{1, 0}), 1e-9)
}

// MMR with a low lambda should not pick two near-duplicates back to back
// when an orthogonal candidate scores almost as well.
func TestMMRDiversity(t *testing.T) {
	r := newTestRecommender(t)

	relevance := []float64{0.95, 0.9, 0.5, 0.0}
	selected := r.mmrRerank([]int{0, 1, 2}, relevance, 2, 0.3)
	require.Len(t, selected, 2)

	assert.Equal(t, 0, selected[0], "highest relevance goes first")
	assert.Equal(t, 2, selected[1], "orthogonal runner-up beats the duplicate row")
}
