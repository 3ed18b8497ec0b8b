package usecase_recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reeltrack/core/internal/config"
	"github.com/reeltrack/core/internal/model"
	service_recommender "github.com/reeltrack/core/internal/service/recommender"
)

var ErrInternal = errors.New("internal error")

type InteractionRepository interface {
	History(ctx context.Context, userID int64) ([]model.Interaction, error)
}

type MovieRepository interface {
	LoadByIDs(ctx context.Context, ids []int64) ([]*model.Movie, error)
	Popular(ctx context.Context, limit int) ([]*model.Movie, error)
}

type Recommender interface {
	Recommend(interactions []model.Interaction, k int, lambda float64, now time.Time) ([]service_recommender.Scored, error)
}

type Usecase struct {
	interactions InteractionRepository
	movies       MovieRepository
	recommender  Recommender
	cfg          config.Recommend
}

func New(
	interactions InteractionRepository,
	movies MovieRepository,
	recommender Recommender,
	cfg config.Recommend,
) *Usecase {
	return &Usecase{
		interactions: interactions,
		movies:       movies,
		recommender:  recommender,
		cfg:          cfg,
	}
}

// Result carries one page of recommendations plus whether the popular
// fallback served it (the cold-start case).
type Result struct {
	Recommendations []model.Recommendation
	ColdStart       bool
}

// Recommend returns up to n personalized picks. n is clamped to the
// configured maximum, lambda to [0, 1]; pass lambda < 0 for the default.
// Users with no history get the popular catalog instead.
func (u *Usecase) Recommend(ctx context.Context, userID int64, n int, lambda float64) (Result, error) {
	if n < 1 {
		n = 1
	}
	if n > u.cfg.MaxRecommendations {
		n = u.cfg.MaxRecommendations
	}

	if lambda < 0 {
		lambda = u.cfg.DefaultLambda
	}
	if lambda > 1 {
		lambda = 1
	}

	history, err := u.interactions.History(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	scored, err := u.recommender.Recommend(history, n, lambda, time.Now())
	if err != nil {
		if errors.Is(err, service_recommender.ErrNoHistory) {
			return u.popularFallback(ctx, n)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	ids := make([]int64, len(scored))
	byID := make(map[int64]service_recommender.Scored, len(scored))
	for i, s := range scored {
		ids[i] = s.MovieID
		byID[s.MovieID] = s
	}

	movies, err := u.movies.LoadByIDs(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	recommendations := make([]model.Recommendation, 0, len(movies))
	for _, movie := range movies {
		s := byID[movie.ID]
		recommendations = append(recommendations, model.Recommendation{
			Movie:       *movie,
			Score:       s.Score,
			Explanation: s.Explanation,
		})
	}

	return Result{Recommendations: recommendations}, nil
}

func (u *Usecase) popularFallback(ctx context.Context, n int) (Result, error) {
	movies, err := u.movies.Popular(ctx, n)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	recommendations := make([]model.Recommendation, len(movies))
	for i, movie := range movies {
		// Popularity scaled to roughly the [0, 1] range of the scored path.
		score := movie.Popularity / 1000
		recommendations[i] = model.Recommendation{
			Movie:       *movie,
			Score:       score,
			Explanation: model.Explanation{Total: score},
		}
	}

	return Result{Recommendations: recommendations, ColdStart: true}, nil
}
