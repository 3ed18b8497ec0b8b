package usecase_interaction

import (
	"context"
	"errors"
	"fmt"

	infra_postgres_interaction "github.com/reeltrack/core/internal/infra/postgres/interaction"
	infra_postgres_movie "github.com/reeltrack/core/internal/infra/postgres/movie"
	"github.com/reeltrack/core/internal/model"
	"github.com/reeltrack/core/internal/validate"
)

var (
	ErrMovieNotFound       = errors.New("movie not found")
	ErrInteractionNotFound = errors.New("no interaction with this movie")
	ErrInternal            = errors.New("internal error")
)

type InteractionRepository interface {
	Load(ctx context.Context, userID, movieID int64) (model.Interaction, error)
	MarkWatched(ctx context.Context, userID, movieID int64) error
	SetRating(ctx context.Context, userID, movieID int64, rating float64) error
	MarkSkipped(ctx context.Context, userID, movieID int64) error
	AddToWatchlist(ctx context.Context, userID, movieID int64) error
	RemoveFromWatchlist(ctx context.Context, userID, movieID int64) error
	ListWatched(ctx context.Context, userID int64, sortBy string, page, perPage int) ([]model.WatchedMovie, int, error)
	ListWatchlist(ctx context.Context, userID int64, page, perPage int) ([]*model.Movie, int, error)
	Stats(ctx context.Context, userID int64) (model.UserStats, error)
	Recent(ctx context.Context, userID int64, limit int) ([]model.Interaction, error)
	Delete(ctx context.Context, userID, movieID int64) error
	ClearAll(ctx context.Context, userID int64) (int64, error)
}

type MovieRepository interface {
	LoadByID(ctx context.Context, id int64) (model.Movie, error)
	LoadByIDs(ctx context.Context, ids []int64) ([]*model.Movie, error)
}

type Usecase struct {
	interactions InteractionRepository
	movies       MovieRepository
}

func New(interactions InteractionRepository, movies MovieRepository) *Usecase {
	return &Usecase{
		interactions: interactions,
		movies:       movies,
	}
}

func (u *Usecase) ensureMovie(ctx context.Context, movieID int64) error {
	if _, err := u.movies.LoadByID(ctx, movieID); err != nil {
		if errors.Is(err, infra_postgres_movie.ErrMovieNotFound) {
			return ErrMovieNotFound
		}
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return nil
}

// Watch marks the movie watched. Repeat calls succeed and keep the first
// watch timestamp.
func (u *Usecase) Watch(ctx context.Context, userID, movieID int64) error {
	if err := u.ensureMovie(ctx, movieID); err != nil {
		return err
	}

	if err := u.interactions.MarkWatched(ctx, userID, movieID); err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return nil
}

// Rate stores a 0..10 rating and marks the movie watched on the same record.
// Re-rating overwrites the previous value.
func (u *Usecase) Rate(ctx context.Context, userID, movieID int64, rating float64) error {
	if err := validate.Rating(rating); err != nil {
		return err
	}

	if err := u.ensureMovie(ctx, movieID); err != nil {
		return err
	}

	if err := u.interactions.SetRating(ctx, userID, movieID, rating); err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return nil
}

func (u *Usecase) Skip(ctx context.Context, userID, movieID int64) error {
	if err := u.ensureMovie(ctx, movieID); err != nil {
		return err
	}

	if err := u.interactions.MarkSkipped(ctx, userID, movieID); err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return nil
}

func (u *Usecase) AddToWatchlist(ctx context.Context, userID, movieID int64) error {
	if err := u.ensureMovie(ctx, movieID); err != nil {
		return err
	}

	if err := u.interactions.AddToWatchlist(ctx, userID, movieID); err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return nil
}

// RemoveFromWatchlist is idempotent: removing a movie that is not on the
// watchlist succeeds without effect.
func (u *Usecase) RemoveFromWatchlist(ctx context.Context, userID, movieID int64) error {
	if err := u.ensureMovie(ctx, movieID); err != nil {
		return err
	}

	if err := u.interactions.RemoveFromWatchlist(ctx, userID, movieID); err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return nil
}

func (u *Usecase) Watchlist(ctx context.Context, userID int64, page, perPage int) ([]*model.Movie, int, int, error) {
	page, perPage, err := validate.Pagination(page, perPage)
	if err != nil {
		return nil, 0, 0, err
	}

	movies, total, err := u.interactions.ListWatchlist(ctx, userID, page, perPage)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return movies, total, perPage, nil
}

func (u *Usecase) Watched(ctx context.Context, userID int64, sortBy string, page, perPage int) ([]model.WatchedMovie, int, int, error) {
	page, perPage, err := validate.Pagination(page, perPage)
	if err != nil {
		return nil, 0, 0, err
	}

	watched, total, err := u.interactions.ListWatched(ctx, userID, sortBy, page, perPage)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return watched, total, perPage, nil
}

// Profile bundles the user's stats with their most recently touched movies.
type Profile struct {
	Stats  model.UserStats
	Recent []RecentActivity
}

type RecentActivity struct {
	Movie       model.Movie
	Interaction model.Interaction
}

const recentActivityLimit = 10

func (u *Usecase) Profile(ctx context.Context, userID int64) (Profile, error) {
	stats, err := u.interactions.Stats(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	recent, err := u.interactions.Recent(ctx, userID, recentActivityLimit)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	ids := make([]int64, len(recent))
	byID := make(map[int64]model.Interaction, len(recent))
	for i, interaction := range recent {
		ids[i] = interaction.MovieID
		byID[interaction.MovieID] = interaction
	}

	movies, err := u.movies.LoadByIDs(ctx, ids)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	activity := make([]RecentActivity, 0, len(movies))
	for _, movie := range movies {
		activity = append(activity, RecentActivity{
			Movie:       *movie,
			Interaction: byID[movie.ID],
		})
	}

	return Profile{Stats: stats, Recent: activity}, nil
}

// DeleteInteraction drops the user's record for one movie entirely.
func (u *Usecase) DeleteInteraction(ctx context.Context, userID, movieID int64) error {
	if err := u.interactions.Delete(ctx, userID, movieID); err != nil {
		if errors.Is(err, infra_postgres_interaction.ErrInteractionNotFound) {
			return ErrInteractionNotFound
		}
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return nil
}

// ClearAll wipes the user's whole interaction history and reports how many
// records were removed.
func (u *Usecase) ClearAll(ctx context.Context, userID int64) (int64, error) {
	removed, err := u.interactions.ClearAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return removed, nil
}
