package usecase_review

import (
	"context"
	"errors"
	"fmt"

	infra_postgres_movie "github.com/reeltrack/core/internal/infra/postgres/movie"
	infra_postgres_review "github.com/reeltrack/core/internal/infra/postgres/review"
	"github.com/reeltrack/core/internal/model"
	"github.com/reeltrack/core/internal/validate"
)

var (
	ErrMovieNotFound   = errors.New("movie not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("you have already reviewed this movie")
	ErrNotOwner        = errors.New("review belongs to another user")
	ErrInternal        = errors.New("internal error")
)

type ReviewRepository interface {
	Store(ctx context.Context, review model.Review) (int64, error)
	LoadByID(ctx context.Context, id int64) (model.Review, error)
	LoadByUserAndMovie(ctx context.Context, userID, movieID int64) (model.Review, error)
	ListByMovie(ctx context.Context, movieID int64, page, perPage int) ([]model.Review, int, error)
	Update(ctx context.Context, review model.Review) error
	DeleteByID(ctx context.Context, id int64) error
	Vote(ctx context.Context, userID, reviewID int64, isHelpful bool) (helpful, notHelpful int, err error)
}

type MovieRepository interface {
	LoadByID(ctx context.Context, id int64) (model.Movie, error)
}

type Usecase struct {
	reviews ReviewRepository
	movies  MovieRepository
}

func New(reviews ReviewRepository, movies MovieRepository) *Usecase {
	return &Usecase{
		reviews: reviews,
		movies:  movies,
	}
}

func (u *Usecase) validateRating(rating *int) error {
	if rating == nil {
		return nil
	}
	return validate.Rating(float64(*rating))
}

// Add creates the user's review for a movie. One review per (user, movie).
func (u *Usecase) Add(ctx context.Context, userID, movieID int64, text string, rating *int) (model.Review, error) {
	text, err := validate.ReviewText(text)
	if err != nil {
		return model.Review{}, err
	}
	if err := u.validateRating(rating); err != nil {
		return model.Review{}, err
	}

	if _, err := u.movies.LoadByID(ctx, movieID); err != nil {
		if errors.Is(err, infra_postgres_movie.ErrMovieNotFound) {
			return model.Review{}, ErrMovieNotFound
		}
		return model.Review{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	if _, err := u.reviews.LoadByUserAndMovie(ctx, userID, movieID); err == nil {
		return model.Review{}, ErrDuplicateReview
	} else if !errors.Is(err, infra_postgres_review.ErrReviewNotFound) {
		return model.Review{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	review := model.Review{
		UserID:  userID,
		MovieID: movieID,
		Text:    text,
		Rating:  rating,
	}

	id, err := u.reviews.Store(ctx, review)
	if err != nil {
		if errors.Is(err, infra_postgres_review.ErrDuplicateReview) {
			return model.Review{}, ErrDuplicateReview
		}
		return model.Review{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	stored, err := u.reviews.LoadByID(ctx, id)
	if err != nil {
		return model.Review{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return stored, nil
}

func (u *Usecase) ListByMovie(ctx context.Context, movieID int64, page, perPage int) ([]model.Review, int, int, error) {
	page, perPage, err := validate.Pagination(page, perPage)
	if err != nil {
		return nil, 0, 0, err
	}

	if _, err := u.movies.LoadByID(ctx, movieID); err != nil {
		if errors.Is(err, infra_postgres_movie.ErrMovieNotFound) {
			return nil, 0, 0, ErrMovieNotFound
		}
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	reviews, total, err := u.reviews.ListByMovie(ctx, movieID, page, perPage)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return reviews, total, perPage, nil
}

// Edit rewrites the text and rating of the caller's own review.
func (u *Usecase) Edit(ctx context.Context, userID, reviewID int64, text string, rating *int) (model.Review, error) {
	text, err := validate.ReviewText(text)
	if err != nil {
		return model.Review{}, err
	}
	if err := u.validateRating(rating); err != nil {
		return model.Review{}, err
	}

	review, err := u.loadOwned(ctx, userID, reviewID)
	if err != nil {
		return model.Review{}, err
	}

	review.Text = text
	review.Rating = rating

	if err := u.reviews.Update(ctx, review); err != nil {
		if errors.Is(err, infra_postgres_review.ErrReviewNotFound) {
			return model.Review{}, ErrReviewNotFound
		}
		return model.Review{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	updated, err := u.reviews.LoadByID(ctx, reviewID)
	if err != nil {
		return model.Review{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return updated, nil
}

func (u *Usecase) Delete(ctx context.Context, userID, reviewID int64) error {
	if _, err := u.loadOwned(ctx, userID, reviewID); err != nil {
		return err
	}

	if err := u.reviews.DeleteByID(ctx, reviewID); err != nil {
		if errors.Is(err, infra_postgres_review.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return nil
}

// Vote marks another user's review helpful or not. Re-voting the same way is
// a no-op; switching sides moves the counters.
func (u *Usecase) Vote(ctx context.Context, userID, reviewID int64, isHelpful bool) (helpful, notHelpful int, err error) {
	if _, err := u.reviews.LoadByID(ctx, reviewID); err != nil {
		if errors.Is(err, infra_postgres_review.ErrReviewNotFound) {
			return 0, 0, ErrReviewNotFound
		}
		return 0, 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	helpful, notHelpful, err = u.reviews.Vote(ctx, userID, reviewID, isHelpful)
	if err != nil {
		if errors.Is(err, infra_postgres_review.ErrReviewNotFound) {
			return 0, 0, ErrReviewNotFound
		}
		return 0, 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return helpful, notHelpful, nil
}

func (u *Usecase) loadOwned(ctx context.Context, userID, reviewID int64) (model.Review, error) {
	review, err := u.reviews.LoadByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, infra_postgres_review.ErrReviewNotFound) {
			return model.Review{}, ErrReviewNotFound
		}
		return model.Review{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	if review.UserID != userID {
		return model.Review{}, ErrNotOwner
	}

	return review, nil
}
