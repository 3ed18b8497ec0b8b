package infra_postgres_review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/reeltrack/core/internal/model"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("review already exists")
)

type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type reviewDB struct {
	ID              int64         `db:"id"`
	UserID          int64         `db:"user_id"`
	MovieID         int64         `db:"movie_id"`
	Username        string        `db:"username"`
	Rating          sql.NullInt64 `db:"rating"`
	ReviewText      string        `db:"review_text"`
	HelpfulCount    int           `db:"helpful_count"`
	NotHelpfulCount int           `db:"not_helpful_count"`
	CreatedAt       sql.NullTime  `db:"created_at"`
	UpdatedAt       sql.NullTime  `db:"updated_at"`
}

func (r reviewDB) toDomain() model.Review {
	review := model.Review{
		ID:              r.ID,
		UserID:          r.UserID,
		MovieID:         r.MovieID,
		Username:        r.Username,
		Text:            r.ReviewText,
		HelpfulCount:    r.HelpfulCount,
		NotHelpfulCount: r.NotHelpfulCount,
	}
	if r.Rating.Valid {
		v := int(r.Rating.Int64)
		review.Rating = &v
	}
	if r.CreatedAt.Valid {
		review.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		review.UpdatedAt = r.UpdatedAt.Time
	}
	return review
}

const reviewColumns = `
	r.id, r.user_id, r.movie_id, u.username, r.rating, r.review_text,
	r.helpful_count, r.not_helpful_count, r.created_at, r.updated_at
`

func (repo *Repository) Store(ctx context.Context, review model.Review) (int64, error) {
	query := `
		INSERT INTO reviews (user_id, movie_id, rating, review_text)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var rating sql.NullInt64
	if review.Rating != nil {
		rating = sql.NullInt64{Int64: int64(*review.Rating), Valid: true}
	}

	var id int64
	err := repo.db.GetContext(ctx, &id, query, review.UserID, review.MovieID, rating, review.Text)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrDuplicateReview
		}
		return 0, fmt.Errorf("failed to store review: %w", err)
	}

	return id, nil
}

func (repo *Repository) LoadByID(ctx context.Context, id int64) (model.Review, error) {
	query := "SELECT " + reviewColumns + ` FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1`

	var r reviewDB
	err := repo.db.GetContext(ctx, &r, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Review{}, ErrReviewNotFound
		}
		return model.Review{}, fmt.Errorf("failed to load review: %w", err)
	}

	return r.toDomain(), nil
}

func (repo *Repository) LoadByUserAndMovie(ctx context.Context, userID, movieID int64) (model.Review, error) {
	query := "SELECT " + reviewColumns + ` FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.user_id = $1 AND r.movie_id = $2`

	var r reviewDB
	err := repo.db.GetContext(ctx, &r, query, userID, movieID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Review{}, ErrReviewNotFound
		}
		return model.Review{}, fmt.Errorf("failed to load review: %w", err)
	}

	return r.toDomain(), nil
}

// ListByMovie orders by helpfulness, then recency, matching the detail page.
func (repo *Repository) ListByMovie(ctx context.Context, movieID int64, page, perPage int) ([]model.Review, int, error) {
	var total int
	countQuery := `SELECT count(*) FROM reviews WHERE movie_id = $1`
	if err := repo.db.GetContext(ctx, &total, countQuery, movieID); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := "SELECT " + reviewColumns + ` FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.movie_id = $1
		ORDER BY r.helpful_count DESC, r.created_at DESC
		LIMIT $2 OFFSET $3`

	var rowsDB []reviewDB
	if err := repo.db.SelectContext(ctx, &rowsDB, query, movieID, perPage, (page-1)*perPage); err != nil {
		return nil, 0, fmt.Errorf("failed to query reviews: %w", err)
	}

	reviews := make([]model.Review, len(rowsDB))
	for i, rowDB := range rowsDB {
		reviews[i] = rowDB.toDomain()
	}

	return reviews, total, nil
}

func (repo *Repository) Update(ctx context.Context, review model.Review) error {
	query := `
		UPDATE reviews
		SET review_text = $2, rating = $3, updated_at = now()
		WHERE id = $1
	`

	var rating sql.NullInt64
	if review.Rating != nil {
		rating = sql.NullInt64{Int64: int64(*review.Rating), Valid: true}
	}

	result, err := repo.db.ExecContext(ctx, query, review.ID, review.Text, rating)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

func (repo *Repository) DeleteByID(ctx context.Context, id int64) error {
	query := `DELETE FROM reviews WHERE id = $1`

	result, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// Vote records a helpful/not-helpful vote, one per (user, review). Switching
// a vote moves the counters; repeating the same vote changes nothing. The
// vote row and the counters move in one transaction.
func (repo *Repository) Vote(ctx context.Context, userID, reviewID int64, isHelpful bool) (helpful, notHelpful int, err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing struct {
		IsHelpful bool `db:"is_helpful"`
	}
	getQuery := `SELECT is_helpful FROM review_votes WHERE user_id = $1 AND review_id = $2`
	err = tx.GetContext(ctx, &existing, getQuery, userID, reviewID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		insertQuery := `
			INSERT INTO review_votes (user_id, review_id, is_helpful)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, insertQuery, userID, reviewID, isHelpful); err != nil {
			return 0, 0, fmt.Errorf("failed to insert vote: %w", err)
		}

		bump := `UPDATE reviews SET helpful_count = helpful_count + 1 WHERE id = $1`
		if !isHelpful {
			bump = `UPDATE reviews SET not_helpful_count = not_helpful_count + 1 WHERE id = $1`
		}
		if _, err := tx.ExecContext(ctx, bump, reviewID); err != nil {
			return 0, 0, fmt.Errorf("failed to bump vote count: %w", err)
		}

	case err != nil:
		return 0, 0, fmt.Errorf("failed to load vote: %w", err)

	case existing.IsHelpful != isHelpful:
		updateQuery := `UPDATE review_votes SET is_helpful = $3 WHERE user_id = $1 AND review_id = $2`
		if _, err := tx.ExecContext(ctx, updateQuery, userID, reviewID, isHelpful); err != nil {
			return 0, 0, fmt.Errorf("failed to update vote: %w", err)
		}

		move := `
			UPDATE reviews
			SET helpful_count = helpful_count + 1, not_helpful_count = not_helpful_count - 1
			WHERE id = $1
		`
		if !isHelpful {
			move = `
				UPDATE reviews
				SET helpful_count = helpful_count - 1, not_helpful_count = not_helpful_count + 1
				WHERE id = $1
			`
		}
		if _, err := tx.ExecContext(ctx, move, reviewID); err != nil {
			return 0, 0, fmt.Errorf("failed to move vote count: %w", err)
		}
	}

	var counts struct {
		Helpful    int `db:"helpful_count"`
		NotHelpful int `db:"not_helpful_count"`
	}
	countQuery := `SELECT helpful_count, not_helpful_count FROM reviews WHERE id = $1`
	if err := tx.GetContext(ctx, &counts, countQuery, reviewID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrReviewNotFound
		}
		return 0, 0, fmt.Errorf("failed to load vote counts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit: %w", err)
	}

	return counts.Helpful, counts.NotHelpful, nil
}
