package infra_postgres_interaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/reeltrack/core/internal/model"
)

var (
	ErrInteractionNotFound = errors.New("interaction not found")
)

const (
	SortWatchDate   = "watch_date"
	SortUserRating  = "user_rating"
	SortMovieRating = "movie_rating"
	SortTitle       = "title"
)

var watchedSortClauses = map[string]string{
	SortWatchDate:   "i.watched_at DESC NULLS LAST",
	SortUserRating:  "i.rating DESC NULLS LAST",
	SortMovieRating: "m.vote_average DESC NULLS LAST",
	SortTitle:       "m.title ASC",
}

type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type interactionDB struct {
	UserID        int64           `db:"user_id"`
	MovieID       int64           `db:"movie_id"`
	Watched       bool            `db:"watched"`
	WatchedAt     sql.NullTime    `db:"watched_at"`
	Rating        sql.NullFloat64 `db:"rating"`
	RatedAt       sql.NullTime    `db:"rated_at"`
	Skipped       bool            `db:"skipped"`
	SkippedAt     sql.NullTime    `db:"skipped_at"`
	Watchlisted   bool            `db:"watchlisted"`
	WatchlistedAt sql.NullTime    `db:"watchlisted_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (i interactionDB) toDomain() model.Interaction {
	out := model.Interaction{
		UserID:      i.UserID,
		MovieID:     i.MovieID,
		Watched:     i.Watched,
		Skipped:     i.Skipped,
		Watchlisted: i.Watchlisted,
		UpdatedAt:   i.UpdatedAt,
	}
	if i.WatchedAt.Valid {
		t := i.WatchedAt.Time
		out.WatchedAt = &t
	}
	if i.Rating.Valid {
		v := i.Rating.Float64
		out.Rating = &v
	}
	if i.RatedAt.Valid {
		t := i.RatedAt.Time
		out.RatedAt = &t
	}
	if i.SkippedAt.Valid {
		t := i.SkippedAt.Time
		out.SkippedAt = &t
	}
	if i.WatchlistedAt.Valid {
		t := i.WatchlistedAt.Time
		out.WatchlistedAt = &t
	}
	return out
}

const interactionColumns = `
	user_id, movie_id, watched, watched_at, rating, rated_at,
	skipped, skipped_at, watchlisted, watchlisted_at, updated_at
`

func (r *Repository) Load(ctx context.Context, userID, movieID int64) (model.Interaction, error) {
	query := "SELECT " + interactionColumns + " FROM interactions WHERE user_id = $1 AND movie_id = $2"

	var i interactionDB
	err := r.db.GetContext(ctx, &i, query, userID, movieID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Interaction{}, ErrInteractionNotFound
		}
		return model.Interaction{}, fmt.Errorf("failed to load interaction: %w", err)
	}

	return i.toDomain(), nil
}

// MarkWatched upserts the single (user, movie) record and sets the watched
// flag. The first watch timestamp is preserved on repeats.
func (r *Repository) MarkWatched(ctx context.Context, userID, movieID int64) error {
	query := `
		INSERT INTO interactions (user_id, movie_id, watched, watched_at, updated_at)
		VALUES ($1, $2, TRUE, now(), now())
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			watched = TRUE,
			watched_at = COALESCE(interactions.watched_at, now()),
			updated_at = now()
	`

	if _, err := r.db.ExecContext(ctx, query, userID, movieID); err != nil {
		return fmt.Errorf("failed to mark watched: %w", err)
	}

	return nil
}

// SetRating stores the rating and marks the movie watched in the same record.
func (r *Repository) SetRating(ctx context.Context, userID, movieID int64, rating float64) error {
	query := `
		INSERT INTO interactions (user_id, movie_id, watched, watched_at, rating, rated_at, updated_at)
		VALUES ($1, $2, TRUE, now(), $3, now(), now())
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			watched = TRUE,
			watched_at = COALESCE(interactions.watched_at, now()),
			rating = EXCLUDED.rating,
			rated_at = now(),
			updated_at = now()
	`

	if _, err := r.db.ExecContext(ctx, query, userID, movieID, rating); err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}

	return nil
}

func (r *Repository) MarkSkipped(ctx context.Context, userID, movieID int64) error {
	query := `
		INSERT INTO interactions (user_id, movie_id, skipped, skipped_at, updated_at)
		VALUES ($1, $2, TRUE, now(), now())
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			skipped = TRUE,
			skipped_at = COALESCE(interactions.skipped_at, now()),
			updated_at = now()
	`

	if _, err := r.db.ExecContext(ctx, query, userID, movieID); err != nil {
		return fmt.Errorf("failed to mark skipped: %w", err)
	}

	return nil
}

func (r *Repository) AddToWatchlist(ctx context.Context, userID, movieID int64) error {
	query := `
		INSERT INTO interactions (user_id, movie_id, watchlisted, watchlisted_at, updated_at)
		VALUES ($1, $2, TRUE, now(), now())
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			watchlisted = TRUE,
			watchlisted_at = COALESCE(interactions.watchlisted_at, now()),
			updated_at = now()
	`

	if _, err := r.db.ExecContext(ctx, query, userID, movieID); err != nil {
		return fmt.Errorf("failed to add to watchlist: %w", err)
	}

	return nil
}

// RemoveFromWatchlist clears the watchlist flag and deletes the record when
// nothing else remains on it. Removing an absent entry is a no-op.
func (r *Repository) RemoveFromWatchlist(ctx context.Context, userID, movieID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	clearQuery := `
		UPDATE interactions
		SET watchlisted = FALSE, watchlisted_at = NULL, updated_at = now()
		WHERE user_id = $1 AND movie_id = $2
	`
	if _, err := tx.ExecContext(ctx, clearQuery, userID, movieID); err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}

	pruneQuery := `
		DELETE FROM interactions
		WHERE user_id = $1 AND movie_id = $2
			AND NOT watched AND NOT skipped AND NOT watchlisted AND rating IS NULL
	`
	if _, err := tx.ExecContext(ctx, pruneQuery, userID, movieID); err != nil {
		return fmt.Errorf("failed to prune empty interaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

type movieRowDB struct {
	ID            int64           `db:"id"`
	Title         string          `db:"title"`
	Overview      sql.NullString  `db:"overview"`
	ReleaseDate   sql.NullString  `db:"release_date"`
	VoteAverage   sql.NullFloat64 `db:"vote_average"`
	VoteCount     sql.NullInt64   `db:"vote_count"`
	Popularity    sql.NullFloat64 `db:"popularity"`
	PosterPath    sql.NullString  `db:"poster_path"`
	BackdropPath  sql.NullString  `db:"backdrop_path"`
	ContentRating sql.NullString  `db:"content_rating"`
}

func (m movieRowDB) toDomain() model.Movie {
	return model.Movie{
		ID:            m.ID,
		Title:         m.Title,
		Overview:      m.Overview.String,
		ReleaseDate:   m.ReleaseDate.String,
		VoteAverage:   m.VoteAverage.Float64,
		VoteCount:     int(m.VoteCount.Int64),
		Popularity:    m.Popularity.Float64,
		PosterPath:    m.PosterPath.String,
		BackdropPath:  m.BackdropPath.String,
		ContentRating: m.ContentRating.String,
	}
}

const movieRowColumns = `
	m.id, m.title, m.overview, m.release_date, m.vote_average, m.vote_count,
	m.popularity, m.poster_path, m.backdrop_path, m.content_rating
`

// ListWatched returns one page of the user's watch history joined with the
// user's rating, plus the unpaginated total.
func (r *Repository) ListWatched(ctx context.Context, userID int64, sortBy string, page, perPage int) ([]model.WatchedMovie, int, error) {
	orderBy, ok := watchedSortClauses[sortBy]
	if !ok {
		orderBy = watchedSortClauses[SortWatchDate]
	}

	var total int
	countQuery := `SELECT count(*) FROM interactions WHERE user_id = $1 AND watched`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count watched: %w", err)
	}

	query := `
		SELECT ` + movieRowColumns + `, i.watched_at, i.rating
		FROM interactions i
		JOIN movies m ON m.id = i.movie_id
		WHERE i.user_id = $1 AND i.watched
		ORDER BY ` + orderBy + `
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryxContext(ctx, query, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query watched: %w", err)
	}
	defer rows.Close()

	var watched []model.WatchedMovie
	for rows.Next() {
		var row struct {
			movieRowDB
			WatchedAt time.Time       `db:"watched_at"`
			Rating    sql.NullFloat64 `db:"rating"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, 0, fmt.Errorf("failed to scan watched row: %w", err)
		}

		wm := model.WatchedMovie{
			Movie:     row.movieRowDB.toDomain(),
			WatchedAt: row.WatchedAt,
		}
		if row.Rating.Valid {
			v := row.Rating.Float64
			wm.UserRating = &v
		}
		watched = append(watched, wm)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate watched rows: %w", err)
	}

	return watched, total, nil
}

// ListWatchlist returns one page of the user's watchlist, most recently added
// first, plus the unpaginated total.
func (r *Repository) ListWatchlist(ctx context.Context, userID int64, page, perPage int) ([]*model.Movie, int, error) {
	var total int
	countQuery := `SELECT count(*) FROM interactions WHERE user_id = $1 AND watchlisted`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count watchlist: %w", err)
	}

	query := `
		SELECT ` + movieRowColumns + `
		FROM interactions i
		JOIN movies m ON m.id = i.movie_id
		WHERE i.user_id = $1 AND i.watchlisted
		ORDER BY i.watchlisted_at DESC
		LIMIT $2 OFFSET $3
	`

	var rowsDB []movieRowDB
	if err := r.db.SelectContext(ctx, &rowsDB, query, userID, perPage, (page-1)*perPage); err != nil {
		return nil, 0, fmt.Errorf("failed to query watchlist: %w", err)
	}

	movies := make([]*model.Movie, len(rowsDB))
	for i, rowDB := range rowsDB {
		m := rowDB.toDomain()
		movies[i] = &m
	}

	return movies, total, nil
}

// History returns every interaction of the user, used by the recommender.
func (r *Repository) History(ctx context.Context, userID int64) ([]model.Interaction, error) {
	query := "SELECT " + interactionColumns + " FROM interactions WHERE user_id = $1"

	var rowsDB []interactionDB
	if err := r.db.SelectContext(ctx, &rowsDB, query, userID); err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	interactions := make([]model.Interaction, len(rowsDB))
	for i, rowDB := range rowsDB {
		interactions[i] = rowDB.toDomain()
	}

	return interactions, nil
}

func (r *Repository) Stats(ctx context.Context, userID int64) (model.UserStats, error) {
	query := `
		SELECT
			count(*) FILTER (WHERE watched)     AS watched,
			count(*) FILTER (WHERE rating IS NOT NULL) AS rated,
			count(*) FILTER (WHERE skipped)     AS skipped,
			count(*) FILTER (WHERE watchlisted) AS watchlist_count,
			avg(rating)                         AS avg_rating
		FROM interactions
		WHERE user_id = $1
	`

	var row struct {
		Watched        int             `db:"watched"`
		Rated          int             `db:"rated"`
		Skipped        int             `db:"skipped"`
		WatchlistCount int             `db:"watchlist_count"`
		AvgRating      sql.NullFloat64 `db:"avg_rating"`
	}
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return model.UserStats{}, fmt.Errorf("failed to query stats: %w", err)
	}

	stats := model.UserStats{
		Watched:        row.Watched,
		Rated:          row.Rated,
		Skipped:        row.Skipped,
		WatchlistCount: row.WatchlistCount,
	}
	if row.AvgRating.Valid {
		v := row.AvgRating.Float64
		stats.AvgRating = &v
	}

	return stats, nil
}

func (r *Repository) Recent(ctx context.Context, userID int64, limit int) ([]model.Interaction, error) {
	query := "SELECT " + interactionColumns + ` FROM interactions
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2`

	var rowsDB []interactionDB
	if err := r.db.SelectContext(ctx, &rowsDB, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to query recent interactions: %w", err)
	}

	interactions := make([]model.Interaction, len(rowsDB))
	for i, rowDB := range rowsDB {
		interactions[i] = rowDB.toDomain()
	}

	return interactions, nil
}

func (r *Repository) Delete(ctx context.Context, userID, movieID int64) error {
	query := `DELETE FROM interactions WHERE user_id = $1 AND movie_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, movieID)
	if err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrInteractionNotFound
	}

	return nil
}

// ClearAll drops every interaction of the user and reports how many were removed.
func (r *Repository) ClearAll(ctx context.Context, userID int64) (int64, error) {
	query := `DELETE FROM interactions WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear interactions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
