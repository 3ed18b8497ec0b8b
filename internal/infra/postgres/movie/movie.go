package infra_postgres_movie

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/reeltrack/core/internal/model"
)

var (
	ErrMovieNotFound = errors.New("movie not found")
	ErrInvalidSort   = errors.New("invalid sort option")
)

const (
	SortPopularity      = "popularity"
	SortRating          = "rating"
	SortReleaseDateDesc = "release_date_desc"
	SortReleaseDateAsc  = "release_date_asc"
	SortTitle           = "title"
	SortVoteCount       = "vote_count"
)

var sortClauses = map[string]string{
	SortPopularity:      "m.popularity DESC NULLS LAST",
	SortRating:          "m.vote_average DESC NULLS LAST",
	SortReleaseDateDesc: "m.release_date DESC NULLS LAST",
	SortReleaseDateAsc:  "m.release_date ASC NULLS LAST",
	SortTitle:           "m.title ASC",
	SortVoteCount:       "m.vote_count DESC NULLS LAST",
}

// Filter narrows and orders the movie listing. Zero values disable a clause.
type Filter struct {
	Genre         string
	Search        string
	MinRating     float64
	YearFrom      int
	YearTo        int
	MinVotes      int
	ContentRating string
	HideWatchedBy int64
	SortBy        string

	Page    int
	PerPage int
}

type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const movieColumns = `
	m.id, m.title, m.overview, m.release_date, m.vote_average, m.vote_count,
	m.popularity, m.poster_path, m.backdrop_path, m.content_rating,
	COALESCE(
		(SELECT array_agg(g.genre_name ORDER BY g.genre_name) FROM genres g WHERE g.movie_id = m.id),
		'{}'
	) AS genres
`

func (f Filter) buildWhere() (string, []any) {
	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Genre != "" {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM genres g WHERE g.movie_id = m.id AND g.genre_name = %s)", arg(f.Genre)))
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		p := arg(pattern)
		conds = append(conds, fmt.Sprintf(
			`(m.title ILIKE %[1]s OR m.overview ILIKE %[1]s OR EXISTS (
				SELECT 1 FROM credits c WHERE c.movie_id = m.id AND c.person_name ILIKE %[1]s
			))`, p))
	}

	if f.MinRating > 0 {
		conds = append(conds, "m.vote_average >= "+arg(f.MinRating))
	}
	if f.YearFrom > 0 {
		conds = append(conds, "substr(m.release_date, 1, 4) >= "+arg(strconv.Itoa(f.YearFrom)))
	}
	if f.YearTo > 0 {
		conds = append(conds, "substr(m.release_date, 1, 4) <= "+arg(strconv.Itoa(f.YearTo)))
	}
	if f.MinVotes > 0 {
		conds = append(conds, "m.vote_count >= "+arg(f.MinVotes))
	}
	if f.ContentRating != "" {
		conds = append(conds, "m.content_rating = "+arg(f.ContentRating))
	}
	if f.HideWatchedBy != 0 {
		conds = append(conds, fmt.Sprintf(
			`NOT EXISTS (
				SELECT 1 FROM interactions i
				WHERE i.movie_id = m.id AND i.user_id = %s AND i.watched
			)`, arg(f.HideWatchedBy)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of the filtered catalog and the unpaginated total.
func (r *Repository) List(ctx context.Context, f Filter) ([]*model.Movie, int, error) {
	orderBy, ok := sortClauses[f.SortBy]
	if !ok {
		if f.SortBy != "" {
			return nil, 0, ErrInvalidSort
		}
		orderBy = sortClauses[SortPopularity]
	}

	where, args := f.buildWhere()

	var total int
	countQuery := "SELECT count(*) FROM movies m" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}

	query := "SELECT " + movieColumns + " FROM movies m" + where +
		" ORDER BY " + orderBy +
		" LIMIT $" + strconv.Itoa(len(args)+1) +
		" OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	var moviesDB []MovieDB
	if err := r.db.SelectContext(ctx, &moviesDB, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to query movies: %w", err)
	}

	return toDomainList(moviesDB), total, nil
}

func (r *Repository) LoadByID(ctx context.Context, id int64) (model.Movie, error) {
	query := "SELECT " + movieColumns + " FROM movies m WHERE m.id = $1"

	var movieDB MovieDB
	err := r.db.GetContext(ctx, &movieDB, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Movie{}, ErrMovieNotFound
		}
		return model.Movie{}, fmt.Errorf("failed to load movie by id: %w", err)
	}

	return movieDB.ToDomain(), nil
}

// LoadByIDs returns movies in the order the IDs were given. Missing IDs are
// silently dropped.
func (r *Repository) LoadByIDs(ctx context.Context, ids []int64) ([]*model.Movie, error) {
	if len(ids) == 0 {
		return []*model.Movie{}, nil
	}

	query, args, err := sqlx.In("SELECT "+movieColumns+" FROM movies m WHERE m.id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	query = r.db.Rebind(query)
	var moviesDB []MovieDB
	if err := r.db.SelectContext(ctx, &moviesDB, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query movies by ids: %w", err)
	}

	byID := make(map[int64]*model.Movie, len(moviesDB))
	for _, movieDB := range moviesDB {
		domainMovie := movieDB.ToDomain()
		byID[domainMovie.ID] = &domainMovie
	}

	movies := make([]*model.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			movies = append(movies, m)
		}
	}

	return movies, nil
}

// LoadDetail loads a movie together with its top billed cast and directors.
func (r *Repository) LoadDetail(ctx context.Context, id int64) (model.MovieDetail, error) {
	movie, err := r.LoadByID(ctx, id)
	if err != nil {
		return model.MovieDetail{}, err
	}

	var castDBs []castDB
	castQuery := `
		SELECT person_id, person_name, character_name, credit_order
		FROM credits
		WHERE movie_id = $1 AND role = 'actor'
		ORDER BY credit_order
		LIMIT 10
	`
	if err := r.db.SelectContext(ctx, &castDBs, castQuery, id); err != nil {
		return model.MovieDetail{}, fmt.Errorf("failed to load cast: %w", err)
	}

	var directors []string
	directorQuery := `
		SELECT person_name FROM credits
		WHERE movie_id = $1 AND role = 'director'
	`
	if err := r.db.SelectContext(ctx, &directors, directorQuery, id); err != nil {
		return model.MovieDetail{}, fmt.Errorf("failed to load directors: %w", err)
	}

	var keywords []string
	keywordQuery := `SELECT keyword FROM keywords WHERE movie_id = $1`
	if err := r.db.SelectContext(ctx, &keywords, keywordQuery, id); err != nil {
		return model.MovieDetail{}, fmt.Errorf("failed to load keywords: %w", err)
	}
	movie.Keywords = keywords

	cast := make([]model.CastMember, len(castDBs))
	for i, c := range castDBs {
		cast[i] = c.toDomain()
	}

	return model.MovieDetail{
		Movie:     movie,
		Cast:      cast,
		Directors: directors,
	}, nil
}

func (r *Repository) Popular(ctx context.Context, limit int) ([]*model.Movie, error) {
	query := "SELECT " + movieColumns + " FROM movies m ORDER BY m.popularity DESC NULLS LAST LIMIT $1"

	var moviesDB []MovieDB
	if err := r.db.SelectContext(ctx, &moviesDB, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query popular movies: %w", err)
	}

	return toDomainList(moviesDB), nil
}

func (r *Repository) Genres(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT genre_name FROM genres ORDER BY genre_name`

	var genres []string
	if err := r.db.SelectContext(ctx, &genres, query); err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}

	return genres, nil
}

func (r *Repository) ContentRatings(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT content_rating FROM movies
		WHERE content_rating IS NOT NULL
		ORDER BY content_rating
	`

	var ratings []string
	if err := r.db.SelectContext(ctx, &ratings, query); err != nil {
		return nil, fmt.Errorf("failed to query content ratings: %w", err)
	}

	return ratings, nil
}

// All streams the full catalog, used by the offline embedding tool.
func (r *Repository) All(ctx context.Context) ([]*model.Movie, error) {
	query := "SELECT " + movieColumns + " FROM movies m ORDER BY m.id"

	var moviesDB []MovieDB
	if err := r.db.SelectContext(ctx, &moviesDB, query); err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}

	return toDomainList(moviesDB), nil
}
