package usecase_movie

import (
	"context"
	"errors"
	"fmt"

	infra_postgres_interaction "github.com/reeltrack/core/internal/infra/postgres/interaction"
	infra_postgres_movie "github.com/reeltrack/core/internal/infra/postgres/movie"
	"github.com/reeltrack/core/internal/model"
	service_recommender "github.com/reeltrack/core/internal/service/recommender"
	"github.com/reeltrack/core/internal/validate"
)

var (
	ErrMovieNotFound = errors.New("movie not found")
	ErrInvalidSort   = errors.New("invalid sort option")
	ErrInternal      = errors.New("internal error")
)

const (
	similarMoviesLimit = 6
	// smartSearchPool is how deep the similarity ranking goes before the
	// year and content-rating filters cut it down.
	smartSearchPool = 40
)

type MovieRepository interface {
	List(ctx context.Context, f infra_postgres_movie.Filter) ([]*model.Movie, int, error)
	LoadByID(ctx context.Context, id int64) (model.Movie, error)
	LoadByIDs(ctx context.Context, ids []int64) ([]*model.Movie, error)
	LoadDetail(ctx context.Context, id int64) (model.MovieDetail, error)
	Genres(ctx context.Context) ([]string, error)
	ContentRatings(ctx context.Context) ([]string, error)
}

type InteractionRepository interface {
	Load(ctx context.Context, userID, movieID int64) (model.Interaction, error)
}

type Similarity interface {
	SimilarTo(movieID int64, n int, exclude map[int64]bool) ([]service_recommender.Scored, error)
	RankBySimilarity(query model.Embedding, limit int) ([]service_recommender.Scored, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) (model.Embedding, error)
}

type Usecase struct {
	movies       MovieRepository
	interactions InteractionRepository
	similarity   Similarity
	embedder     Embedder
}

func New(
	movies MovieRepository,
	interactions InteractionRepository,
	similarity Similarity,
	embedder Embedder,
) *Usecase {
	return &Usecase{
		movies:       movies,
		interactions: interactions,
		similarity:   similarity,
		embedder:     embedder,
	}
}

// Browse lists one catalog page through the repository filter. userID is 0
// for anonymous callers; when set, HideWatched drops already-watched movies.
type BrowseParams struct {
	Genre         string
	Search        string
	MinRating     float64
	YearFrom      int
	YearTo        int
	MinVotes      int
	ContentRating string
	SortBy        string
	HideWatched   bool

	Page    int
	PerPage int
}

func (u *Usecase) Browse(ctx context.Context, userID int64, p BrowseParams) ([]*model.Movie, int, int, error) {
	page, perPage, err := validate.Pagination(p.Page, p.PerPage)
	if err != nil {
		return nil, 0, 0, err
	}

	if p.Search != "" {
		if p.Search, err = validate.SearchQuery(p.Search); err != nil {
			return nil, 0, 0, err
		}
	}

	filter := infra_postgres_movie.Filter{
		Genre:         p.Genre,
		Search:        p.Search,
		MinRating:     p.MinRating,
		YearFrom:      p.YearFrom,
		YearTo:        p.YearTo,
		MinVotes:      p.MinVotes,
		ContentRating: p.ContentRating,
		SortBy:        p.SortBy,
		Page:          page,
		PerPage:       perPage,
	}
	if p.HideWatched && userID != 0 {
		filter.HideWatchedBy = userID
	}

	movies, total, err := u.movies.List(ctx, filter)
	if err != nil {
		if errors.Is(err, infra_postgres_movie.ErrInvalidSort) {
			return nil, 0, 0, ErrInvalidSort
		}
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return movies, total, perPage, nil
}

// Detail is the movie page payload: the movie with cast and directors, up to
// six similar movies, and the caller's interaction when authenticated.
type Detail struct {
	model.MovieDetail
	Similar     []model.ScoredMovie
	Interaction *model.Interaction
}

func (u *Usecase) Detail(ctx context.Context, userID, movieID int64) (Detail, error) {
	detail, err := u.movies.LoadDetail(ctx, movieID)
	if err != nil {
		if errors.Is(err, infra_postgres_movie.ErrMovieNotFound) {
			return Detail{}, ErrMovieNotFound
		}
		return Detail{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	out := Detail{MovieDetail: detail}

	// A movie without an embedding row simply has no similar section.
	scored, err := u.similarity.SimilarTo(movieID, similarMoviesLimit, nil)
	if err == nil && len(scored) > 0 {
		ids := make([]int64, len(scored))
		scoreByID := make(map[int64]float64, len(scored))
		for i, s := range scored {
			ids[i] = s.MovieID
			scoreByID[s.MovieID] = s.Score
		}

		movies, err := u.movies.LoadByIDs(ctx, ids)
		if err != nil {
			return Detail{}, fmt.Errorf("%w: %w", ErrInternal, err)
		}

		out.Similar = make([]model.ScoredMovie, len(movies))
		for i, movie := range movies {
			out.Similar[i] = model.ScoredMovie{Movie: *movie, Similarity: scoreByID[movie.ID]}
		}
	}

	if userID != 0 {
		interaction, err := u.interactions.Load(ctx, userID, movieID)
		switch {
		case err == nil:
			out.Interaction = &interaction
		case !errors.Is(err, infra_postgres_interaction.ErrInteractionNotFound):
			return Detail{}, fmt.Errorf("%w: %w", ErrInternal, err)
		}
	}

	return out, nil
}

// SmartSearch embeds the free-text query, ranks the catalog by cosine
// similarity, applies the optional year and content-rating filters to the
// top pool, and paginates the result.
type SmartSearchParams struct {
	Query         string
	ContentRating string
	YearFrom      int
	YearTo        int

	Page    int
	PerPage int
}

func (u *Usecase) SmartSearch(ctx context.Context, p SmartSearchParams) ([]model.ScoredMovie, int, int, error) {
	query, err := validate.SearchQuery(p.Query)
	if err != nil {
		return nil, 0, 0, err
	}

	page, perPage, err := validate.Pagination(p.Page, p.PerPage)
	if err != nil {
		return nil, 0, 0, err
	}

	embedding, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	scored, err := u.similarity.RankBySimilarity(embedding, smartSearchPool)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	ids := make([]int64, len(scored))
	scoreByID := make(map[int64]float64, len(scored))
	for i, s := range scored {
		ids[i] = s.MovieID
		scoreByID[s.MovieID] = s.Score
	}

	movies, err := u.movies.LoadByIDs(ctx, ids)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	filtered := make([]model.ScoredMovie, 0, len(movies))
	for _, movie := range movies {
		if p.ContentRating != "" && movie.ContentRating != p.ContentRating {
			continue
		}
		year := movie.Year()
		if p.YearFrom > 0 && (year == 0 || year < p.YearFrom) {
			continue
		}
		if p.YearTo > 0 && (year == 0 || year > p.YearTo) {
			continue
		}
		filtered = append(filtered, model.ScoredMovie{Movie: *movie, Similarity: scoreByID[movie.ID]})
	}

	total := len(filtered)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return filtered[start:end], total, perPage, nil
}

func (u *Usecase) Genres(ctx context.Context) ([]string, error) {
	genres, err := u.movies.Genres(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return genres, nil
}

func (u *Usecase) ContentRatings(ctx context.Context) ([]string, error) {
	ratings, err := u.movies.ContentRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return ratings, nil
}
