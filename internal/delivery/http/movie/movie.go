package http_movie

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	http_common "github.com/reeltrack/core/internal/delivery/http/common"
	http_auth_middleware "github.com/reeltrack/core/internal/delivery/http/middleware/auth"
	"github.com/reeltrack/core/internal/model"
	usecase_movie "github.com/reeltrack/core/internal/usecase/movie"
	"github.com/reeltrack/core/internal/validate"
)

type Controller struct {
	movies     *usecase_movie.Usecase
	middleware *http_auth_middleware.Middleware
	logger     *slog.Logger
}

func New(
	movies *usecase_movie.Usecase,
	middleware *http_auth_middleware.Middleware,
) *Controller {
	return &Controller{
		movies:     movies,
		middleware: middleware,
		logger:     slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	movies := router.Group("/movies", c.middleware.Optional())
	{
		movies.GET("", c.browse)
		movies.GET("/search", c.search)
		movies.GET("/smart-search", c.smartSearch)
		movies.GET("/genres", c.genres)
		movies.GET("/content-ratings", c.contentRatings)
		movies.GET("/:movie_id", c.detail)
	}
}

type MovieDTO struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Overview      string   `json:"overview"`
	ReleaseDate   string   `json:"release_date"`
	Year          int      `json:"year,omitempty"`
	VoteAverage   float64  `json:"vote_average"`
	VoteCount     int      `json:"vote_count"`
	Popularity    float64  `json:"popularity"`
	PosterURL     string   `json:"poster_url,omitempty"`
	BackdropURL   string   `json:"backdrop_url,omitempty"`
	ContentRating string   `json:"content_rating,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`

	Similarity *float64 `json:"similarity,omitempty"`
}

func MovieToDTO(m model.Movie) MovieDTO {
	return MovieDTO{
		ID:            m.ID,
		Title:         m.Title,
		Overview:      m.Overview,
		ReleaseDate:   m.ReleaseDate,
		Year:          m.Year(),
		VoteAverage:   m.VoteAverage,
		VoteCount:     m.VoteCount,
		Popularity:    m.Popularity,
		PosterURL:     m.PosterURL(),
		BackdropURL:   m.BackdropURL(),
		ContentRating: m.ContentRating,
		Genres:        m.Genres,
		Keywords:      m.Keywords,
	}
}

func MoviesToDTO(movies []*model.Movie) []MovieDTO {
	out := make([]MovieDTO, len(movies))
	for i, m := range movies {
		out[i] = MovieToDTO(*m)
	}
	return out
}

func scoredToDTO(scored []model.ScoredMovie) []MovieDTO {
	out := make([]MovieDTO, len(scored))
	for i, s := range scored {
		dto := MovieToDTO(s.Movie)
		sim := s.Similarity
		dto.Similarity = &sim
		out[i] = dto
	}
	return out
}

func queryInt(ctx *gin.Context, name string) int {
	v, _ := strconv.Atoi(ctx.Query(name))
	return v
}

func queryFloat(ctx *gin.Context, name string) float64 {
	v, _ := strconv.ParseFloat(ctx.Query(name), 64)
	return v
}

func browseParams(ctx *gin.Context) usecase_movie.BrowseParams {
	return usecase_movie.BrowseParams{
		Genre:         ctx.Query("genre"),
		Search:        ctx.Query("search"),
		MinRating:     queryFloat(ctx, "min_rating"),
		YearFrom:      queryInt(ctx, "year_from"),
		YearTo:        queryInt(ctx, "year_to"),
		MinVotes:      queryInt(ctx, "min_votes"),
		ContentRating: ctx.Query("content_rating"),
		SortBy:        ctx.Query("sort_by"),
		HideWatched:   ctx.Query("hide_watched") == "true",
		Page:          queryInt(ctx, "page"),
		PerPage:       queryInt(ctx, "per_page"),
	}
}

func (c *Controller) browse(ctx *gin.Context) {
	userID := http_auth_middleware.UserID(ctx)
	params := browseParams(ctx)

	movies, total, perPage, err := c.movies.Browse(ctx, userID, params)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrValidation):
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase_movie.ErrInvalidSort):
			http_common.Error(ctx, http.StatusBadRequest, "invalid sort option")
		default:
			c.logger.Error("failed to browse movies", slog.String("error", err.Error()))
			http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		}
		return
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	http_common.OK(ctx, gin.H{
		"movies":     MoviesToDTO(movies),
		"pagination": http_common.NewPagination(page, perPage, total),
	})
}

// search is browse constrained to a required free-text query.
func (c *Controller) search(ctx *gin.Context) {
	if ctx.Query("q") == "" && ctx.Query("search") == "" {
		http_common.Error(ctx, http.StatusBadRequest, "search query is required")
		return
	}

	userID := http_auth_middleware.UserID(ctx)
	params := browseParams(ctx)
	if params.Search == "" {
		params.Search = ctx.Query("q")
	}

	movies, total, perPage, err := c.movies.Browse(ctx, userID, params)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrValidation):
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase_movie.ErrInvalidSort):
			http_common.Error(ctx, http.StatusBadRequest, "invalid sort option")
		default:
			c.logger.Error("failed to search movies", slog.String("error", err.Error()))
			http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		}
		return
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	http_common.OK(ctx, gin.H{
		"movies":     MoviesToDTO(movies),
		"pagination": http_common.NewPagination(page, perPage, total),
	})
}

func (c *Controller) smartSearch(ctx *gin.Context) {
	params := usecase_movie.SmartSearchParams{
		Query:         ctx.Query("q"),
		ContentRating: ctx.Query("content_rating"),
		YearFrom:      queryInt(ctx, "year_from"),
		YearTo:        queryInt(ctx, "year_to"),
		Page:          queryInt(ctx, "page"),
		PerPage:       queryInt(ctx, "per_page"),
	}

	scored, total, perPage, err := c.movies.SmartSearch(ctx, params)
	if err != nil {
		if errors.Is(err, validate.ErrValidation) {
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
			return
		}
		c.logger.Error("failed to smart search", slog.String("error", err.Error()))
		http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	http_common.OK(ctx, gin.H{
		"movies":     scoredToDTO(scored),
		"pagination": http_common.NewPagination(page, perPage, total),
	})
}

type CastMemberDTO struct {
	PersonID  int64  `json:"person_id"`
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
}

type InteractionDTO struct {
	Watched     bool     `json:"watched"`
	Rating      *float64 `json:"rating"`
	Skipped     bool     `json:"skipped"`
	Watchlisted bool     `json:"watchlisted"`
}

func (c *Controller) detail(ctx *gin.Context) {
	movieID, err := strconv.ParseInt(ctx.Param("movie_id"), 10, 64)
	if err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid movie id")
		return
	}

	userID := http_auth_middleware.UserID(ctx)

	detail, err := c.movies.Detail(ctx, userID, movieID)
	if err != nil {
		if errors.Is(err, usecase_movie.ErrMovieNotFound) {
			http_common.Error(ctx, http.StatusNotFound, "movie not found")
			return
		}
		c.logger.Error("failed to load movie", slog.String("error", err.Error()))
		http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	cast := make([]CastMemberDTO, len(detail.Cast))
	for i, member := range detail.Cast {
		cast[i] = CastMemberDTO{
			PersonID:  member.PersonID,
			Name:      member.Name,
			Character: member.Character,
		}
	}

	payload := gin.H{
		"movie":     MovieToDTO(detail.Movie),
		"cast":      cast,
		"directors": detail.Directors,
		"similar":   scoredToDTO(detail.Similar),
	}
	if detail.Interaction != nil {
		payload["interaction"] = InteractionDTO{
			Watched:     detail.Interaction.Watched,
			Rating:      detail.Interaction.Rating,
			Skipped:     detail.Interaction.Skipped,
			Watchlisted: detail.Interaction.Watchlisted,
		}
	}

	http_common.OK(ctx, payload)
}

func (c *Controller) genres(ctx *gin.Context) {
	genres, err := c.movies.Genres(ctx)
	if err != nil {
		c.logger.Error("failed to list genres", slog.String("error", err.Error()))
		http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	http_common.OK(ctx, gin.H{"genres": genres})
}

func (c *Controller) contentRatings(ctx *gin.Context) {
	ratings, err := c.movies.ContentRatings(ctx)
	if err != nil {
		c.logger.Error("failed to list content ratings", slog.String("error", err.Error()))
		http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	http_common.OK(ctx, gin.H{"content_ratings": ratings})
}
