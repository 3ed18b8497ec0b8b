package http_interaction

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	http_common "github.com/reeltrack/core/internal/delivery/http/common"
	http_auth_middleware "github.com/reeltrack/core/internal/delivery/http/middleware/auth"
	http_movie "github.com/reeltrack/core/internal/delivery/http/movie"
	usecase_interaction "github.com/reeltrack/core/internal/usecase/interaction"
	"github.com/reeltrack/core/internal/validate"
)

type Controller struct {
	usecase    *usecase_interaction.Usecase
	middleware *http_auth_middleware.Middleware
	logger     *slog.Logger
}

func New(usecase *usecase_interaction.Usecase, middleware *http_auth_middleware.Middleware) *Controller {
	return &Controller{
		usecase:    usecase,
		middleware: middleware,
		logger:     slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	movies := router.Group("/movies", c.middleware.AuthRequired())
	{
		movies.GET("/watchlist", c.watchlist)
		movies.GET("/watched", c.watched)
		movies.POST("/:movie_id/watch", c.watch)
		movies.POST("/:movie_id/rate", c.rate)
		movies.POST("/:movie_id/skip", c.skip)
		movies.POST("/:movie_id/watchlist/add", c.watchlistAdd)
		movies.POST("/:movie_id/watchlist/remove", c.watchlistRemove)
		movies.DELETE("/:movie_id/interactions", c.deleteInteraction)
	}

	profile := router.Group("/profile", c.middleware.AuthRequired())
	{
		profile.GET("", c.profile)
		profile.POST("/clear-all-data", c.clearAll)
	}
}

func movieIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("movie_id"), 10, 64)
	if err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid movie id")
		return 0, false
	}
	return id, true
}

func (c *Controller) watch(ctx *gin.Context) {
	movieID, ok := movieIDParam(ctx)
	if !ok {
		return
	}
	userID := http_auth_middleware.UserID(ctx)

	if err := c.usecase.Watch(ctx, userID, movieID); err != nil {
		c.respondInteractionError(ctx, "failed to mark watched", err)
		return
	}

	http_common.OK(ctx, gin.H{"message": "movie marked as watched"})
}

type RateRequestDTO struct {
	Rating *float64 `json:"rating"`
}

func (c *Controller) rate(ctx *gin.Context) {
	movieID, ok := movieIDParam(ctx)
	if !ok {
		return
	}

	var req RateRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Rating == nil {
		http_common.Error(ctx, http.StatusBadRequest, "rating is required")
		return
	}

	userID := http_auth_middleware.UserID(ctx)

	if err := c.usecase.Rate(ctx, userID, movieID, *req.Rating); err != nil {
		c.respondInteractionError(ctx, "failed to rate movie", err)
		return
	}

	http_common.OK(ctx, gin.H{"message": "rating saved", "rating": *req.Rating})
}

func (c *Controller) skip(ctx *gin.Context) {
	movieID, ok := movieIDParam(ctx)
	if !ok {
		return
	}
	userID := http_auth_middleware.UserID(ctx)

	if err := c.usecase.Skip(ctx, userID, movieID); err != nil {
		c.respondInteractionError(ctx, "failed to skip movie", err)
		return
	}

	http_common.OK(ctx, gin.H{"message": "movie skipped"})
}

func (c *Controller) watchlistAdd(ctx *gin.Context) {
	movieID, ok := movieIDParam(ctx)
	if !ok {
		return
	}
	userID := http_auth_middleware.UserID(ctx)

	if err := c.usecase.AddToWatchlist(ctx, userID, movieID); err != nil {
		c.respondInteractionError(ctx, "failed to add to watchlist", err)
		return
	}

	http_common.OK(ctx, gin.H{"message": "added to watchlist"})
}

func (c *Controller) watchlistRemove(ctx *gin.Context) {
	movieID, ok := movieIDParam(ctx)
	if !ok {
		return
	}
	userID := http_auth_middleware.UserID(ctx)

	if err := c.usecase.RemoveFromWatchlist(ctx, userID, movieID); err != nil {
		c.respondInteractionError(ctx, "failed to remove from watchlist", err)
		return
	}

	http_common.OK(ctx, gin.H{"message": "removed from watchlist"})
}

func (c *Controller) watchlist(ctx *gin.Context) {
	userID := http_auth_middleware.UserID(ctx)
	page, _ := strconv.Atoi(ctx.Query("page"))
	perPage, _ := strconv.Atoi(ctx.Query("per_page"))

	movies, total, perPage, err := c.usecase.Watchlist(ctx, userID, page, perPage)
	if err != nil {
		c.respondInteractionError(ctx, "failed to list watchlist", err)
		return
	}

	if page < 1 {
		page = 1
	}
	http_common.OK(ctx, gin.H{
		"movies":     http_movie.MoviesToDTO(movies),
		"pagination": http_common.NewPagination(page, perPage, total),
	})
}

type WatchedMovieDTO struct {
	http_movie.MovieDTO
	WatchedAt  string   `json:"watched_at"`
	UserRating *float64 `json:"user_rating"`
}

func (c *Controller) watched(ctx *gin.Context) {
	userID := http_auth_middleware.UserID(ctx)
	page, _ := strconv.Atoi(ctx.Query("page"))
	perPage, _ := strconv.Atoi(ctx.Query("per_page"))
	sortBy := ctx.Query("sort_by")

	watched, total, perPage, err := c.usecase.Watched(ctx, userID, sortBy, page, perPage)
	if err != nil {
		c.respondInteractionError(ctx, "failed to list watched", err)
		return
	}

	movies := make([]WatchedMovieDTO, len(watched))
	for i, w := range watched {
		movies[i] = WatchedMovieDTO{
			MovieDTO:   http_movie.MovieToDTO(w.Movie),
			WatchedAt:  w.WatchedAt.Format("2006-01-02T15:04:05Z07:00"),
			UserRating: w.UserRating,
		}
	}

	if page < 1 {
		page = 1
	}
	http_common.OK(ctx, gin.H{
		"movies":     movies,
		"pagination": http_common.NewPagination(page, perPage, total),
	})
}

type StatsDTO struct {
	Watched        int      `json:"watched"`
	Rated          int      `json:"rated"`
	Skipped        int      `json:"skipped"`
	WatchlistCount int      `json:"watchlist_count"`
	AvgRating      *float64 `json:"avg_rating"`
}

type RecentActivityDTO struct {
	Movie       http_movie.MovieDTO `json:"movie"`
	Watched     bool                `json:"watched"`
	Rating      *float64            `json:"rating"`
	Skipped     bool                `json:"skipped"`
	Watchlisted bool                `json:"watchlisted"`
	UpdatedAt   string              `json:"updated_at"`
}

func (c *Controller) profile(ctx *gin.Context) {
	userID := http_auth_middleware.UserID(ctx)

	profile, err := c.usecase.Profile(ctx, userID)
	if err != nil {
		c.respondInteractionError(ctx, "failed to load profile", err)
		return
	}

	recent := make([]RecentActivityDTO, len(profile.Recent))
	for i, activity := range profile.Recent {
		recent[i] = RecentActivityDTO{
			Movie:       http_movie.MovieToDTO(activity.Movie),
			Watched:     activity.Interaction.Watched,
			Rating:      activity.Interaction.Rating,
			Skipped:     activity.Interaction.Skipped,
			Watchlisted: activity.Interaction.Watchlisted,
			UpdatedAt:   activity.Interaction.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	http_common.OK(ctx, gin.H{
		"stats": StatsDTO{
			Watched:        profile.Stats.Watched,
			Rated:          profile.Stats.Rated,
			Skipped:        profile.Stats.Skipped,
			WatchlistCount: profile.Stats.WatchlistCount,
			AvgRating:      profile.Stats.AvgRating,
		},
		"recent_activity": recent,
	})
}

func (c *Controller) deleteInteraction(ctx *gin.Context) {
	movieID, ok := movieIDParam(ctx)
	if !ok {
		return
	}
	userID := http_auth_middleware.UserID(ctx)

	if err := c.usecase.DeleteInteraction(ctx, userID, movieID); err != nil {
		if errors.Is(err, usecase_interaction.ErrInteractionNotFound) {
			http_common.Error(ctx, http.StatusNotFound, "no interaction with this movie")
			return
		}
		c.respondInteractionError(ctx, "failed to delete interaction", err)
		return
	}

	http_common.OK(ctx, gin.H{"message": "interaction deleted"})
}

func (c *Controller) clearAll(ctx *gin.Context) {
	userID := http_auth_middleware.UserID(ctx)

	removed, err := c.usecase.ClearAll(ctx, userID)
	if err != nil {
		c.respondInteractionError(ctx, "failed to clear interactions", err)
		return
	}

	http_common.OK(ctx, gin.H{
		"message":         "all interaction data cleared",
		"records_removed": removed,
	})
}

func (c *Controller) respondInteractionError(ctx *gin.Context, logMsg string, err error) {
	switch {
	case errors.Is(err, validate.ErrValidation):
		http_common.Error(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase_interaction.ErrMovieNotFound):
		http_common.Error(ctx, http.StatusNotFound, "movie not found")
	default:
		c.logger.Error(logMsg, slog.String("error", err.Error()))
		http_common.Error(ctx, http.StatusInternalServerError, "internal error")
	}
}
