package http_review

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	http_common "github.com/reeltrack/core/internal/delivery/http/common"
	http_auth_middleware "github.com/reeltrack/core/internal/delivery/http/middleware/auth"
	"github.com/reeltrack/core/internal/model"
	usecase_review "github.com/reeltrack/core/internal/usecase/review"
	"github.com/reeltrack/core/internal/validate"
)

type Controller struct {
	usecase    *usecase_review.Usecase
	middleware *http_auth_middleware.Middleware
	logger     *slog.Logger
}

func New(usecase *usecase_review.Usecase, middleware *http_auth_middleware.Middleware) *Controller {
	return &Controller{
		usecase:    usecase,
		middleware: middleware,
		logger:     slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	movies := router.Group("/movies")
	{
		movies.GET("/:movie_id/reviews", c.listByMovie)
		movies.POST("/:movie_id/reviews", c.middleware.AuthRequired(), c.add)
	}

	reviews := router.Group("/reviews", c.middleware.AuthRequired())
	{
		reviews.PUT("/:review_id", c.edit)
		reviews.DELETE("/:review_id", c.delete)
		reviews.POST("/:review_id/vote", c.vote)
	}
}

type ReviewDTO struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	MovieID         int64  `json:"movie_id"`
	Username        string `json:"username"`
	Rating          *int   `json:"rating"`
	Text            string `json:"text"`
	HelpfulCount    int    `json:"helpful_count"`
	NotHelpfulCount int    `json:"not_helpful_count"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

func reviewToDTO(r model.Review) ReviewDTO {
	dto := ReviewDTO{
		ID:              r.ID,
		UserID:          r.UserID,
		MovieID:         r.MovieID,
		Username:        r.Username,
		Rating:          r.Rating,
		Text:            r.Text,
		HelpfulCount:    r.HelpfulCount,
		NotHelpfulCount: r.NotHelpfulCount,
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	if !r.UpdatedAt.IsZero() && !r.UpdatedAt.Equal(r.CreatedAt) {
		dto.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func reviewsToDTO(reviews []model.Review) []ReviewDTO {
	out := make([]ReviewDTO, len(reviews))
	for i, r := range reviews {
		out[i] = reviewToDTO(r)
	}
	return out
}

func (c *Controller) listByMovie(ctx *gin.Context) {
	movieID, err := strconv.ParseInt(ctx.Param("movie_id"), 10, 64)
	if err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid movie id")
		return
	}

	page, _ := strconv.Atoi(ctx.Query("page"))
	perPage, _ := strconv.Atoi(ctx.Query("per_page"))

	reviews, total, perPage, err := c.usecase.ListByMovie(ctx, movieID, page, perPage)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrValidation):
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase_review.ErrMovieNotFound):
			http_common.Error(ctx, http.StatusNotFound, "movie not found")
		default:
			c.logger.Error("failed to list reviews", slog.String("error", err.Error()))
			http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if page < 1 {
		page = 1
	}
	http_common.OK(ctx, gin.H{
		"reviews":    reviewsToDTO(reviews),
		"pagination": http_common.NewPagination(page, perPage, total),
	})
}

type ReviewRequestDTO struct {
	Text   string `json:"text"`
	Rating *int   `json:"rating"`
}

func (c *Controller) add(ctx *gin.Context) {
	movieID, err := strconv.ParseInt(ctx.Param("movie_id"), 10, 64)
	if err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid movie id")
		return
	}

	var req ReviewRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid request format")
		return
	}

	userID := http_auth_middleware.UserID(ctx)

	review, err := c.usecase.Add(ctx, userID, movieID, req.Text, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrValidation):
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase_review.ErrMovieNotFound):
			http_common.Error(ctx, http.StatusNotFound, "movie not found")
		case errors.Is(err, usecase_review.ErrDuplicateReview):
			http_common.Error(ctx, http.StatusBadRequest, "you have already reviewed this movie")
		default:
			c.logger.Error("failed to add review", slog.String("error", err.Error()))
			http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		}
		return
	}

	http_common.JSON(ctx, http.StatusCreated, gin.H{
		"message": "review added",
		"review":  reviewToDTO(review),
	})
}

func (c *Controller) edit(ctx *gin.Context) {
	reviewID, err := strconv.ParseInt(ctx.Param("review_id"), 10, 64)
	if err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid review id")
		return
	}

	var req ReviewRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid request format")
		return
	}

	userID := http_auth_middleware.UserID(ctx)

	review, err := c.usecase.Edit(ctx, userID, reviewID, req.Text, req.Rating)
	if err != nil {
		c.respondReviewError(ctx, "failed to edit review", err)
		return
	}

	http_common.OK(ctx, gin.H{
		"message": "review updated",
		"review":  reviewToDTO(review),
	})
}

func (c *Controller) delete(ctx *gin.Context) {
	reviewID, err := strconv.ParseInt(ctx.Param("review_id"), 10, 64)
	if err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid review id")
		return
	}

	userID := http_auth_middleware.UserID(ctx)

	if err := c.usecase.Delete(ctx, userID, reviewID); err != nil {
		c.respondReviewError(ctx, "failed to delete review", err)
		return
	}

	http_common.OK(ctx, gin.H{"message": "review deleted"})
}

type VoteRequestDTO struct {
	IsHelpful *bool `json:"is_helpful"`
}

func (c *Controller) vote(ctx *gin.Context) {
	reviewID, err := strconv.ParseInt(ctx.Param("review_id"), 10, 64)
	if err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid review id")
		return
	}

	var req VoteRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil || req.IsHelpful == nil {
		http_common.Error(ctx, http.StatusBadRequest, "is_helpful is required")
		return
	}

	userID := http_auth_middleware.UserID(ctx)

	helpful, notHelpful, err := c.usecase.Vote(ctx, userID, reviewID, *req.IsHelpful)
	if err != nil {
		c.respondReviewError(ctx, "failed to vote on review", err)
		return
	}

	http_common.OK(ctx, gin.H{
		"message":           "vote recorded",
		"helpful_count":     helpful,
		"not_helpful_count": notHelpful,
	})
}

func (c *Controller) respondReviewError(ctx *gin.Context, logMsg string, err error) {
	switch {
	case errors.Is(err, validate.ErrValidation):
		http_common.Error(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase_review.ErrReviewNotFound):
		http_common.Error(ctx, http.StatusNotFound, "review not found")
	case errors.Is(err, usecase_review.ErrNotOwner):
		http_common.Error(ctx, http.StatusForbidden, "review belongs to another user")
	default:
		c.logger.Error(logMsg, slog.String("error", err.Error()))
		http_common.Error(ctx, http.StatusInternalServerError, "internal error")
	}
}
