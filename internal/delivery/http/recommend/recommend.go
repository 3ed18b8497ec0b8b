package http_recommend

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	http_common "github.com/reeltrack/core/internal/delivery/http/common"
	http_auth_middleware "github.com/reeltrack/core/internal/delivery/http/middleware/auth"
	http_movie "github.com/reeltrack/core/internal/delivery/http/movie"
	usecase_recommend "github.com/reeltrack/core/internal/usecase/recommend"
)

type Controller struct {
	usecase    *usecase_recommend.Usecase
	middleware *http_auth_middleware.Middleware
	logger     *slog.Logger
}

func New(usecase *usecase_recommend.Usecase, middleware *http_auth_middleware.Middleware) *Controller {
	return &Controller{
		usecase:    usecase,
		middleware: middleware,
		logger:     slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/recommendations", c.middleware.AuthRequired(), c.recommendations)
}

type ExplanationDTO struct {
	Interest      float64 `json:"interest"`
	Discovery     float64 `json:"discovery"`
	Collaborative float64 `json:"collaborative"`
	Category      float64 `json:"category"`
	Total         float64 `json:"total"`
}

type RecommendationDTO struct {
	http_movie.MovieDTO
	Score       float64         `json:"score"`
	Explanation *ExplanationDTO `json:"explanation"`
}

func (c *Controller) recommendations(ctx *gin.Context) {
	userID := http_auth_middleware.UserID(ctx)

	n, _ := strconv.Atoi(ctx.DefaultQuery("n", "10"))
	lambda := -1.0
	if raw := ctx.Query("lambda"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http_common.Error(ctx, http.StatusBadRequest, "invalid lambda")
			return
		}
		lambda = v
	}

	result, err := c.usecase.Recommend(ctx, userID, n, lambda)
	if err != nil {
		c.logger.Error("failed to recommend", slog.String("error", err.Error()))
		http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	recommendations := make([]RecommendationDTO, len(result.Recommendations))
	for i, rec := range result.Recommendations {
		recommendations[i] = RecommendationDTO{
			MovieDTO: http_movie.MovieToDTO(rec.Movie),
			Score:    rec.Score,
			Explanation: &ExplanationDTO{
				Interest:      rec.Explanation.Interest,
				Discovery:     rec.Explanation.Discovery,
				Collaborative: rec.Explanation.Collaborative,
				Category:      rec.Explanation.Category,
				Total:         rec.Explanation.Total,
			},
		}
	}

	http_common.OK(ctx, gin.H{
		"recommendations": recommendations,
		"cold_start":      result.ColdStart,
	})
}
