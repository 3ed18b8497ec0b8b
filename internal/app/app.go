package app

import (
	"context"
	"log"

	"github.com/reeltrack/core/internal/config"
	http_auth "github.com/reeltrack/core/internal/delivery/http/auth"
	http_init "github.com/reeltrack/core/internal/delivery/http/init"
	http_interaction "github.com/reeltrack/core/internal/delivery/http/interaction"
	http_auth_middleware "github.com/reeltrack/core/internal/delivery/http/middleware/auth"
	http_movie "github.com/reeltrack/core/internal/delivery/http/movie"
	http_recommend "github.com/reeltrack/core/internal/delivery/http/recommend"
	http_review "github.com/reeltrack/core/internal/delivery/http/review"
	infra_embedder "github.com/reeltrack/core/internal/infra/embedder"
	infra_embeddings "github.com/reeltrack/core/internal/infra/embeddings"
	infra_postgres_embedding "github.com/reeltrack/core/internal/infra/postgres/embedding"
	infra_pg_init "github.com/reeltrack/core/internal/infra/postgres/init"
	infra_postgres_interaction "github.com/reeltrack/core/internal/infra/postgres/interaction"
	infra_postgres_movie "github.com/reeltrack/core/internal/infra/postgres/movie"
	infra_postgres_review "github.com/reeltrack/core/internal/infra/postgres/review"
	infra_postgres_user "github.com/reeltrack/core/internal/infra/postgres/user"
	infra_redis_init "github.com/reeltrack/core/internal/infra/redis/init"
	infra_reset_token_cache "github.com/reeltrack/core/internal/infra/redis/reset_token"
	service_jwt_auth "github.com/reeltrack/core/internal/service/auth/jwt"
	service_recommender "github.com/reeltrack/core/internal/service/recommender"
	usecase_auth "github.com/reeltrack/core/internal/usecase/auth"
	usecase_interaction "github.com/reeltrack/core/internal/usecase/interaction"
	usecase_movie "github.com/reeltrack/core/internal/usecase/movie"
	usecase_recommend "github.com/reeltrack/core/internal/usecase/recommend"
	usecase_review "github.com/reeltrack/core/internal/usecase/review"
)

func Go(cfg *config.Config) {
	ctx := context.Background()

	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)

	userRepository := infra_postgres_user.New(pgConn)
	movieRepository := infra_postgres_movie.New(pgConn)
	interactionRepository := infra_postgres_interaction.New(pgConn)
	reviewRepository := infra_postgres_review.New(pgConn)
	embeddingRepository := infra_postgres_embedding.New(pgConn)

	matrix, err := infra_embeddings.LoadNPY(cfg.Embeddings.Path)
	if err != nil {
		log.Fatalf("failed to load embedding matrix: %v", err)
	}
	refs, err := embeddingRepository.LoadIndex(ctx)
	if err != nil {
		log.Fatalf("failed to load embedding index: %v", err)
	}
	embeddingConfig, err := embeddingRepository.LoadConfig(ctx)
	if err != nil {
		log.Fatalf("failed to load embedding config: %v", err)
	}
	if embeddingConfig.Dimension != matrix.Dim() || embeddingConfig.Total != matrix.Rows() {
		log.Fatalf("embedding matrix (%d x %d) does not match stored config (%d x %d)",
			matrix.Rows(), matrix.Dim(), embeddingConfig.Total, embeddingConfig.Dimension)
	}

	genres, err := loadGenres(ctx, movieRepository)
	if err != nil {
		log.Fatalf("failed to load movie genres: %v", err)
	}

	recommender, err := service_recommender.New(matrix, refs, genres)
	if err != nil {
		log.Fatalf("failed to build recommender: %v", err)
	}

	tokenService, err := service_jwt_auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("failed to init token service: %v", err)
	}

	resetTokenCache := infra_reset_token_cache.New(redisConn, "reset_token")
	embedder := infra_embedder.New(cfg.Embedder)

	authUC := usecase_auth.New(userRepository, tokenService, resetTokenCache, cfg.Auth.ResetTokenTTL)
	movieUC := usecase_movie.New(movieRepository, interactionRepository, recommender, embedder)
	interactionUC := usecase_interaction.New(interactionRepository, movieRepository)
	reviewUC := usecase_review.New(reviewRepository, movieRepository)
	recommendUC := usecase_recommend.New(interactionRepository, movieRepository, recommender, cfg.Recommend)

	authMiddleware := http_auth_middleware.New(tokenService)

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_auth.New(authUC, authMiddleware))
	controllerPool.Add(http_movie.New(movieUC, authMiddleware))
	controllerPool.Add(http_interaction.New(interactionUC, authMiddleware))
	controllerPool.Add(http_review.New(reviewUC, authMiddleware))
	controllerPool.Add(http_recommend.New(recommendUC, authMiddleware))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}

// loadGenres builds the movie -> genres map the category signal scores with.
func loadGenres(ctx context.Context, movies *infra_postgres_movie.Repository) (map[int64][]string, error) {
	all, err := movies.All(ctx)
	if err != nil {
		return nil, err
	}

	genres := make(map[int64][]string, len(all))
	for _, movie := range all {
		if len(movie.Genres) > 0 {
			genres[movie.ID] = movie.Genres
		}
	}

	return genres, nil
}
