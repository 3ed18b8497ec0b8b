package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/reeltrack/core/internal/config"
	infra_embedder "github.com/reeltrack/core/internal/infra/embedder"
	infra_embeddings "github.com/reeltrack/core/internal/infra/embeddings"
	infra_postgres_embedding "github.com/reeltrack/core/internal/infra/postgres/embedding"
	infra_pg_init "github.com/reeltrack/core/internal/infra/postgres/init"
	infra_postgres_movie "github.com/reeltrack/core/internal/infra/postgres/movie"
	"github.com/reeltrack/core/internal/model"
)

// Offline embedding generation: reads the catalog, embeds each movie's text,
// writes the matrix as an NPY file and refreshes the movie -> row index in
// Postgres. Run whenever the catalog changes.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
	movieRepository := infra_postgres_movie.New(pgConn)
	embeddingRepository := infra_postgres_embedding.New(pgConn)
	embedder := infra_embedder.New(cfg.Embedder)

	movies, err := movieRepository.All(ctx)
	if err != nil {
		log.Fatalf("failed to load movies: %v", err)
	}
	if len(movies) == 0 {
		log.Fatal("no movies to embed")
	}
	log.Printf("embedding %d movies with %s", len(movies), cfg.Embedder.Model)

	var (
		data []float32
		dim  int
		refs = make([]model.EmbeddingRef, 0, len(movies))
	)

	for i, movie := range movies {
		embedding, err := embedder.Embed(ctx, embeddingText(*movie))
		if err != nil {
			log.Fatalf("failed to embed movie %d (%s): %v", movie.ID, movie.Title, err)
		}

		if dim == 0 {
			dim = len(embedding)
		} else if len(embedding) != dim {
			log.Fatalf("dimension mismatch for movie %d: got %d, want %d", movie.ID, len(embedding), dim)
		}

		data = append(data, embedding...)
		refs = append(refs, model.EmbeddingRef{MovieID: movie.ID, Index: i})

		if (i+1)%100 == 0 {
			log.Printf("embedded %d/%d", i+1, len(movies))
		}
	}

	matrix, err := infra_embeddings.NewMatrix(data, len(refs), dim)
	if err != nil {
		log.Fatalf("failed to build matrix: %v", err)
	}

	file, err := os.Create(cfg.Embeddings.Path)
	if err != nil {
		log.Fatalf("failed to create %s: %v", cfg.Embeddings.Path, err)
	}
	defer file.Close()

	if err := infra_embeddings.WriteNPY(file, matrix); err != nil {
		log.Fatalf("failed to write matrix: %v", err)
	}

	err = embeddingRepository.ReplaceIndex(ctx, refs, model.EmbeddingConfig{
		Model:     cfg.Embedder.Model,
		Dimension: dim,
		Total:     len(refs),
	})
	if err != nil {
		log.Fatalf("failed to replace embedding index: %v", err)
	}

	log.Printf("wrote %d embeddings (dim %d) to %s", len(refs), dim, cfg.Embeddings.Path)
}

// embeddingText is the document embedded per movie: title, genres, overview.
func embeddingText(m model.Movie) string {
	var b strings.Builder
	b.WriteString(m.Title)
	if len(m.Genres) > 0 {
		b.WriteString(". Genres: ")
		b.WriteString(strings.Join(m.Genres, ", "))
	}
	if m.Overview != "" {
		b.WriteString(". ")
		b.WriteString(m.Overview)
	}
	return b.String()
}
