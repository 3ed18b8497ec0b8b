package infra_postgres_embedding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/reeltrack/core/internal/model"
)

var ErrNoEmbeddingIndex = errors.New("no embedding metadata")

type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// LoadIndex returns the movie_id -> matrix row mapping written by the
// offline embedding tool.
func (r *Repository) LoadIndex(ctx context.Context) ([]model.EmbeddingRef, error) {
	query := `SELECT movie_id, embedding_index FROM embedding_metadata ORDER BY embedding_index`

	var rows []struct {
		MovieID int64 `db:"movie_id"`
		Index   int   `db:"embedding_index"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query embedding index: %w", err)
	}

	if len(rows) == 0 {
		return nil, ErrNoEmbeddingIndex
	}

	refs := make([]model.EmbeddingRef, len(rows))
	for i, row := range rows {
		refs[i] = model.EmbeddingRef{MovieID: row.MovieID, Index: row.Index}
	}

	return refs, nil
}

func (r *Repository) LoadConfig(ctx context.Context) (model.EmbeddingConfig, error) {
	query := `SELECT model, dimension, total_embeddings FROM embedding_config WHERE id = 1`

	var row struct {
		Model     string `db:"model"`
		Dimension int    `db:"dimension"`
		Total     int    `db:"total_embeddings"`
	}
	err := r.db.GetContext(ctx, &row, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.EmbeddingConfig{}, ErrNoEmbeddingIndex
		}
		return model.EmbeddingConfig{}, fmt.Errorf("failed to load embedding config: %w", err)
	}

	return model.EmbeddingConfig{
		Model:     row.Model,
		Dimension: row.Dimension,
		Total:     row.Total,
	}, nil
}

// ReplaceIndex atomically swaps the mapping and config after the offline tool
// regenerates the matrix.
func (r *Repository) ReplaceIndex(ctx context.Context, refs []model.EmbeddingRef, cfg model.EmbeddingConfig) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embedding_metadata`); err != nil {
		return fmt.Errorf("failed to clear embedding index: %w", err)
	}

	insertQuery := `INSERT INTO embedding_metadata (movie_id, embedding_index) VALUES ($1, $2)`
	for _, ref := range refs {
		if _, err := tx.ExecContext(ctx, insertQuery, ref.MovieID, ref.Index); err != nil {
			return fmt.Errorf("failed to insert embedding ref: %w", err)
		}
	}

	configQuery := `
		INSERT INTO embedding_config (id, model, dimension, total_embeddings, last_updated)
		VALUES (1, $1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			model = EXCLUDED.model,
			dimension = EXCLUDED.dimension,
			total_embeddings = EXCLUDED.total_embeddings,
			last_updated = now()
	`
	if _, err := tx.ExecContext(ctx, configQuery, cfg.Model, cfg.Dimension, cfg.Total); err != nil {
		return fmt.Errorf("failed to upsert embedding config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}
