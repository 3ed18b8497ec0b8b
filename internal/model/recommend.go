package model

type Embedding []float32

// Explanation breaks a recommendation score down by signal.
type Explanation struct {
	Interest      float64
	Discovery     float64
	Collaborative float64
	Category      float64
	Total         float64
}

type Recommendation struct {
	Movie       Movie
	Score       float64
	Explanation Explanation
}

// ScoredMovie pairs a movie with its cosine similarity to some query.
type ScoredMovie struct {
	Movie      Movie
	Similarity float64
}

// EmbeddingRef maps a movie to its row in the embedding matrix.
type EmbeddingRef struct {
	MovieID int64
	Index   int
}

type EmbeddingConfig struct {
	Model     string
	Dimension int
	Total     int
}
