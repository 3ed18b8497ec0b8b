package service_recommender

import (
	"errors"
	"math"
	"sort"
	"time"

	infra_embeddings "github.com/reeltrack/core/internal/infra/embeddings"
	"github.com/reeltrack/core/internal/model"
)

// Blends four signals over the embedding matrix: similarity to what the user
// watched (decayed by recency, weighted by their ratings), dissimilarity to
// what they skipped or rated below 5, item-item similarity, and genre
// preference. The blend is re-ranked with MMR to trade relevance against
// diversity.

var (
	ErrEmptyIndex  = errors.New("empty embedding index")
	ErrIndexDrift  = errors.New("embedding index does not match matrix")
	ErrNoHistory   = errors.New("user has no interaction history")
	ErrUnknownItem = errors.New("movie has no embedding")
)

const (
	decayHalfLifeDays = 14.0
	neutralRating     = 5.0
	dislikeThreshold  = 5.0
)

// Scored is one recommendation before catalog hydration.
type Scored struct {
	MovieID     int64
	Score       float64
	Explanation model.Explanation
}

type weights struct {
	interest      float64
	discovery     float64
	collaborative float64
	category      float64
}

// adaptiveWeights shifts trust from genre priors to taste signals as the
// user's history grows.
func adaptiveWeights(interactions int) weights {
	switch {
	case interactions < 5:
		return weights{interest: 0.2, discovery: 0.1, collaborative: 0.3, category: 0.4}
	case interactions < 20:
		return weights{interest: 0.35, discovery: 0.25, collaborative: 0.25, category: 0.15}
	default:
		return weights{interest: 0.4, discovery: 0.3, collaborative: 0.2, category: 0.1}
	}
}

type Recommender struct {
	matrix     *infra_embeddings.Matrix
	movieToIdx map[int64]int
	idxToMovie []int64
	genres     map[int64][]string
}

// New builds a recommender over the loaded matrix. refs maps movie ids to
// matrix rows; genres carries each movie's genre tags for the category signal.
func New(matrix *infra_embeddings.Matrix, refs []model.EmbeddingRef, genres map[int64][]string) (*Recommender, error) {
	if len(refs) == 0 {
		return nil, ErrEmptyIndex
	}

	movieToIdx := make(map[int64]int, len(refs))
	idxToMovie := make([]int64, matrix.Rows())
	for _, ref := range refs {
		if ref.Index < 0 || ref.Index >= matrix.Rows() {
			return nil, ErrIndexDrift
		}
		movieToIdx[ref.MovieID] = ref.Index
		idxToMovie[ref.Index] = ref.MovieID
	}

	return &Recommender{
		matrix:     matrix,
		movieToIdx: movieToIdx,
		idxToMovie: idxToMovie,
		genres:     genres,
	}, nil
}

type history struct {
	watched []watchedItem
	ratings map[int64]float64
	skipped []int64
}

type watchedItem struct {
	movieID   int64
	watchedAt time.Time
}

func splitHistory(interactions []model.Interaction) history {
	h := history{ratings: make(map[int64]float64)}
	for _, i := range interactions {
		if i.Watched && i.WatchedAt != nil {
			h.watched = append(h.watched, watchedItem{movieID: i.MovieID, watchedAt: *i.WatchedAt})
		}
		if i.Rating != nil {
			h.ratings[i.MovieID] = *i.Rating
		}
		if i.Skipped {
			h.skipped = append(h.skipped, i.MovieID)
		}
	}
	return h
}

// Recommend scores the catalog against the user's history and returns the
// top k after MMR re-ranking. ErrNoHistory signals the cold-start case.
func (r *Recommender) Recommend(interactions []model.Interaction, k int, lambda float64, now time.Time) ([]Scored, error) {
	h := splitHistory(interactions)
	if len(h.watched) == 0 && len(h.skipped) == 0 {
		return nil, ErrNoHistory
	}

	w := adaptiveWeights(len(h.watched))

	interest := r.interestVector(h, now)
	discovery := r.discoveryVector(h)
	collaborative := r.collaborativeVector(h)
	category := r.categoryVector(h)

	n := r.matrix.Rows()
	combined := make([]float64, n)
	for i := 0; i < n; i++ {
		combined[i] = w.interest*interest[i] +
			w.discovery*discovery[i] +
			w.collaborative*collaborative[i] +
			w.category*category[i]
	}

	watchedIDs := make(map[int64]bool, len(h.watched))
	for _, item := range h.watched {
		watchedIDs[item.movieID] = true
	}

	candidates := make([]int, 0, n)
	for idx := 0; idx < n; idx++ {
		if !watchedIDs[r.idxToMovie[idx]] {
			candidates = append(candidates, idx)
		}
	}

	selected := r.mmrRerank(candidates, combined, k, lambda)

	out := make([]Scored, 0, len(selected))
	for _, idx := range selected {
		out = append(out, Scored{
			MovieID: r.idxToMovie[idx],
			Score:   combined[idx],
			Explanation: model.Explanation{
				Interest:      w.interest * interest[idx],
				Discovery:     w.discovery * discovery[idx],
				Collaborative: w.collaborative * collaborative[idx],
				Category:      w.category * category[idx],
				Total:         combined[idx],
			},
		})
	}

	return out, nil
}

// interestVector scores similarity to a time-decayed, rating-weighted
// centroid of the watched movies.
func (r *Recommender) interestVector(h history, now time.Time) []float64 {
	indices := make([]int, 0, len(h.watched))
	itemWeights := make([]float64, 0, len(h.watched))
	for _, item := range h.watched {
		idx, ok := r.movieToIdx[item.movieID]
		if !ok {
			continue
		}

		daysAgo := now.Sub(item.watchedAt).Hours() / 24
		timeWeight := math.Pow(0.5, daysAgo/decayHalfLifeDays)

		rating := neutralRating
		if v, ok := h.ratings[item.movieID]; ok {
			rating = v
		}

		indices = append(indices, idx)
		itemWeights = append(itemWeights, timeWeight*rating/10.0)
	}

	if len(indices) == 0 {
		return make([]float64, r.matrix.Rows())
	}

	centroid, err := r.matrix.Centroid(indices, itemWeights)
	if err != nil {
		return make([]float64, r.matrix.Rows())
	}

	sims, err := r.matrix.CosineSimilarities(centroid)
	if err != nil {
		return make([]float64, r.matrix.Rows())
	}

	return sims
}

// discoveryVector rewards distance from skipped and low-rated movies,
// min-max normalised to [0, 1].
func (r *Recommender) discoveryVector(h history) []float64 {
	disliked := append([]int64(nil), h.skipped...)
	for movieID, rating := range h.ratings {
		if rating < dislikeThreshold {
			disliked = append(disliked, movieID)
		}
	}

	indices := make([]int, 0, len(disliked))
	for _, movieID := range disliked {
		if idx, ok := r.movieToIdx[movieID]; ok {
			indices = append(indices, idx)
		}
	}

	out := make([]float64, r.matrix.Rows())
	if len(indices) == 0 {
		return out
	}

	centroid, err := r.matrix.Centroid(indices, nil)
	if err != nil {
		return out
	}

	sims, err := r.matrix.CosineSimilarities(centroid)
	if err != nil {
		return out
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range sims {
		out[i] = -s
		if out[i] < lo {
			lo = out[i]
		}
		if out[i] > hi {
			hi = out[i]
		}
	}
	for i := range out {
		out[i] = (out[i] - lo) / (hi - lo + 1e-8)
	}

	return out
}

// collaborativeVector is the mean item-item similarity to the watched rows.
func (r *Recommender) collaborativeVector(h history) []float64 {
	out := make([]float64, r.matrix.Rows())

	indices := make([]int, 0, len(h.watched))
	for _, item := range h.watched {
		if idx, ok := r.movieToIdx[item.movieID]; ok {
			indices = append(indices, idx)
		}
	}
	if len(indices) == 0 {
		return out
	}

	for _, idx := range indices {
		sims, err := r.matrix.CosineSimilarities(r.matrix.Row(idx))
		if err != nil {
			return out
		}
		for i, s := range sims {
			out[i] += s
		}
	}
	for i := range out {
		out[i] /= float64(len(indices))
	}

	return out
}

// categoryVector scores each movie by how much its genres overlap the
// user's watched-genre frequencies, max-normalised.
func (r *Recommender) categoryVector(h history) []float64 {
	out := make([]float64, r.matrix.Rows())
	if len(h.watched) == 0 {
		return out
	}

	genreCounts := make(map[string]int)
	for _, item := range h.watched {
		for _, genre := range r.genres[item.movieID] {
			genreCounts[genre]++
		}
	}
	if len(genreCounts) == 0 {
		return out
	}

	total := float64(len(h.watched))
	genrePrefs := make(map[string]float64, len(genreCounts))
	for genre, count := range genreCounts {
		genrePrefs[genre] = float64(count) / total
	}

	maxScore := 0.0
	for idx := range out {
		movieID := r.idxToMovie[idx]
		score := 0.0
		for _, genre := range r.genres[movieID] {
			score += genrePrefs[genre]
		}
		out[idx] = score
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore > 0 {
		for i := range out {
			out[i] /= maxScore
		}
	}

	return out
}

// mmrRerank greedily selects k candidates trading relevance (lambda) against
// similarity to what is already selected (1-lambda).
func (r *Recommender) mmrRerank(candidates []int, relevance []float64, k int, lambda float64) []int {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}

	best := candidates[0]
	for _, idx := range candidates {
		if relevance[idx] > relevance[best] {
			best = idx
		}
	}

	selected := []int{best}
	remaining := make(map[int]bool, len(candidates))
	for _, idx := range candidates {
		remaining[idx] = true
	}
	delete(remaining, best)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx, bestScore := -1, math.Inf(-1)
		for idx := range remaining {
			maxSim := math.Inf(-1)
			for _, sel := range selected {
				sim := cosine(r.matrix.Row(idx), r.matrix.Row(sel))
				if sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*relevance[idx] - (1-lambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestIdx = idx
			}
		}
		selected = append(selected, bestIdx)
		delete(remaining, bestIdx)
	}

	return selected
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}

// SimilarTo ranks the catalog by similarity to one movie, excluding the
// movie itself and any ids in exclude.
func (r *Recommender) SimilarTo(movieID int64, n int, exclude map[int64]bool) ([]Scored, error) {
	idx, ok := r.movieToIdx[movieID]
	if !ok {
		return nil, ErrUnknownItem
	}

	sims, err := r.matrix.CosineSimilarities(r.matrix.Row(idx))
	if err != nil {
		return nil, err
	}

	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return sims[order[a]] > sims[order[b]] })

	out := make([]Scored, 0, n)
	for _, candidate := range order {
		candidateID := r.idxToMovie[candidate]
		if candidateID == movieID || exclude[candidateID] {
			continue
		}
		out = append(out, Scored{MovieID: candidateID, Score: sims[candidate]})
		if len(out) >= n {
			break
		}
	}

	return out, nil
}

// RankBySimilarity orders the catalog against an arbitrary query embedding,
// used by smart search.
func (r *Recommender) RankBySimilarity(query model.Embedding, limit int) ([]Scored, error) {
	sims, err := r.matrix.CosineSimilarities(query)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return sims[order[a]] > sims[order[b]] })

	if limit > 0 && limit < len(order) {
		order = order[:limit]
	}

	out := make([]Scored, len(order))
	for i, idx := range order {
		out[i] = Scored{MovieID: r.idxToMovie[idx], Score: sims[idx]}
	}

	return out, nil
}
