package model

import "time"

// Interaction is the single per (user, movie) record. It is created on the
// first interaction, mutated in place as the user's relationship to the movie
// changes, and deleted only when clearing state leaves every flag unset.
type Interaction struct {
	UserID  int64
	MovieID int64

	Watched   bool
	WatchedAt *time.Time

	Rating  *float64
	RatedAt *time.Time

	Skipped   bool
	SkippedAt *time.Time

	Watchlisted   bool
	WatchlistedAt *time.Time

	UpdatedAt time.Time
}

// Empty reports whether the record carries no state and may be removed.
func (i Interaction) Empty() bool {
	return !i.Watched && !i.Skipped && !i.Watchlisted && i.Rating == nil
}

type WatchedMovie struct {
	Movie      Movie
	WatchedAt  time.Time
	UserRating *float64
}
