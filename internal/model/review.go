package model

import "time"

type Review struct {
	ID       int64
	UserID   int64
	MovieID  int64
	Username string

	Rating *int
	Text   string

	HelpfulCount    int
	NotHelpfulCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ReviewVote struct {
	UserID    int64
	ReviewID  int64
	IsHelpful bool
	CreatedAt time.Time
}
