package model

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

type UserStats struct {
	Watched        int
	Rated          int
	Skipped        int
	WatchlistCount int
	AvgRating      *float64
}
