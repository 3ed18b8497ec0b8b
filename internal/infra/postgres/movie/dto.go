package infra_postgres_movie

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/reeltrack/core/internal/model"
)

type MovieDB struct {
	ID            int64           `db:"id"`
	Title         string          `db:"title"`
	Overview      sql.NullString  `db:"overview"`
	ReleaseDate   sql.NullString  `db:"release_date"`
	VoteAverage   sql.NullFloat64 `db:"vote_average"`
	VoteCount     sql.NullInt64   `db:"vote_count"`
	Popularity    sql.NullFloat64 `db:"popularity"`
	PosterPath    sql.NullString  `db:"poster_path"`
	BackdropPath  sql.NullString  `db:"backdrop_path"`
	ContentRating sql.NullString  `db:"content_rating"`
	Genres        pq.StringArray  `db:"genres"`
}

func (m *MovieDB) ToDomain() model.Movie {
	return model.Movie{
		ID:            m.ID,
		Title:         m.Title,
		Overview:      m.Overview.String,
		ReleaseDate:   m.ReleaseDate.String,
		VoteAverage:   m.VoteAverage.Float64,
		VoteCount:     int(m.VoteCount.Int64),
		Popularity:    m.Popularity.Float64,
		PosterPath:    m.PosterPath.String,
		BackdropPath:  m.BackdropPath.String,
		ContentRating: m.ContentRating.String,
		Genres:        []string(m.Genres),
	}
}

func toDomainList(moviesDB []MovieDB) []*model.Movie {
	movies := make([]*model.Movie, len(moviesDB))
	for i, movieDB := range moviesDB {
		domainMovie := movieDB.ToDomain()
		movies[i] = &domainMovie
	}
	return movies
}

type castDB struct {
	PersonID      int64          `db:"person_id"`
	PersonName    string         `db:"person_name"`
	CharacterName sql.NullString `db:"character_name"`
	CreditOrder   sql.NullInt64  `db:"credit_order"`
}

func (c castDB) toDomain() model.CastMember {
	return model.CastMember{
		PersonID:  c.PersonID,
		Name:      c.PersonName,
		Character: c.CharacterName.String,
		Order:     int(c.CreditOrder.Int64),
	}
}
