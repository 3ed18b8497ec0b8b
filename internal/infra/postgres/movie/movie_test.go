package infra_postgres_movie

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterBuildWhere(t *testing.T) {
	t.Run("Empty filter produces no clause", func(t *testing.T) {
		where, args := Filter{}.buildWhere()
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("Arguments are numbered in order", func(t *testing.T) {
		f := Filter{
			Genre:     "Action",
			MinRating: 7.0,
			MinVotes:  100,
		}
		where, args := f.buildWhere()

		assert.Contains(t, where, "$1")
		assert.Contains(t, where, "$2")
		assert.Contains(t, where, "$3")
		assert.Equal(t, []any{"Action", 7.0, 100}, args)
	})

	t.Run("Year bounds compare the date prefix", func(t *testing.T) {
		where, args := Filter{YearFrom: 1990, YearTo: 1999}.buildWhere()

		assert.Contains(t, where, "substr(m.release_date, 1, 4) >= $1")
		assert.Contains(t, where, "substr(m.release_date, 1, 4) <= $2")
		assert.Equal(t, []any{"1990", "1999"}, args)
	})

	t.Run("Search spans title, overview and credits", func(t *testing.T) {
		where, args := Filter{Search: "nolan"}.buildWhere()

		assert.Contains(t, where, "m.title ILIKE $1")
		assert.Contains(t, where, "m.overview ILIKE $1")
		assert.Contains(t, where, "c.person_name ILIKE $1")
		assert.Equal(t, []any{"%nolan%"}, args)
	})

	t.Run("Hide watched excludes the user's watched rows", func(t *testing.T) {
		where, args := Filter{HideWatchedBy: 7}.buildWhere()

		assert.Contains(t, where, "NOT EXISTS")
		assert.Contains(t, where, "i.watched")
		assert.Equal(t, []any{int64(7)}, args)
	})
}

func TestListRejectsUnknownSort(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	repo := New(sqlx.NewDb(db, "sqlmock"))

	_, _, err = repo.List(context.Background(), Filter{SortBy: "surprise_me", Page: 1, PerPage: 20})
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestGenres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := New(sqlx.NewDb(db, "sqlmock"))

	rows := sqlmock.NewRows([]string{"genre_name"}).
		AddRow("Action").
		AddRow("Drama")
	mock.ExpectQuery("SELECT DISTINCT genre_name").WillReturnRows(rows)

	genres, err := repo.Genres(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"Action", "Drama"}, genres)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadByIDsEmpty(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	repo := New(sqlx.NewDb(db, "sqlmock"))

	movies, err := repo.LoadByIDs(context.Background(), nil)

	assert.NoError(t, err)
	assert.Empty(t, movies)
}
