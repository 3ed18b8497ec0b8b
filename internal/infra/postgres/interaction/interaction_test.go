package infra_postgres_interaction

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type InteractionInfraUnitSuite struct {
	suite.Suite
}

type resources struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
	repo *Repository
	ctx  context.Context
}

func initResources(t provider.T) *resources {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	sqlxDB := sqlx.NewDb(db, "sqlmock")

	return &resources{
		db:   sqlxDB,
		mock: mock,
		repo: New(sqlxDB),
		ctx:  context.Background(),
	}
}

func (suite *InteractionInfraUnitSuite) TestMarkWatched(t provider.T) {
	t.Parallel()
	r := initResources(t)

	r.mock.ExpectExec("INSERT INTO interactions").
		WithArgs(int64(1), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.repo.MarkWatched(r.ctx, 1, 42)

	assert.NoError(t, err)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *InteractionInfraUnitSuite) TestSetRating(t provider.T) {
	t.Parallel()
	r := initResources(t)

	r.mock.ExpectExec("INSERT INTO interactions").
		WithArgs(int64(1), int64(42), 8.5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.repo.SetRating(r.ctx, 1, 42, 8.5)

	assert.NoError(t, err)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

// The removal runs in a transaction: clear the flag, then prune the row if
// nothing else remains on it.
func (suite *InteractionInfraUnitSuite) TestRemoveFromWatchlist(t provider.T) {
	t.Parallel()
	r := initResources(t)

	r.mock.ExpectBegin()
	r.mock.ExpectExec("UPDATE interactions").
		WithArgs(int64(1), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	r.mock.ExpectExec("DELETE FROM interactions").
		WithArgs(int64(1), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	r.mock.ExpectCommit()

	err := r.repo.RemoveFromWatchlist(r.ctx, 1, 42)

	assert.NoError(t, err)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *InteractionInfraUnitSuite) TestRemoveFromWatchlistAbsentRow(t provider.T) {
	t.Parallel()
	r := initResources(t)

	r.mock.ExpectBegin()
	r.mock.ExpectExec("UPDATE interactions").
		WithArgs(int64(1), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	r.mock.ExpectExec("DELETE FROM interactions").
		WithArgs(int64(1), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	r.mock.ExpectCommit()

	err := r.repo.RemoveFromWatchlist(r.ctx, 1, 42)

	assert.NoError(t, err)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *InteractionInfraUnitSuite) TestStats(t provider.T) {
	t.Parallel()
	r := initResources(t)

	rows := sqlmock.NewRows([]string{"watched", "rated", "skipped", "watchlist_count", "avg_rating"}).
		AddRow(12, 8, 3, 5, 7.25)
	r.mock.ExpectQuery("SELECT").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	stats, err := r.repo.Stats(r.ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, 12, stats.Watched)
	assert.Equal(t, 8, stats.Rated)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 5, stats.WatchlistCount)
	if assert.NotNil(t, stats.AvgRating) {
		assert.InDelta(t, 7.25, *stats.AvgRating, 1e-9)
	}
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *InteractionInfraUnitSuite) TestStatsNoRatings(t provider.T) {
	t.Parallel()
	r := initResources(t)

	rows := sqlmock.NewRows([]string{"watched", "rated", "skipped", "watchlist_count", "avg_rating"}).
		AddRow(2, 0, 0, 1, nil)
	r.mock.ExpectQuery("SELECT").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	stats, err := r.repo.Stats(r.ctx, 1)

	assert.NoError(t, err)
	assert.Nil(t, stats.AvgRating)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *InteractionInfraUnitSuite) TestDeleteNotFound(t provider.T) {
	t.Parallel()
	r := initResources(t)

	r.mock.ExpectExec("DELETE FROM interactions").
		WithArgs(int64(1), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.repo.Delete(r.ctx, 1, 42)

	assert.ErrorIs(t, err, ErrInteractionNotFound)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *InteractionInfraUnitSuite) TestClearAll(t provider.T) {
	t.Parallel()
	r := initResources(t)

	r.mock.ExpectExec("DELETE FROM interactions").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 9))

	removed, err := r.repo.ClearAll(r.ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(9), removed)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func TestInteractionInfraSuite(t *testing.T) {
	suite.RunSuite(t, new(InteractionInfraUnitSuite))
}
