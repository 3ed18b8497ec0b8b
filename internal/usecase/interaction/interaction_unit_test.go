package usecase_interaction

import (
	"context"
	"testing"

	infra_postgres_interaction "github.com/reeltrack/core/internal/infra/postgres/interaction"
	infra_postgres_movie "github.com/reeltrack/core/internal/infra/postgres/movie"
	"github.com/reeltrack/core/internal/model"
	"github.com/reeltrack/core/internal/validate"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type UsecaseInteractionUnitSuite struct {
	suite.Suite
}

type interactionRepoMock struct {
	mock.Mock
}

func (m *interactionRepoMock) Load(ctx context.Context, userID, movieID int64) (model.Interaction, error) {
	args := m.Called(ctx, userID, movieID)
	return args.Get(0).(model.Interaction), args.Error(1)
}

func (m *interactionRepoMock) MarkWatched(ctx context.Context, userID, movieID int64) error {
	return m.Called(ctx, userID, movieID).Error(0)
}

func (m *interactionRepoMock) SetRating(ctx context.Context, userID, movieID int64, rating float64) error {
	return m.Called(ctx, userID, movieID, rating).Error(0)
}

func (m *interactionRepoMock) MarkSkipped(ctx context.Context, userID, movieID int64) error {
	return m.Called(ctx, userID, movieID).Error(0)
}

func (m *interactionRepoMock) AddToWatchlist(ctx context.Context, userID, movieID int64) error {
	return m.Called(ctx, userID, movieID).Error(0)
}

func (m *interactionRepoMock) RemoveFromWatchlist(ctx context.Context, userID, movieID int64) error {
	return m.Called(ctx, userID, movieID).Error(0)
}

func (m *interactionRepoMock) ListWatched(ctx context.Context, userID int64, sortBy string, page, perPage int) ([]model.WatchedMovie, int, error) {
	args := m.Called(ctx, userID, sortBy, page, perPage)
	return args.Get(0).([]model.WatchedMovie), args.Int(1), args.Error(2)
}

func (m *interactionRepoMock) ListWatchlist(ctx context.Context, userID int64, page, perPage int) ([]*model.Movie, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	return args.Get(0).([]*model.Movie), args.Int(1), args.Error(2)
}

func (m *interactionRepoMock) Stats(ctx context.Context, userID int64) (model.UserStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.UserStats), args.Error(1)
}

func (m *interactionRepoMock) Recent(ctx context.Context, userID int64, limit int) ([]model.Interaction, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]model.Interaction), args.Error(1)
}

func (m *interactionRepoMock) Delete(ctx context.Context, userID, movieID int64) error {
	return m.Called(ctx, userID, movieID).Error(0)
}

func (m *interactionRepoMock) ClearAll(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type movieRepoMock struct {
	mock.Mock
}

func (m *movieRepoMock) LoadByID(ctx context.Context, id int64) (model.Movie, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Movie), args.Error(1)
}

func (m *movieRepoMock) LoadByIDs(ctx context.Context, ids []int64) ([]*model.Movie, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*model.Movie), args.Error(1)
}

type resources struct {
	usecase      *Usecase
	interactions *interactionRepoMock
	movies       *movieRepoMock
	ctx          context.Context
}

func initResources() *resources {
	interactions := new(interactionRepoMock)
	movies := new(movieRepoMock)

	return &resources{
		usecase:      New(interactions, movies),
		interactions: interactions,
		movies:       movies,
		ctx:          context.Background(),
	}
}

const (
	testUserID  = int64(1)
	testMovieID = int64(42)
)

func (suite *UsecaseInteractionUnitSuite) TestRate(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		rating        float64
		setupMocks    func(r *resources)
		expectedError error
	}{
		{
			name:   "Should save rating and mark watched",
			rating: 8.5,
			setupMocks: func(r *resources) {
				r.movies.On("LoadByID", r.ctx, testMovieID).Return(model.Movie{ID: testMovieID}, nil).Once()
				r.interactions.On("SetRating", r.ctx, testUserID, testMovieID, 8.5).Return(nil).Once()
			},
		},
		{
			name:   "Should accept boundary rating 0",
			rating: 0,
			setupMocks: func(r *resources) {
				r.movies.On("LoadByID", r.ctx, testMovieID).Return(model.Movie{ID: testMovieID}, nil).Once()
				r.interactions.On("SetRating", r.ctx, testUserID, testMovieID, 0.0).Return(nil).Once()
			},
		},
		{
			name:   "Should accept boundary rating 10",
			rating: 10,
			setupMocks: func(r *resources) {
				r.movies.On("LoadByID", r.ctx, testMovieID).Return(model.Movie{ID: testMovieID}, nil).Once()
				r.interactions.On("SetRating", r.ctx, testUserID, testMovieID, 10.0).Return(nil).Once()
			},
		},
		{
			name:          "Should reject rating above 10",
			rating:        10.5,
			setupMocks:    func(r *resources) {},
			expectedError: validate.ErrValidation,
		},
		{
			name:          "Should reject negative rating",
			rating:        -1,
			setupMocks:    func(r *resources) {},
			expectedError: validate.ErrValidation,
		},
		{
			name:   "Should return not found for unknown movie",
			rating: 7,
			setupMocks: func(r *resources) {
				r.movies.On("LoadByID", r.ctx, testMovieID).
					Return(model.Movie{}, infra_postgres_movie.ErrMovieNotFound).Once()
			},
			expectedError: ErrMovieNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources()
			tc.setupMocks(r)

			err := r.usecase.Rate(r.ctx, testUserID, testMovieID, tc.rating)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.movies.AssertExpectations(t)
			r.interactions.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseInteractionUnitSuite) TestWatch(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		setupMocks    func(r *resources)
		expectedError error
	}{
		{
			name: "Should mark watched",
			setupMocks: func(r *resources) {
				r.movies.On("LoadByID", r.ctx, testMovieID).Return(model.Movie{ID: testMovieID}, nil).Once()
				r.interactions.On("MarkWatched", r.ctx, testUserID, testMovieID).Return(nil).Once()
			},
		},
		{
			name: "Should return not found for unknown movie",
			setupMocks: func(r *resources) {
				r.movies.On("LoadByID", r.ctx, testMovieID).
					Return(model.Movie{}, infra_postgres_movie.ErrMovieNotFound).Once()
			},
			expectedError: ErrMovieNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources()
			tc.setupMocks(r)

			err := r.usecase.Watch(r.ctx, testUserID, testMovieID)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.movies.AssertExpectations(t)
			r.interactions.AssertExpectations(t)
		})
	}
}

// Removing a movie that is not on the watchlist succeeds: the repository
// treats it as a no-op.
func (suite *UsecaseInteractionUnitSuite) TestRemoveFromWatchlistIdempotent(t provider.T) {
	t.Parallel()
	r := initResources()

	r.movies.On("LoadByID", r.ctx, testMovieID).Return(model.Movie{ID: testMovieID}, nil).Twice()
	r.interactions.On("RemoveFromWatchlist", r.ctx, testUserID, testMovieID).Return(nil).Twice()

	assert.NoError(t, r.usecase.RemoveFromWatchlist(r.ctx, testUserID, testMovieID))
	assert.NoError(t, r.usecase.RemoveFromWatchlist(r.ctx, testUserID, testMovieID))

	r.interactions.AssertExpectations(t)
}

func (suite *UsecaseInteractionUnitSuite) TestDeleteInteraction(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		setupMocks    func(r *resources)
		expectedError error
	}{
		{
			name: "Should delete interaction",
			setupMocks: func(r *resources) {
				r.interactions.On("Delete", r.ctx, testUserID, testMovieID).Return(nil).Once()
			},
		},
		{
			name: "Should return not found when no interaction exists",
			setupMocks: func(r *resources) {
				r.interactions.On("Delete", r.ctx, testUserID, testMovieID).
					Return(infra_postgres_interaction.ErrInteractionNotFound).Once()
			},
			expectedError: ErrInteractionNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources()
			tc.setupMocks(r)

			err := r.usecase.DeleteInteraction(r.ctx, testUserID, testMovieID)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.interactions.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseInteractionUnitSuite) TestWatchlistPagination(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		page          int
		perPage       int
		setupMocks    func(r *resources)
		expectedError error
	}{
		{
			name:    "Should default missing pagination",
			page:    0,
			perPage: 0,
			setupMocks: func(r *resources) {
				r.interactions.On("ListWatchlist", r.ctx, testUserID, 1, validate.DefaultPerPage).
					Return([]*model.Movie{}, 0, nil).Once()
			},
		},
		{
			name:          "Should reject per_page above the cap",
			page:          1,
			perPage:       validate.MaxPerPage + 1,
			setupMocks:    func(r *resources) {},
			expectedError: validate.ErrValidation,
		},
		{
			name:          "Should reject negative page",
			page:          -1,
			perPage:       20,
			setupMocks:    func(r *resources) {},
			expectedError: validate.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources()
			tc.setupMocks(r)

			_, _, _, err := r.usecase.Watchlist(r.ctx, testUserID, tc.page, tc.perPage)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.interactions.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseInteractionUnitSuite) TestClearAll(t provider.T) {
	t.Parallel()
	r := initResources()

	r.interactions.On("ClearAll", r.ctx, testUserID).Return(int64(7), nil).Once()

	removed, err := r.usecase.ClearAll(r.ctx, testUserID)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), removed)
	r.interactions.AssertExpectations(t)
}

func TestInteractionUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecaseInteractionUnitSuite))
}
