package reviews

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/repository"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, userID, movieID int64, rating int, text string) (domain.Review, error) {
	args := m.Called(ctx, userID, movieID, rating, text)
	return args.Get(0).(domain.Review), args.Error(1)
}

func (m *mockStore) DeleteOwned(ctx context.Context, reviewID, userID int64) (domain.Review, error) {
	args := m.Called(ctx, reviewID, userID)
	return args.Get(0).(domain.Review), args.Error(1)
}

func (m *mockStore) ListByMovie(ctx context.Context, movieID int64) ([]domain.ReviewView, error) {
	args := m.Called(ctx, movieID)
	return args.Get(0).([]domain.ReviewView), args.Error(1)
}

func (m *mockStore) CountByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func TestSubmit_ValidationHappensBeforeStorage(t *testing.T) {
	tests := []struct {
		name   string
		rating int
		text   string
	}{
		{"rating too low", 0, "fine"},
		{"rating too high", 6, "fine"},
		{"blank text", 3, "   "},
		{"empty text", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			_, err := NewManager(store).Submit(context.Background(), 1, 1, tt.rating, tt.text)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_StoresTrimmedText(t *testing.T) {
	store := new(mockStore)
	want := domain.Review{ID: 7, UserID: 1, MovieID: 2, Rating: 5, ReviewText: "Loved it"}
	store.On("Create", mock.Anything, int64(1), int64(2), 5, "Loved it").Return(want, nil)

	got, err := NewManager(store).Submit(context.Background(), 1, 2, 5, "  Loved it \n")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	store.AssertExpectations(t)
}

func TestSubmit_UnknownMovie(t *testing.T) {
	store := new(mockStore)
	store.On("Create", mock.Anything, int64(1), int64(99), 4, "ok").Return(domain.Review{}, repository.ErrNotFound)

	_, err := NewManager(store).Submit(context.Background(), 1, 99, 4, "ok")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSubmit_RequiresUser(t *testing.T) {
	_, err := NewManager(new(mockStore)).Submit(context.Background(), 0, 1, 4, "ok")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		kind     apperr.Kind
	}{
		{"not found", repository.ErrNotFound, apperr.KindNotFound},
		{"not owner", repository.ErrNotOwner, apperr.KindForbidden},
		{"storage", assert.AnError, apperr.KindPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			store.On("DeleteOwned", mock.Anything, int64(10), int64(1)).Return(domain.Review{}, tt.storeErr)

			_, err := NewManager(store).Delete(context.Background(), 1, 10)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	t.Run("owner", func(t *testing.T) {
		store := new(mockStore)
		store.On("DeleteOwned", mock.Anything, int64(10), int64(1)).Return(domain.Review{ID: 10, MovieID: 3}, nil)

		res, err := NewManager(store).Delete(context.Background(), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.MovieID)
	})
}
