package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"bookhub/internal/microservices/http-api/models"
	"bookhub/internal/microservices/http-api/repository"
	"bookhub/internal/rewards"

	"github.com/stretchr/testify/require"
)

var fastRetry = RetryPolicy{MaxAttempts: 5, InitialInterval: time.Millisecond}

func intp(v int) *int { return &v }

func newMemoryStore(t testing.TB) *repository.MemoryStore {
	t.Helper()
	return repository.NewMemoryStore()
}

func createUser(t testing.TB, store repository.Store, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func createBook(t testing.TB, store repository.Store, id string) {
	t.Helper()
	require.NoError(t, store.Books().Create(context.Background(), &models.Book{ID: id, Title: "Book " + id}))
}

func createQuiz(t *testing.T, store repository.Store, bookID string, questions ...rewards.Question) {
	t.Helper()
	require.NoError(t, store.Quizzes().Upsert(context.Background(), &models.Quiz{BookID: bookID, Questions: questions}))
}

// forceRewards writes a rewards state directly, bypassing the ledger rules.
func forceRewards(t *testing.T, store repository.Store, userID string, points, level int, at time.Time) {
	t.Helper()
	ctx := context.Background()
	cur, err := store.Rewards().Get(ctx, userID)
	require.NoError(t, err)
	next := *cur
	next.Points, next.Level, next.Version, next.LastAwardedAt = points, level, cur.Version+1, at
	require.NoError(t, store.Rewards().CompareAndSwap(ctx, userID, cur.Version, next))
}

// flakyStore fails the first conflicts transactions with ErrConflict.
type flakyStore struct {
	repository.Store
	conflicts atomic.Int32
	calls     atomic.Int32
}

func (s *flakyStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.calls.Add(1)
	if s.conflicts.Add(-1) >= 0 {
		return repository.ErrConflict
	}
	return s.Store.WithinTx(ctx, fn)
}
