package repository

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a concurrent writer got there first. The whole
	// operation is safe to retry.
	ErrConflict = errors.New("concurrent update conflict")
)

// Store groups the repositories of the reading engine so that one operation
// can mutate several of them atomically.
type Store interface {
	Progress() ProgressRepository
	Rewards() RewardsRepository
	Books() BookRepository
	Quizzes() QuizRepository
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository

	// WithinTx runs fn against a transactional view of the store. Everything
	// fn writes is committed together when it returns nil and discarded
	// otherwise. Calling WithinTx on a transactional view joins it.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
