package repository

import (
	"context"

	"gorm.io/gorm"
)

// gormStore is the Postgres-backed Store. Inside WithinTx db is the
// transaction handle.
type gormStore struct {
	db   *gorm.DB
	inTx bool
}

// NewGormStore creates a Store on top of a GORM connection.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Progress() ProgressRepository          { return NewProgressRepository(s.db) }
func (s *gormStore) Rewards() RewardsRepository            { return NewRewardsRepository(s.db) }
func (s *gormStore) Books() BookRepository                 { return NewBookRepository(s.db) }
func (s *gormStore) Quizzes() QuizRepository               { return NewQuizRepository(s.db) }
func (s *gormStore) Users() UserRepository                 { return NewUserRepository(s.db) }
func (s *gormStore) RefreshTokens() RefreshTokenRepository { return NewRefreshTokenRepository(s.db) }

func (s *gormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, inTx: true})
	})
}
