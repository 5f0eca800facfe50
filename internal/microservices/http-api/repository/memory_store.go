package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"bookhub/internal/microservices/http-api/models"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. Transactions hold the store lock
// for their whole duration and work on a private copy that replaces the live
// data on commit, so they are serializable and all-or-nothing.
type MemoryStore struct {
	mu   sync.RWMutex
	data *memoryData
	now  func() time.Time
}

type progressKey struct {
	userID string
	bookID string
}

type memoryData struct {
	users    map[string]models.User
	progress map[progressKey]models.Progress
	books    map[string]models.Book
	quizzes  map[string]models.Quiz // by book id
	tokens   map[string]models.RefreshToken
}

func newMemoryData() *memoryData {
	return &memoryData{
		users:    make(map[string]models.User),
		progress: make(map[progressKey]models.Progress),
		books:    make(map[string]models.Book),
		quizzes:  make(map[string]models.Quiz),
		tokens:   make(map[string]models.RefreshToken),
	}
}

func (d *memoryData) clone() *memoryData {
	return &memoryData{
		users:    maps.Clone(d.users),
		progress: maps.Clone(d.progress),
		books:    maps.Clone(d.books),
		quizzes:  maps.Clone(d.quizzes),
		tokens:   maps.Clone(d.tokens),
	}
}

// NewMemoryStore creates an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData(), now: time.Now}
}

func (s *MemoryStore) view() memView { return memView{store: s} }

func (s *MemoryStore) Progress() ProgressRepository          { return memProgress{s.view()} }
func (s *MemoryStore) Rewards() RewardsRepository            { return memRewards{s.view()} }
func (s *MemoryStore) Books() BookRepository                 { return memBooks{s.view()} }
func (s *MemoryStore) Quizzes() QuizRepository               { return memQuizzes{s.view()} }
func (s *MemoryStore) Users() UserRepository                 { return memUsers{s.view()} }
func (s *MemoryStore) RefreshTokens() RefreshTokenRepository { return memTokens{s.view()} }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.view().WithinTx(ctx, fn)
}

// memView is either the live store (tx == nil) or a transaction's copy.
type memView struct {
	store *MemoryStore
	tx    *memoryData
}

func (v memView) Progress() ProgressRepository          { return memProgress{v} }
func (v memView) Rewards() RewardsRepository            { return memRewards{v} }
func (v memView) Books() BookRepository                 { return memBooks{v} }
func (v memView) Quizzes() QuizRepository               { return memQuizzes{v} }
func (v memView) Users() UserRepository                 { return memUsers{v} }
func (v memView) RefreshTokens() RefreshTokenRepository { return memTokens{v} }

func (v memView) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if v.tx != nil {
		return fn(v)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	staged := v.store.data.clone()
	if err := fn(memView{store: v.store, tx: staged}); err != nil {
		return err
	}
	v.store.data = staged
	return nil
}

func (v memView) read(fn func(d *memoryData) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.data)
}

func (v memView) write(fn func(d *memoryData) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}

func (v memView) now() time.Time { return v.store.now() }

type memProgress struct{ memView }

func (r memProgress) GetForUpdate(ctx context.Context, userID, bookID string) (*models.Progress, error) {
	// the transaction already holds the store lock
	return r.Get(ctx, userID, bookID)
}

func (r memProgress) Get(_ context.Context, userID, bookID string) (*models.Progress, error) {
	var out *models.Progress
	err := r.read(func(d *memoryData) error {
		if p, ok := d.progress[progressKey{userID, bookID}]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r memProgress) Insert(_ context.Context, p *models.Progress) error {
	return r.write(func(d *memoryData) error {
		key := progressKey{p.UserID, p.BookID}
		if _, ok := d.progress[key]; ok {
			return fmt.Errorf("insert progress: %w", ErrConflict)
		}
		now := r.now()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		d.progress[key] = *p
		return nil
	})
}

func (r memProgress) Update(_ context.Context, p *models.Progress) error {
	return r.write(func(d *memoryData) error {
		key := progressKey{p.UserID, p.BookID}
		cur, ok := d.progress[key]
		if !ok {
			return fmt.Errorf("update progress: %w", ErrNotFound)
		}
		cur.Percentage = p.Percentage
		cur.Status = p.Status
		cur.CompletedAt = p.CompletedAt
		cur.UpdatedAt = p.UpdatedAt
		d.progress[key] = cur
		return nil
	})
}

func (r memProgress) ListByUser(_ context.Context, userID string) ([]models.Progress, error) {
	var list []models.Progress
	err := r.read(func(d *memoryData) error {
		for key, p := range d.progress {
			if key.userID == userID {
				list = append(list, p)
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].BookID < list[j].BookID
	})
	return list, err
}

type memRewards struct{ memView }

func (r memRewards) Get(_ context.Context, userID string) (*models.Rewards, error) {
	var out *models.Rewards
	err := r.read(func(d *memoryData) error {
		u, ok := d.users[userID]
		if !ok {
			return fmt.Errorf("get rewards: %w", ErrNotFound)
		}
		rw := u.Rewards
		rw.Badges = slices.Clone(rw.Badges)
		out = &rw
		return nil
	})
	return out, err
}

func (r memRewards) GetForUpdate(ctx context.Context, userID string) (*models.Rewards, error) {
	return r.Get(ctx, userID)
}

func (r memRewards) CompareAndSwap(_ context.Context, userID string, expectedVersion int64, next models.Rewards) error {
	return r.write(func(d *memoryData) error {
		u, ok := d.users[userID]
		if !ok {
			return fmt.Errorf("swap rewards: %w", ErrNotFound)
		}
		if u.Rewards.Version != expectedVersion {
			return ErrConflict
		}
		u.Rewards.Points = next.Points
		u.Rewards.Level = next.Level
		u.Rewards.Version = next.Version
		u.Rewards.LastAwardedAt = next.LastAwardedAt
		u.UpdatedAt = r.now()
		d.users[userID] = u
		return nil
	})
}

func (r memRewards) Top(_ context.Context, n int) ([]models.LeaderboardEntry, error) {
	var rows []models.LeaderboardEntry
	err := r.read(func(d *memoryData) error {
		rows = make([]models.LeaderboardEntry, 0, len(d.users))
		for _, u := range d.users {
			rows = append(rows, models.LeaderboardEntry{
				UserID:        u.ID,
				Name:          u.Username,
				Points:        u.Rewards.Points,
				Level:         u.Rewards.Level,
				LastAwardedAt: u.Rewards.LastAwardedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ahead(rows[j]) })
	if n < len(rows) {
		rows = rows[:n]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

type memBooks struct{ memView }

func (r memBooks) Exists(_ context.Context, id string) (bool, error) {
	var ok bool
	err := r.read(func(d *memoryData) error {
		_, ok = d.books[id]
		return nil
	})
	return ok, err
}

func (r memBooks) GetByID(_ context.Context, id string) (*models.Book, error) {
	var out *models.Book
	err := r.read(func(d *memoryData) error {
		b, ok := d.books[id]
		if !ok {
			return fmt.Errorf("get book: %w", ErrNotFound)
		}
		out = &b
		return nil
	})
	return out, err
}

func (r memBooks) ListByIDs(_ context.Context, ids []string) ([]models.Book, error) {
	var out []models.Book
	err := r.read(func(d *memoryData) error {
		for _, id := range ids {
			if b, ok := d.books[id]; ok {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}

func (r memBooks) Create(_ context.Context, b *models.Book) error {
	return r.write(func(d *memoryData) error {
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		if _, ok := d.books[b.ID]; ok {
			return fmt.Errorf("create book: %w", ErrConflict)
		}
		now := r.now()
		b.CreatedAt, b.UpdatedAt = now, now
		d.books[b.ID] = *b
		return nil
	})
}

type memQuizzes struct{ memView }

func (r memQuizzes) GetByBook(_ context.Context, bookID string) (*models.Quiz, error) {
	var out *models.Quiz
	err := r.read(func(d *memoryData) error {
		q, ok := d.quizzes[bookID]
		if !ok {
			return fmt.Errorf("get quiz: %w", ErrNotFound)
		}
		q.Questions = slices.Clone(q.Questions)
		out = &q
		return nil
	})
	return out, err
}

func (r memQuizzes) Upsert(_ context.Context, quiz *models.Quiz) error {
	return r.write(func(d *memoryData) error {
		now := r.now()
		if cur, ok := d.quizzes[quiz.BookID]; ok {
			quiz.ID = cur.ID
			quiz.CreatedAt = cur.CreatedAt
		} else {
			if quiz.ID == "" {
				quiz.ID = uuid.New().String()
			}
			quiz.CreatedAt = now
		}
		quiz.UpdatedAt = now
		stored := *quiz
		stored.Questions = slices.Clone(quiz.Questions)
		d.quizzes[quiz.BookID] = stored
		return nil
	})
}

type memUsers struct{ memView }

func (r memUsers) Create(_ context.Context, user *models.User) error {
	return r.write(func(d *memoryData) error {
		for _, u := range d.users {
			if u.Username == user.Username || u.Email == user.Email {
				return fmt.Errorf("create user: %w", ErrConflict)
			}
		}
		if user.ID == "" {
			user.ID = uuid.New().String()
		}
		if user.Rewards.Level < 1 {
			user.Rewards = models.NewRewards()
		}
		if user.Role == "" {
			user.Role = models.RoleUser
		}
		now := r.now()
		user.CreatedAt, user.UpdatedAt = now, now
		d.users[user.ID] = *user
		return nil
	})
}

func (r memUsers) find(match func(u models.User) bool) (*models.User, error) {
	var out *models.User
	err := r.read(func(d *memoryData) error {
		for _, u := range d.users {
			if match(u) {
				out = &u
				return nil
			}
		}
		return fmt.Errorf("find user: %w", ErrNotFound)
	})
	return out, err
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r memUsers) TouchLogin(_ context.Context, id string, at time.Time) error {
	return r.write(func(d *memoryData) error {
		u, ok := d.users[id]
		if !ok {
			return fmt.Errorf("touch login: %w", ErrNotFound)
		}
		u.LastLogin = &at
		d.users[id] = u
		return nil
	})
}

type memTokens struct{ memView }

func (r memTokens) Create(_ context.Context, t *models.RefreshToken) error {
	return r.write(func(d *memoryData) error {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		t.CreatedAt = r.now()
		d.tokens[t.ID] = *t
		return nil
	})
}

func (r memTokens) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	var out *models.RefreshToken
	err := r.read(func(d *memoryData) error {
		for _, t := range d.tokens {
			if t.Token == token {
				out = &t
				return nil
			}
		}
		return fmt.Errorf("find refresh token: %w", ErrNotFound)
	})
	return out, err
}

func (r memTokens) Revoke(_ context.Context, id string) error {
	return r.write(func(d *memoryData) error {
		t, ok := d.tokens[id]
		if !ok {
			return fmt.Errorf("revoke refresh token: %w", ErrNotFound)
		}
		t.Revoked = true
		d.tokens[id] = t
		return nil
	})
}

func (r memTokens) Delete(_ context.Context, id string) error {
	return r.write(func(d *memoryData) error {
		delete(d.tokens, id)
		return nil
	})
}

func (r memTokens) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.write(func(d *memoryData) error {
		for id, t := range d.tokens {
			if t.Revoked || t.ExpiresAt.Before(cutoff) {
				delete(d.tokens, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
