package service

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/usersvc/backend/internal/model"
)

// fakeStore is an in-memory stand-in for db.Postgres. It returns the
// same pgx errors the real store surfaces so the services exercise
// their translation paths.
type fakeStore struct {
	mu          sync.Mutex
	users       map[int64]*model.User
	tokens      map[int64]*model.RefreshToken
	nextUserID  int64
	nextTokenID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[int64]*model.User),
		tokens: make(map[int64]*model.RefreshToken),
	}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

func (f *fakeStore) CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return nil, uniqueViolation()
		}
	}
	f.nextUserID++
	user := &model.User{
		ID:           f.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for id := int64(1); id <= f.nextUserID; id++ {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, userID int64, update model.UserUpdate) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if update.Username != nil {
		for _, u := range f.users {
			if u.ID != userID && u.Username == *update.Username {
				return nil, uniqueViolation()
			}
		}
		user.Username = *update.Username
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.IsAdmin != nil {
		user.IsAdmin = *update.IsAdmin
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return false, nil
	}
	delete(f.users, userID)
	for id, tok := range f.tokens {
		if tok.UserID == userID {
			delete(f.tokens, id)
		}
	}
	return true, nil
}

func (f *fakeStore) InsertRefreshToken(ctx context.Context, userID int64, token string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTokenID++
	row := &model.RefreshToken{ID: f.nextTokenID, UserID: userID, Token: token}
	f.tokens[row.ID] = row
	return row, nil
}

func (f *fakeStore) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.tokens {
		if row.Token == token {
			copied := *row
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) DeleteRefreshToken(ctx context.Context, rowID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[rowID]; !ok {
		return false, nil
	}
	delete(f.tokens, rowID)
	return true, nil
}

func (f *fakeStore) tokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}
