package service

import (
	"context"

	"github.com/usersvc/backend/internal/auth"
	"github.com/usersvc/backend/internal/db"
	"github.com/usersvc/backend/internal/model"
)

type UserStore interface {
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*model.User, error)
	UpdateUser(ctx context.Context, userID int64, update model.UserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, userID int64) (bool, error)
}

// UserService implements account CRUD behind the self-or-admin
// policy: a caller may act on its own account or must be an admin.
type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// Register creates a regular (non-admin) account. The plaintext never
// passes the hashing boundary.
func (s *UserService) Register(ctx context.Context, username, password string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, hash, false)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, caller model.AuthUser, userID int64) (*model.User, error) {
	if userID != caller.ID && !caller.IsAdmin {
		return nil, ErrForbidden
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Update applies a partial update. A non-admin may change its own
// username and password but never the admin flag: a payload that
// would flip is_admin is rejected, while an explicit value equal to
// the stored one passes as a no-op.
func (s *UserService) Update(ctx context.Context, caller model.AuthUser, userID int64, req model.UpdateUserRequest) (*model.User, error) {
	if userID != caller.ID && !caller.IsAdmin {
		return nil, ErrForbidden
	}

	current, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.IsAdmin != nil && *req.IsAdmin != current.IsAdmin && !caller.IsAdmin {
		return nil, ErrForbidden
	}

	update := model.UserUpdate{
		Username: req.Username,
		IsAdmin:  req.IsAdmin,
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
	}

	user, err := s.store.UpdateUser(ctx, userID, update)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Delete removes the account; the store cascades deletion of its
// refresh tokens so no session survives the account.
func (s *UserService) Delete(ctx context.Context, caller model.AuthUser, userID int64) error {
	if userID != caller.ID && !caller.IsAdmin {
		return ErrForbidden
	}

	affected, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	if !affected {
		return ErrNotFound
	}
	return nil
}
