package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/usersvc/backend/internal/auth"
	"github.com/usersvc/backend/internal/config"
	"github.com/usersvc/backend/internal/db"
	"github.com/usersvc/backend/internal/model"
)

const refreshCookieName = "refresh_token"

type AuthStore interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*model.User, error)
	InsertRefreshToken(ctx context.Context, userID int64, token string) (*model.RefreshToken, error)
	GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, rowID int64) (bool, error)
}

type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

// AuthService owns the session lifecycle: credential checks, token
// issuance, refresh and revocation. All session state lives in the
// refresh_tokens table.
type AuthService struct {
	store      AuthStore
	codec      *auth.TokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
	cookieCfg  CookieConfig
}

func NewAuthService(store AuthStore, cfg config.AuthConfig) (*AuthService, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: SECRET_KEY is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ACCESS_TOKEN_TTL", ErrMisconfigured)
	}

	refreshDays, err := strconv.Atoi(cfg.RefreshTTLDays)
	if err != nil || refreshDays <= 0 {
		return nil, fmt.Errorf("%w: invalid REFRESH_TOKEN_TTL_DAYS", ErrMisconfigured)
	}
	refreshTTL := time.Duration(refreshDays) * 24 * time.Hour

	cookieSecure, err := parseBool(cfg.CookieSecure, false)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SECURE", ErrMisconfigured)
	}

	cookieSameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}

	cookiePath := cfg.CookiePath
	if strings.TrimSpace(cookiePath) == "" {
		cookiePath = "/"
	}

	return &AuthService{
		store:      store,
		codec:      auth.NewTokenCodec(cfg.SecretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		cookieCfg: CookieConfig{
			Name:     refreshCookieName,
			Path:     cookiePath,
			Domain:   cfg.CookieDomain,
			Secure:   cookieSecure,
			SameSite: cookieSameSite,
			MaxAge:   int(refreshTTL.Seconds()),
		},
	}, nil
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

// Login verifies the credentials and mints an access/refresh token
// pair. An unknown username and a wrong password return the same
// error so responses cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if db.IsNoRows(err) {
			return "", "", ErrUnauthorized
		}
		return "", "", err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", "", ErrUnauthorized
	}

	accessToken, err := s.codec.Encode(user, s.accessTTL)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := s.codec.Encode(user, s.refreshTTL)
	if err != nil {
		return "", "", err
	}

	if _, err := s.store.InsertRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// Refresh exchanges a persisted refresh token for a new access token.
// The identity is re-read from the store so a deleted account or a
// revoked admin flag takes effect immediately. The refresh token is
// not rotated; it stays valid until logout or expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", ErrBadRequest
	}

	row, err := s.store.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrUnauthorized
		}
		return "", err
	}

	claims, err := s.codec.Decode(row.Token)
	if err != nil {
		return "", ErrUnauthorized
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrUnauthorized
		}
		return "", err
	}

	return s.codec.Encode(user, s.accessTTL)
}

// Logout revokes exactly the presented refresh token. The delete is a
// single statement; when two requests race on the same token only one
// observes an affected row and the other gets ErrUnauthorized.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return ErrBadRequest
	}

	row, err := s.store.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrUnauthorized
		}
		return err
	}

	affected, err := s.store.DeleteRefreshToken(ctx, row.ID)
	if err != nil {
		return err
	}
	if !affected {
		return ErrUnauthorized
	}
	return nil
}

// ResolveIdentity decodes a bearer token and rebuilds the caller
// identity from the current users row, not from the claims alone. A
// token for a deleted account fails here even while its signature is
// still valid.
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken string) (*model.AuthUser, error) {
	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	return &model.AuthUser{
		ID:       user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}, nil
}

// EnsureAdmin provisions an admin account through the same hashing
// path as registration. It is a no-op when the username already
// exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (*model.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrBadRequest)
	}

	existing, err := s.store.GetUserByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !db.IsNoRows(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, hash, true)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return user, nil
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func parseSameSite(value string) (http.SameSite, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrBadRequest
	}
}
