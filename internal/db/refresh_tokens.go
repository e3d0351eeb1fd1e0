package db

import (
	"context"

	"github.com/usersvc/backend/internal/model"
)

func (db *Postgres) InsertRefreshToken(ctx context.Context, userID int64, token string) (*model.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (user_id, token)
		VALUES ($1, $2)
		RETURNING id, user_id, token
	`
	var row model.RefreshToken
	err := db.Pool.QueryRow(ctx, query, userID, token).Scan(&row.ID, &row.UserID, &row.Token)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (db *Postgres) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	query := `
		SELECT id, user_id, token
		FROM refresh_tokens
		WHERE token = $1
	`
	var row model.RefreshToken
	err := db.Pool.QueryRow(ctx, query, token).Scan(&row.ID, &row.UserID, &row.Token)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteRefreshToken deletes a single row and reports whether one was
// actually removed. Concurrent logouts racing on the same token both
// reach this delete; the row count decides which one wins.
func (db *Postgres) DeleteRefreshToken(ctx context.Context, rowID int64) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, rowID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
