package sharekeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/server/loader"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/lib/pq"
)

const columns = `id, user_id, share_id, encrypted_share_key, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
	// user ids holding a key, per share id
	holders *loader.Loader[string, []string]
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	r := &PostgresRepository{db: db}
	r.holders = loader.New(r.loadHolders)
	return r
}

type scanner interface {
	Scan(dest ...any) error
}

func scanKey(s scanner) (*models.ShareKey, error) {
	k := &models.ShareKey{}
	if err := s.Scan(&k.ID, &k.UserID, &k.ShareID, &k.EncryptedShareKey, &k.CreatedAt, &k.UpdatedAt); err != nil {
		return nil, err
	}
	return k, nil
}

func (r *PostgresRepository) Create(ctx context.Context, key *models.ShareKey) (*models.ShareKey, error) {
	query :=
		`INSERT INTO share_keys (share_id, user_id, encrypted_share_key)
		 VALUES ($1, $2, $3)
		 RETURNING ` + columns

	k, err := scanKey(r.db.QueryRowContext(ctx, query, key.ShareID, key.UserID, key.EncryptedShareKey))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	r.holders.Clear(k.ShareID)
	return k, nil
}

func (r *PostgresRepository) GetByShareAndUser(ctx context.Context, shareID, userID string) (*models.ShareKey, error) {
	query :=
		`SELECT ` + columns + ` FROM share_keys
		 WHERE share_id = $1 AND user_id = $2
		 `

	k, err := scanKey(r.db.QueryRowContext(ctx, query, shareID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return k, nil
}

func (r *PostgresRepository) loadHolders(ctx context.Context, shareIDs []string) (map[string][]string, error) {
	query :=
		`SELECT share_id, user_id FROM share_keys
		 WHERE share_id = ANY($1::uuid[])
		 ORDER BY created_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query, pq.Array(shareIDs))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string, len(shareIDs))
	for _, id := range shareIDs {
		out[id] = []string{}
	}
	for rows.Next() {
		var shareID, userID string
		if err := rows.Scan(&shareID, &userID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out[shareID] = append(out[shareID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UserIDsForShare(ctx context.Context, shareID string) ([]string, error) {
	ids, _, err := r.holders.Load(ctx, shareID)
	return ids, err
}

func (r *PostgresRepository) ForUser(ctx context.Context, userID string) ([]*models.ShareKey, error) {
	query :=
		`SELECT ` + columns + ` FROM share_keys
		 WHERE user_id = $1
		 ORDER BY created_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.ShareKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_keys WHERE user_id = $1`, userID)
	r.holders.ClearAll()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
