package userkeys

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

const columns = `id, user_id, device_id, public_device_key, encrypted_user_key, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanKeyData(s scanner) (*models.EncryptedUserKeyData, error) {
	d := &models.EncryptedUserKeyData{}
	err := s.Scan(&d.ID, &d.UserID, &d.DeviceID, &d.PublicDeviceKey, &d.EncryptedUserKey, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *PostgresRepository) Create(ctx context.Context, data *models.EncryptedUserKeyData) (*models.EncryptedUserKeyData, error) {
	query :=
		`INSERT INTO encrypted_user_key_data (user_id, device_id, public_device_key, encrypted_user_key)
		 VALUES ($1, $2, $3, $4)
		 RETURNING ` + columns

	d, err := scanKeyData(r.db.QueryRowContext(ctx, query, data.UserID, data.DeviceID, data.PublicDeviceKey, data.EncryptedUserKey))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ForUser(ctx context.Context, userID string) ([]*models.EncryptedUserKeyData, error) {
	query :=
		`SELECT ` + columns + ` FROM encrypted_user_key_data
		 WHERE user_id = $1
		 ORDER BY created_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.EncryptedUserKeyData
	for rows.Next() {
		d, err := scanKeyData(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM encrypted_user_key_data WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
