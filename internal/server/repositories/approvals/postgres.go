package approvals

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

const columns = `id, user_id, device_id, public_device_key, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(s scanner) (*models.ApprovalRequest, error) {
	a := &models.ApprovalRequest{}
	if err := s.Scan(&a.ID, &a.UserID, &a.DeviceID, &a.PublicDeviceKey, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID, deviceID, publicDeviceKey string) (*models.ApprovalRequest, error) {
	query :=
		`INSERT INTO approval_requests (user_id, device_id, public_device_key)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, device_id)
		 DO UPDATE SET public_device_key = EXCLUDED.public_device_key, updated_at = now()
		 RETURNING ` + columns

	a, err := scanRequest(r.db.QueryRowContext(ctx, query, userID, deviceID, publicDeviceKey))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ForUser(ctx context.Context, userID string) ([]*models.ApprovalRequest, error) {
	query :=
		`SELECT ` + columns + ` FROM approval_requests
		 WHERE user_id = $1
		 ORDER BY created_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.ApprovalRequest
	for rows.Next() {
		a, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteExact(ctx context.Context, userID, deviceID, publicDeviceKey string) (int64, error) {
	return r.exec(ctx,
		`DELETE FROM approval_requests WHERE user_id = $1 AND device_id = $2 AND public_device_key = $3`,
		userID, deviceID, publicDeviceKey)
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	return r.exec(ctx, `DELETE FROM approval_requests WHERE user_id = $1`, userID)
}
