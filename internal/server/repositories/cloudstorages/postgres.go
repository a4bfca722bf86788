package cloudstorages

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

const columns = `id, user_id, type, csp_id, unique_id, authentication_data, display_name, created_at, updated_at`

type PostgresRepository struct {
	db        dbx.DBTX
	byAccount *loader.Loader[models.StorageAccount, []*models.CloudStorageProvider]
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	r := &PostgresRepository{db: db}
	r.byAccount = loader.New(r.loadByAccounts)
	return r
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCsp(s scanner) (*models.CloudStorageProvider, error) {
	c := &models.CloudStorageProvider{}
	err := s.Scan(&c.ID, &c.UserID, &c.Type, &c.CspID, &c.UniqueID,
		&c.AuthenticationData, &c.DisplayName, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]*models.CloudStorageProvider, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.CloudStorageProvider
	for rows.Next() {
		c, err := scanCsp(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.CloudStorageProvider, error) {
	c, err := scanCsp(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, csp *models.CloudStorageProvider) (*models.CloudStorageProvider, error) {
	query :=
		`INSERT INTO cloud_storages (user_id, type, csp_id, unique_id, authentication_data, display_name)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + columns

	c, err := r.queryOne(ctx, query, csp.UserID, csp.Type, csp.CspID, csp.UniqueID, csp.AuthenticationData, csp.DisplayName)
	if err != nil {
		return nil, err
	}
	r.byAccount.Clear(c.Account())
	return c, nil
}

func (r *PostgresRepository) ForUser(ctx context.Context, userID string) ([]*models.CloudStorageProvider, error) {
	query :=
		`SELECT ` + columns + ` FROM cloud_storages
		 WHERE user_id = $1
		 ORDER BY created_at, id
		 `
	return r.queryMany(ctx, query, userID)
}

func (r *PostgresRepository) GetByCspID(ctx context.Context, userID, cspID string) (*models.CloudStorageProvider, error) {
	query :=
		`SELECT ` + columns + ` FROM cloud_storages
		 WHERE user_id = $1 AND csp_id = $2
		 `
	return r.queryOne(ctx, query, userID, cspID)
}

func (r *PostgresRepository) GetByCspIDForUpdate(ctx context.Context, userID, cspID string) (*models.CloudStorageProvider, error) {
	query :=
		`SELECT ` + columns + ` FROM cloud_storages
		 WHERE user_id = $1 AND csp_id = $2
		 FOR UPDATE
		 `
	return r.queryOne(ctx, query, userID, cspID)
}

func (r *PostgresRepository) UpdateAuthData(ctx context.Context, id, authenticationData string) (*models.CloudStorageProvider, error) {
	query :=
		`UPDATE cloud_storages SET authentication_data = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + columns

	c, err := r.queryOne(ctx, query, id, authenticationData)
	if err != nil {
		return nil, err
	}
	r.byAccount.Clear(c.Account())
	return c, nil
}

func (r *PostgresRepository) DeleteByCspID(ctx context.Context, userID, cspID string) (int64, error) {
	query := `DELETE FROM cloud_storages WHERE user_id = $1 AND csp_id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, cspID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	r.byAccount.ClearAll()
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) loadByAccounts(ctx context.Context, accounts []models.StorageAccount) (map[models.StorageAccount][]*models.CloudStorageProvider, error) {
	types := make([]string, len(accounts))
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		types[i] = string(a.Type)
		ids[i] = a.UniqueID
	}

	query :=
		`SELECT c.id, c.user_id, c.type, c.csp_id, c.unique_id, c.authentication_data, c.display_name, c.created_at, c.updated_at
		 FROM cloud_storages c
		 JOIN unnest($1::text[], $2::text[]) AS k(type, unique_id)
		   ON c.type = k.type AND c.unique_id = k.unique_id
		 ORDER BY c.created_at, c.id
		 `

	list, err := r.queryMany(ctx, query, pq.Array(types), pq.Array(ids))
	if err != nil {
		return nil, err
	}

	out := make(map[models.StorageAccount][]*models.CloudStorageProvider, len(accounts))
	for _, a := range accounts {
		out[a] = []*models.CloudStorageProvider{}
	}
	for _, c := range list {
		out[c.Account()] = append(out[c.Account()], c)
	}
	return out, nil
}

func (r *PostgresRepository) ByAccount(ctx context.Context, account models.StorageAccount) ([]*models.CloudStorageProvider, error) {
	list, _, err := r.byAccount.Load(ctx, account)
	return list, err
}

func (r *PostgresRepository) ByAccounts(ctx context.Context, accounts []models.StorageAccount) (map[models.StorageAccount][]*models.CloudStorageProvider, error) {
	return r.byAccount.LoadMany(ctx, accounts)
}

func (r *PostgresRepository) UsersWithAccounts(ctx context.Context, userIDs []string, storageType models.StorageType, uniqueIDs []string) (map[string]bool, error) {
	query :=
		`SELECT DISTINCT user_id FROM cloud_storages
		 WHERE user_id = ANY($1::uuid[]) AND type = $2 AND unique_id = ANY($3::text[])
		 `

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs), storageType, pq.Array(uniqueIDs))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool, len(userIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ClearAccountCache() {
	r.byAccount.ClearAll()
}
