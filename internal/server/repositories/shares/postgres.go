package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/server/loader"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/lib/pq"
)

const columns = `id, organization_id, name, storage_type, unique_id, storage_unique_ids, public_share_key, created_at, updated_at`

type PostgresRepository struct {
	db         dbx.DBTX
	byID       *loader.Loader[string, *models.Share]
	forAccount *loader.Loader[models.StorageAccount, []*models.Share]
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	r := &PostgresRepository{db: db}
	r.byID = loader.New(r.loadByIDs)
	r.forAccount = loader.New(r.loadForAccounts)
	return r
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShare(s scanner) (*models.Share, error) {
	sh := &models.Share{}
	err := s.Scan(&sh.ID, &sh.OrganizationID, &sh.Name, &sh.StorageType, &sh.UniqueID,
		pq.Array(&sh.StorageUniqueIDs), &sh.PublicShareKey, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sh.StorageUniqueIDs == nil {
		sh.StorageUniqueIDs = []string{}
	}
	return sh, nil
}

func (r *PostgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]*models.Share, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Share
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Share, error) {
	sh, err := scanShare(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	r.byID.Prime(sh.ID, sh)
	return sh, nil
}

func (r *PostgresRepository) loadByIDs(ctx context.Context, ids []string) (map[string]*models.Share, error) {
	query :=
		`SELECT ` + columns + ` FROM shares
		 WHERE id = ANY($1::uuid[])
		 `
	list, err := r.queryMany(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[string]*models.Share, len(list))
	for _, sh := range list {
		out[sh.ID] = sh
	}
	return out, nil
}

func (r *PostgresRepository) loadForAccounts(ctx context.Context, accounts []models.StorageAccount) (map[models.StorageAccount][]*models.Share, error) {
	types := make([]string, len(accounts))
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		types[i] = string(a.Type)
		ids[i] = a.UniqueID
	}

	// one row per (share, matching account)
	query :=
		`SELECT k.storage_type, k.storage_unique_id,
		        s.id, s.organization_id, s.name, s.storage_type, s.unique_id, s.storage_unique_ids, s.public_share_key, s.created_at, s.updated_at
		 FROM shares s
		 JOIN unnest($1::text[], $2::text[]) AS k(storage_type, storage_unique_id)
		   ON s.storage_type = k.storage_type
		  AND s.storage_unique_ids @> ARRAY[k.storage_unique_id]
		 ORDER BY s.created_at, s.id
		 `

	rows, err := r.db.QueryContext(ctx, query, pq.Array(types), pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[models.StorageAccount][]*models.Share, len(accounts))
	for _, a := range accounts {
		out[a] = []*models.Share{}
	}
	for rows.Next() {
		var key models.StorageAccount
		sh := &models.Share{}
		err := rows.Scan(&key.Type, &key.UniqueID,
			&sh.ID, &sh.OrganizationID, &sh.Name, &sh.StorageType, &sh.UniqueID,
			pq.Array(&sh.StorageUniqueIDs), &sh.PublicShareKey, &sh.CreatedAt, &sh.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if sh.StorageUniqueIDs == nil {
			sh.StorageUniqueIDs = []string{}
		}
		out[key] = append(out[key], sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Create(ctx context.Context, share *models.Share) (*models.Share, error) {
	query :=
		`INSERT INTO shares (organization_id, name, storage_type, unique_id, storage_unique_ids)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING ` + columns

	sh, err := r.queryOne(ctx, query, share.OrganizationID, share.Name, share.StorageType, share.UniqueID, pq.Array(share.StorageUniqueIDs))
	if err != nil {
		return nil, err
	}
	r.forAccount.ClearAll()
	return sh, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Share, error) {
	sh, found, err := r.byID.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, common.ErrorNotFound
	}
	return sh, nil
}

func (r *PostgresRepository) FindByRef(ctx context.Context, ref models.ShareRef) (*models.Share, error) {
	query :=
		`SELECT ` + columns + ` FROM shares
		 WHERE organization_id = $1 AND storage_type = $2 AND unique_id = $3
		 `
	return r.queryOne(ctx, query, ref.OrganizationID, ref.StorageType, ref.UniqueID)
}

func (r *PostgresRepository) FindByRefForUpdate(ctx context.Context, ref models.ShareRef) (*models.Share, error) {
	query :=
		`SELECT ` + columns + ` FROM shares
		 WHERE organization_id = $1 AND storage_type = $2 AND unique_id = $3
		 FOR UPDATE
		 `
	return r.queryOne(ctx, query, ref.OrganizationID, ref.StorageType, ref.UniqueID)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Share, error) {
	query :=
		`SELECT ` + columns + ` FROM shares
		 WHERE id = $1
		 FOR UPDATE
		 `
	return r.queryOne(ctx, query, id)
}

func (r *PostgresRepository) ForOrganization(ctx context.Context, organizationID string) ([]*models.Share, error) {
	query :=
		`SELECT ` + columns + ` FROM shares
		 WHERE organization_id = $1
		 ORDER BY name, id
		 `
	return r.queryMany(ctx, query, organizationID)
}

func (r *PostgresRepository) ForAccounts(ctx context.Context, accounts []models.StorageAccount) (map[models.StorageAccount][]*models.Share, error) {
	return r.forAccount.LoadMany(ctx, accounts)
}

// assignments renders the SET list of patch with placeholders starting at
// $next.
func assignments(patch models.SharePatch, next int) (string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, next))
		args = append(args, v)
		next++
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.StorageUniqueIDs != nil {
		add("storage_unique_ids", pq.Array(patch.StorageUniqueIDs))
	}
	if patch.PublicShareKey != nil {
		add("public_share_key", *patch.PublicShareKey)
	}
	sets = append(sets, "updated_at = now()")
	return strings.Join(sets, ", "), args
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.SharePatch) (*models.Share, error) {
	set, args := assignments(patch, 2)
	query := `UPDATE shares SET ` + set + ` WHERE id = $1 RETURNING ` + columns

	sh, err := r.queryOne(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return nil, err
	}
	r.forAccount.ClearAll()
	return sh, nil
}

func (r *PostgresRepository) UpdateWhere(ctx context.Context, ref models.ShareRef, patch models.SharePatch) ([]*models.Share, error) {
	set, args := assignments(patch, 4)
	query := `UPDATE shares SET ` + set +
		` WHERE organization_id = $1 AND storage_type = $2 AND unique_id = $3 RETURNING ` + columns

	list, err := r.queryMany(ctx, query, append([]any{ref.OrganizationID, ref.StorageType, ref.UniqueID}, args...)...)
	r.clearAll()
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *PostgresRepository) DeleteWhere(ctx context.Context, ref models.ShareRef) (int64, error) {
	query := `DELETE FROM shares WHERE organization_id = $1 AND storage_type = $2 AND unique_id = $3`

	res, err := r.db.ExecContext(ctx, query, ref.OrganizationID, ref.StorageType, ref.UniqueID)
	r.clearAll()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM shares WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	r.byID.Clear(id)
	r.forAccount.ClearAll()
	return nil
}

func (r *PostgresRepository) clearAll() {
	r.byID.ClearAll()
	r.forAccount.ClearAll()
}
