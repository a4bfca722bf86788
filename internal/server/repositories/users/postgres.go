package users

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

const columns = `id, organization_id, email, name, public_key, roles, is_enabled, created_at, updated_at`

type PostgresRepository struct {
	db   dbx.DBTX
	byID *loader.Loader[string, *models.User]
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	r := &PostgresRepository{db: db}
	r.byID = loader.New(r.loadByIDs)
	return r
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	err := s.Scan(&u.ID, &u.OrganizationID, &u.Email, &u.Name, &u.PublicKey,
		pq.Array(&u.Roles), &u.IsEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) loadByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	query :=
		`SELECT ` + columns + ` FROM users
		 WHERE id = ANY($1::uuid[])
		 `

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.User, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.User, error) {
	u, found, err := r.byID.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *PostgresRepository) GetMany(ctx context.Context, ids []string) ([]*models.User, error) {
	found, err := r.byID.LoadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(found))
	for _, id := range ids {
		if u, ok := found[id]; ok {
			out = append(out, u)
			delete(found, id)
		}
	}
	return out, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	r.byID.Prime(u.ID, u)
	return u, nil
}

func (r *PostgresRepository) GetInOrganization(ctx context.Context, organizationID, id string) (*models.User, error) {
	u, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.OrganizationID != organizationID {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *PostgresRepository) GetInOrganizationForUpdate(ctx context.Context, organizationID, id string) (*models.User, error) {
	query :=
		`SELECT ` + columns + ` FROM users
		 WHERE organization_id = $1 AND id = $2
		 FOR UPDATE
		 `
	return r.getOne(ctx, query, organizationID, id)
}

func (r *PostgresRepository) InitPublicKey(ctx context.Context, id, publicKey string) (*models.User, error) {
	query :=
		`UPDATE users SET public_key = $2, updated_at = now()
		 WHERE id = $1 AND (public_key IS NULL OR public_key = '')
		 RETURNING ` + columns

	return r.getOne(ctx, query, id, publicKey)
}

func (r *PostgresRepository) ClearPublicKey(ctx context.Context, id string) (*models.User, error) {
	query :=
		`UPDATE users SET public_key = NULL, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + columns

	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	r.byID.Clear(id)
	return nil
}
