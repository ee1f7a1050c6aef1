package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	account "contract-rbac/internal/account/domain"
	"contract-rbac/internal/apperr"
	"contract-rbac/internal/contract/domain"
	"contract-rbac/internal/db"
	resource "contract-rbac/internal/resource/domain"
)

const contractColumns = `id, resource_kind, owner_id, owner_type, name, description, created_at, updated_at`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a contract repository backed by pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save upserts c. The conflict branch only touches name, description and updated_at,
// and refuses to match a row recorded under a different owner.
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Contract) error {
	const op = "contracts.save"
	if err := c.Validate(); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, op, err)
	}
	query := `
		INSERT INTO contracts (` + contractColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			updated_at = GREATEST(contracts.updated_at, EXCLUDED.updated_at)
		WHERE contracts.owner_id = EXCLUDED.owner_id AND contracts.owner_type = EXCLUDED.owner_type
	`
	tag, err := r.pool.Exec(ctx, query,
		c.ID, string(c.Kind()), c.Owner.ID, string(c.Owner.Type),
		c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return db.MapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.OwnershipMismatch, op, "contract "+c.ID+" belongs to another owner")
	}

	log.Debug().
		Str("contract_id", c.ID).
		Str("owner_id", c.Owner.ID).
		Msg("Saved contract")
	return nil
}

// Update changes name, description and updated_at of an existing row held by the
// same owner. A row held by another owner is OwnershipMismatch; no row is NotFound.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Contract) error {
	const op = "contracts.update"
	if err := c.Validate(); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, op, err)
	}
	query := `
		UPDATE contracts SET
			name = $4,
			description = $5,
			updated_at = GREATEST(updated_at, $6)
		WHERE id = $1 AND owner_id = $2 AND owner_type = $3
	`
	tag, err := r.pool.Exec(ctx, query,
		c.ID, c.Owner.ID, string(c.Owner.Type), c.Name, c.Description, c.UpdatedAt,
	)
	if err != nil {
		return db.MapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contracts WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
			return db.MapError(op, err)
		}
		if exists {
			return apperr.E(apperr.OwnershipMismatch, op, "contract "+c.ID+" belongs to another owner")
		}
		return apperr.E(apperr.NotFound, op, "contract "+c.ID+" not found")
	}

	log.Debug().
		Str("contract_id", c.ID).
		Str("owner_id", c.Owner.ID).
		Msg("Updated contract")
	return nil
}

// FindByID returns the contract for id, or nil if not found.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`
	c, err := scanContract(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.MapError("contracts.find_by_id", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return false, db.MapError("contracts.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	log.Debug().Str("contract_id", id).Msg("Deleted contract")
	return true, nil
}

// ListByOwner returns the owner's contracts, oldest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, owner resource.Owner) ([]*domain.Contract, error) {
	const op = "contracts.list_by_owner"
	query := `
		SELECT ` + contractColumns + ` FROM contracts
		WHERE owner_id = $1 AND owner_type = $2
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, owner.ID, string(owner.Type))
	if err != nil {
		return nil, db.MapError(op, err)
	}
	defer rows.Close()

	out := []*domain.Contract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, db.MapError(op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(op, err)
	}
	return out, nil
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, owner resource.Owner) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM contracts WHERE owner_id = $1 AND owner_type = $2`,
		owner.ID, string(owner.Type),
	)
	if err != nil {
		return 0, db.MapError("contracts.delete_by_owner", err)
	}

	log.Info().
		Str("owner_id", owner.ID).
		Int64("deleted", tag.RowsAffected()).
		Msg("Deleted contracts by owner")
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) CountByOwner(ctx context.Context, owner resource.Owner) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM contracts WHERE owner_id = $1 AND owner_type = $2`,
		owner.ID, string(owner.Type),
	).Scan(&n)
	if err != nil {
		return 0, db.MapError("contracts.count_by_owner", err)
	}
	return n, nil
}

func scanContract(row pgx.Row) (*domain.Contract, error) {
	var (
		c         domain.Contract
		kind      string
		ownerType string
	)
	if err := row.Scan(
		&c.ID, &kind, &c.Owner.ID, &ownerType,
		&c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if resource.Kind(kind) != resource.KindContract {
		return nil, errors.New("row " + c.ID + " is not a contract")
	}
	c.Owner.Type = account.Type(ownerType)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
