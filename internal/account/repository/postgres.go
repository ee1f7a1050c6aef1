package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"contract-rbac/internal/account/domain"
	"contract-rbac/internal/apperr"
	"contract-rbac/internal/db"
	membership "contract-rbac/internal/membership/domain"
)

const accountColumns = `id, account_type, email, credential_hash, owner_id, name, description, members, created_at, updated_at`

// PostgresRepository stores both account variants in the accounts table, tagged by
// account_type. Organization memberships live in the members JSONB column so a
// membership change is a single-row write.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns an account repository backed by pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save upserts a. Updating a row under a different account type is a Conflict.
func (r *PostgresRepository) Save(ctx context.Context, a domain.Account) error {
	const op = "accounts.save"
	row, err := toRow(a)
	if err != nil {
		return apperr.Wrap(apperr.InvalidArgument, op, err)
	}
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			credential_hash = EXCLUDED.credential_hash,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			members = EXCLUDED.members,
			updated_at = GREATEST(accounts.updated_at, EXCLUDED.updated_at)
		WHERE accounts.account_type = EXCLUDED.account_type
	`
	tag, err := r.pool.Exec(ctx, query,
		row.id, row.accountType, row.email, row.credentialHash, row.ownerID,
		row.name, row.description, row.members, row.createdAt, row.updatedAt,
	)
	if err != nil {
		return db.MapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.Conflict, op, "account "+row.id+" exists with a different type")
	}

	log.Debug().
		Str("account_id", row.id).
		Str("account_type", row.accountType).
		Msg("Saved account")
	return nil
}

// Update writes the mutable columns of an existing row of the same account type.
func (r *PostgresRepository) Update(ctx context.Context, a domain.Account) error {
	const op = "accounts.update"
	row, err := toRow(a)
	if err != nil {
		return apperr.Wrap(apperr.InvalidArgument, op, err)
	}
	query := `
		UPDATE accounts SET
			email = $3,
			credential_hash = $4,
			name = $5,
			description = $6,
			members = $7,
			updated_at = GREATEST(updated_at, $8)
		WHERE id = $1 AND account_type = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		row.id, row.accountType, row.email, row.credentialHash,
		row.name, row.description, row.members, row.updatedAt,
	)
	if err != nil {
		return db.MapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.NotFound, op, "account "+row.id+" not found")
	}

	log.Debug().
		Str("account_id", row.id).
		Str("account_type", row.accountType).
		Msg("Updated account")
	return nil
}

// FindByID returns the account for id, or nil if not found.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.MapError("accounts.find_by_id", err)
	}
	return a, nil
}

// FindPersonalByID returns the personal account for id, or nil if there is none.
func (r *PostgresRepository) FindPersonalByID(ctx context.Context, id string) (*domain.Personal, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND account_type = 'personal'`
	return findOne[*domain.Personal](ctx, r.pool, "accounts.find_personal_by_id", query, id)
}

// FindPersonalByEmail returns the personal account registered under email, or nil.
func (r *PostgresRepository) FindPersonalByEmail(ctx context.Context, email string) (*domain.Personal, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 AND account_type = 'personal'`
	return findOne[*domain.Personal](ctx, r.pool, "accounts.find_personal_by_email", query, domain.NormalizeEmail(email))
}

// FindOrganizationByID returns the organization for id, or nil if there is none.
func (r *PostgresRepository) FindOrganizationByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND account_type = 'organization'`
	return findOne[*domain.Organization](ctx, r.pool, "accounts.find_organization_by_id", query, id)
}

// ExistsByEmail reports whether a personal account uses email.
func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1 AND account_type = 'personal')`,
		domain.NormalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, db.MapError("accounts.exists_by_email", err)
	}
	return exists, nil
}

// DeleteByID deletes the account. Rows still referenced as an organization owner or
// contract owner are protected by foreign keys and surface as Conflict.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return false, db.MapError("accounts.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	log.Info().Str("account_id", id).Msg("Deleted account")
	return true, nil
}

// FindOrganizationsByOwner returns organizations owned by ownerID, oldest first.
func (r *PostgresRepository) FindOrganizationsByOwner(ctx context.Context, ownerID string) ([]*domain.Organization, error) {
	query := `
		SELECT ` + accountColumns + ` FROM accounts
		WHERE account_type = 'organization' AND owner_id = $1
		ORDER BY created_at, id
	`
	return r.listOrganizations(ctx, "accounts.find_organizations_by_owner", query, ownerID)
}

// FindOrganizationsByMember returns organizations whose members include memberID.
func (r *PostgresRepository) FindOrganizationsByMember(ctx context.Context, memberID string) ([]*domain.Organization, error) {
	filter, err := json.Marshal([]map[string]string{{"member_id": memberID}})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "accounts.find_organizations_by_member", err)
	}
	query := `
		SELECT ` + accountColumns + ` FROM accounts
		WHERE account_type = 'organization' AND members @> $1::jsonb
		ORDER BY created_at, id
	`
	return r.listOrganizations(ctx, "accounts.find_organizations_by_member", query, filter)
}

func (r *PostgresRepository) listOrganizations(ctx context.Context, op, query string, args ...any) ([]*domain.Organization, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.MapError(op, err)
	}
	defer rows.Close()

	orgs := []*domain.Organization{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, db.MapError(op, err)
		}
		org, ok := a.(*domain.Organization)
		if !ok {
			return nil, apperr.E(apperr.Internal, op, "row "+a.AccountID()+" is not an organization")
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(op, err)
	}
	return orgs, nil
}

func findOne[T domain.Account](ctx context.Context, pool *pgxpool.Pool, op, query string, args ...any) (T, error) {
	var zero T
	a, err := scanAccount(pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, nil
		}
		return zero, db.MapError(op, err)
	}
	v, ok := a.(T)
	if !ok {
		return zero, apperr.E(apperr.Internal, op, "unexpected account type "+string(a.AccountType()))
	}
	return v, nil
}

// accountRow is the flat column layout shared by both variants.
type accountRow struct {
	id             string
	accountType    string
	email          *string
	credentialHash *string
	ownerID        *string
	name           *string
	description    string
	members        []byte
	createdAt      time.Time
	updatedAt      time.Time
}

func toRow(a domain.Account) (*accountRow, error) {
	row := &accountRow{
		id:          a.AccountID(),
		accountType: string(a.AccountType()),
		members:     []byte("[]"),
		createdAt:   a.Created(),
		updatedAt:   a.Updated(),
	}
	switch v := a.(type) {
	case *domain.Personal:
		if err := v.Validate(); err != nil {
			return nil, err
		}
		row.email = &v.Email
		row.credentialHash = &v.CredentialHash
	case *domain.Organization:
		if err := v.Validate(); err != nil {
			return nil, err
		}
		members, err := json.Marshal(v.Members)
		if err != nil {
			return nil, fmt.Errorf("encode members: %w", err)
		}
		row.ownerID = &v.OwnerID
		row.name = &v.Name
		row.description = v.Description
		row.members = members
	default:
		return nil, fmt.Errorf("unsupported account type %T", a)
	}
	return row, nil
}

func scanAccount(s pgx.Row) (domain.Account, error) {
	var row accountRow
	if err := s.Scan(
		&row.id, &row.accountType, &row.email, &row.credentialHash, &row.ownerID,
		&row.name, &row.description, &row.members, &row.createdAt, &row.updatedAt,
	); err != nil {
		return nil, err
	}
	switch domain.Type(row.accountType) {
	case domain.TypePersonal:
		return &domain.Personal{
			ID:             row.id,
			Email:          deref(row.email),
			CredentialHash: deref(row.credentialHash),
			CreatedAt:      row.createdAt.UTC(),
			UpdatedAt:      row.updatedAt.UTC(),
		}, nil
	case domain.TypeOrganization:
		members := []membership.Membership{}
		if len(row.members) > 0 {
			if err := json.Unmarshal(row.members, &members); err != nil {
				return nil, fmt.Errorf("decode members of %s: %w", row.id, err)
			}
		}
		return &domain.Organization{
			ID:          row.id,
			OwnerID:     deref(row.ownerID),
			Name:        deref(row.name),
			Description: row.description,
			Members:     members,
			CreatedAt:   row.createdAt.UTC(),
			UpdatedAt:   row.updatedAt.UTC(),
		}, nil
	}
	return nil, fmt.Errorf("account %s has unknown type %q", row.id, row.accountType)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
