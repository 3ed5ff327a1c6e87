package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/school-portal/internal/domain"
)

// LoadPostgres reads the principal and credential tables into a validated
// directory. The directory is a snapshot; later table changes need a restart.
func LoadPostgres(ctx context.Context, pool *pgxpool.Pool) (*Directory, error) {
	principals, err := loadPrincipals(ctx, pool)
	if err != nil {
		return nil, err
	}
	credentials, err := loadCredentials(ctx, pool)
	if err != nil {
		return nil, err
	}

	dir, err := NewDirectory(principals, credentials)
	if err != nil {
		return nil, fmt.Errorf("index identity tables: %w", err)
	}
	if err := dir.Validate(); err != nil {
		return nil, err
	}
	return dir, nil
}

func loadPrincipals(ctx context.Context, pool *pgxpool.Pool) ([]domain.Principal, error) {
	const query = `
        SELECT id, role, profile
        FROM principals ORDER BY created_at, id`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query principals: %w", err)
	}
	defer rows.Close()

	var out []domain.Principal
	for rows.Next() {
		var (
			id      string
			role    string
			profile []byte
		)
		if err := rows.Scan(&id, &role, &profile); err != nil {
			return nil, err
		}
		var p domain.Principal
		if err := json.Unmarshal(profile, &p); err != nil {
			return nil, fmt.Errorf("decode principal %s: %w", id, err)
		}
		if p.ID != id || string(p.Role()) != role {
			return nil, fmt.Errorf("principal %s: row columns disagree with profile", id)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func loadCredentials(ctx context.Context, pool *pgxpool.Pool) ([]domain.CredentialEntry, error) {
	const query = `
        SELECT email, secret, role
        FROM credentials ORDER BY ordinal, email`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var out []domain.CredentialEntry
	for rows.Next() {
		var c domain.CredentialEntry
		if err := rows.Scan(&c.Email, &c.Secret, &c.Role); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SeedPostgres copies a directory into the identity tables. Rows that
// already exist are left untouched, so it is safe to run on every start.
func SeedPostgres(ctx context.Context, pool *pgxpool.Pool, dir *Directory) (int, error) {
	inserted := 0
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		const insertPrincipal = `
            INSERT INTO principals (id, email, role, profile)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (id) DO NOTHING`
		const insertCredential = `
            INSERT INTO credentials (email, secret, role, ordinal)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (email) DO NOTHING`

		for _, p := range dir.All() {
			profile, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encode principal %s: %w", p.ID, err)
			}
			tag, err := tx.Exec(ctx, insertPrincipal, p.ID, p.Email, string(p.Role()), profile)
			if err != nil {
				return fmt.Errorf("insert principal %s: %w", p.ID, err)
			}
			inserted += int(tag.RowsAffected())
		}
		for i, c := range dir.Credentials() {
			if _, err := tx.Exec(ctx, insertCredential, c.Email, c.Secret, string(c.Role), i); err != nil {
				return fmt.Errorf("insert credential %s: %w", c.Email, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
