package postgres

import (
	"context"
	"fmt"
	"strings"

	"lab-service/internal/domain/principal"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const principalColumns = `id, email, password_hash, full_name, role, organization, is_active, created_at, updated_at`

type principalRepo repos

func scanPrincipal(row pgx.Row) (*principal.Principal, error) {
	p := &principal.Principal{}
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.PasswordHash,
		&p.FullName,
		&p.Role,
		&p.Organization,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r principalRepo) Create(ctx context.Context, input principal.CreatePrincipalInput) (*principal.Principal, error) {
	query := `
		INSERT INTO principals (id, email, password_hash, full_name, role, organization)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + principalColumns

	p, err := scanPrincipal(r.q.QueryRow(ctx, query,
		uuid.New(),
		strings.ToLower(input.Email),
		input.PasswordHash,
		input.FullName,
		input.Role,
		input.Organization,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(errEmailExists)
		}
		return nil, errFailedCreatePrincipal(err)
	}
	return p, nil
}

func (r principalRepo) GetByID(ctx context.Context, id uuid.UUID) (*principal.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE id = $1`

	p, err := scanPrincipal(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errPrincipalNotFound)
		}
		return nil, errFailedGetPrincipal(err)
	}
	return p, nil
}

func (r principalRepo) GetByEmail(ctx context.Context, email string) (*principal.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE email = $1`

	p, err := scanPrincipal(r.q.QueryRow(ctx, query, strings.ToLower(email)))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errPrincipalNotFound)
		}
		return nil, errFailedGetPrincipal(err)
	}
	return p, nil
}

func (r principalRepo) List(ctx context.Context) ([]*principal.Principal, error) {
	return r.list(ctx, `SELECT `+principalColumns+` FROM principals ORDER BY created_at`)
}

func (r principalRepo) ListActiveByRole(ctx context.Context, role principal.Role) ([]*principal.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE role = $1 AND is_active ORDER BY created_at`
	return r.list(ctx, query, role)
}

func (r principalRepo) list(ctx context.Context, query string, args ...any) ([]*principal.Principal, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, errFailedListPrincipals(err)
	}
	defer rows.Close()

	var principals []*principal.Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, errFailedScanPrincipal(err)
		}
		principals = append(principals, p)
	}

	if err := rows.Err(); err != nil {
		return nil, errIteratePrincipals(err)
	}

	return principals, nil
}

func (r principalRepo) UpdateAccess(ctx context.Context, id uuid.UUID, input principal.UpdateAccessInput) (*principal.Principal, error) {
	query := "UPDATE principals SET updated_at = NOW()"
	args := []any{id}
	argCount := 1

	if input.Role != nil {
		argCount++
		query += fmt.Sprintf(", role = $%d", argCount)
		args = append(args, *input.Role)
	}

	if input.IsActive != nil {
		argCount++
		query += fmt.Sprintf(", is_active = $%d", argCount)
		args = append(args, *input.IsActive)
	}

	query += " WHERE id = $1 RETURNING " + principalColumns

	p, err := scanPrincipal(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errPrincipalNotFound)
		}
		return nil, errFailedUpdatePrincipal(err)
	}
	return p, nil
}

func (r principalRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE principals SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return errFailedUpdatePrincipal(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound(errPrincipalNotFound)
	}

	return nil
}

func (r principalRepo) CountByRole(ctx context.Context, role principal.Role) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM principals WHERE role = $1`, role).Scan(&count); err != nil {
		return 0, errFailedCountPrincipals(err)
	}
	return count, nil
}
