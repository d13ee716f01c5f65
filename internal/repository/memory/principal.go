package memory

import (
	"context"
	"sort"
	"strings"

	"lab-service/internal/domain/principal"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
)

const (
	errPrincipalNotFound = "principal not found"
	errEmailExists       = "a principal with this email already exists"
)

type principalRepo repos

func (r principalRepo) Create(ctx context.Context, input principal.CreatePrincipalInput) (*principal.Principal, error) {
	st, release := r.acc.write()
	defer release()

	email := strings.ToLower(input.Email)
	for _, p := range st.principals {
		if p.Email == email {
			return nil, apperrors.Conflict(errEmailExists)
		}
	}

	now := st.tick(r.acc.clock())
	p := principal.Principal{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: input.PasswordHash,
		FullName:     input.FullName,
		Role:         input.Role,
		Organization: input.Organization,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	st.principals[p.ID] = p
	return &p, nil
}

func (r principalRepo) GetByID(ctx context.Context, id uuid.UUID) (*principal.Principal, error) {
	st, release := r.acc.read()
	defer release()

	p, ok := st.principals[id]
	if !ok {
		return nil, apperrors.NotFound(errPrincipalNotFound)
	}
	return &p, nil
}

func (r principalRepo) GetByEmail(ctx context.Context, email string) (*principal.Principal, error) {
	st, release := r.acc.read()
	defer release()

	email = strings.ToLower(email)
	for _, p := range st.principals {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, apperrors.NotFound(errPrincipalNotFound)
}

func (r principalRepo) List(ctx context.Context) ([]*principal.Principal, error) {
	st, release := r.acc.read()
	defer release()

	out := make([]*principal.Principal, 0, len(st.principals))
	for _, p := range st.principals {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r principalRepo) ListActiveByRole(ctx context.Context, role principal.Role) ([]*principal.Principal, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.Role == role && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r principalRepo) UpdateAccess(ctx context.Context, id uuid.UUID, input principal.UpdateAccessInput) (*principal.Principal, error) {
	st, release := r.acc.write()
	defer release()

	p, ok := st.principals[id]
	if !ok {
		return nil, apperrors.NotFound(errPrincipalNotFound)
	}
	if input.Role != nil {
		p.Role = *input.Role
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	p.UpdatedAt = st.tick(r.acc.clock())
	st.principals[id] = p
	return &p, nil
}

func (r principalRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	st, release := r.acc.write()
	defer release()

	p, ok := st.principals[id]
	if !ok {
		return apperrors.NotFound(errPrincipalNotFound)
	}
	p.PasswordHash = passwordHash
	p.UpdatedAt = st.tick(r.acc.clock())
	st.principals[id] = p
	return nil
}

func (r principalRepo) CountByRole(ctx context.Context, role principal.Role) (int, error) {
	st, release := r.acc.read()
	defer release()

	n := 0
	for _, p := range st.principals {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}
