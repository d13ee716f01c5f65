// Package directory is the identity side of the service: sign-in,
// principal lookup and administrative provisioning.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"lab-service/internal/cache"
	"lab-service/internal/domain/principal"
	"lab-service/internal/policy"
	"lab-service/internal/rbac/presets"
	"lab-service/internal/repository"
	apperrors "lab-service/pkg/errors"
	"lab-service/pkg/password"
	"lab-service/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer signs session tokens for a principal.
type TokenIssuer interface {
	Generate(p *principal.Principal) (string, time.Time, error)
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal *principal.Principal
}

type ProvisionInput struct {
	Email        string
	Password     string
	FullName     string
	Role         principal.Role
	Organization *string
}

type Service struct {
	store  repository.Store
	policy *policy.Policy
	hasher *password.Hasher
	tokens TokenIssuer
	cache  *cache.PrincipalCache
	logger *zap.Logger

	// dummyHash is verified against when the email is unknown so that a
	// miss costs as much as a wrong password.
	dummyHash string
}

func NewService(store repository.Store, pol *policy.Policy, hasher *password.Hasher, tokens TokenIssuer, principals *cache.PrincipalCache, logger *zap.Logger) *Service {
	if hasher == nil {
		hasher = password.Default()
	}
	if principals == nil {
		principals = cache.NewPrincipalCache(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		logger.Warn("failed to prepare login timing hash", zap.Error(err))
	}
	return &Service{
		store:     store,
		policy:    pol,
		hasher:    hasher,
		tokens:    tokens,
		cache:     principals,
		logger:    logger,
		dummyHash: dummyHash,
	}
}

// Login checks credentials and issues a session token. Unknown emails and
// wrong passwords fail the same way. Inactive principals may sign in.
func (s *Service) Login(ctx context.Context, email, pass string) (*Session, error) {
	p, err := s.store.Principals().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.hasher.Verify(pass, s.dummyHash)
			return nil, apperrors.InvalidCredentials()
		}
		return nil, apperrors.AsDependency(errLoadPrincipal, err)
	}
	if !s.hasher.Verify(pass, p.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}

	token, expiresAt, err := s.tokens.Generate(p)
	if err != nil {
		return nil, apperrors.Dependency(errIssueToken, err)
	}

	s.cache.Set(p)
	s.logger.Info("principal signed in",
		zap.String("principal_id", p.ID.String()),
		zap.String("role", string(p.Role)),
	)
	return &Session{Token: token, ExpiresAt: expiresAt, Principal: p}, nil
}

// Resolve returns the current directory entry for id.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID) (*principal.Principal, error) {
	if p, ok := s.cache.Get(id); ok {
		return p, nil
	}
	p, err := s.store.Principals().GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.AsDependency(errLoadPrincipal, err)
	}
	s.cache.Set(p)
	return p, nil
}

// Me returns the caller's own directory entry.
func (s *Service) Me(ctx context.Context, who *principal.Principal) (*principal.Principal, error) {
	return s.Resolve(ctx, who.ID)
}

func (s *Service) ProvisionUser(ctx context.Context, who *principal.Principal, input ProvisionInput) (*principal.Principal, error) {
	if err := s.policy.Authorize(who, presets.ActionCreate, policy.Kind(presets.ResourcePrincipal)); err != nil {
		return nil, err
	}

	input.Email = normalizeEmail(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := s.validateProvision(input); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.Dependency(errHashPassword, err)
	}

	created, err := s.store.Principals().Create(ctx, principal.CreatePrincipalInput{
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         input.Role,
		Organization: trimOptional(input.Organization),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict(errEmailTaken)
		}
		return nil, apperrors.AsDependency(errCreatePrincipal, err)
	}

	s.logger.Info("principal provisioned",
		zap.String("principal_id", created.ID.String()),
		zap.String("role", string(created.Role)),
		zap.String("actor_id", who.ID.String()),
	)
	return created, nil
}

func (s *Service) ListUsers(ctx context.Context, who *principal.Principal) ([]*principal.Principal, error) {
	if err := s.policy.Authorize(who, presets.ActionList, policy.Kind(presets.ResourcePrincipal)); err != nil {
		return nil, err
	}
	users, err := s.store.Principals().List(ctx)
	if err != nil {
		return nil, apperrors.AsDependency(errListPrincipals, err)
	}
	return users, nil
}

// UpdateAccess changes a principal's role or active flag. Sessions issued
// for the previous role stop resolving once the cache entry is dropped.
func (s *Service) UpdateAccess(ctx context.Context, who *principal.Principal, id uuid.UUID, input principal.UpdateAccessInput) (*principal.Principal, error) {
	if err := s.policy.Authorize(who, presets.ActionManage, policy.Kind(presets.ResourcePrincipal)); err != nil {
		return nil, err
	}
	if input.Role == nil && input.IsActive == nil {
		return nil, apperrors.Validation(errNothingToUpdate)
	}
	if input.Role != nil {
		if err := s.policy.ValidRole(*input.Role); err != nil {
			return nil, err
		}
	}
	if id == who.ID && input.IsActive != nil && !*input.IsActive {
		return nil, apperrors.Validation(errDeactivateSelf)
	}

	updated, err := s.store.Principals().UpdateAccess(ctx, id, input)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound(errPrincipalNotFound)
		}
		return nil, apperrors.AsDependency(errUpdatePrincipal, err)
	}
	s.cache.Invalidate(id)

	s.logger.Info("principal access updated",
		zap.String("principal_id", id.String()),
		zap.String("role", string(updated.Role)),
		zap.Bool("is_active", updated.IsActive),
		zap.String("actor_id", who.ID.String()),
	)
	return updated, nil
}

func (s *Service) ChangePassword(ctx context.Context, who *principal.Principal, current, next string) error {
	if !who.IsActive {
		return apperrors.Forbidden(errInactiveAccount)
	}
	if err := validator.Password(next); err != nil {
		return apperrors.Validation(err.Error())
	}

	p, err := s.store.Principals().GetByID(ctx, who.ID)
	if err != nil {
		return apperrors.AsDependency(errLoadPrincipal, err)
	}
	if !s.hasher.Verify(current, p.PasswordHash) {
		return apperrors.Validation(errWrongPassword)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperrors.Dependency(errHashPassword, err)
	}
	if err := s.store.Principals().UpdatePassword(ctx, who.ID, hash); err != nil {
		return apperrors.AsDependency(errUpdatePassword, err)
	}
	s.cache.Invalidate(who.ID)
	return nil
}

// Bootstrap creates the first lab director when none exists. It reports
// whether a principal was created.
func (s *Service) Bootstrap(ctx context.Context, email, pass string) (bool, error) {
	if email == "" || pass == "" {
		return false, nil
	}

	count, err := s.store.Principals().CountByRole(ctx, principal.RoleLabDirector)
	if err != nil {
		return false, apperrors.AsDependency(errCountDirectors, err)
	}
	if count > 0 {
		return false, nil
	}

	input := ProvisionInput{
		Email:    normalizeEmail(email),
		Password: pass,
		FullName: bootstrapFullName,
		Role:     principal.RoleLabDirector,
	}
	if err := s.validateProvision(input); err != nil {
		return false, err
	}
	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return false, apperrors.Dependency(errHashPassword, err)
	}

	created, err := s.store.Principals().Create(ctx, principal.CreatePrincipalInput{
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         input.Role,
	})
	if err != nil {
		return false, apperrors.AsDependency(errCreatePrincipal, err)
	}

	s.logger.Info("bootstrapped lab director", zap.String("principal_id", created.ID.String()))
	return true, nil
}

func (s *Service) validateProvision(input ProvisionInput) error {
	if err := validator.Email(input.Email); err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := validator.Password(input.Password); err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := validator.FullName(input.FullName); err != nil {
		return apperrors.Validation(err.Error())
	}
	return s.policy.ValidRole(input.Role)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
