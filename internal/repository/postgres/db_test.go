package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/notification"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/repository"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envTestDSN = "LAB_SERVICE_TEST_DSN"

// openTestDB connects to the database named by LAB_SERVICE_TEST_DSN and
// applies the schema. Tests are skipped when it is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv(envTestDSN)
	if dsn == "" {
		t.Skipf("%s not set", envTestDSN)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := &DB{repos: repos{q: pool}, Pool: pool}
	require.NoError(t, db.Migrate(ctx))
	return db
}

func seedPrincipal(t *testing.T, db *DB, role principal.Role) *principal.Principal {
	t.Helper()
	p, err := db.Principals().Create(context.Background(), principal.CreatePrincipalInput{
		Email:        uuid.NewString() + "@Lab.example",
		PasswordHash: "hash",
		FullName:     "Test " + string(role),
		Role:         role,
	})
	require.NoError(t, err)
	return p
}

func TestPrincipals(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := seedPrincipal(t, db, principal.RoleEngineer)

	got, err := db.Principals().GetByEmail(ctx, p.Email)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, got.IsActive)

	_, err = db.Principals().Create(ctx, principal.CreatePrincipalInput{
		Email: p.Email, PasswordHash: "x", FullName: "dup", Role: principal.RoleEngineer,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	inactive := false
	updated, err := db.Principals().UpdateAccess(ctx, p.ID, principal.UpdateAccessInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = db.Principals().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProjects_TransitionIsCompareAndSet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	eng := seedPrincipal(t, db, principal.RoleEngineer)

	p, err := db.Projects().Create(ctx, project.CreateProjectInput{
		EngineerID: eng.ID,
		Content:    project.Content{Title: "Fatigue test", Description: "Bracket fatigue"},
	})
	require.NoError(t, err)
	assert.Equal(t, project.StatusDraft, p.Status)
	assert.Empty(t, p.Content.EquipmentNeeded)

	now := time.Now().UTC()
	moved, err := db.Projects().TransitionStatus(ctx, project.TransitionInput{
		ProjectID: p.ID, From: project.StatusDraft, To: project.StatusPendingSupervisor, SubmittedAt: &now,
	})
	require.NoError(t, err)
	assert.Equal(t, project.StatusPendingSupervisor, moved.Status)
	require.NotNil(t, moved.SubmittedAt)

	_, err = db.Projects().TransitionStatus(ctx, project.TransitionInput{
		ProjectID: p.ID, From: project.StatusDraft, To: project.StatusPendingSupervisor,
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, string(project.StatusPendingSupervisor), appErr.Meta[apperrors.MetaCurrentStatus])
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	eng := seedPrincipal(t, db, principal.RoleEngineer)
	sup := seedPrincipal(t, db, principal.RoleSupervisor)

	p, err := db.Projects().Create(ctx, project.CreateProjectInput{
		EngineerID: eng.ID,
		Content:    project.Content{Title: "t", Description: "d"},
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Approvals().Upsert(ctx, approval.UpsertInput{
			ProjectID: p.ID, ApproverID: sup.ID, ApproverRole: principal.RoleSupervisor,
			Status: approval.StatusApproved, Comments: "ok",
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = db.Approvals().GetCurrent(ctx, p.ID, principal.RoleSupervisor)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApprovals_UpsertKeepsOneRowPerRole(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	eng := seedPrincipal(t, db, principal.RoleEngineer)
	sup := seedPrincipal(t, db, principal.RoleSupervisor)

	p, err := db.Projects().Create(ctx, project.CreateProjectInput{
		EngineerID: eng.ID,
		Content:    project.Content{Title: "t", Description: "d"},
	})
	require.NoError(t, err)

	first, err := db.Approvals().Upsert(ctx, approval.UpsertInput{
		ProjectID: p.ID, ApproverID: sup.ID, ApproverRole: principal.RoleSupervisor,
		Status: approval.StatusChangesRequested, Comments: "more detail", DecidedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	approvedAt := time.Now().UTC()
	second, err := db.Approvals().Upsert(ctx, approval.UpsertInput{
		ProjectID: p.ID, ApproverID: sup.ID, ApproverRole: principal.RoleSupervisor,
		Status: approval.StatusApproved, Comments: "fine", ApprovedAt: &approvedAt, DecidedAt: approvedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	history, err := db.Approvals().ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, approval.StatusApproved, history[0].Status)
	assert.Equal(t, sup.FullName, history[0].ApproverName)
}

func TestNotifications(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	eng := seedPrincipal(t, db, principal.RoleEngineer)

	n, err := db.Notifications().Create(ctx, notification.CreateNotificationInput{
		UserID: eng.ID, Type: notification.TypeProjectApproved, Payload: map[string]string{"project_id": "p"},
	})
	require.NoError(t, err)
	assert.Equal(t, "p", n.Payload["project_id"])

	require.NoError(t, db.Notifications().MarkRead(ctx, eng.ID, n.ID))
	unread, err := db.Notifications().ListByUser(ctx, eng.ID, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	assert.ErrorIs(t, db.Notifications().MarkRead(ctx, uuid.New(), n.ID), apperrors.ErrNotFound)
}
