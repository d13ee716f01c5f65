package postgres

import (
	"context"
	_ "embed"

	"lab-service/internal/config"
	"lab-service/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var Schema string

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repos struct {
	q querier
}

func (r repos) Principals() repository.PrincipalRepository         { return principalRepo(r) }
func (r repos) Projects() repository.ProjectRepository             { return projectRepo(r) }
func (r repos) Approvals() repository.ApprovalRepository           { return approvalRepo(r) }
func (r repos) Results() repository.ResultRepository               { return resultRepo(r) }
func (r repos) ClientRequests() repository.ClientRequestRepository { return clientRequestRepo(r) }
func (r repos) Notifications() repository.NotificationRepository   { return notificationRepo(r) }

type DB struct {
	repos
	Pool *pgxpool.Pool
}

func New(cfg *config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errFailedParseDatabaseConfig(err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.HealthCheckPeriod = poolHealthCheckPeriod
	poolConfig.MaxConnLifetime = poolMaxConnLifetime
	poolConfig.MaxConnIdleTime = poolMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, errFailedCreateConnectionPool(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errFailedPingDatabase(err)
	}

	return &DB{repos: repos{q: pool}, Pool: pool}, nil
}

// InTx runs fn inside one database transaction. fn's error is returned
// unchanged and rolls the transaction back.
func (db *DB) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return errFailedStartTransaction(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(repos{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errFailedCommitTransaction(err)
	}
	return nil
}

// Migrate applies the embedded schema. Statements are idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, Schema); err != nil {
		return errFailedApplySchema(err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

var _ repository.Store = (*DB)(nil)
