// Package audit records who attempted which mutation and how it ended.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"lab-service/internal/auth"
	apperrors "lab-service/pkg/errors"
	"lab-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Status represents the outcome of an action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"

	actorAnonymous = "anonymous"
	writeTimeout   = 2 * time.Second
	paramID        = "id"
)

type Event struct {
	ID           uuid.UUID
	Action       string
	ActorID      *uuid.UUID
	ActorRole    string
	ResourceID   string
	Status       Status
	IPAddress    string
	UserAgent    string
	RequestID    string
	Metadata     map[string]any
	ErrorMessage string
	CreatedAt    time.Time
}

// Sink stores audit events.
type Sink interface {
	Write(ctx context.Context, event *Event) error
}

// PostgresSink appends events to the audit_events table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) Write(ctx context.Context, event *Event) error {
	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_events (
			id, action, actor_id, actor_role, resource_id, status,
			ip_address, user_agent, request_id, metadata, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		event.ID,
		event.Action,
		event.ActorID,
		event.ActorRole,
		event.ResourceID,
		event.Status,
		event.IPAddress,
		event.UserAgent,
		event.RequestID,
		metadataJSON,
		event.ErrorMessage,
		event.CreatedAt,
	)
	return err
}

// ZapSink writes events to the application log. Used with the memory store.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger.Named("audit")}
}

func (s *ZapSink) Write(_ context.Context, event *Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID.String()),
		zap.String("action", event.Action),
		zap.String("status", string(event.Status)),
		zap.String("actor_role", event.ActorRole),
		zap.String("resource_id", event.ResourceID),
		zap.String("request_id", event.RequestID),
		zap.String("ip", event.IPAddress),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.String()))
	}
	if event.ErrorMessage != "" {
		fields = append(fields, logger.Redacted("error", event.ErrorMessage))
	}
	s.logger.Info("audit event", fields...)
	return nil
}

// Logger handles audit logging
type Logger struct {
	sink   Sink
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewLogger(sink Sink, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{sink: sink, logger: log}
}

// Log records an audit event asynchronously. Failures are logged and
// otherwise ignored.
func (l *Logger) Log(event *Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := l.sink.Write(ctx, event); err != nil {
			l.logger.Warn("audit write failed",
				zap.String("action", event.Action),
				logger.Redacted("error", err.Error()),
			)
		}
	}()
}

// Flush waits for pending writes.
func (l *Logger) Flush() {
	l.wg.Wait()
}

// Middleware audits every request with a mutating method once the handler
// has returned.
func (l *Logger) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if !isMutation(c.Request().Method) {
				return err
			}
			l.Log(eventFromContext(c, err))
			return err
		}
	}
}

func eventFromContext(c echo.Context, err error) *Event {
	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}

	event := &Event{
		Action:     c.Request().Method + " " + path,
		ActorRole:  actorAnonymous,
		ResourceID: c.Param(paramID),
		Status:     statusOf(err),
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
		RequestID:  c.Response().Header().Get(echo.HeaderXRequestID),
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	if p, perr := auth.GetPrincipal(c); perr == nil {
		id := p.ID
		event.ActorID = &id
		event.ActorRole = string(p.Role)
	}
	return event
}

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrInvalidCredentials):
		return StatusDenied
	default:
		return StatusFailure
	}
}

func isMutation(method string) bool {
	switch method {
	case echo.POST, echo.PUT, echo.PATCH, echo.DELETE:
		return true
	default:
		return false
	}
}
