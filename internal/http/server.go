package http

import (
	"context"
	"fmt"
	stdhttp "net/http"

	"lab-service/internal/audit"
	"lab-service/internal/auth"
	"lab-service/internal/config"
	"lab-service/internal/domain/principal"
	"lab-service/internal/http/handler"
	"lab-service/internal/http/middleware"
	"lab-service/internal/metrics"
	apperrors "lab-service/pkg/errors"
	"lab-service/pkg/profiling"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	jsonKeyStatus     = "status"
	statusOK          = "ok"
	statusUnavailable = "unavailable"
	requestBodyLimit  = "1M"

	// multipart framing on top of the file itself
	uploadOverheadBytes = 1 << 20
	uploadRoute         = "/api/projects/:id/results"

	msgDirectorOnly = "only a lab director may use debug endpoints"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type ServerDependencies struct {
	Config         *config.Config
	Store          HealthChecker
	Directory      handler.Directory
	Engine         handler.Lifecycle
	Intake         handler.Intake
	Inbox          handler.Inbox
	AuthMiddleware *auth.Middleware
	Metrics        *metrics.Metrics
	AuditLogger    *audit.Logger
	Logger         *zap.Logger
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewErrorHandler(log)

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Request ID first, so every log line and audit row carries it.
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(requestLogger(log))
	if deps.Metrics != nil {
		e.Use(deps.Metrics.Middleware())
	}
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimitWithConfig(echomiddleware.BodyLimitConfig{
		Limit:   requestBodyLimit,
		Skipper: isUpload,
	}))
	e.Use(middleware.NewGlobalRateLimiter().Middleware())
	if deps.AuditLogger != nil {
		e.Use(deps.AuditLogger.Middleware())
	}

	strictRateLimiter := middleware.NewStrictRateLimiter()
	uploadLimit := echomiddleware.BodyLimit(fmt.Sprintf("%dB", deps.Config.App.MaxResultSize+uploadOverheadBytes))

	authHandler := handler.NewAuthHandler(deps.Directory)
	userHandler := handler.NewUserHandler(deps.Directory)
	projectHandler := handler.NewProjectHandler(deps.Engine)
	requestHandler := handler.NewClientRequestHandler(deps.Intake)
	notificationHandler := handler.NewNotificationHandler(deps.Inbox)

	e.POST("/auth/login", authHandler.Login, strictRateLimiter.Middleware())
	e.GET("/health", healthCheck(deps.Store))
	if deps.Metrics != nil && deps.Config.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	api := e.Group("/api")
	api.Use(deps.AuthMiddleware.RequirePrincipal())
	api.Use(middleware.NewPrincipalRateLimiter().Middleware())

	api.GET("/me", authHandler.Me)
	api.PUT("/me/password", authHandler.ChangePassword, strictRateLimiter.Middleware())

	api.GET("/users", userHandler.ListUsers)
	api.POST("/users", userHandler.ProvisionUser)
	api.PUT("/users/:id/access", userHandler.UpdateAccess)

	api.GET("/projects", projectHandler.ListProjects)
	api.POST("/projects", projectHandler.CreateProject)
	api.GET("/projects/:id", projectHandler.GetProject)
	api.PUT("/projects/:id", projectHandler.UpdateProject)
	api.POST("/projects/:id/submit", projectHandler.Submit)
	api.POST("/projects/:id/decisions", projectHandler.Decide)
	api.GET("/projects/:id/approvals", projectHandler.ListApprovals)
	api.POST("/projects/:id/start", projectHandler.Start)
	api.POST("/projects/:id/complete", projectHandler.Complete)
	api.GET("/projects/:id/results", projectHandler.ListResults)
	api.POST("/projects/:id/results", projectHandler.UploadResult, uploadLimit)
	api.GET("/reviews/queue", projectHandler.ReviewQueue)

	api.GET("/client-requests", requestHandler.ListRequests)
	api.POST("/client-requests", requestHandler.SubmitRequest)
	api.GET("/client-requests/:id", requestHandler.GetRequest)
	api.PUT("/client-requests/:id/status", requestHandler.UpdateStatus)
	api.POST("/client-requests/:id/assign", requestHandler.Assign)
	api.POST("/client-requests/:id/convert", requestHandler.Convert)

	api.GET("/notifications", notificationHandler.List)
	api.PUT("/notifications/:id/read", notificationHandler.MarkRead)

	if deps.Config.Metrics.Profiling {
		profiling.Register(api.Group("/debug", requireDirector))
	}

	return &Server{
		echo: e,
		deps: deps,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() stdhttp.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func requireDirector(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := auth.GetPrincipal(c)
		if err != nil {
			return err
		}
		if p.Role != principal.RoleLabDirector || !p.IsActive {
			return apperrors.Forbidden(msgDirectorOnly)
		}
		return next(c)
	}
}

func isUpload(c echo.Context) bool {
	return c.Request().Method == stdhttp.MethodPost && c.Path() == uploadRoute
}

func healthCheck(store HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		if store != nil {
			if err := store.Ping(c.Request().Context()); err != nil {
				return c.JSON(stdhttp.StatusServiceUnavailable, map[string]string{
					jsonKeyStatus: statusUnavailable,
				})
			}
		}
		return c.JSON(stdhttp.StatusOK, map[string]string{
			jsonKeyStatus: statusOK,
		})
	}
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	})
}
