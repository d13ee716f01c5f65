package main

import (
	"context"
	"errors"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lab-service/internal/audit"
	"lab-service/internal/auth"
	"lab-service/internal/cache"
	"lab-service/internal/config"
	"lab-service/internal/directory"
	"lab-service/internal/http"
	"lab-service/internal/intake"
	"lab-service/internal/ledger"
	"lab-service/internal/lifecycle"
	"lab-service/internal/metrics"
	"lab-service/internal/notify"
	"lab-service/internal/policy"
	"lab-service/internal/repository"
	"lab-service/internal/repository/memory"
	"lab-service/internal/repository/postgres"
	"lab-service/internal/storage/s3"
	"lab-service/pkg/logger"
	"lab-service/pkg/mailer"
	"lab-service/pkg/password"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	envFilePath        = ".env"
	serverAddrPrefix   = ":"
	signalBufferSize   = 1
	startupTimeout     = 30 * time.Second
	cachePruneInterval = time.Minute
)

var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

func main() {
	if err := godotenv.Load(envFilePath); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	store, auditSink, err := openStore(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer store.Close()

	pol := policy.Default()
	m := metrics.New()
	notifyOpts := []notify.Option{notify.WithLogger(zl.Named("notify"))}
	if cfg.Mail.Enabled() {
		mail, err := newMailer(&cfg.Mail)
		if err != nil {
			return err
		}
		notifyOpts = append(notifyOpts, notify.WithMailer(mail))
		zl.Info("notification email enabled", zap.Strings("providers", mail.Providers()))
	}
	emitter := notify.NewEmitter(store, pol, notifyOpts...)

	engineOpts := []lifecycle.Option{
		lifecycle.WithNotifier(emitter),
		lifecycle.WithRecorder(m),
		lifecycle.WithLogger(zl.Named("lifecycle")),
		lifecycle.WithResultRules(lifecycle.ResultRules{
			AllowedTypes: cfg.App.ResultFileTypes,
			MaxSize:      cfg.App.MaxResultSize,
		}),
	}
	if cfg.AWS.Enabled() {
		blobs, err := s3.NewClient(&cfg.AWS)
		if err != nil {
			return err
		}
		if err := blobs.EnsureBucket(ctx); err != nil {
			return err
		}
		engineOpts = append(engineOpts, lifecycle.WithBlobStore(blobs))
		zl.Info("result storage ready", zap.String("bucket", cfg.AWS.ResultsBucket))
	} else {
		zl.Warn("RESULTS_BUCKET not set, result uploads are disabled")
	}
	engine := lifecycle.NewEngine(store, pol, ledger.New(zl.Named("ledger")), engineOpts...)

	principals := cache.NewPrincipalCache(cfg.App.PrincipalCacheTTL)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryDuration)
	dir := directory.NewService(store, pol, password.Default(), jwtService, principals, zl.Named("directory"))

	if cfg.App.BootstrapDirectorEmail != "" {
		created, err := dir.Bootstrap(ctx, cfg.App.BootstrapDirectorEmail, cfg.App.BootstrapDirectorSecret)
		if err != nil {
			return err
		}
		if created {
			zl.Info("bootstrapped lab director", zap.String("email", cfg.App.BootstrapDirectorEmail))
		}
	}

	auditLogger := audit.NewLogger(auditSink, zl.Named("audit"))

	server := http.NewServer(&http.ServerDependencies{
		Config:         cfg,
		Store:          store,
		Directory:      dir,
		Engine:         engine,
		Intake:         intake.NewService(store, pol, engine, emitter, zl.Named("intake")),
		Inbox:          emitter,
		AuthMiddleware: auth.NewMiddleware(jwtService, dir, zl.Named("auth")),
		Metrics:        m,
		AuditLogger:    auditLogger,
		Logger:         zl.Named("http"),
	})

	stopPrune := make(chan struct{})
	go prunePrincipals(principals, stopPrune)
	defer close(stopPrune)

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("starting HTTP server", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Database.Driver))
		if err := server.Start(serverAddrPrefix + cfg.Server.Port); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, signalBufferSize)
	signal.Notify(quit, shutdownSignals...)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	zl.Info("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := emitter.Wait(shutdownCtx); err != nil {
		zl.Warn("pending notifications dropped", zap.Error(err))
	}
	auditLogger.Flush()

	zl.Info("server exited gracefully")
	return nil
}

// openStore connects the configured driver. Audit events go to postgres
// alongside the data, or to the log when running in memory.
func openStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (repository.Store, audit.Sink, error) {
	if cfg.Database.Driver == config.StoreDriverMemory {
		zl.Warn("using in-memory store, data is lost on restart")
		return memory.New(), audit.NewZapSink(zl), nil
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	zl.Info("database connection established", zap.String("host", cfg.Database.Host))
	return db, audit.NewPostgresSink(db.Pool), nil
}

func newMailer(cfg *config.MailConfig) (*mailer.Service, error) {
	var providers []mailer.Provider
	if cfg.ResendAPIKey != "" {
		providers = append(providers, mailer.NewResendProvider(cfg.ResendAPIKey, "", nil))
	}
	if cfg.SendGridAPIKey != "" {
		providers = append(providers, mailer.NewSendGridProvider(cfg.SendGridAPIKey, "", nil))
	}
	return mailer.NewService(cfg.From, providers...)
}

func prunePrincipals(principals *cache.PrincipalCache, stop <-chan struct{}) {
	ticker := time.NewTicker(cachePruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			principals.Prune()
		case <-stop:
			return
		}
	}
}
