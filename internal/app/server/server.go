package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"paydesk/internal/domain/audit"
	"paydesk/internal/domain/auth"
	"paydesk/internal/domain/directory"
	"paydesk/internal/domain/notifications"
	"paydesk/internal/domain/payroll"
	"paydesk/internal/domain/penalty"
	"paydesk/internal/domain/timeledger"
	"paydesk/internal/platform/config"
	cryptoutil "paydesk/internal/platform/crypto"
	"paydesk/internal/platform/db"
	"paydesk/internal/platform/email"
	"paydesk/internal/platform/jobs"
	"paydesk/internal/platform/metrics"
	"paydesk/internal/transport/http/api"
	audithandler "paydesk/internal/transport/http/handlers/audit"
	directoryhandler "paydesk/internal/transport/http/handlers/directory"
	notificationshandler "paydesk/internal/transport/http/handlers/notifications"
	payrollhandler "paydesk/internal/transport/http/handlers/payroll"
	penaltyhandler "paydesk/internal/transport/http/handlers/penalty"
	timeledgerhandler "paydesk/internal/transport/http/handlers/timeledger"
	"paydesk/internal/transport/http/middleware"
)

// App wires the database pool, services, and HTTP router together.
type App struct {
	Router chi.Router
	Pool   *pgxpool.Pool

	Payroll *payroll.Service
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	crypto, err := cryptoutil.New(cfg.PayslipEncryptKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption setup: %w", err)
	}

	rates := payroll.RateConfig{
		HourlyRate:          cfg.HourlyRate,
		StreakBonusAmount:   cfg.StreakBonusAmount,
		StreakThresholdDays: cfg.StreakThresholdDays,
		StreakWindowDays:    cfg.StreakWindowDays,
		EligibleRoles:       cfg.EligibleRoles,
	}
	payrollSvc := payroll.NewService(payroll.NewStore(pool), rates, payroll.PDFRenderer{}, cfg.PayslipDir, cfg.OrgCode, crypto)

	auditSvc := audit.New(pool)
	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	if cfg.AutorunEnabled {
		jobs.New(pool, payrollSvc, collector).Start(ctx, cfg.AutorunInterval)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if collector != nil {
		router.With(middleware.RequireRole(auth.RoleAdmin)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		payrollhandler.NewHandler(payrollSvc, auditSvc, notifySvc, collector).RegisterRoutes(r)
		directoryhandler.NewHandler(directory.NewStore(pool), auditSvc).RegisterRoutes(r)
		timeledgerhandler.NewHandler(timeledger.NewStore(pool)).RegisterRoutes(r)
		penaltyhandler.NewHandler(penalty.NewStore(pool), auditSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
	})

	return &App{Router: router, Pool: pool, Payroll: payrollSvc}, nil
}

func (a *App) Close() {
	a.Pool.Close()
}

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("paydesk server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
