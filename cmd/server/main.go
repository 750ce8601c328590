// The reference server wires the catalog, the audit enforcement policy, and
// the audit trail pipeline behind one HTTP surface. Postgres, Redis, and
// Kafka are all optional; the server degrades to in-memory stores so the API
// can be exercised with nothing but the binary.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"custos/internal/actor/apikey"
	"custos/internal/actor/jwtauth"
	"custos/internal/actor/roles"
	"custos/internal/audit"
	auditconsumer "custos/internal/audit/consumer"
	audithandler "custos/internal/audit/handler"
	"custos/internal/audit/relay"
	auditmem "custos/internal/audit/store/memory"
	auditpg "custos/internal/audit/store/postgres"
	cataloghandler "custos/internal/catalog/handler"
	"custos/internal/catalog/service"
	"custos/internal/catalog/store"
	catalogmem "custos/internal/catalog/store/memory"
	catalogpg "custos/internal/catalog/store/postgres"
	"custos/internal/platform/config"
	"custos/internal/platform/httpserver"
	"custos/internal/platform/kafka/consumer"
	"custos/internal/platform/kafka/producer"
	"custos/internal/platform/logger"
	"custos/internal/platform/metrics"
	"custos/internal/platform/postgres"
	"custos/internal/platform/redis"
	"custos/pkg/actor"
	"custos/pkg/changeset"
	"custos/pkg/platform/httputil"
	"custos/pkg/platform/middleware/admin"
	"custos/pkg/platform/middleware/auth"
	"custos/pkg/platform/middleware/metadata"
	"custos/pkg/platform/middleware/request"
	"custos/pkg/platform/middleware/requesttime"
)

const (
	auditTopicPartitions = 3
	auditInboxSize       = 256
	healthTimeout        = 2 * time.Second
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogJSON, slog.LevelInfo)
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	m := metrics.New()

	var (
		items     store.Store
		auditSink audit.Sink
		trail     audit.Trail
		db        *sql.DB
	)

	if cfg.Postgres.DSN != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := applySchemas(ctx, db); err != nil {
			return err
		}

		pool, err := postgres.OpenPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open postgres pool: %w", err)
		}
		defer pool.Close()

		items = catalogpg.New(db)
		auditSink = auditpg.New(db)
		trail = auditpg.NewReader(pool)
	} else {
		log.Warn("postgres not configured, serving from memory")
		items = catalogmem.New()

		events := auditmem.New()
		trail = events
		inbox := make(chan audit.Event, auditInboxSize)
		auditSink = audit.ChannelSink(inbox)
		worker := audit.NewWorker(events, inbox)
		g.Go(func() error { return worker.Run(gctx) })
	}

	switch {
	case db != nil && len(cfg.Kafka.Brokers) > 0:
		prod, err := producer.New(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer prod.Close()
		if err := prod.EnsureTopic(ctx, auditTopicPartitions); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}
		rel := relay.New(db, prod, log)
		g.Go(func() error { return rel.Run(gctx) })

		cons, err := consumer.New(cfg.Kafka, auditconsumer.NewHandler(auditpg.New(db), log), log)
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		defer cons.Close()
		g.Go(func() error { return cons.Run(gctx) })
	case db != nil:
		log.Warn("kafka not configured, audit outbox will not be relayed")
	}

	cache, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if cache != nil {
		defer cache.Close()
	}

	grants, err := roles.ParseStatic(cfg.ActorRoles)
	if err != nil {
		return fmt.Errorf("parse actor roles: %w", err)
	}
	var roleSource roles.Source
	if len(grants) > 0 {
		roleSource = grants
		if cache != nil {
			roleSource = roles.NewCached(grants, cache.Client, cfg.Redis.RoleCacheTTL, log)
		}
	}

	jwtService := jwtauth.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.Leeway)
	resolvers := []auth.Resolver{jwtauth.NewResolver(jwtService, roleSource, log)}

	accounts, err := apikey.ParseAccounts(cfg.ServiceKeys)
	if err != nil {
		return fmt.Errorf("parse service keys: %w", err)
	}
	if len(accounts) > 0 {
		resolvers = append(resolvers, apikey.NewResolver(apikey.NewService(accounts)))
	}

	policy := changeset.NewPolicy(actor.ContextProvider{},
		changeset.WithLogger(log),
		changeset.WithObserver(m),
	)
	recorder := audit.NewRecorder(auditSink, m.AuditEvents)
	catalog := service.NewService(items, policy, recorder, m, log)

	r := chi.NewRouter()
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(auth.Authenticate(log, resolvers...))

	r.Get("/healthz", handleHealth(db, cache))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	cataloghandler.New(catalog, log).Register(r)

	r.Group(func(gr chi.Router) {
		gr.Use(auth.RequireActor(log))
		gr.Get("/me", handleMe)
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(admin.RequireAdminToken(cfg.AdminToken, log))
		audithandler.New(trail, log).Register(ar)
		jwtauth.NewHandler(jwtService, log).Register(ar)
	})

	srv := httpserver.New(cfg.Addr, r)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

// applySchemas runs the DDL at startup. Every statement is IF NOT EXISTS, so
// deployments that manage migrations externally are unaffected.
func applySchemas(ctx context.Context, db *sql.DB) error {
	for _, schema := range []string{catalogpg.Schema, auditpg.Schema} {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

type meResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// handleMe echoes the resolved actor so clients can check what their
// credentials grant. RequireActor guarantees a known actor is on the context.
func handleMe(w http.ResponseWriter, r *http.Request) {
	current, _ := actor.FromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, meResponse{
		ID:    current.ID.String(),
		Name:  current.Name,
		Email: current.Email,
		Roles: current.Roles,
	})
}

// handleHealth pings the configured backends. Memory-mode deployments have
// nothing to ping and always report healthy.
func handleHealth(db *sql.DB, cache *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				writeUnhealthy(w, "postgres unreachable")
				return
			}
		}
		if cache != nil {
			if err := cache.Health(ctx); err != nil {
				writeUnhealthy(w, "redis unreachable")
				return
			}
		}
		httputil.WriteMessage(w, http.StatusOK, "healthy")
	}
}

func writeUnhealthy(w http.ResponseWriter, description string) {
	httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorBody{
		Error:            "unavailable",
		ErrorDescription: description,
	})
}
