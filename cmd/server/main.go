package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/bus_pass/internal/assistant"
	"github.com/Skotchmaster/bus_pass/internal/config"
	"github.com/Skotchmaster/bus_pass/internal/events"
	"github.com/Skotchmaster/bus_pass/internal/gate"
	"github.com/Skotchmaster/bus_pass/internal/httpserver"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/repo"
	"github.com/Skotchmaster/bus_pass/internal/service"
	pkgdb "github.com/Skotchmaster/bus_pass/pkg/db"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
	"github.com/Skotchmaster/bus_pass/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/bus_pass/pkg/middleware/logging"
	"github.com/Skotchmaster/bus_pass/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/bus_pass/pkg/tokens"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	issuer, err := tokens.NewIssuer(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		publisher = prod
	}

	var rdb *redis.Client
	if cfg.RateLimit.Enabled && cfg.RedisAddr != "" {
		rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err = ratelimit.Connect(rctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		rcancel()
		if err != nil {
			logger.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err)
			rdb = nil
		}
	}

	bot := newAssistant(cfg, logger)

	store := repo.New(db)
	accounts := &service.AccountService{Store: store, Events: publisher, BcryptCost: cfg.BcryptCost}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	e.Use(echomw.Secure())
	e.Use(csrf.SameOrigin())

	httpserver.Register(e, &httpserver.Deps{
		DB:           db,
		Tokens:       issuer,
		Policy:       gate.DefaultPolicy(),
		SecureCookie: cfg.CookieSecure,
		LoginLimiter: ratelimit.New(cfg.RateLimit, rdb),
		Auth: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Store:      store,
				Tokens:     issuer,
				Events:     publisher,
				SessionTTL: cfg.SessionTTL,
				BcryptCost: cfg.BcryptCost,
			},
			SecureCookie: cfg.CookieSecure,
		},
		Users: &httpserver.UsersHTTP{
			Accounts: accounts,
			Ingest:   &service.IngestService{Store: store, Events: publisher, BcryptCost: cfg.BcryptCost},
		},
		Pass:  &httpserver.PassHTTP{Svc: &service.PassService{Store: store, Tokens: issuer, Events: publisher, Window: cfg.PassWindow}},
		Chat:  &httpserver.ChatHTTP{Assistant: bot},
		Pages: &httpserver.PagesHTTP{Accounts: accounts},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("%s listening on %s", cfg.ServiceName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := pkgdb.Close(db); err != nil {
		log.Printf("db close error: %v", err)
	}

	log.Println("shutdown complete")
}

// newAssistant prefers Elasticsearch for retrieval and keeps the in-memory
// index as fallback. Without ES_URL only the in-memory index is used.
func newAssistant(cfg config.Config, logger *slog.Logger) *assistant.Service {
	docs := assistant.KnowledgeBase()
	memory := assistant.NewMemoryRetriever(docs)

	var gen assistant.Generator
	if cfg.OpenAIKey != "" {
		gen = assistant.NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	}

	if cfg.ESURL == "" {
		return assistant.New(memory, gen)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := assistant.NewESClient(ctx, assistant.ESConfig{
		URL:      cfg.ESURL,
		User:     cfg.ESUser,
		Password: cfg.ESPassword,
	})
	if err != nil {
		logger.Warn("elasticsearch_unavailable", "url", cfg.ESURL, "error", err)
		return assistant.New(memory, gen)
	}

	es := assistant.NewESRetriever(client, cfg.ESIndex)
	if err := es.Seed(ctx, docs); err != nil {
		logger.Warn("elasticsearch_seed_failed", "index", cfg.ESIndex, "error", err)
		return assistant.New(memory, gen)
	}
	return assistant.New(es, gen, assistant.WithFallback(memory))
}
