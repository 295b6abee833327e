package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gorilla/sessions"

	"sample-login/core"
)

func main() {
	cfg := core.Load()
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg)
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	identities, err := core.LoadIdentities(cfg.IdentitiesFile)
	if err != nil {
		log.Fatalf("failed to load identities: %v", err)
	}

	matcher, err := core.NewPasswordMatcher(cfg.PasswordMatcher)
	if err != nil {
		log.Fatalf("invalid password matcher: %v", err)
	}
	if cfg.PasswordMatcher == core.PlainMatcherName {
		log.Printf("WARNING: password matcher %q compares unhashed passwords; demo use only", cfg.PasswordMatcher)
	}

	var store core.IdentityStore
	if cfg.DatabaseURL != "" {
		db, err := core.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		defer db.Close()

		if err := core.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("failed to ensure schema: %v", err)
		}
		pgStore := core.NewPgIdentityStore(db)
		if err := core.SeedIdentities(ctx, pgStore, identities, cfg); err != nil {
			log.Fatalf("seed identities failed: %v", err)
		}
		if n, err := pgStore.Count(ctx); err == nil {
			log.Printf("identity store: postgres (%d identities)", n)
		}
		store = pgStore
	} else {
		memStore, err := core.NewMemoryIdentityStore(identities)
		if err != nil {
			log.Fatalf("invalid identities: %v", err)
		}
		log.Printf("loaded %d identities into memory", memStore.Len())
		store = memStore
	}
	authService := core.NewStoreAuthService(store, matcher)

	var sessionStore sessions.Store
	var metrics *core.MetricsService
	switch cfg.SessionBackend {
	case "redis":
		redisClient, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisClient.Close()
		sessionStore = core.NewRedisStore(redisClient, []byte(cfg.SessionKey))
		metrics = core.NewMetricsService(redisClient)
	case "cookie":
		// Gorilla cookie store for session management.
		sessionStore = sessions.NewCookieStore([]byte(cfg.SessionKey))
	default:
		log.Fatalf("unknown session backend %q", cfg.SessionBackend)
	}

	router := core.NewRouter(cfg, sessionStore, authService, metrics)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting login server on %s (sessions=%s)", addr, cfg.SessionBackend)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
