package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leadbook/internal/app"
	"github.com/iliyamo/leadbook/internal/config"
	"github.com/iliyamo/leadbook/internal/handler"
	"github.com/iliyamo/leadbook/internal/logging"
	"github.com/iliyamo/leadbook/internal/middleware"
	"github.com/iliyamo/leadbook/internal/router"
	"github.com/iliyamo/leadbook/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logging.New(cfg.LogLevel, cfg.Env)

	stores, err := app.OpenStores(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open stores")
	}
	defer stores.Close()

	auth, err := service.NewAuthService(stores.Users, service.AuthConfig{
		Secret:     cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("auth service")
	}
	if cfg.SeedDemoUser {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		created, err := auth.EnsureUser(ctx, app.DemoUser)
		cancel()
		if err != nil {
			log.WithError(err).Warn("demo user not ensured")
		} else if created {
			log.WithField("email", app.DemoUser.Email).Info("demo user created")
		}
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		pub := service.NewRabbitPublisher(cfg.RabbitURL, log)
		defer pub.Close()
		events = pub
	}
	leads := service.NewLeadService(stores.Leads, events, log)

	// Redis is optional: without it login is not rate limited and lists
	// are not cached.
	var limit, cache echo.MiddlewareFunc
	if rdb, err := config.NewRedisClient(); err != nil {
		log.WithError(err).Warn("redis unavailable; rate limiting and list cache disabled")
	} else {
		defer rdb.Close()
		limit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
		cache = middleware.NewOwnerListCache(config.LoadCacheConfig(), rdb, log)
	}

	e := router.New(router.Deps{
		Log:           log,
		Production:    cfg.IsProduction(),
		FrontendURL:   cfg.FrontendURL,
		StaticDir:     cfg.StaticDir,
		CookieName:    cfg.SessionCookie,
		Authenticator: auth,
		Auth:          handler.NewAuthHandler(auth, handler.CookieConfig{Name: cfg.SessionCookie, MaxAge: cfg.SessionTTL}),
		Leads:         handler.NewLeadHandler(leads, time.Local),
		RateLimit:     limit,
		ListCache:     cache,
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.WithFields(map[string]any{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
