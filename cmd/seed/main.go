// Command seed creates the demo account and fills it with random leads.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/iliyamo/leadbook/internal/app"
	"github.com/iliyamo/leadbook/internal/config"
	"github.com/iliyamo/leadbook/internal/logging"
	"github.com/iliyamo/leadbook/internal/seed"
	"github.com/iliyamo/leadbook/internal/service"
)

func main() {
	n := flag.Int("n", 200, "number of leads to create")
	flag.Parse()

	cfg := config.Load()
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := auth.EnsureUser(ctx, app.DemoUser); err != nil {
		log.WithError(err).Fatal("ensure demo user")
	}
	owner, err := stores.Users.GetByEmail(ctx, app.DemoUser.Email)
	if err != nil {
		log.WithError(err).Fatal("load demo user")
	}

	gen := seed.NewGenerator(nil)
	created := 0
	for i := 0; i < *n; i++ {
		if err := stores.Leads.Create(ctx, gen.Lead(owner.ID)); err != nil {
			log.WithError(err).Warn("lead skipped")
			continue
		}
		created++
	}
	total, err := stores.Leads.CountByOwner(ctx, owner.ID)
	if err != nil {
		log.WithError(err).Warn("count leads")
	}
	log.WithFields(map[string]any{"email": app.DemoUser.Email, "created": created, "total": total}).Info("seed complete")
}
