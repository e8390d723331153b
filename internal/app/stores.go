// Package app wires configuration into the store drivers.  It is shared by
// the server and the seeder so both open the same backend the same way.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/leadbook/internal/config"
	"github.com/iliyamo/leadbook/internal/database"
	"github.com/iliyamo/leadbook/internal/repository"
	"github.com/iliyamo/leadbook/internal/repository/mongorepo"
	"github.com/iliyamo/leadbook/internal/service"
)

// Stores is the configured pair of record and credential stores.
type Stores struct {
	Users service.UserStore
	Leads service.LeadStore
	close func() error
}

// Close releases the underlying connection pool.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores connects to the backend selected by cfg.StoreDriver, applies
// the schema (MySQL) or indexes (MongoDB) and returns the stores.
func OpenStores(cfg config.Config, log logrus.FieldLogger) (*Stores, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := database.OpenMongo(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		log.WithField("database", cfg.MongoDB).Info("connected to MongoDB")
		return &Stores{
			Users: mongorepo.NewUserStore(db),
			Leads: mongorepo.NewLeadStore(db),
			close: func() error { return client.Disconnect(context.Background()) },
		}, nil
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.WithFields(logrus.Fields{"host": cfg.DBHost, "database": cfg.DBName}).Info("connected to MySQL")
		return &Stores{
			Users: repository.NewUserRepo(db),
			Leads: repository.NewLeadRepo(db),
			close: db.Close,
		}, nil
	}
}

// DemoUser is the account created at startup when SEED_DEMO_USER is on.
var DemoUser = service.RegisterInput{
	Email:     "admin@test.com",
	Password:  "password123",
	FirstName: "Admin",
	LastName:  "User",
}
