// Command worker consumes lead events from RabbitMQ and appends them to
// logs/lead_activity.log.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/leadbook/internal/config"
	"github.com/iliyamo/leadbook/internal/logging"
	"github.com/iliyamo/leadbook/internal/queue"
)

func main() {
	dir := flag.String("dir", "logs", "directory of lead_activity.log")
	flag.Parse()

	_ = godotenv.Load()
	log := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("APP_ENV"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := queue.StartLeadConsumer(ctx, config.RabbitURL(), queue.NewActivityLog(*dir), log)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("lead consumer stopped")
	}
	log.Info("lead consumer stopped")
}
