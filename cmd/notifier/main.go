// Command notifier consumes order-created events and sends confirmation
// mail. It runs separately from the API server so mail delivery never sits
// on the checkout path.
package main

import (
	"context"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bloomstead/flowershop/internal/notify"
	"github.com/bloomstead/flowershop/internal/repository"
)

// Config holds the notifier configuration, loadable from environment
// variables (SHOP_ prefix) or flags.
type Config struct {
	DatabaseURL string `usage:"PostgreSQL connection URL" flag:"database-url"`
	Kafka       struct {
		Brokers []string `default:"localhost:9092" usage:"Kafka broker addresses"`
		Topic   string   `default:"orders.created" usage:"Topic for order created events"`
		GroupID string   `default:"flowershop-notifier" usage:"Consumer group id" flag:"group-id"`
	}
	SMTP struct {
		Host     string `default:"localhost" usage:"SMTP relay host"`
		Port     string `default:"25" usage:"SMTP relay port"`
		Username string `usage:"SMTP username (empty disables AUTH)"`
		Password string `usage:"SMTP password"`
		From     string `default:"orders@flowershop.example" usage:"Sender address"`
	}
}

func loadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{EnvPrefix: "SHOP"})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOP_DATABASE_URL")
	}
	return &cfg, nil
}

func main() {
	_ = godotenv.Load()

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return run(ctx, lg, cfg)
	})
}

func run(ctx context.Context, lg *zap.Logger, cfg *Config) error {
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	orderRepo := repository.NewOrderRepository(pool)
	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	orderMailer := notify.NewOrderMailer(orderRepo, mailer, lg)

	consumer := notify.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, lg)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Consuming order events",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
			zap.String("group", cfg.Kafka.GroupID))
		return consumer.Run(ctx, orderMailer.HandleOrderCreated)
	})
	g.Go(func() error {
		<-ctx.Done()
		return consumer.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "consumer")
	}
	return nil
}
