package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"kinobot/internal/analytics/ch"
	"kinobot/internal/app"
	"kinobot/internal/bot"
	"kinobot/migrations"
)

func main() {
	kind := flag.String("bot", string(bot.KindMovie), "bot to run: kinobot or cvbot")
	withPostgres := flag.Bool("postgres", false, "store data in a Postgres container instead of SQLite")
	flag.Parse()

	if err := run(bot.Kind(*kind), *withPostgres); err != nil {
		log.Fatal(err)
	}
}

func run(kind bot.Kind, withPostgres bool) error {
	ctx := context.Background()

	log.Println("Starting ClickHouse testcontainer...")

	clickhouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword("devpassword"),
		clickhouse.WithDatabase("default"),
	)
	if err != nil {
		return fmt.Errorf("failed to start ClickHouse container: %w", err)
	}
	defer func() {
		log.Println("Stopping ClickHouse container...")
		if err := clickhouseContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}()

	host, err := clickhouseContainer.Host(ctx)
	if err != nil {
		return fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	if err != nil {
		return fmt.Errorf("failed to get container port: %w", err)
	}
	log.Printf("ClickHouse started at %s:%s", host, port.Port())

	portNum, _ := strconv.Atoi(port.Port())
	db := ch.OpenDB(ch.Options(host, portNum, "default", "default", "devpassword", false))
	err = migrations.Up(db, "clickhouse")
	db.Close()
	if err != nil {
		return err
	}

	os.Setenv("ANALYTICS_ENABLED", "true")
	os.Setenv("CLICKHOUSE_HOST", host)
	os.Setenv("CLICKHOUSE_PORT", port.Port())
	os.Setenv("CLICKHOUSE_DATABASE", "default")
	os.Setenv("CLICKHOUSE_USER", "default")
	os.Setenv("CLICKHOUSE_PASSWORD", "devpassword")
	os.Setenv("CLICKHOUSE_USE_TLS", "false")
	os.Setenv("WEBHOOK_MODE", "false")
	os.Setenv("APP_ENV", "local")

	if withPostgres {
		log.Println("Starting Postgres testcontainer...")
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("kinobot"),
			postgres.WithUsername("kinobot"),
			postgres.WithPassword("devpassword"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			return fmt.Errorf("failed to start Postgres container: %w", err)
		}
		defer func() {
			log.Println("Stopping Postgres container...")
			if err := pgContainer.Terminate(ctx); err != nil {
				log.Printf("Failed to terminate container: %v", err)
			}
		}()

		dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			return fmt.Errorf("failed to get Postgres DSN: %w", err)
		}
		os.Setenv("DB_DRIVER", "postgres")
		os.Setenv("DATABASE_URL", dsn)
	}

	if os.Getenv("BOT_TOKEN") == "" {
		log.Println("⚠️  BOT_TOKEN not set. Please set it in your .env file or environment.")
	}
	if os.Getenv("ADMIN_IDS") == "" {
		log.Println("⚠️  ADMIN_IDS not set. Admin screens will reject everyone.")
	}

	log.Printf("Starting %s with ClickHouse analytics...", kind)
	fmt.Println()

	application, err := app.New(kind)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return application.Run()
}
