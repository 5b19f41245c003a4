package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"kinobot/internal/analytics/ch"
	"kinobot/migrations"
)

type dbConfig struct {
	ClickHouseHost     string `env:"CLICKHOUSE_HOST" env-default:"localhost"`
	ClickHousePort     int    `env:"CLICKHOUSE_PORT" env-default:"9000"`
	ClickHouseDatabase string `env:"CLICKHOUSE_DATABASE" env-default:"default"`
	ClickHouseUser     string `env:"CLICKHOUSE_USER" env-default:"default"`
	ClickHousePassword string `env:"CLICKHOUSE_PASSWORD"`
	ClickHouseUseTLS   bool   `env:"CLICKHOUSE_USE_TLS" env-default:"false"`
	DatabaseURL        string `env:"DATABASE_URL"`
}

func main() {
	dialect := flag.String("dialect", "clickhouse", "migrations to run: clickhouse or postgres")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using existing environment variables")
	}

	var cfg dbConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	dir, err := migrations.Dir(*dialect)
	if err != nil {
		log.Fatal(err)
	}

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	// create writes a new file to the source tree, not the embedded FS
	if command == "create" {
		if flag.NArg() < 2 {
			log.Fatal("Usage: migrate -dialect <dialect> create <migration_name>")
		}
		if err := goose.Create(nil, filepath.Join("migrations", dir), flag.Arg(1), "sql"); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		log.Printf("Created migration: %s", flag.Arg(1))
		return
	}

	db, err := open(*dialect, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Printf("Connected to %s successfully", *dialect)

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(*dialect); err != nil {
		log.Fatalf("Failed to set dialect: %v", err)
	}

	log.Printf("Running migrations: %s", command)
	switch command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Migrations completed successfully")
	case "down":
		if err := goose.Down(db, dir); err != nil {
			log.Fatalf("Failed to rollback migration: %v", err)
		}
		log.Println("Rollback completed successfully")
	case "status":
		if err := goose.Status(db, dir); err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
	case "version":
		version, err := goose.GetDBVersion(db)
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		log.Printf("Current migration version: %d", version)
	default:
		log.Fatalf("Unknown command: %s. Available commands: up, down, status, version, create", command)
	}
}

func open(dialect string, cfg dbConfig) (*sql.DB, error) {
	switch dialect {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for postgres migrations")
		}
		return sql.Open("pgx", cfg.DatabaseURL)
	default:
		return ch.OpenDB(ch.Options(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		)), nil
	}
}
