package main

import (
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Applies the companies schema migrations. The database URL comes from
// the same POSTGRES_URL the server uses; the command is positional:
//
//	migrate [flags] [up|down|force|version]
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	_ = godotenv.Load()

	var (
		databaseURL  = flag.String("database", os.Getenv("POSTGRES_URL"), "Database URL (defaults to POSTGRES_URL)")
		source       = flag.String("source", "file://scripts/migrations", "Migration source")
		forceVersion = flag.Int("force-version", 0, "Version to set with the force command")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal().Msg("No database URL: set POSTGRES_URL or pass -database")
	}

	pgxCfg, err := pgx.ParseConfig(*databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database URL")
	}
	db := stdlib.OpenDB(*pgxCfg)
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migration driver")
	}

	m, err := migrate.NewWithDatabaseInstance(*source, "postgres", driver)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied")
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Fatal().Err(err).Msg("Failed to revert migrations")
		}
		log.Info().Msg("Migrations reverted")
	case "force":
		if *forceVersion <= 0 {
			log.Fatal().Msg("force requires -force-version")
		}
		if err := m.Force(*forceVersion); err != nil {
			log.Fatal().Err(err).Int("version", *forceVersion).Msg("Failed to force migration version")
		}
		log.Info().Int("version", *forceVersion).Msg("Migration version forced")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read migration version")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current migration version")
	default:
		log.Fatal().Msgf("Unknown command: %s", command)
	}
}
