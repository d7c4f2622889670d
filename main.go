package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/goroda-game/go-server/internal/cities"
	"github.com/goroda-game/go-server/internal/httpserver"
	"github.com/goroda-game/go-server/internal/registry"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	names, err := cities.LoadNames(os.Getenv("CITIES_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load city list")
	}
	for _, issue := range cities.Lint(names) {
		log.Warn().Str("issue", issue).Msg("city list lint")
	}
	ix := cities.Build(names)
	total, letters := ix.Stats()
	log.Info().Int("cities", total).Int("letters", letters).Msg("city index built")

	db, err := openDB(getEnv("DB_PATH", "./data/goroda.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	reg := registry.New(ix)
	srv := httpserver.New(reg, ix, db)
	port := getEnv("PORT", "5180")
	log.Info().Str("port", port).Msg("starting goroda-server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
