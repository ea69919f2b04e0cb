package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"tickboard/internal/infrastructure/logger"
	sqliterepo "tickboard/internal/infrastructure/storage/sqlite"
	"tickboard/internal/interfaces/syncapi"
)

func main() {
	addr := flag.String("addr", ":8787", "listen address")
	dbPath := flag.String("db", "data/syncproxy.db", "sqlite path for stored config")
	password := flag.String("pwd", os.Getenv("SYNC_PASSWORD"), "sync password")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	logger.Setup(level)

	if *password == "" {
		log.Fatal().Msg("sync password required (-pwd or SYNC_PASSWORD)")
	}

	repo, err := sqliterepo.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", *dbPath).Msg("open sqlite failed")
	}
	defer repo.Close()

	srv := syncapi.NewServer(*password, repo, *debug)
	if err := srv.Run(*addr); err != nil {
		log.Fatal().Err(err).Msg("sync proxy exited")
	}
}
