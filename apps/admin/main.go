package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger, err := logsvc.NewZap(conf, "admin")
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatalw("opening database", "error", err)
	}
	if err = database.StatusCheck(context.Background(), db); err != nil {
		logger.Fatalw("checking database", "error", err)
	}

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
		out:     os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Errorw("command failed", "error", err)
		}
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}
