package main

import (
	"context"

	"github.com/pressly/goose/v3"

	appfs "github.com/trezcool/darasa/fs"
	"github.com/trezcool/darasa/storage/database"
)

var gooseRunFunc = goose.RunContext // mockable

func (cli *commandLine) migrate(args []string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(string(database.Dialect(cli.db))); err != nil {
		return err
	}
	return gooseRunFunc(context.Background(), args[0], cli.db.DB, "migrations", args[1:]...)
}
