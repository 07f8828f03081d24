package main

import (
	"path/filepath"

	"github.com/pressly/goose"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) createDB() error {
	return database.CreateIfNotExists(core.Conf)
}

func (cli *commandLine) migrate(args []string) error {
	command := "up"
	arguments := make([]string, 0)
	if len(args) > 0 {
		command = args[0]
		arguments = append(arguments, args[1:]...)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	dir := filepath.Join(core.Getwd(), "storage", "database", "migrations")
	return gooseRunFunc(command, cli.db.DB, dir, arguments...)
}
