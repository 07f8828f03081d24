package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose"

	"github.com/trezcool/matokeo/core"
)

func open(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sql.Open(conf.Database.Engine, u.String())
}

func Open(conf *core.Config) (*sql.DB, error) {
	return open(conf.Database.Name, false, conf)
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Migrate applies all pending goose migrations.
func Migrate(db *sql.DB) error {
	if err := ping(db); err != nil {
		return err
	}

	dir := filepath.Join(core.Getwd(), "storage", "database", "migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.Up(db, dir); err != nil {
		return errors.Wrap(err, "applying migrations")
	}
	return nil
}

// CreateIfNotExists connects as the admin user and creates the application
// database when it is missing. Intended for local development.
func CreateIfNotExists(conf *core.Config) error {
	db, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening admin connection")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return err
	}

	var exists bool
	row := db.QueryRow("SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err = row.Scan(&exists); err != nil && err != sql.ErrNoRows {
		return errors.Wrap(err, "checking database existence")
	}
	if exists {
		return nil
	}

	if _, err = db.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, conf.Database.Name)); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}
