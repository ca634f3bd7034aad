package postgres

import (
	"context"
	"embed"
	"io/fs"

	"github.com/pressly/goose/v3"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// NewMigrationProvider returns a goose provider over the embedded migrations.
// Versions come from the numeric file name prefix, applied ones are recorded in goose_db_version.
func (db *DB) NewMigrationProvider() (*goose.Provider, error) {
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Embedded migrations are missing").
			Mark(ierr.ErrDatabase)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db.DB.DB, migrations)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load migrations").
			Mark(ierr.ErrDatabase)
	}
	return provider, nil
}

// Migrate applies every pending migration, each in its own transaction
func (db *DB) Migrate(ctx context.Context) error {
	provider, err := db.NewMigrationProvider()
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		db.logger.Infow("applied migration",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration", r.Duration)
	}
	if err != nil {
		return ClassifyError(err, "Failed to apply migrations")
	}
	return nil
}

// MigrationStatus lists every embedded migration with its applied state
func (db *DB) MigrationStatus(ctx context.Context) ([]*goose.MigrationStatus, error) {
	provider, err := db.NewMigrationProvider()
	if err != nil {
		return nil, err
	}

	status, err := provider.Status(ctx)
	if err != nil {
		return nil, ClassifyError(err, "Failed to read migration state")
	}
	return status, nil
}
