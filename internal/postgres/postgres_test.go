package postgres

import (
	"context"
	"errors"
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/samber/lo"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DBSuite struct {
	suite.Suite
	ctx  context.Context
	db   *DB
	mock sqlmock.Sqlmock
}

func TestDB(t *testing.T) {
	suite.Run(t, new(DBSuite))
}

func (s *DBSuite) SetupTest() {
	s.ctx = context.Background()
	raw, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.mock = mock
	s.db = NewFromSqlx(sqlx.NewDb(raw, "postgres"), logger.NewNopLogger())
}

func (s *DBSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *DBSuite) TestWithTxCommits() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE plans SET name = $1")).
		WithArgs("Basic").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		_, err := s.db.GetQuerier(ctx).ExecContext(ctx, "UPDATE plans SET name = $1", "Basic")
		return err
	})
	s.NoError(err)
}

func (s *DBSuite) TestWithTxRollsBackOnError() {
	boom := errors.New("boom")

	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		return boom
	})
	s.ErrorIs(err, boom)
}

func (s *DBSuite) TestNestedTxUsesSavepoint() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT sp_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec(regexp.QuoteMeta("ROLLBACK TO SAVEPOINT sp_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		inner := s.db.WithTx(ctx, func(ctx context.Context) error {
			return errors.New("inner failed")
		})
		s.Error(inner)
		return nil
	})
	s.NoError(err)
}

func (s *DBSuite) TestMigrationsAreOrdered() {
	provider, err := s.db.NewMigrationProvider()
	s.Require().NoError(err)

	sources := provider.ListSources()
	s.Require().Len(sources, 3)
	s.Equal([]int64{1, 2, 3}, lo.Map(sources, func(src *goose.Source, _ int) int64 {
		return src.Version
	}))
	s.Equal(goose.TypeSQL, sources[2].Type)
	s.Contains(sources[2].Path, "003_monthly_charges.sql")
}

func TestMigrationsAreReversible(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)

	for _, entry := range entries {
		content, err := fs.ReadFile(migrationFS, "migrations/"+entry.Name())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), "-- +goose Up\n"), entry.Name())
		assert.Contains(t, string(content), "-- +goose Down\n", entry.Name())
	}
}

func (s *DBSuite) TestNestedTxReleasesSavepoint() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT sp_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT sp_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		tx, ok := GetTx(ctx)
		s.Require().True(ok)

		return s.db.WithTx(ctx, func(inner context.Context) error {
			innerTx, ok := GetTx(inner)
			s.Require().True(ok)
			s.Equal(tx.ID, innerTx.ID)
			return nil
		})
	})
	s.NoError(err)
}
