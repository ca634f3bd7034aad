package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/types"
)

type txKey struct{}

// Tx is a running transaction. Nested WithTx calls reuse it through savepoints.
type Tx struct {
	*sqlx.Tx
	ID    string
	depth int
}

// GetTx returns the transaction carried by ctx, if any
func GetTx(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*Tx)
	return tx, ok
}

func savepointName(depth int) string {
	return fmt.Sprintf("sp_%d", depth)
}

// WithTx runs fn in a transaction, or in a savepoint of the transaction already in ctx.
// The error of fn is returned unchanged after rolling back its level.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := db.begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			db.logger.Errorw("panic in transaction", "tx_id", tx.ID, "panic", r)
			_ = db.end(ctx, tx, false)
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		db.logger.Debugw("transaction failed", "tx_id", tx.ID, "depth", tx.depth, "error", err)
		if rbErr := db.end(ctx, tx, false); rbErr != nil {
			db.logger.Errorw("rollback failed", "tx_id", tx.ID, "error", rbErr)
		}
		return err
	}

	return db.end(ctx, tx, true)
}

func (db *DB) begin(ctx context.Context) (context.Context, *Tx, error) {
	if tx, ok := GetTx(ctx); ok {
		tx.depth++
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepointName(tx.depth)); err != nil {
			tx.depth--
			return ctx, nil, ClassifyError(err, "Failed to create savepoint")
		}
		db.logger.Debugw("created savepoint", "tx_id", tx.ID, "depth", tx.depth)
		return ctx, tx, nil
	}

	sqlxTx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return ctx, nil, ClassifyError(err, "Failed to start transaction")
	}

	tx := &Tx{Tx: sqlxTx, ID: types.GenerateUUID()}
	db.logger.Debugw("started transaction", "tx_id", tx.ID)
	return context.WithValue(ctx, txKey{}, tx), tx, nil
}

// end commits or rolls back the innermost level of tx
func (db *DB) end(ctx context.Context, tx *Tx, commit bool) error {
	if tx.depth > 0 {
		stmt := "ROLLBACK TO SAVEPOINT "
		if commit {
			stmt = "RELEASE SAVEPOINT "
		}
		_, err := tx.ExecContext(ctx, stmt+savepointName(tx.depth))
		tx.depth--
		if err != nil {
			return ClassifyError(err, "Failed to end savepoint")
		}
		return nil
	}

	if !commit {
		if err := tx.Rollback(); err != nil {
			return ClassifyError(err, "Failed to roll back transaction")
		}
		return nil
	}

	if err := tx.Commit(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to commit transaction").
			WithReportableDetails(map[string]any{"tx_id": tx.ID}).
			Mark(ierr.ErrDatabase)
	}
	db.logger.Debugw("committed transaction", "tx_id", tx.ID)
	return nil
}
