package aggregates

import (
	"context"
	"database/sql"

	domainagg "github.com/yungbote/contracts-backend/internal/domain/aggregates"
	"github.com/yungbote/contracts-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

// TxRunner is the transaction boundary every contract store operation runs
// in. Saves and deletes use InTx; loads use InSnapshot so the contract,
// delivery, line item and product rows all come from one view of the data.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
	InSnapshot(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return r.run(ctx, fn, nil)
}

func (r *gormTxRunner) InSnapshot(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r == nil || r.db == nil {
		return r.run(ctx, fn, nil)
	}
	return r.run(ctx, fn, snapshotTxOptions(r.db.Dialector.Name()))
}

func (r *gormTxRunner) run(ctx context.Context, fn func(dbc dbctx.Context) error, opts *sql.TxOptions) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "Sales.Contract.tx", "transaction runner has nil db", nil)
	}
	body := func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	}
	if opts == nil {
		return r.db.WithContext(ctx).Transaction(body)
	}
	return r.db.WithContext(ctx).Transaction(body, opts)
}

// snapshotTxOptions returns the isolation used for contract loads. Postgres
// defaults to read committed, where each statement sees a fresh snapshot;
// SQLite transactions are already serializable.
func snapshotTxOptions(dialect string) *sql.TxOptions {
	if dialect == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}
