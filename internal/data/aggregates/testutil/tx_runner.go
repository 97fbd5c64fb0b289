package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/contracts-backend/internal/data/aggregates"
	"github.com/yungbote/contracts-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

// InjectedTxRunner stands in for the contract store's transaction runner and
// lets tests fail a save at begin, before the body or at commit. With DB nil
// the body runs without a transaction; with DB set it runs inside a real
// transaction that FailCommit rolls back. Loads go through InSnapshot and are
// counted in SnapshotCalls only.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin      error
	FailBeforeBody error
	FailCommit     error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
	SnapshotCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failBeforeBody := r.FailBeforeBody
	failCommit := r.FailCommit
	db := r.DB
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		r.count(&r.RollbackCalls)
		return failBeforeBody
	}
	if fn == nil {
		r.count(&r.CommitCalls)
		return nil
	}

	body := func(dbc dbctx.Context) error {
		if err := fn(dbc); err != nil {
			return err
		}
		return failCommit
	}
	var err error
	if db != nil {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return body(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}
	if err != nil {
		r.count(&r.RollbackCalls)
		return err
	}
	r.count(&r.CommitCalls)
	return nil
}

func (r *InjectedTxRunner) InSnapshot(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.count(&r.SnapshotCalls)
	if fn == nil {
		return nil
	}
	r.mu.Lock()
	db := r.DB
	r.mu.Unlock()
	if db == nil {
		return fn(dbctx.Context{Ctx: ctx})
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

func (r *InjectedTxRunner) count(n *int) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}
