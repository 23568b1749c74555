package orm

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/startdusk/dbkit/orm/internal/errs"
)

// Session 可以执行语句的上下文, DB 或者 Tx
// Selector, Batcher, QueryMultiple 这些入口都只依赖 Session
type Session interface {
	getCore() core
	queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	execContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var _ Session = &Tx{}

// Tx 和创建它的 DB 共用方言, 映射器缓存, 语句缓存和中间件
type Tx struct {
	core
	tx *sql.Tx
}

// BeginTx OpenConn 打开的 DB 不支持事务
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	if db.db == nil {
		return nil, errs.ErrTxUnsupported
	}
	tx, err := db.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	db.logger.Debug("orm: 开启事务")
	return &Tx{core: db.core, tx: tx}, nil
}

// DoTx 在事务里面执行 fn, fn 返回 error 或者 panic 的时候回滚
func (db *DB) DoTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error, opts *sql.TxOptions) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked || err != nil {
			err = errs.NewErrFailedToRollbackTx(err, tx.Rollback(), panicked)
			return
		}
		err = tx.Commit()
	}()
	err = fn(ctx, tx)
	panicked = false
	return err
}

func (t *Tx) getCore() core {
	return t.core
}

func (t *Tx) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *Tx) Commit() error {
	err := t.tx.Commit()
	t.logger.Debug("orm: 提交事务", zap.Error(err))
	return err
}

func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	t.logger.Debug("orm: 回滚事务", zap.Error(err))
	return err
}

// RollbackIfNotCommit 事务已经提交或者回滚的时候什么都不做
// 适合 defer tx.RollbackIfNotCommit()
func (t *Tx) RollbackIfNotCommit() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
