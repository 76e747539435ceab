package db

import (
	"github.com/shinyes/yep_counter/pkg/counter"
	"github.com/shinyes/yep_counter/pkg/store"
)

// 会话的事务边界。
// 一个会话同一时刻最多持有一个写事务，事务内的写入只在本地可见，
// Commit 时一并落盘并触发变更回调，Rollback 丢弃全部写入。
// 跨副本收敛发生在存储引擎的合并层 (ApplyRemoteCell)，与事务无关。

// Begin 开启写事务。
func (db *DB) Begin() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	if db.txn != nil {
		return ErrInTransaction
	}
	db.txn = db.store.Begin()
	db.pending = nil
	return nil
}

// Commit 提交当前写事务，之后触发本事务积累的变更回调。
func (db *DB) Commit() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return ErrClosed
	}
	if db.txn == nil {
		db.mu.Unlock()
		return counter.ErrNotInTransaction
	}
	txn := db.txn
	events := db.pending
	db.txn = nil
	db.pending = nil
	db.mu.Unlock()

	if err := txn.Commit(); err != nil {
		db.log.Error().Err(err).Msg("事务提交失败")
		return err
	}

	for _, ev := range events {
		db.notifyChange(ev)
	}
	return nil
}

// Rollback 丢弃当前写事务的全部写入。
func (db *DB) Rollback() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	if db.txn == nil {
		return counter.ErrNotInTransaction
	}
	db.txn.Discard()
	db.txn = nil
	db.pending = nil
	return nil
}

// IsOpen 报告会话是否仍然打开。
func (db *DB) IsOpen() bool {
	return !db.closed
}

// IsInTransaction 报告当前是否处于写事务中。
func (db *DB) IsInTransaction() bool {
	return db.txn != nil
}

// CheckValid 在会话已关闭时返回 ErrClosed。
func (db *DB) CheckValid() error {
	if db.closed {
		return ErrClosed
	}
	return nil
}

// CheckValidAndInTransaction 在会话关闭或不在事务中时返回错误。
func (db *DB) CheckValidAndInTransaction() error {
	if db.closed {
		return ErrClosed
	}
	if db.txn == nil {
		return counter.ErrNotInTransaction
	}
	return nil
}

// inTx 在当前写事务中执行 fn；没有打开的事务时，
// 退回到存储自身的单次事务。
func (db *DB) inTx(update bool, fn func(store.Tx) error) error {
	if db.txn != nil {
		return fn(db.txn)
	}
	return db.store.RunTx(update, fn)
}

var _ counter.SessionContext = (*DB)(nil)
