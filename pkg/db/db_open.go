package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shinyes/yep_counter/pkg/hlc"
	"github.com/shinyes/yep_counter/pkg/meta"
	"github.com/shinyes/yep_counter/pkg/store"
)

// Open 打开会话。
// databaseID 是数据库的唯一标识 (如 "tenant-1")。
// 如果存储中已存在 ID 且与传入的不一致，返回错误。
// NodeID 在首次打开时生成并持久化，它标识本副本在
// 单元格增量映射中的槽位，跨重启必须稳定。
func Open(s store.Store, databaseID string, opts ...Option) (*DB, error) {
	db := &DB{
		store:   s,
		catalog: meta.NewCatalog(s),
		clock:   hlc.New(),
		log:     zerolog.Nop(),
		tables:  make(map[string]*Table),
	}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.catalog.Load(); err != nil {
		return nil, err
	}

	storedDBID, err := db.loadSysKey(sysKeyDatabaseID)
	if err != nil {
		return nil, fmt.Errorf("读取 Database ID 失败: %w", err)
	}
	switch {
	case storedDBID == "":
		if err := db.storeSysKey(sysKeyDatabaseID, databaseID); err != nil {
			return nil, fmt.Errorf("存储 Database ID 失败: %w", err)
		}
	case storedDBID != databaseID:
		return nil, fmt.Errorf("database ID mismatch: expected %s, got %s", storedDBID, databaseID)
	}
	db.DatabaseID = databaseID

	nodeID, err := db.loadSysKey(sysKeyNodeID)
	if err != nil {
		return nil, fmt.Errorf("读取 Node ID 失败: %w", err)
	}
	if nodeID == "" {
		nodeID = "node-" + uuid.NewString()
		if err := db.storeSysKey(sysKeyNodeID, nodeID); err != nil {
			return nil, fmt.Errorf("存储 Node ID 失败: %w", err)
		}
	}
	db.NodeID = nodeID

	db.log.Info().
		Str("database_id", db.DatabaseID).
		Str("node_id", db.NodeID).
		Msg("会话已打开")

	return db, nil
}

func (db *DB) loadSysKey(key string) (string, error) {
	var val string
	err := db.store.View(func(txn store.Tx) error {
		raw, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val = string(raw)
		return nil
	})
	if err == store.ErrKeyNotFound {
		return "", nil
	}
	return val, err
}

func (db *DB) storeSysKey(key, value string) error {
	return db.store.Update(func(txn store.Tx) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// Close 关闭会话。未提交的事务被丢弃。
// 关闭后所有绑定计数器永久失效。Close 不关闭底层存储。
func (db *DB) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return
	}
	if db.txn != nil {
		db.txn.Discard()
		db.txn = nil
		db.pending = nil
		db.log.Warn().Msg("关闭时丢弃未提交的事务")
	}
	db.closed = true
	db.log.Info().Str("database_id", db.DatabaseID).Msg("会话已关闭")
}
