package db

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shinyes/yep_counter/pkg/hlc"
	"github.com/shinyes/yep_counter/pkg/meta"
	"github.com/shinyes/yep_counter/pkg/store"
)

const (
	sysKeyDatabaseID = "/_sys/database_id"
	sysKeyNodeID     = "/_sys/node_id"
)

var (
	// ErrClosed 表示会话已经关闭。
	ErrClosed = errors.New("会话已关闭")

	// ErrInTransaction 表示已有未结束的写事务。
	ErrInTransaction = errors.New("已在事务中")

	// ErrRowNotFound 表示行不存在或已被删除。
	ErrRowNotFound = errors.New("行不存在")

	// ErrNoSuchTable 表示表未定义。
	ErrNoSuchTable = errors.New("表未定义")

	// ErrNoSuchColumn 表示列不在表定义中。
	ErrNoSuchColumn = errors.New("列未定义")
)

// ChangeEvent 携带一次成功写入的变更信息。
type ChangeEvent struct {
	TableName string
	Key       uuid.UUID
	Columns   []string
}

// ChangeCallback 数据变更回调。
// 本地写事务提交后触发；ApplyRemoteCell 合并远程数据不触发，
// 避免同步时循环广播。
type ChangeCallback func(event ChangeEvent)

// DB 代表一个会话宿主：一个打开的存储实例加上事务生命周期。
// 每个会话限定在其所属的线程/上下文中使用，本包不加锁序列化
// 计数器操作，串行化由调用方的会话模型保证。
type DB struct {
	store   store.Store
	catalog *meta.Catalog
	clock   *hlc.Clock
	log     zerolog.Logger

	mu     sync.Mutex
	tables map[string]*Table

	NodeID     string
	DatabaseID string

	closed bool

	// 当前写事务；nil 表示不在事务中。
	txn     store.WriteTx
	pending []ChangeEvent

	onChangeMu        sync.RWMutex
	onChangeCallbacks []ChangeCallback
}

// Option 配置 DB。
type Option func(*DB)

// WithLogger 注入结构化日志器。默认不输出任何日志。
func WithLogger(log zerolog.Logger) Option {
	return func(db *DB) {
		db.log = log
	}
}
