package store

import (
	"errors"
)

var (
	ErrKeyNotFound = errors.New("key not found")
)

// Store 代表底层 KV 存储接口 (例如 BadgerDB)。
// 每个会话宿主 (DB) 拥有一个 Store 实例。
type Store interface {
	// Close 关闭存储。
	Close() error

	// RunTx 运行事务。
	// 如果 update 为 true，则为读写事务。否则为只读事务。
	RunTx(update bool, fn func(Tx) error) error

	// View 执行只读事务。
	View(fn func(Tx) error) error

	// Update 执行读写事务。
	Update(fn func(Tx) error) error

	// Begin 开启一个手动管理的读写事务。
	// 调用方负责 Commit 或 Discard。
	Begin() WriteTx
}

// WriteTx 是手动管理的读写事务。
type WriteTx interface {
	Tx

	// Commit 提交事务。
	Commit() error

	// Discard 丢弃事务。提交后调用是无害的。
	Discard()
}

// Tx 代表事务。
type Tx interface {
	// Set 设置键的值。
	Set(key, value []byte) error

	// Get 获取键的值。
	// 如果键不存在返回 ErrKeyNotFound。
	Get(key []byte) ([]byte, error)

	// Delete 删除键。
	Delete(key []byte) error

	// NewIterator 创建按前缀遍历的迭代器。
	NewIterator(prefix []byte) Iterator
}

// Iterator 遍历存储中带给定前缀的键。
type Iterator interface {
	// Seek 将迭代器移动到第一个 >= key 的键。
	Seek(key []byte)

	// ValidForPrefix 如果迭代器指向带有给定前缀的有效键，则返回 true。
	ValidForPrefix(prefix []byte) bool

	// Next 将迭代器移动到下一个键。
	Next()

	// Item 返回当前项（键和值的拷贝）。
	Item() (key, value []byte, err error)

	// Close 关闭迭代器。
	Close()
}
