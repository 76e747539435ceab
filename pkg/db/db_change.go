package db

import "github.com/google/uuid"

// OnChange 注册数据变更回调。
// 本地写事务提交后触发；构造模式的 ForceWrite 带 notify 时立即触发。
// ApplyRemoteCell 合并远程数据不触发，避免同步时循环广播。
func (db *DB) OnChange(fn ChangeCallback) {
	db.onChangeMu.Lock()
	defer db.onChangeMu.Unlock()
	db.onChangeCallbacks = append(db.onChangeCallbacks, fn)
}

// recordChange 把变更积累到当前事务，提交时统一触发。
// 不在事务中时（ForceWrite 的直接写入路径）不积累，
// 由调用方决定是否立即通知。
func (db *DB) recordChange(tableName string, key uuid.UUID, columns []string) {
	if db.txn == nil {
		return
	}
	db.pending = append(db.pending, ChangeEvent{
		TableName: tableName,
		Key:       key,
		Columns:   append([]string(nil), columns...),
	})
}

func (db *DB) notifyChange(event ChangeEvent) {
	db.onChangeMu.RLock()
	callbacks := append([]ChangeCallback(nil), db.onChangeCallbacks...)
	db.onChangeMu.RUnlock()

	for _, fn := range callbacks {
		fn(event)
	}
}
