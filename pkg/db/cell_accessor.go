package db

import (
	"github.com/shinyes/yep_counter/pkg/counter"
	"github.com/shinyes/yep_counter/pkg/store"
)

// cellAccessor 在会话的事务之上实现计数器核心消费的单元格能力。
// 事务内的读写使用当前写事务；不在事务中时，读取退回到
// 存储的单次只读事务（绑定计数器允许在事务外读取）。
type cellAccessor struct {
	table *Table
}

// Read 返回单元格的收敛值。单元格尚无状态时值为 0。
func (a *cellAccessor) Read(coord counter.Coord) (int64, error) {
	if err := a.table.checkColumn(coord.Col); err != nil {
		return 0, err
	}
	var v int64
	err := a.table.db.inTx(false, func(txn store.Tx) error {
		state, err := a.table.loadCell(txn, coord.Row, coord.Col)
		if err != nil {
			return err
		}
		v = state.value()
		return nil
	})
	return v, err
}

// Write 破坏性覆盖：开启新纪元并清空本地增量映射。
// 其他副本旧纪元的未合并贡献在复制层处理本次写入后被取代。
// 调用方 (Bound.Set) 已保证处于写事务中。
func (a *cellAccessor) Write(coord counter.Coord, v int64) error {
	db := a.table.db
	return a.mutate(db.txn, coord, func(state *cellState) {
		state.setDestructive(v, db.clock.Now())
	})
}

// IncrementBy 实现 counter.CellIncrementer：
// 把带符号增量记入本节点的增量映射，由合并协议保证跨副本收敛。
// 这是增减操作的目标路径，不经过读取-覆盖。
func (a *cellAccessor) IncrementBy(coord counter.Coord, delta int64) error {
	db := a.table.db
	return a.mutate(db.txn, coord, func(state *cellState) {
		state.addDelta(db.NodeID, delta)
	})
}

// ForceWrite 绕过事务脏跟踪的覆盖写入，仅供对象初始化路径使用。
// 有打开的写事务时写入该事务（保证同事务内读到），但变更
// 通知绕过提交时的积累，notify 为 true 时立即触发。
func (a *cellAccessor) ForceWrite(coord counter.Coord, v int64, notify bool) error {
	db := a.table.db
	var err error
	if db.txn != nil {
		err = a.writeForced(db.txn, coord, v)
	} else {
		err = db.store.Update(func(txn store.Tx) error {
			return a.writeForced(txn, coord, v)
		})
	}
	if err != nil {
		return err
	}
	if notify {
		db.notifyChange(ChangeEvent{
			TableName: a.table.schema.Name,
			Key:       coord.Row,
			Columns:   []string{coord.Col},
		})
	}
	return nil
}

func (a *cellAccessor) writeForced(txn store.Tx, coord counter.Coord, v int64) error {
	if err := a.table.checkColumn(coord.Col); err != nil {
		return err
	}
	state, err := a.table.loadCell(txn, coord.Row, coord.Col)
	if err != nil {
		return err
	}
	state.setDestructive(v, a.table.db.clock.Now())
	return a.table.saveCell(txn, coord.Row, coord.Col, state)
}

// mutate 在写事务中加载、修改并保存单元格，然后记录变更。
func (a *cellAccessor) mutate(txn store.Tx, coord counter.Coord, fn func(*cellState)) error {
	if err := a.table.checkColumn(coord.Col); err != nil {
		return err
	}
	state, err := a.table.loadCell(txn, coord.Row, coord.Col)
	if err != nil {
		return err
	}
	fn(state)
	if err := a.table.saveCell(txn, coord.Row, coord.Col, state); err != nil {
		return err
	}
	a.table.db.recordChange(a.table.schema.Name, coord.Row, []string{coord.Col})
	return nil
}

var (
	_ counter.CellAccessor    = (*cellAccessor)(nil)
	_ counter.CellIncrementer = (*cellAccessor)(nil)
)
