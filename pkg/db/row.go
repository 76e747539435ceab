package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shinyes/yep_counter/pkg/counter"
	"github.com/shinyes/yep_counter/pkg/store"
)

// Row 是附着于会话的行句柄。
// 句柄本身不持有数据，附着状态每次查询时重新求值：
// 行被删除或会话关闭后，IsAttached 返回 false 且不会恢复。
type Row struct {
	table *Table
	key   uuid.UUID

	// 构造模式状态，由对象绑定层在初始化期间设置。
	underConstruction bool
	acceptDefaults    bool
}

// NewRow 在表中创建一行并返回处于构造模式的句柄。
// 要求处于写事务中。新行默认接受默认值；
// 绑定层在应用完初始化器后调用 EndConstruction。
func (t *Table) NewRow() (*Row, error) {
	if err := t.db.CheckValidAndInTransaction(); err != nil {
		return nil, err
	}

	key, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成主键失败: %w", err)
	}

	if err := t.db.txn.Set(t.rowKey(key), []byte{1}); err != nil {
		return nil, err
	}
	t.db.recordChange(t.schema.Name, key, nil)

	return &Row{
		table:             t,
		key:               key,
		underConstruction: true,
		acceptDefaults:    true,
	}, nil
}

// Row 返回已存在行的句柄。行不存在返回 ErrRowNotFound。
func (t *Table) Row(key uuid.UUID) (*Row, error) {
	if err := t.db.CheckValid(); err != nil {
		return nil, err
	}
	if err := validateUUIDv7(key); err != nil {
		return nil, err
	}

	var exists bool
	err := t.db.inTx(false, func(txn store.Tx) error {
		var err error
		exists, err = t.rowExists(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrRowNotFound, t.schema.Name, key)
	}

	return &Row{table: t, key: key}, nil
}

// Key 返回行主键。
func (r *Row) Key() uuid.UUID {
	return r.key
}

// Delete 删除行：移除行标记和所有单元格。要求处于写事务中。
// 之后该行的所有绑定计数器永久失效。
func (r *Row) Delete() error {
	db := r.table.db
	if err := db.CheckValidAndInTransaction(); err != nil {
		return err
	}

	txn := db.txn
	if err := txn.Delete(r.table.rowKey(r.key)); err != nil {
		return err
	}

	// 收集后删除：迭代中修改键空间是未定义行为
	prefix := r.table.cellPrefix(r.key)
	var cellKeys [][]byte
	it := txn.NewIterator(prefix)
	it.Seek(prefix)
	for it.ValidForPrefix(prefix) {
		k, _, err := it.Item()
		if err != nil {
			it.Close()
			return err
		}
		cellKeys = append(cellKeys, k)
		it.Next()
	}
	it.Close()

	for _, k := range cellKeys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}

	db.recordChange(r.table.schema.Name, r.key, nil)
	return nil
}

// IsAttached 报告行是否仍附着于会话：会话打开且行标记存在。
// 每次调用重新求值。
func (r *Row) IsAttached() bool {
	db := r.table.db
	if db.closed {
		return false
	}
	var exists bool
	err := db.inTx(false, func(txn store.Tx) error {
		var e error
		exists, e = r.table.rowExists(txn, r.key)
		return e
	})
	return err == nil && exists
}

// EndConstruction 结束构造模式。之后 Set 走正常事务路径。
func (r *Row) EndConstruction() {
	r.underConstruction = false
}

// SetAcceptDefaults 设置构造模式下是否接受默认值。
// false 时构造期间的 Set 被静默忽略。
func (r *Row) SetAcceptDefaults(accept bool) {
	r.acceptDefaults = accept
}

// IsUnderConstruction 实现 counter.ConstructionContext。
func (r *Row) IsUnderConstruction() bool {
	return r.underConstruction
}

// AcceptsDefaultValue 实现 counter.ConstructionContext。
func (r *Row) AcceptsDefaultValue() bool {
	return r.acceptDefaults
}

// Counter 把列绑定为受管理计数器。这是受管理变体的工厂：
// 返回值通过会话和单元格访问器读写，自身不持有任何数值。
func (r *Row) Counter(col string) (counter.Value, error) {
	if err := r.table.checkColumn(col); err != nil {
		return nil, err
	}
	return counter.NewBound(
		&cellAccessor{table: r.table},
		&rowBinding{row: r, col: col},
		r.table.db,
		r,
	), nil
}

// rowBinding 把 (行, 列) 解析为存活状态和存储坐标。
type rowBinding struct {
	row *Row
	col string
}

func (b *rowBinding) IsAttached() bool {
	return b.row.IsAttached()
}

func (b *rowBinding) Coord() counter.Coord {
	return counter.Coord{Row: b.row.key, Col: b.col}
}

var (
	_ counter.RowBinding          = (*rowBinding)(nil)
	_ counter.ConstructionContext = (*Row)(nil)
)
