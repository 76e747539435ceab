package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shinyes/yep_counter/pkg/meta"
	"github.com/shinyes/yep_counter/pkg/store"
)

// Table 代表一张计数器表。每行由 UUIDv7 主键标识，
// 每列是一个 64 位计数器单元格。
type Table struct {
	db     *DB
	schema *meta.TableSchema
}

// DefineTable 定义（或重新打开）一张表。
// 同名表已存在时要求列集合一致。
func (db *DB) DefineTable(name string, columns ...string) (*Table, error) {
	if db.closed {
		return nil, ErrClosed
	}
	schema, err := db.catalog.Define(name, columns)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if t, ok := db.tables[name]; ok {
		return t, nil
	}
	t := &Table{db: db, schema: schema}
	db.tables[name] = t
	return t, nil
}

// Table 返回已定义的表句柄，未定义返回 nil。
func (db *DB) Table(name string) *Table {
	db.mu.Lock()
	defer db.mu.Unlock()
	if t, ok := db.tables[name]; ok {
		return t
	}
	schema := db.catalog.Table(name)
	if schema == nil {
		return nil
	}
	t := &Table{db: db, schema: schema}
	db.tables[name] = t
	return t
}

// Name 返回表名。
func (t *Table) Name() string {
	return t.schema.Name
}

// Columns 返回列名集合。
func (t *Table) Columns() []string {
	return append([]string(nil), t.schema.Columns...)
}

func (t *Table) checkColumn(col string) error {
	if !t.schema.HasColumn(col) {
		return fmt.Errorf("%w: %s.%s", ErrNoSuchColumn, t.schema.Name, col)
	}
	return nil
}

// 键格式：
//   行标记   /r/<table>/<16-byte-uuid>
//   单元格   /c/<table>/<16-byte-uuid>/<col>
func (t *Table) rowKey(u uuid.UUID) []byte {
	prefix := []byte(fmt.Sprintf("/r/%s/", t.schema.Name))
	return append(prefix, u[:]...)
}

func (t *Table) cellPrefix(u uuid.UUID) []byte {
	prefix := []byte(fmt.Sprintf("/c/%s/", t.schema.Name))
	key := append(prefix, u[:]...)
	return append(key, '/')
}

func (t *Table) cellKey(u uuid.UUID, col string) []byte {
	return append(t.cellPrefix(u), []byte(col)...)
}

func validateUUIDv7(u uuid.UUID) error {
	if u == uuid.Nil {
		return fmt.Errorf("主键不能为空 UUID")
	}
	if u.Version() != 7 {
		return fmt.Errorf("主键必须是 UUIDv7, 实际版本 %d", u.Version())
	}
	return nil
}

// loadCell 读取单元格状态，键不存在时返回零值状态。
func (t *Table) loadCell(txn store.Tx, key uuid.UUID, col string) (*cellState, error) {
	raw, err := txn.Get(t.cellKey(key, col))
	if err == store.ErrKeyNotFound {
		return newCellState(), nil
	}
	if err != nil {
		return nil, err
	}
	return cellStateFromBytes(raw)
}

func (t *Table) saveCell(txn store.Tx, key uuid.UUID, col string, state *cellState) error {
	raw, err := state.bytes()
	if err != nil {
		return err
	}
	return txn.Set(t.cellKey(key, col), raw)
}

// rowExists 检查行标记是否存在。
func (t *Table) rowExists(txn store.Tx, key uuid.UUID) (bool, error) {
	_, err := txn.Get(t.rowKey(key))
	if err == store.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
