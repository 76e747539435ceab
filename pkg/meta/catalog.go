package meta

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shinyes/yep_counter/pkg/store"
)

// TableSchema 描述一张计数器表：表名加列名集合。
// 每一列都是一个 64 位计数器单元格。
type TableSchema struct {
	ID      uint32   `json:"id"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// HasColumn 报告表中是否存在给定列。
func (s *TableSchema) HasColumn(col string) bool {
	for _, c := range s.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Catalog 管理表定义。
type Catalog struct {
	mu          sync.RWMutex
	store       store.Store
	tables      map[string]*TableSchema
	lastTableID uint32
}

const MetaCatalogKey = "/_meta/catalog"

func NewCatalog(s store.Store) *Catalog {
	return &Catalog{
		store:  s,
		tables: make(map[string]*TableSchema),
	}
}

// Persistable state
type catalogState struct {
	LastTableID uint32         `json:"last_table_id"`
	Tables      []*TableSchema `json:"tables"`
}

// Load 从存储加载目录。首次运行时键不存在，不算错误。
func (c *Catalog) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var raw []byte
	err := c.store.View(func(txn store.Tx) error {
		val, err := txn.Get([]byte(MetaCatalogKey))
		if err != nil {
			return err
		}
		raw = val
		return nil
	})
	if err == store.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("加载 catalog 失败: %w", err)
	}

	var state catalogState
	if err := json.Unmarshal(raw, &state); err != nil {
		return fmt.Errorf("解析 catalog 失败: %w", err)
	}

	c.lastTableID = state.LastTableID
	c.tables = make(map[string]*TableSchema, len(state.Tables))
	for _, t := range state.Tables {
		c.tables[t.Name] = t
	}
	return nil
}

func (c *Catalog) persistLocked() error {
	state := catalogState{LastTableID: c.lastTableID}
	for _, t := range c.tables {
		state.Tables = append(state.Tables, t)
	}
	raw, err := json.Marshal(&state)
	if err != nil {
		return err
	}
	return c.store.Update(func(txn store.Tx) error {
		return txn.Set([]byte(MetaCatalogKey), raw)
	})
}

// Define 注册一张表。已存在同名表时要求列集合一致，否则报错。
func (c *Catalog) Define(name string, columns []string) (*TableSchema, error) {
	if name == "" {
		return nil, fmt.Errorf("表名不能为空")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("表 %q 至少需要一列", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.tables[name]; ok {
		if len(existing.Columns) != len(columns) {
			return nil, fmt.Errorf("表 %q 已存在且列定义不同", name)
		}
		for i, col := range columns {
			if existing.Columns[i] != col {
				return nil, fmt.Errorf("表 %q 已存在且列定义不同", name)
			}
		}
		return existing, nil
	}

	c.lastTableID++
	schema := &TableSchema{
		ID:      c.lastTableID,
		Name:    name,
		Columns: append([]string(nil), columns...),
	}
	c.tables[name] = schema

	if err := c.persistLocked(); err != nil {
		delete(c.tables, name)
		c.lastTableID--
		return nil, err
	}
	return schema, nil
}

// Table 返回表定义，不存在返回 nil。
func (c *Catalog) Table(name string) *TableSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tables[name]
}

// Tables 返回所有表名。
func (c *Catalog) Tables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	return names
}
