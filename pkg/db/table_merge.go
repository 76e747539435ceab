package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shinyes/yep_counter/pkg/store"
)

// 副本间的收敛面。
// 本核心不实现复制协议本身：传输由外部的同步层负责，
// 这里只提供单元格状态的导出和合并入口，并保证合并满足
// 可交换、可结合的收敛契约：任意顺序应用同一批远程状态，
// 所有副本最终读到相同的值。

// RawCell 表示一个单元格的原始状态字节。
type RawCell struct {
	Col  string
	Data []byte
}

// ExportCell 导出单元格的原始状态，用于发送给其他副本。
func (t *Table) ExportCell(key uuid.UUID, col string) ([]byte, error) {
	if err := validateUUIDv7(key); err != nil {
		return nil, err
	}
	if err := t.checkColumn(col); err != nil {
		return nil, err
	}

	var data []byte
	err := t.db.inTx(false, func(txn store.Tx) error {
		state, err := t.loadCell(txn, key, col)
		if err != nil {
			return err
		}
		data, err = state.bytes()
		return err
	})
	return data, err
}

// ExportRow 导出一行的全部单元格状态。用于全量同步。
func (t *Table) ExportRow(key uuid.UUID) ([]RawCell, error) {
	if err := validateUUIDv7(key); err != nil {
		return nil, err
	}

	var cells []RawCell
	err := t.db.inTx(false, func(txn store.Tx) error {
		prefix := t.cellPrefix(key)
		it := txn.NewIterator(prefix)
		defer it.Close()

		it.Seek(prefix)
		for it.ValidForPrefix(prefix) {
			k, v, err := it.Item()
			if err != nil {
				return fmt.Errorf("导出行失败: %w", err)
			}
			cells = append(cells, RawCell{
				Col:  string(k[len(prefix):]),
				Data: v,
			})
			it.Next()
		}
		return nil
	})
	return cells, err
}

// ApplyRemoteCell 把远程副本导出的单元格状态合并进本地。
// 合并直接落盘，不经过会话的写事务，也不触发变更回调。
// 行在本地不存在时随合并一起物化。
func (t *Table) ApplyRemoteCell(key uuid.UUID, col string, raw []byte) error {
	if err := t.db.CheckValid(); err != nil {
		return err
	}
	if err := validateUUIDv7(key); err != nil {
		return err
	}
	if err := t.checkColumn(col); err != nil {
		return err
	}

	remote, err := cellStateFromBytes(raw)
	if err != nil {
		return err
	}

	err = t.db.store.Update(func(txn store.Tx) error {
		exists, err := t.rowExists(txn, key)
		if err != nil {
			return err
		}
		if !exists {
			if err := txn.Set(t.rowKey(key), []byte{1}); err != nil {
				return err
			}
		}

		local, err := t.loadCell(txn, key, col)
		if err != nil {
			return err
		}
		local.merge(remote)
		return t.saveCell(txn, key, col, local)
	})
	if err != nil {
		return err
	}

	// 观察到远程纪元，保证后续本地覆盖的纪元不倒退
	t.db.clock.Update(remote.Epoch)

	t.db.log.Debug().
		Str("table", t.schema.Name).
		Stringer("key", key).
		Str("col", col).
		Msg("合并远程单元格")
	return nil
}

// ApplyRemoteRow 合并一整行的远程单元格状态。
func (t *Table) ApplyRemoteRow(key uuid.UUID, cells []RawCell) error {
	for _, cell := range cells {
		if err := t.ApplyRemoteCell(key, cell.Col, cell.Data); err != nil {
			return err
		}
	}
	return nil
}
