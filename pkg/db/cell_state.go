package db

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// cellState 是一个计数器单元格的持久化状态：
// 一个基值加上复制元数据（破坏性覆盖的纪元、每个节点的增减量映射）。
// 收敛值 = Base + ΣInc - ΣDec。
//
// 合并规则（可交换、可结合）：
//   - 纪元高的一方的基值获胜，旧纪元下记录的增量被整体取代。
//   - 同一纪元内，每个节点的增减量按最大值合并（每个节点的
//     计数只会单调增长，所以取最大值等价于取最新）。
//
// 破坏性 Set 开启新纪元并清空本地增量映射，由此"取代"
// 其他副本尚未合并的旧纪元贡献。
type cellState struct {
	Base  int64            `msgpack:"b"`
	Epoch int64            `msgpack:"e"`
	Inc   map[string]int64 `msgpack:"i,omitempty"`
	Dec   map[string]int64 `msgpack:"d,omitempty"`
}

func newCellState() *cellState {
	return &cellState{
		Inc: make(map[string]int64),
		Dec: make(map[string]int64),
	}
}

// value 返回当前的收敛值。
func (s *cellState) value() int64 {
	total := s.Base
	for _, v := range s.Inc {
		total += v
	}
	for _, v := range s.Dec {
		total -= v
	}
	return total
}

// setDestructive 把单元格覆盖为 v，开启纪元 epoch。
func (s *cellState) setDestructive(v int64, epoch int64) {
	s.Base = v
	s.Epoch = epoch
	s.Inc = make(map[string]int64)
	s.Dec = make(map[string]int64)
}

// addDelta 记录 node 的一次带符号增量。
func (s *cellState) addDelta(node string, delta int64) {
	if s.Inc == nil {
		s.Inc = make(map[string]int64)
	}
	if s.Dec == nil {
		s.Dec = make(map[string]int64)
	}
	if delta >= 0 {
		s.Inc[node] += delta
	} else {
		s.Dec[node] += -delta
	}
}

// merge 把远程状态合并进来。
func (s *cellState) merge(other *cellState) {
	switch {
	case other.Epoch > s.Epoch:
		// 远程的覆盖更新，本地旧纪元状态被整体取代
		s.Base = other.Base
		s.Epoch = other.Epoch
		s.Inc = copyDeltaMap(other.Inc)
		s.Dec = copyDeltaMap(other.Dec)
	case other.Epoch < s.Epoch:
		// 远程还停留在旧纪元，它的贡献已被本地的覆盖取代
	default:
		// 同一纪元：按节点取最大值合并增量
		if other.Base > s.Base {
			// 纪元打包了物理毫秒+逻辑计数，不同节点仍可能撞上
			// 同一纪元发出不同基值；取大者保证合并可交换。
			s.Base = other.Base
		}
		s.Inc = mergeDeltaMap(s.Inc, other.Inc)
		s.Dec = mergeDeltaMap(s.Dec, other.Dec)
	}
}

func mergeDeltaMap(dest, src map[string]int64) map[string]int64 {
	if dest == nil {
		dest = make(map[string]int64, len(src))
	}
	for k, v := range src {
		if dest[k] < v {
			dest[k] = v
		}
	}
	return dest
}

func copyDeltaMap(src map[string]int64) map[string]int64 {
	dest := make(map[string]int64, len(src))
	for k, v := range src {
		dest[k] = v
	}
	return dest
}

func (s *cellState) bytes() ([]byte, error) {
	return msgpack.Marshal(s)
}

func cellStateFromBytes(data []byte) (*cellState, error) {
	s := newCellState()
	if err := msgpack.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("解析单元格状态失败: %w", err)
	}
	return s, nil
}
