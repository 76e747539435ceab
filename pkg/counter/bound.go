package counter

import (
	"strconv"
)

// Bound 是绑定到持久化单元格的受管理计数器。
// 它不持有值本身，只持有三个注入的能力：单元格访问器、行绑定
// 和宿主会话。所有读写都委托给存储引擎，本地不缓存任何数值。
//
// 生命周期：由对象绑定层在列附着到存活行时创建；
// 会话关闭或行脱离后永久失效，不会恢复。
// Bound 不延长会话或行的生命周期，也不支持跨线程并发访问，
// 串行化完全交给宿主会话。
type Bound struct {
	cell    CellAccessor
	row     RowBinding
	session SessionContext
	ctor    ConstructionContext
}

// NewBound 创建一个受管理计数器。
// ctor 仅在对象初始化期间由绑定层提供，平时传 nil。
func NewBound(cell CellAccessor, row RowBinding, session SessionContext, ctor ConstructionContext) *Bound {
	return &Bound{
		cell:    cell,
		row:     row,
		session: session,
		ctor:    ctor,
	}
}

// Int64 返回单元格当前的收敛值。
// 只检查会话有效性，不额外检查行附着（与 IsValid 不对称，历史行为）。
func (c *Bound) Int64() (int64, error) {
	if err := c.session.CheckValid(); err != nil {
		return 0, err
	}
	return c.cell.Read(c.row.Coord())
}

// Set 无条件覆盖单元格的值。
//
// 构造模式下的状态机：
//  1. 不接受默认值时，调用被静默忽略。这是刻意的：
//     部分应用的对象初始化器尚未决定是否设置该字段，
//     此时覆盖会破坏已有数据。
//  2. 接受默认值时，走 ForceWrite 旁路并触发通知，
//     绕过正常的事务脏跟踪。
//
// 其余情况要求会话打开且处于事务中，否则立即失败，无部分效果。
func (c *Bound) Set(v int64) error {
	if c.ctor != nil && c.ctor.IsUnderConstruction() {
		if !c.ctor.AcceptsDefaultValue() {
			return nil
		}
		if err := c.session.CheckValid(); err != nil {
			return err
		}
		return c.cell.ForceWrite(c.row.Coord(), v, true)
	}

	if err := c.session.CheckValidAndInTransaction(); err != nil {
		return err
	}
	return c.cell.Write(c.row.Coord(), v)
}

// Increment 贡献一个带符号增量。
// 存储引擎提供 CellIncrementer 能力时，增量被原子地交给合并协议，
// 保证跨副本收敛；否则退回到读取后覆盖的兼容路径。
// 兼容路径在并发本地事务下可能丢失更新，不是目标设计。
func (c *Bound) Increment(delta int64) error {
	if err := c.session.CheckValidAndInTransaction(); err != nil {
		return err
	}

	coord := c.row.Coord()
	if inc, ok := c.cell.(CellIncrementer); ok {
		return inc.IncrementBy(coord, delta)
	}

	// 兼容回退：read-modify-write
	v, err := c.cell.Read(coord)
	if err != nil {
		return err
	}
	return c.cell.Write(coord, v+delta)
}

// Decrement 等价于 Increment(-delta)。
func (c *Bound) Decrement(delta int64) error {
	return c.Increment(-delta)
}

// IsManaged 永远返回 true。
func (c *Bound) IsManaged() bool {
	return true
}

// IsValid 每次调用都重新求值：会话打开且行仍附着。
func (c *Bound) IsValid() bool {
	return c.session.IsOpen() && c.row.IsAttached()
}

func (c *Bound) String() string {
	v, err := c.Int64()
	if err != nil {
		return "<invalid>"
	}
	return strconv.FormatInt(v, 10)
}
