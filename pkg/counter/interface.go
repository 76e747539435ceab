package counter

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrBadFormat 表示字符串不是有效的十进制整数。
	ErrBadFormat = errors.New("不是有效的十进制整数")

	// ErrNotInTransaction 表示在事务之外尝试修改受管理的计数器。
	ErrNotInTransaction = errors.New("计数器只能在事务内修改")
)

// Value 是计数器的通用接口。
// 它表现得像一个可变的 int64，但底层是一个可收敛的复制计数器：
// 来自不同副本的 Increment/Decrement 以可交换、可结合的方式合并，
// 最终值与应用顺序无关；Set 则是破坏性的覆盖（last-writer-wins）。
//
// 两种实现：Unbound（本地自持值）与 Bound（绑定到存储单元格的值）。
// 相等性、排序和哈希只由 Int64() 的数值定义，与是否受管理无关，
// 通过包级函数 Compare / Equal / Hash 统一计算。
type Value interface {
	// Int64 返回当前本地可见的数值。
	// 对于 Bound 变体，会话关闭后返回错误。
	Int64() (int64, error)

	// Set 无条件地把计数器覆盖为 v。
	// 这是破坏性操作：其他副本尚未合并的增量贡献，
	// 在复制层处理该写入之后将被此值取代。
	Set(v int64) error

	// Increment 贡献一个带符号的增量 delta。
	// 所有副本的增量保证收敛：最终值 = 基值 + 所有增量之和，
	// 与应用顺序、网络延迟无关。
	Increment(delta int64) error

	// Decrement 等价于 Increment(-delta)。
	Decrement(delta int64) error

	// IsManaged 报告该计数器是否绑定到存储单元格。
	IsManaged() bool

	// IsValid 报告该计数器当前是否可用。
	// Unbound 永远有效；Bound 仅当宿主会话打开且行仍附着时有效，
	// 每次调用都重新求值，不缓存。
	IsValid() bool

	// String 返回 Int64 的十进制表示。
	String() string
}

// Coord 定位一个持久化的计数器单元格：行主键 + 列名。
type Coord struct {
	Row uuid.UUID
	Col string
}

// CellAccessor 是单元格的读写能力，由存储引擎提供。
type CellAccessor interface {
	// Read 返回单元格当前的收敛值。
	Read(coord Coord) (int64, error)

	// Write 破坏性地把单元格覆盖为 v，走正常的事务脏跟踪路径。
	Write(coord Coord, v int64) error

	// ForceWrite 绕过事务脏跟踪直接写入。
	// notify 为 true 时触发变更通知。仅供对象初始化路径使用。
	ForceWrite(coord Coord, v int64, notify bool) error
}

// CellIncrementer 是可选的原子增量能力。
// 实现了它的存储引擎可以把增量直接交给合并协议，
// 避免 read-modify-write 在并发本地事务下丢失更新。
// Bound 会优先使用它；缺失时退回到读取后 Set 的兼容路径。
type CellIncrementer interface {
	IncrementBy(coord Coord, delta int64) error
}

// RowBinding 解析行的存活状态和当前存储坐标。
type RowBinding interface {
	// IsAttached 报告行是否仍附着于宿主会话。
	IsAttached() bool

	// Coord 返回该列单元格当前的存储坐标。
	Coord() Coord
}

// SessionContext 是宿主事务会话的状态查询能力。
type SessionContext interface {
	// IsOpen 报告会话是否仍然打开。
	IsOpen() bool

	// IsInTransaction 报告当前是否处于写事务中。
	IsInTransaction() bool

	// CheckValid 在会话已关闭时返回错误。
	CheckValid() error

	// CheckValidAndInTransaction 在会话关闭或不在事务中时返回错误。
	CheckValidAndInTransaction() error
}

// ConstructionContext 由对象绑定层在初始化期间提供。
// 在构造模式下，Set 的行为由 AcceptsDefaultValue 决定：
// false 时静默忽略（避免覆盖初始化器尚未决定设置的值），
// true 时走 ForceWrite 旁路。
type ConstructionContext interface {
	IsUnderConstruction() bool
	AcceptsDefaultValue() bool
}
