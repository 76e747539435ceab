package counter

import (
	"strconv"
)

// Unbound 是自持值的本地计数器。
// 没有外部依赖，没有事务或附着检查，所有操作立即同步生效。
// 单个本地值不存在其他副本，所以增减就是普通算术，无需合并。
type Unbound struct {
	value int64
}

// FromValue 用给定的初始值创建一个 Unbound 计数器。
func FromValue(v int64) *Unbound {
	return &Unbound{value: v}
}

// FromString 解析十进制字符串创建 Unbound 计数器。
// 格式非法时返回 ErrBadFormat，不构造任何东西。
func FromString(s string) (*Unbound, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, ErrBadFormat
	}
	return &Unbound{value: v}, nil
}

func (c *Unbound) Int64() (int64, error) {
	return c.value, nil
}

func (c *Unbound) Set(v int64) error {
	c.value = v
	return nil
}

func (c *Unbound) Increment(delta int64) error {
	c.value += delta
	return nil
}

func (c *Unbound) Decrement(delta int64) error {
	return c.Increment(-delta)
}

// IsManaged 永远返回 false。
func (c *Unbound) IsManaged() bool {
	return false
}

// IsValid 永远返回 true。
func (c *Unbound) IsValid() bool {
	return true
}

func (c *Unbound) String() string {
	return strconv.FormatInt(c.value, 10)
}
