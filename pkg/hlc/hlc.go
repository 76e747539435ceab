package hlc

import (
	"sync"
	"time"
)

// Clock 代表混合逻辑时钟。
// 它保证单调递增，用作破坏性覆盖 (Set) 的纪元时间戳：
// 跨副本合并时，纪元更高的基值获胜。
// 时间戳被打包为 int64：
//   - 高 48 位：物理时间 (毫秒)，从 Unix Epoch 开始。
//   - 低 16 位：逻辑计数器。
type Clock struct {
	mu     sync.Mutex
	latest int64 // 当前已知的最大 HLC 时间戳 (packed)
}

const logicalMask = 0xFFFF

// New 创建一个新的 HLC 时钟。
func New() *Clock {
	return &Clock{}
}

// Now 返回当前的 HLC 时间戳，并更新内部状态。
// 返回值严格大于任何先前返回或观察到的时间戳。
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	phys := time.Now().UnixMilli()

	oldPhys := c.latest >> 16
	oldLogical := c.latest & logicalMask

	var newPhys, newLogical int64
	if phys > oldPhys {
		newPhys = phys
		newLogical = 0
	} else {
		// 物理时间倒退或相等：增加逻辑计数
		newPhys = oldPhys
		newLogical = oldLogical + 1
	}

	// 逻辑计数溢出时借位到物理时间
	if newLogical > logicalMask {
		newPhys++
		newLogical = 0
	}

	c.latest = (newPhys << 16) | newLogical
	return c.latest
}

// Update 根据观察到的远程时间戳推进本地时钟。
// 合并远程单元格状态后调用，保证后续本地 Set 的纪元不会倒退。
func (c *Clock) Update(remoteTs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remoteTs > c.latest {
		c.latest = remoteTs
	}
}

// Physical 返回时间戳的物理部分 (Unix Milli)。
func Physical(ts int64) int64 {
	return ts >> 16
}

// Compare 比较两个 HLC 时间戳。
// 返回 1、0、-1 分别对应 a > b、a == b、a < b。
func Compare(a, b int64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
