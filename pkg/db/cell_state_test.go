package db

import (
	"testing"

	"github.com/shinyes/yep_counter/pkg/hlc"
)

// 合并契约的独立测试：不经过存储，直接验证单元格状态的
// 可交换、可结合与幂等。

func TestCellState_MergeEitherOrder(t *testing.T) {
	clock := hlc.New()
	epoch := clock.Now()

	// 基值 10，两个副本各自贡献 +5 和 +3
	base := newCellState()
	base.setDestructive(10, epoch)

	a := newCellState()
	a.merge(base)
	a.addDelta("node-a", 5)

	b := newCellState()
	b.merge(base)
	b.addDelta("node-b", 3)

	ab := newCellState()
	ab.merge(base)
	ab.merge(a)
	ab.merge(b)

	ba := newCellState()
	ba.merge(base)
	ba.merge(b)
	ba.merge(a)

	if ab.value() != 18 {
		t.Fatalf("a 后 b: 预期 18, 实际得到 %d", ab.value())
	}
	if ba.value() != 18 {
		t.Fatalf("b 后 a: 预期 18, 实际得到 %d", ba.value())
	}
}

func TestCellState_MergeIdempotent(t *testing.T) {
	clock := hlc.New()
	s := newCellState()
	s.setDestructive(10, clock.Now())
	s.addDelta("node-a", 5)

	other := newCellState()
	other.merge(s)

	// 重复合并同一状态不改变结果
	s.merge(other)
	s.merge(other)
	if s.value() != 15 {
		t.Fatalf("预期 15, 实际得到 %d", s.value())
	}
}

func TestCellState_SetSupersedesOldEpoch(t *testing.T) {
	clock := hlc.New()

	s := newCellState()
	s.setDestructive(10, clock.Now())

	// 远程副本在旧纪元上的贡献
	remote := newCellState()
	remote.merge(s)
	remote.addDelta("node-b", 100)

	// 本地破坏性覆盖开启新纪元
	s.setDestructive(7, clock.Now())

	// 旧纪元的增量被取代
	s.merge(remote)
	if s.value() != 7 {
		t.Fatalf("旧纪元增量应被取代: 预期 7, 实际得到 %d", s.value())
	}

	// 反方向：远程收到覆盖后也收敛到 7
	exported := newCellState()
	exported.merge(s)
	remote.merge(exported)
	if remote.value() != 7 {
		t.Fatalf("远程应收敛到 7, 实际得到 %d", remote.value())
	}
}

func TestCellState_DeltaSignSplit(t *testing.T) {
	s := newCellState()
	s.addDelta("n", 5)
	s.addDelta("n", -2)
	if s.Inc["n"] != 5 || s.Dec["n"] != 2 {
		t.Fatalf("预期 Inc=5 Dec=2, 实际得到 Inc=%d Dec=%d", s.Inc["n"], s.Dec["n"])
	}
	if s.value() != 3 {
		t.Fatalf("预期 3, 实际得到 %d", s.value())
	}
}

func TestCellState_Codec(t *testing.T) {
	s := newCellState()
	s.setDestructive(10, 12345)
	s.addDelta("node-a", 5)
	s.addDelta("node-b", -3)

	raw, err := s.bytes()
	if err != nil {
		t.Fatal(err)
	}
	got, err := cellStateFromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.value() != s.value() || got.Epoch != s.Epoch {
		t.Fatalf("编解码后状态不一致: %+v vs %+v", got, s)
	}
}
