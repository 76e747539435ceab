package counter

// 派生行为：比较、相等、哈希和数值窄化。
// 这些只依赖 Int64()，对两种变体统一实现，不允许各变体覆盖，
// 以保证 Equal / Compare / Hash 三者的自反契约一致。

// Compare 按数值比较两个计数器。
// 返回 -1、0 或 1，对应 a < b、a == b、a > b。
func Compare(a, b Value) (int, error) {
	av, err := a.Int64()
	if err != nil {
		return 0, err
	}
	bv, err := b.Int64()
	if err != nil {
		return 0, err
	}
	switch {
	case av < bv:
		return -1, nil
	case av > bv:
		return 1, nil
	default:
		return 0, nil
	}
}

// Equal 报告两个计数器的数值是否相等。
// 变体无关：一个 Unbound 和一个 Bound 只要数值相同就相等。
func Equal(a, b Value) (bool, error) {
	if a == b {
		return true, nil
	}
	av, err := a.Int64()
	if err != nil {
		return false, err
	}
	bv, err := b.Int64()
	if err != nil {
		return false, err
	}
	return av == bv, nil
}

// Hash 把 64 位值折叠成 32 位哈希（高低两半异或）。
// 与 Equal 一致：数值相等的计数器哈希必然相等。
func Hash(v Value) (uint32, error) {
	val, err := v.Int64()
	if err != nil {
		return 0, err
	}
	return uint32(uint64(val) ^ (uint64(val) >> 32)), nil
}

// Int32 返回值的 32 位截断。
func Int32(v Value) (int32, error) {
	val, err := v.Int64()
	if err != nil {
		return 0, err
	}
	return int32(val), nil
}

// Float64 返回值的 float64 表示。
func Float64(v Value) (float64, error) {
	val, err := v.Int64()
	if err != nil {
		return 0, err
	}
	return float64(val), nil
}

// Float32 返回值的 float32 表示（可能有精度损失）。
func Float32(v Value) (float32, error) {
	val, err := v.Int64()
	if err != nil {
		return 0, err
	}
	return float32(val), nil
}
