package store

import (
	"bytes"
	"fmt"
	"testing"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := NewBadgerStore("", WithBadgerInMemory())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStore_SetGetDelete(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(func(txn Tx) error {
		return txn.Set([]byte("k1"), []byte("v1"))
	})
	if err != nil {
		t.Fatal(err)
	}

	err = s.View(func(txn Tx) error {
		val, err := txn.Get([]byte("k1"))
		if err != nil {
			return err
		}
		if !bytes.Equal(val, []byte("v1")) {
			t.Errorf("预期 v1, 实际得到 %s", val)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = s.Update(func(txn Tx) error {
		return txn.Delete([]byte("k1"))
	})
	if err != nil {
		t.Fatal(err)
	}

	err = s.View(func(txn Tx) error {
		_, err := txn.Get([]byte("k1"))
		if err != ErrKeyNotFound {
			t.Errorf("预期 ErrKeyNotFound, 实际得到 %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestBadgerStore_PrefixIterator(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(func(txn Tx) error {
		for i := 0; i < 5; i++ {
			if err := txn.Set([]byte(fmt.Sprintf("/a/%d", i)), []byte{byte(i)}); err != nil {
				return err
			}
		}
		return txn.Set([]byte("/b/0"), []byte{99})
	})
	if err != nil {
		t.Fatal(err)
	}

	var count int
	err = s.View(func(txn Tx) error {
		prefix := []byte("/a/")
		it := txn.NewIterator(prefix)
		defer it.Close()

		it.Seek(prefix)
		for it.ValidForPrefix(prefix) {
			k, _, err := it.Item()
			if err != nil {
				return err
			}
			if !bytes.HasPrefix(k, prefix) {
				t.Errorf("键 %s 不带前缀 %s", k, prefix)
			}
			count++
			it.Next()
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Fatalf("预期迭代 5 个键, 实际得到 %d", count)
	}
}

func TestBadgerStore_WriteTx(t *testing.T) {
	s := openTestStore(t)

	// 提交
	txn := s.Begin()
	if err := txn.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatal(err)
	}

	err := s.View(func(tx Tx) error {
		_, err := tx.Get([]byte("k"))
		return err
	})
	if err != nil {
		t.Fatalf("提交后键应可见: %v", err)
	}

	// 丢弃
	txn = s.Begin()
	if err := txn.Set([]byte("k2"), []byte("v2")); err != nil {
		t.Fatal(err)
	}
	txn.Discard()

	err = s.View(func(tx Tx) error {
		_, err := tx.Get([]byte("k2"))
		if err != ErrKeyNotFound {
			t.Errorf("丢弃后键不应存在, 实际得到 %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestBadgerStore_BadOption(t *testing.T) {
	if _, err := NewBadgerStore("", WithBadgerValueLogFileSize(-1)); err == nil {
		t.Fatal("非法的 vlog 大小应报错")
	}
}
