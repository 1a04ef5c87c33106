package storage

import (
	"bytes"
	"testing"
)

func TestPrefixDB(t *testing.T) {
	testDB(t, NewPrefixDB(NewMemory(), []byte("ns/")))
}

func TestPrefixDB_Isolation(t *testing.T) {
	inner := NewMemory()
	a := NewPrefixDB(inner, []byte("mainnet/"))
	b := NewPrefixDB(inner, []byte("testnet/"))

	a.Put([]byte("k"), []byte("a"))
	b.Put([]byte("k"), []byte("b"))

	got, err := a.Get([]byte("k"))
	if err != nil || !bytes.Equal(got, []byte("a")) {
		t.Fatalf("a.Get() = %q, %v", got, err)
	}

	raw, err := inner.Get([]byte("testnet/k"))
	if err != nil || !bytes.Equal(raw, []byte("b")) {
		t.Fatalf("inner key layout = %q, %v", raw, err)
	}

	var keys []string
	a.ForEach(nil, func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if len(keys) != 1 || keys[0] != "k" {
		t.Errorf("ForEach keys = %v, want [k]", keys)
	}
}
