package enginetests

import (
	"bytes"
	"fmt"
	"testing"

	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/stretchr/testify/assert"
)

// Shared behavior suite for Engine backends. Each backend's _test.go calls
// these with its own constructor; ordering uses plain bytes.Compare so the
// suite stays independent of the MVCC key layout.

func TestPointOps(newEngine func(cmp engine.Compare) engine.Engine, t *testing.T) {
	eng := newEngine(bytes.Compare)
	defer eng.Close()

	_, ok := eng.Get([]byte("a"))
	assert.False(t, ok)

	eng.Set([]byte("a"), []byte("1"))
	eng.Set([]byte("b"), []byte("2"))
	assert.Equal(t, 2, eng.Len())

	val, ok := eng.Get([]byte("a"))
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), val)

	// overwrite in place
	eng.Set([]byte("a"), []byte("1x"))
	val, _ = eng.Get([]byte("a"))
	assert.Equal(t, []byte("1x"), val)
	assert.Equal(t, 2, eng.Len())

	eng.Delete([]byte("a"))
	_, ok = eng.Get([]byte("a"))
	assert.False(t, ok)
	assert.Equal(t, 1, eng.Len())
}

func TestIterOrder(newEngine func(cmp engine.Compare) engine.Engine, t *testing.T) {
	eng := newEngine(bytes.Compare)
	defer eng.Close()

	for _, k := range []string{"d", "a", "c", "b"} {
		eng.Set([]byte(k), []byte(k))
	}

	it := eng.NewIter()
	defer it.Release()

	var got []string
	for ok := it.Seek(nil); ok; ok = it.Next() {
		got = append(got, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestIterSeek(newEngine func(cmp engine.Compare) engine.Engine, t *testing.T) {
	eng := newEngine(bytes.Compare)
	defer eng.Close()

	eng.Set([]byte("a"), nil)
	eng.Set([]byte("c"), nil)
	eng.Set([]byte("e"), nil)

	it := eng.NewIter()
	defer it.Release()

	// exact hit
	assert.True(t, it.Seek([]byte("c")))
	assert.Equal(t, []byte("c"), it.Key())

	// between records lands on the next one
	assert.True(t, it.Seek([]byte("b")))
	assert.Equal(t, []byte("c"), it.Key())

	// past the end
	assert.False(t, it.Seek([]byte("f")))
}

func TestIterSnapshot(newEngine func(cmp engine.Compare) engine.Engine, t *testing.T) {
	eng := newEngine(bytes.Compare)
	defer eng.Close()

	eng.Set([]byte("a"), nil)
	eng.Set([]byte("b"), nil)

	it := eng.NewIter()
	defer it.Release()

	// writes after NewIter are invisible to the open cursor
	eng.Set([]byte("aa"), nil)
	eng.Delete([]byte("b"))

	var got []string
	for ok := it.Seek(nil); ok; ok = it.Next() {
		got = append(got, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCustomCompare(newEngine func(cmp engine.Compare) engine.Engine, t *testing.T) {
	// reversed ordering: the comparator, not the byte layout, decides
	reversed := func(a, b []byte) int { return bytes.Compare(b, a) }

	eng := newEngine(reversed)
	defer eng.Close()

	for _, k := range []string{"a", "b", "c"} {
		eng.Set([]byte(k), nil)
	}

	it := eng.NewIter()
	defer it.Release()

	var got []string
	for ok := it.Seek([]byte("c")); ok; ok = it.Next() {
		got = append(got, string(it.Key()))
	}
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

func TestManyRecords(newEngine func(cmp engine.Compare) engine.Engine, t *testing.T) {
	eng := newEngine(bytes.Compare)
	defer eng.Close()

	const n = 1_000
	for i := 0; i < n; i++ {
		k := []byte(fmt.Sprintf("key-%06d", i))
		eng.Set(k, k)
	}
	assert.Equal(t, n, eng.Len())

	it := eng.NewIter()
	defer it.Release()

	count := 0
	prev := []byte(nil)
	for ok := it.Seek(nil); ok; ok = it.Next() {
		if prev != nil {
			assert.True(t, bytes.Compare(prev, it.Key()) < 0)
		}
		prev = append(prev[:0], it.Key()...)
		count++
	}
	assert.Equal(t, n, count)
}
