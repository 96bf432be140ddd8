package txn

import (
	"sync"
	"testing"
	"time"

	"github.com/arjunsk/halleykv/pkg/hlc"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBeginCommit(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	tx := r.Begin(hlc.New(1, 0), hlc.New(1, 0))
	st, err := r.Status(tx.ID())
	assert.NoError(t, err)
	assert.Equal(t, Pending, st)

	assert.NoError(t, r.Commit(tx.ID()))
	st, _ = r.Status(tx.ID())
	assert.Equal(t, Committed, st)

	// finalized twice is an error
	assert.ErrorIs(t, r.Commit(tx.ID()), ErrTxnFinalized)
	assert.ErrorIs(t, r.Abort(tx.ID()), ErrTxnFinalized)
}

func TestAbort(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	tx := r.Begin(hlc.New(1, 0), hlc.New(1, 0))
	assert.NoError(t, r.Abort(tx.ID()))

	st, err := r.Status(tx.ID())
	assert.NoError(t, err)
	assert.Equal(t, Aborted, st)
}

func TestUnknownTxn(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	_, err := r.Status(uuid.New())
	assert.ErrorIs(t, err, ErrTxnNotFound)
	assert.ErrorIs(t, r.Commit(uuid.New()), ErrTxnNotFound)
}

func TestTTLAbort(t *testing.T) {
	r := NewRegistry(100 * time.Millisecond)
	defer r.Close()

	tx := r.Begin(hlc.New(1, 0), hlc.New(1, 0))
	time.Sleep(400 * time.Millisecond)

	st, err := r.Status(tx.ID())
	assert.NoError(t, err)
	assert.Equal(t, Aborted, st)
}

func TestHeartbeatKeepsAlive(t *testing.T) {
	r := NewRegistry(200 * time.Millisecond)
	defer r.Close()

	tx := r.Begin(hlc.New(1, 0), hlc.New(1, 0))
	for i := 0; i < 5; i++ {
		time.Sleep(50 * time.Millisecond)
		assert.NoError(t, r.Heartbeat(tx.ID()))
	}

	st, _ := r.Status(tx.ID())
	assert.Equal(t, Pending, st)

	assert.NoError(t, r.Commit(tx.ID()))
	assert.ErrorIs(t, r.Heartbeat(tx.ID()), ErrTxnFinalized)
}

func TestLatchExcludes(t *testing.T) {
	lt := NewLatchTable()
	key := []byte("k")

	lt.Acquire(key)

	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		lt.Acquire(key)
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		lt.Release(key)
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	lt.Release(key)

	wg.Wait()
	assert.Equal(t, []int{1, 2}, order)
}

func TestLatchIndependentKeys(t *testing.T) {
	lt := NewLatchTable()

	lt.Acquire([]byte("a"))
	done := make(chan struct{})
	go func() {
		lt.Acquire([]byte("b"))
		lt.Release([]byte("b"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("latch on a blocked acquire on b")
	}
	lt.Release([]byte("a"))
}
