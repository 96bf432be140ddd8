package mvcc

import (
	"testing"

	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/arjunsk/halleykv/pkg/hlc"
	"github.com/arjunsk/halleykv/pkg/txn"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countIntents(t *testing.T, eng engine.Engine, key string) int {
	t.Helper()
	it := NewIter(eng)
	defer it.Release()

	n := 0
	for ok := it.SeekGE(IntentKey([]byte(key))); ok; ok = it.Next() {
		if string(it.Key().Key) != key {
			break
		}
		if it.Key().IsIntent() {
			n++
		}
	}
	return n
}

func TestGetVisibilityWindows(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	putVersion(t, eng, "k", hlc.New(10, 0), "v10")
	putVersion(t, eng, "k", hlc.New(20, 0), "v20")

	// below the oldest version: not found
	got, err := Get(eng, []byte("k"), hlc.New(5, 0), ScanOptions{})
	require.NoError(t, err)
	assert.Nil(t, got)

	// reads inside [10, 20) see v10, reads at/after 20 see v20
	for _, ts := range []hlc.Timestamp{hlc.New(10, 0), hlc.New(15, 0), hlc.New(19, 9)} {
		got, err = Get(eng, []byte("k"), ts, ScanOptions{})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []byte("v10"), got.Value, "ts %s", ts)
	}
	for _, ts := range []hlc.Timestamp{hlc.New(20, 0), hlc.New(100, 0)} {
		got, err = Get(eng, []byte("k"), ts, ScanOptions{})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []byte("v20"), got.Value, "ts %s", ts)
	}
}

func TestGetMissingKey(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	putVersion(t, eng, "other", hlc.New(1, 0), "v")

	got, err := Get(eng, []byte("k"), hlc.New(10, 0), ScanOptions{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetForeignIntentFails(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	owner := txn.New(uuid.New(), hlc.New(5, 0), hlc.New(5, 0))
	putIntent(t, eng, "k", owner, "draft", statusMap{})

	_, err := Get(eng, []byte("k"), hlc.New(10, 0), ScanOptions{})
	var wiErr *WriteIntentError
	require.ErrorAs(t, err, &wiErr)
	assert.Equal(t, []byte("k"), wiErr.Key)
	assert.Equal(t, owner.ID(), wiErr.TxnID)

	// a different reader transaction hits the same wall
	reader := txn.New(uuid.New(), hlc.New(7, 0), hlc.New(7, 0))
	_, err = Get(eng, []byte("k"), hlc.New(10, 0), ScanOptions{Txn: reader})
	require.ErrorAs(t, err, &wiErr)
}

func TestGetOwnIntent(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	putVersion(t, eng, "k", hlc.New(1, 0), "old")

	tx := txn.New(uuid.New(), hlc.New(5, 0), hlc.New(5, 0))
	putIntent(t, eng, "k", tx, "mine", statusMap{})

	got, err := Get(eng, []byte("k"), hlc.New(10, 0), ScanOptions{Txn: tx})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("mine"), got.Value)
}

func TestPutConflictOnPendingIntent(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	txA := txn.New(uuid.New(), hlc.New(5, 0), hlc.New(5, 0))
	txB := txn.New(uuid.New(), hlc.New(6, 0), hlc.New(6, 0))
	src := statusMap{txA.ID(): txn.Pending, txB.ID(): txn.Pending}

	putIntent(t, eng, "k", txA, "v1", src)

	_, err := Put(eng, []byte("k"), hlc.Timestamp{}, txB, []byte("v2"), src)
	var wiErr *WriteIntentError
	require.ErrorAs(t, err, &wiErr)
	assert.Equal(t, txA.ID(), wiErr.TxnID)

	// the blocked writer left no trace
	assert.Equal(t, 1, countIntents(t, eng, "k"))
	got, err := Get(eng, []byte("k"), hlc.New(10, 0), ScanOptions{Txn: txA})
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got.Value)
}

func TestPutOwnIntentRewrite(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	tx := txn.New(uuid.New(), hlc.New(5, 0), hlc.New(5, 0))
	src := statusMap{tx.ID(): txn.Pending}

	putIntent(t, eng, "k", tx, "v1", src)
	putIntent(t, eng, "k", tx, "v2", src)
	putIntent(t, eng, "k", tx, "v3", src)

	assert.Equal(t, 1, countIntents(t, eng, "k"))

	got, err := Get(eng, []byte("k"), hlc.New(10, 0), ScanOptions{Txn: tx})
	require.NoError(t, err)
	assert.Equal(t, []byte("v3"), got.Value)
}

func TestPutClearsStaleIntent(t *testing.T) {
	for _, status := range []txn.Status{txn.Committed, txn.Aborted} {
		t.Run(status.String(), func(t *testing.T) {
			eng := newEng()
			defer eng.Close()

			stale := txn.New(uuid.New(), hlc.New(5, 0), hlc.New(5, 0))
			src := statusMap{stale.ID(): status}
			putIntent(t, eng, "k", stale, "leftover", src)

			// a later writer repairs the slot inline and proceeds
			next := txn.New(uuid.New(), hlc.New(8, 0), hlc.New(8, 0))
			src[next.ID()] = txn.Pending
			_, err := Put(eng, []byte("k"), hlc.Timestamp{}, next, []byte("fresh"), src)
			require.NoError(t, err)

			assert.Equal(t, 1, countIntents(t, eng, "k"))
			got, err := Get(eng, []byte("k"), hlc.New(10, 0), ScanOptions{Txn: next})
			require.NoError(t, err)
			assert.Equal(t, []byte("fresh"), got.Value)
		})
	}
}

func TestPutStaleIntentThenDirectWrite(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	stale := txn.New(uuid.New(), hlc.New(5, 0), hlc.New(5, 0))
	src := statusMap{stale.ID(): txn.Aborted}
	putIntent(t, eng, "k", stale, "leftover", src)

	k, err := Put(eng, []byte("k"), hlc.New(9, 0), nil, []byte("direct"), src)
	require.NoError(t, err)
	assert.Equal(t, NewKey([]byte("k"), hlc.New(9, 0)), k)

	assert.Equal(t, 0, countIntents(t, eng, "k"))
	got, err := Get(eng, []byte("k"), hlc.New(10, 0), ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("direct"), got.Value)
}

func TestPutExplicitTimestampWins(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	tx := txn.New(uuid.New(), hlc.New(5, 0), hlc.New(5, 0))
	_, err := Put(eng, []byte("k"), hlc.New(9, 0), tx, []byte("v"), statusMap{})
	require.NoError(t, err)

	it := NewIter(eng)
	defer it.Release()
	require.True(t, it.SeekGE(IntentKey([]byte("k"))))
	uv, err := DecodeUncommitted(it.Value())
	require.NoError(t, err)
	assert.Equal(t, hlc.New(9, 0), uv.Meta.WriteTimestamp)
}

func TestPutWithoutTimestampOrTxn(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	_, err := Put(eng, []byte("k"), hlc.Timestamp{}, nil, []byte("v"), statusMap{})
	assert.ErrorIs(t, err, ErrNoTimestamp)
	assert.Equal(t, 0, eng.Len())
}

func TestPutReturnsResultingKey(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	k, err := Put(eng, []byte("k"), hlc.New(4, 2), nil, []byte("v"), nil)
	require.NoError(t, err)
	assert.Equal(t, NewKey([]byte("k"), hlc.New(4, 2)), k)

	tx := txn.New(uuid.New(), hlc.New(5, 0), hlc.New(5, 0))
	k, err = Put(eng, []byte("j"), hlc.Timestamp{}, tx, []byte("v"), statusMap{})
	require.NoError(t, err)
	assert.True(t, k.IsIntent())
	assert.Equal(t, []byte("j"), k.Key)
}

// End-to-end sequence: a committed version, then a transactional overwrite
// that stays provisional until its owner is decided.
func TestWriteIntentScenario(t *testing.T) {
	eng := newEng()
	defer eng.Close()

	putVersion(t, eng, "k", hlc.New(1, 0), "a")

	got, err := Get(eng, []byte("k"), hlc.New(5, 0), ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got.Value)

	tx := txn.New(uuid.New(), hlc.New(7, 0), hlc.New(7, 0))
	src := statusMap{tx.ID(): txn.Pending}
	putIntent(t, eng, "k", tx, "b", src)

	// plain read at ts=10 refuses to pick a side
	_, err = Get(eng, []byte("k"), hlc.New(10, 0), ScanOptions{})
	var wiErr *WriteIntentError
	require.ErrorAs(t, err, &wiErr)
	assert.Equal(t, tx.ID(), wiErr.TxnID)

	// the scan reports the intent and still serves the older version
	res, err := Scan(eng, []byte("k"), []byte("l"), hlc.New(10, 0), ScanOptions{})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, []byte("a"), res.Results[0].Value)
	require.Len(t, res.Intents, 1)
	assert.Equal(t, tx.ID(), res.Intents[0].Meta.ID)
}
