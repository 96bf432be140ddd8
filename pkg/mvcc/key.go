package mvcc

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/arjunsk/halleykv/pkg/hlc"
)

// MVCCKey is the logical identity of one physical record: a user key plus
// the version timestamp. The zero timestamp marks the key's intent slot.
type MVCCKey struct {
	Key       []byte
	Timestamp hlc.Timestamp
}

func NewKey(key []byte, ts hlc.Timestamp) MVCCKey {
	return MVCCKey{Key: key, Timestamp: ts}
}

// IntentKey addresses the single provisional slot of a key.
func IntentKey(key []byte) MVCCKey {
	return MVCCKey{Key: key}
}

func (k MVCCKey) IsIntent() bool {
	return k.Timestamp.IsEmpty()
}

func (k MVCCKey) String() string {
	return fmt.Sprintf("%q@%s", k.Key, k.Timestamp)
}

// Encoded layout: key bytes ++ wall time LE(8) ++ logical time LE(4).
// The suffix length is fixed, which is the only reason the key boundary is
// recoverable: key bytes are not escaped.
const tsSuffixLen = 12

func EncodeTimestamp(ts hlc.Timestamp) []byte {
	buf := make([]byte, tsSuffixLen)
	binary.LittleEndian.PutUint64(buf[:8], ts.WallTime)
	binary.LittleEndian.PutUint32(buf[8:], ts.Logical)
	return buf
}

func DecodeTimestamp(buf []byte) (hlc.Timestamp, error) {
	if len(buf) != tsSuffixLen {
		return hlc.Timestamp{}, ErrKeyTooShort
	}
	return hlc.Timestamp{
		WallTime: binary.LittleEndian.Uint64(buf[:8]),
		Logical:  binary.LittleEndian.Uint32(buf[8:]),
	}, nil
}

func EncodeKey(k MVCCKey) []byte {
	buf := make([]byte, len(k.Key)+tsSuffixLen)
	copy(buf, k.Key)
	binary.LittleEndian.PutUint64(buf[len(k.Key):], k.Timestamp.WallTime)
	binary.LittleEndian.PutUint32(buf[len(k.Key)+8:], k.Timestamp.Logical)
	return buf
}

func DecodeKey(buf []byte) (MVCCKey, error) {
	if len(buf) < tsSuffixLen {
		return MVCCKey{}, ErrKeyTooShort
	}
	split := len(buf) - tsSuffixLen
	ts, err := DecodeTimestamp(buf[split:])
	if err != nil {
		return MVCCKey{}, err
	}
	return MVCCKey{Key: buf[:split], Timestamp: ts}, nil
}

// Compare is the physical key order: user key bytes lexicographically, then
// the intent slot first, then non-intent versions by descending timestamp.
// The little-endian suffix does not byte-sort numerically, so both
// timestamps are decoded and compared as numbers.
func Compare(a, b []byte) int {
	if len(a) < tsSuffixLen || len(b) < tsSuffixLen {
		// not encoded MVCC keys; fall back to raw ordering
		return bytes.Compare(a, b)
	}

	aSplit := len(a) - tsSuffixLen
	bSplit := len(b) - tsSuffixLen
	if c := bytes.Compare(a[:aSplit], b[:bSplit]); c != 0 {
		return c
	}

	aTs, _ := DecodeTimestamp(a[aSplit:])
	bTs, _ := DecodeTimestamp(b[bSplit:])
	switch {
	case aTs.IsEmpty() && bTs.IsEmpty():
		return 0
	case aTs.IsEmpty():
		return -1
	case bTs.IsEmpty():
		return 1
	}
	// newer versions sort before older ones
	return bTs.Compare(aTs)
}
