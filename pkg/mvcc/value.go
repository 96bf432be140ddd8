package mvcc

import (
	"encoding/json"
	"fmt"

	"github.com/arjunsk/halleykv/pkg/txn"
)

// UncommittedValue is what the intent slot stores: the provisional value plus
// the owning transaction's metadata.
type UncommittedValue struct {
	Value []byte   `json:"value"`
	Meta  txn.Meta `json:"txn_meta"`
}

func EncodeUncommitted(v UncommittedValue) ([]byte, error) {
	return json.Marshal(v)
}

func DecodeUncommitted(buf []byte) (UncommittedValue, error) {
	var v UncommittedValue
	if err := json.Unmarshal(buf, &v); err != nil {
		return UncommittedValue{}, fmt.Errorf("mvcc: corrupt uncommitted value: %w", err)
	}
	return v, nil
}
