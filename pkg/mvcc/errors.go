package mvcc

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrKeyTooShort reports a physical key without a full timestamp suffix.
	// It signals data corruption and is never retried.
	ErrKeyTooShort = errors.New("mvcc: encoded key shorter than timestamp suffix")

	// ErrNoTimestamp reports a non-transactional put with no timestamp.
	ErrNoTimestamp = errors.New("mvcc: put requires a timestamp or a transaction")
)

// WriteIntentError reports a conflicting intent owned by a still-pending
// transaction. The caller retries or resolves the owner; the core never
// retries on its own.
type WriteIntentError struct {
	Key   []byte
	TxnID uuid.UUID
}

func (e *WriteIntentError) Error() string {
	return fmt.Sprintf("mvcc: conflicting intent on %q held by txn %s", e.Key, e.TxnID)
}
