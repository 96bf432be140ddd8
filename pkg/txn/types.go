package txn

import (
	"errors"

	"github.com/arjunsk/halleykv/pkg/hlc"
	"github.com/google/uuid"
)

// Meta identifies the transaction that owns a write intent.
type Meta struct {
	ID             uuid.UUID     `json:"txn_id"`
	WriteTimestamp hlc.Timestamp `json:"write_timestamp"`
}

// Txn is a live transaction handle. Reads run at ReadTimestamp, writes are
// stamped with Meta.WriteTimestamp.
type Txn struct {
	Meta          Meta
	ReadTimestamp hlc.Timestamp
}

func New(id uuid.UUID, readTs, writeTs hlc.Timestamp) *Txn {
	return &Txn{
		Meta:          Meta{ID: id, WriteTimestamp: writeTs},
		ReadTimestamp: readTs,
	}
}

func (t *Txn) ID() uuid.UUID {
	return t.Meta.ID
}

type Status int

const (
	Pending Status = iota
	Committed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Record is the durable state of one transaction.
type Record struct {
	Meta   Meta
	Status Status
}

// StatusSource resolves a transaction id to its current status. The MVCC core
// consults it when a write runs into another transaction's intent.
type StatusSource interface {
	Status(id uuid.UUID) (Status, error)
}

var (
	ErrTxnNotFound  = errors.New("txn: no record for transaction id")
	ErrTxnFinalized = errors.New("txn: transaction already committed or aborted")
)
