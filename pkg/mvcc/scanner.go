package mvcc

import (
	"bytes"

	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/arjunsk/halleykv/pkg/hlc"
	"github.com/arjunsk/halleykv/pkg/txn"
)

// KeyValue is one visible version in a scan result.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Intent is a provisional write discovered while scanning. The scan reports
// it and keeps going; resolving the owner is the caller's business.
type Intent struct {
	Key   []byte
	Meta  txn.Meta
	Value []byte
}

type ScanResult struct {
	Results []KeyValue
	Intents []Intent
}

type ScanOptions struct {
	// MaxResults caps len(Results); 0 means unlimited. Intents don't count
	// against the cap.
	MaxResults int
	// Txn is the reading transaction, if any. The scanner itself ignores it;
	// Get uses it to claim its own intent.
	Txn *txn.Txn
}

// Scan returns, for every key in [start, end), the newest version visible at
// ts, plus every intent it walked over. A nil end bounds the scan to start
// itself. Read-only: the engine is never written.
func Scan(eng engine.Engine, start, end []byte, ts hlc.Timestamp, opts ScanOptions) (ScanResult, error) {
	s := scanner{
		it:         NewIter(eng),
		start:      start,
		end:        end,
		ts:         ts,
		maxResults: opts.MaxResults,
	}
	defer s.it.Release()
	return s.scan()
}

type scanner struct {
	it         *Iter
	start, end []byte
	ts         hlc.Timestamp
	maxResults int

	res ScanResult
}

func (s *scanner) scan() (ScanResult, error) {
	// 1. Seek to the intent slot of start: intents sort first for a key, so
	// nothing relevant to start can precede this position.
	s.it.SeekGE(IntentKey(s.start))

	for {
		// 2. Stop on limit, exhaustion, or leaving the range.
		if s.maxResults > 0 && len(s.res.Results) >= s.maxResults {
			break
		}
		if !s.it.Valid() {
			break
		}
		cur := s.it.Key()
		if s.end == nil {
			if bytes.Compare(cur.Key, s.start) > 0 {
				break
			}
		} else if bytes.Compare(cur.Key, s.end) >= 0 {
			break
		}

		// 3. Intent slot: record it and keep scanning this key's versions.
		if cur.IsIntent() {
			uv, err := DecodeUncommitted(s.it.Value())
			if err != nil {
				return s.res, err
			}
			s.res.Intents = append(s.res.Intents, Intent{
				Key:   append([]byte(nil), cur.Key...),
				Meta:  uv.Meta,
				Value: uv.Value,
			})
			s.it.Next()
			continue
		}

		// 4. Version record: visible iff its timestamp <= the read timestamp.
		if cur.Timestamp.LessEq(s.ts) {
			s.res.Results = append(s.res.Results, KeyValue{
				Key:   append([]byte(nil), cur.Key...),
				Value: s.it.Value(),
			})
			// older versions of this key can't matter anymore
			s.advancePastKey(cur.Key)
			continue
		}

		// too new; the next record is either an older version of the same
		// key (re-evaluate) or the next key's intent slot
		s.it.Next()
	}

	return s.res, s.it.Err()
}

// advancePastKey steps the cursor to the first record of a different key.
func (s *scanner) advancePastKey(key []byte) {
	for s.it.Valid() && bytes.Equal(s.it.Key().Key, key) {
		s.it.Next()
	}
}
