package mvcc

import (
	engine "github.com/arjunsk/halleykv/pkg/engine"
)

// Iter is a versioned cursor: it walks the engine's physical order and
// decodes each record back into (key, timestamp). A record that fails to
// decode invalidates the cursor and surfaces through Err.
type Iter struct {
	it    engine.Iterator
	cur   MVCCKey
	valid bool
	err   error
}

func NewIter(eng engine.Engine) *Iter {
	return &Iter{it: eng.NewIter()}
}

// SeekGE positions at the first record >= k in physical order.
func (i *Iter) SeekGE(k MVCCKey) bool {
	i.valid = i.it.Seek(EncodeKey(k))
	i.decode()
	return i.valid
}

func (i *Iter) Next() bool {
	if !i.valid {
		return false
	}
	i.valid = i.it.Next()
	i.decode()
	return i.valid
}

func (i *Iter) Valid() bool {
	return i.valid
}

func (i *Iter) Err() error {
	return i.err
}

// Key returns the decoded key of the current record.
func (i *Iter) Key() MVCCKey {
	return i.cur
}

func (i *Iter) Value() []byte {
	return i.it.Value()
}

func (i *Iter) Release() {
	i.it.Release()
	i.valid = false
}

func (i *Iter) decode() {
	if !i.valid {
		return
	}
	i.cur, i.err = DecodeKey(i.it.Key())
	if i.err != nil {
		i.valid = false
	}
}
