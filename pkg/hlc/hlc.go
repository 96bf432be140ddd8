package hlc

import (
	"fmt"
	"sync"
	"time"
)

// Timestamp is a hybrid logical clock reading. Ordering is WallTime first,
// Logical second. The zero value is reserved: it marks the intent slot of a
// key and is never handed out by a Clock.
type Timestamp struct {
	WallTime uint64 `json:"wall_time"`
	Logical  uint32 `json:"logical_time"`
}

func New(wallTime uint64, logical uint32) Timestamp {
	return Timestamp{WallTime: wallTime, Logical: logical}
}

func (t Timestamp) IsEmpty() bool {
	return t.WallTime == 0 && t.Logical == 0
}

func (t Timestamp) Compare(o Timestamp) int {
	if t.WallTime != o.WallTime {
		if t.WallTime < o.WallTime {
			return -1
		}
		return 1
	}
	if t.Logical != o.Logical {
		if t.Logical < o.Logical {
			return -1
		}
		return 1
	}
	return 0
}

func (t Timestamp) Less(o Timestamp) bool {
	return t.Compare(o) < 0
}

func (t Timestamp) LessEq(o Timestamp) bool {
	return t.Compare(o) <= 0
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d,%d", t.WallTime, t.Logical)
}

// Clock hands out timestamps for writes that don't carry an explicit one.
type Clock interface {
	Now() Timestamp
}

// HLC is a wall-clock backed Clock. Readings are strictly increasing: when
// the wall clock does not advance between calls, the logical counter does.
type HLC struct {
	mu   sync.Mutex
	last Timestamp
}

var _ Clock = new(HLC)

func NewHLC() *HLC {
	return &HLC{}
}

func (c *HLC) Now() Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()

	wall := uint64(time.Now().UnixNano())
	if wall > c.last.WallTime {
		c.last = Timestamp{WallTime: wall}
	} else {
		c.last.Logical++
	}
	return c.last
}

// Manual is a settable Clock for deterministic tests.
type Manual struct {
	mu  sync.Mutex
	cur Timestamp
}

var _ Clock = new(Manual)

func NewManual(wallTime uint64) *Manual {
	return &Manual{cur: Timestamp{WallTime: wallTime}}
}

func (m *Manual) Now() Timestamp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

func (m *Manual) Set(t Timestamp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = t
}

func (m *Manual) Advance(step uint64) Timestamp {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur.WallTime += step
	return m.cur
}
