package generator

import (
	"sync/atomic"

	"golang.org/x/exp/rand"
)

// Sequential walks ids from lb to ub and wraps around. Safe for
// concurrent callers.
type Sequential struct {
	lb, ub int64
	ctr    atomic.Int64
}

var _ Generator = new(Sequential)

func NewSequential(lb, ub int64) *Sequential {
	return &Sequential{lb: lb, ub: ub}
}

func (s *Sequential) Next(_ *rand.Rand) int64 {
	n := s.ctr.Add(1) - 1
	return s.lb + n%(s.ub-s.lb+1)
}
