package generator

import "golang.org/x/exp/rand"

// Generator produces the next key id of a workload distribution.
type Generator interface {
	Next(r *rand.Rand) int64
}
