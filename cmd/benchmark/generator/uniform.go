package generator

import "golang.org/x/exp/rand"

// Uniform draws ids uniformly from [lb, ub].
type Uniform struct {
	lb, ub int64
}

var _ Generator = new(Uniform)

func NewUniform(lb, ub int64) *Uniform {
	return &Uniform{lb: lb, ub: ub}
}

func (u *Uniform) Next(r *rand.Rand) int64 {
	return u.lb + r.Int63n(u.ub-u.lb+1)
}
