package generator

type Distribution int

const (
	SEQUENTIAL Distribution = iota
	UNIFORM
)

func Build(dist Distribution, start, count int64) (keygen Generator) {

	lb := start
	ub := start + count - 1

	switch dist {
	case UNIFORM:
		keygen = NewUniform(lb, ub)
	case SEQUENTIAL:
		keygen = NewSequential(lb, ub)
	default:
		panic("unknown distribution")
	}

	return
}
