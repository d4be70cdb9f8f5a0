package utils

type Index []int

// NewRange returns the inclusive range [rmin, rmax]
func NewRange(rmin, rmax int) (r Index) {
	var (
		size = rmax - rmin + 1
	)
	if size < 0 {
		size = 0
	}
	r = make(Index, size)
	for i := range r {
		r[i] = i + rmin
	}
	return
}

// Product of the entries, the size of a tensor with these axis lengths
func (I Index) Product() (p int) {
	p = 1
	for _, v := range I {
		p *= v
	}
	return
}
