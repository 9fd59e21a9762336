package scaffold

// disjointSet is a union-find over path indices. Each root carries the
// summed length of its members.
type disjointSet struct {
	parent []int
	size   []int
	length []int64
}

func newDisjointSet(lengths []int64) *disjointSet {
	n := len(lengths)
	d := &disjointSet{
		parent: make([]int, n),
		size:   make([]int, n),
		length: append([]int64(nil), lengths...),
	}
	for i := range d.parent {
		d.parent[i] = i
		d.size[i] = 1
	}
	return d
}

func (d *disjointSet) find(i int) int {
	root := i
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[i] != root {
		d.parent[i], i = root, d.parent[i]
	}
	return root
}

// union merges the sets of i and j and reports whether they were distinct.
func (d *disjointSet) union(i, j int) bool {
	ri, rj := d.find(i), d.find(j)
	if ri == rj {
		return false
	}
	if d.size[ri] < d.size[rj] {
		ri, rj = rj, ri
	}
	d.parent[rj] = ri
	d.size[ri] += d.size[rj]
	d.length[ri] += d.length[rj]
	return true
}

// flatten points every element directly at its root, after which find
// never writes.
func (d *disjointSet) flatten() {
	for i := range d.parent {
		d.find(i)
	}
}
