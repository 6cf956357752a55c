package tree

import (
	"math"
	"sort"
)

// LineagesAt returns the number of branches present at time tm. A
// branch is present from the time of its lower node (included) to the
// time of its parent (excluded). The root branch is not counted.
func (t *Tree) LineagesAt(tm float64) (k int) {
	for i := range t.nodes {
		node := &t.nodes[i]
		if node.IsRoot() {
			continue
		}
		if node.Time <= tm && tm < t.nodes[node.Parent].Time {
			k++
		}
	}
	return
}

// CoalescenceTimes returns the sorted times of the internal nodes.
func (t *Tree) CoalescenceTimes() []float64 {
	times := make([]float64, 0, len(t.nodes)-t.nLeaves)
	for _, node := range t.NonTerminals() {
		times = append(times, node.Time)
	}
	sort.Float64s(times)
	return times
}

// SamplingGroups clusters leaf times: sorted times closer than tol to
// the first time of a group belong to that group. The first time of
// every group is returned.
func (t *Tree) SamplingGroups(tol float64) []float64 {
	times := make([]float64, 0, t.nLeaves)
	for _, node := range t.Terminals() {
		times = append(times, node.Time)
	}
	sort.Float64s(times)
	var groups []float64
	for _, tm := range times {
		if len(groups) == 0 || math.Abs(tm-groups[len(groups)-1]) > tol {
			groups = append(groups, tm)
		}
	}
	return groups
}

// ClosestParent returns the internal node with the smallest time which
// is larger than tm. The root is returned if there is no such node.
func (t *Tree) ClosestParent(tm float64) *Node {
	closest := t.Root()
	for _, node := range t.NonTerminals() {
		if node.Time > tm && node.Time < closest.Time {
			closest = node
		}
	}
	return closest
}
