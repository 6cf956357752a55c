package tree

import (
	"fmt"
)

// SplitAtTime cuts every branch which crosses time T. The part of the
// tree closer to the root is returned as before; each cut branch ends
// there in a Stub leaf, and before times are measured from the cut
// point. The detached subtrees are returned in after, with the
// remainder of the cut branch as their root branch; after[i] continues
// the i-th stub leaf of before in preorder.
func (t *Tree) SplitAtTime(T float64) (before *Tree, after []*Tree, err error) {
	if T <= 0 || T >= t.Time() {
		return nil, nil, fmt.Errorf("split time %v is outside of (0, %v)", T, t.Time())
	}

	bnodes := make([]Node, 0, len(t.nodes))
	var walk func(id, parent int)
	walk = func(id, parent int) {
		orig := t.nodes[id]
		nid := len(bnodes)
		n := orig
		n.ID = nid
		n.Parent = parent
		n.Children = nil
		bnodes = append(bnodes, n)
		if parent >= 0 {
			bnodes[parent].Children = append(bnodes[parent].Children, nid)
		}
		for _, child := range orig.Children {
			c := &t.nodes[child]
			if c.Time >= T {
				walk(child, nid)
				continue
			}
			// branch crosses T
			sid := len(bnodes)
			bnodes = append(bnodes, Node{
				ID:           sid,
				Name:         c.Name,
				BranchLength: orig.Time - T,
				Parent:       nid,
				Class:        c.Class,
				Host:         c.Host,
				Stub:         true,
			})
			bnodes[nid].Children = append(bnodes[nid].Children, sid)
			after = append(after, t.subtree(child, T-c.Time))
		}
	}
	walk(0, -1)

	before = newTree(bnodes)
	before.hostsSet = t.hostsSet
	if t.hostsSet {
		before.propagateHosts()
	}
	return before, after, nil
}

// subtree copies the clade rooted at id into a new tree with a given
// root branch length.
func (t *Tree) subtree(id int, rootLength float64) *Tree {
	nodes := make([]Node, 0)
	var walk func(id, parent int)
	walk = func(id, parent int) {
		n := t.nodes[id]
		nid := len(nodes)
		n.ID = nid
		n.Parent = parent
		n.Children = nil
		nodes = append(nodes, n)
		if parent >= 0 {
			nodes[parent].Children = append(nodes[parent].Children, nid)
		}
		for _, child := range t.nodes[id].Children {
			walk(child, nid)
		}
	}
	walk(id, -1)
	nodes[0].BranchLength = rootLength
	sub := newTree(nodes)
	sub.hostsSet = t.hostsSet
	return sub
}
