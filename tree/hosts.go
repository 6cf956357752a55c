package tree

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNoMixedNode is returned when no node has descendant
	// leaves from more than one host.
	ErrNoMixedNode = errors.New("there are no mixed nodes on the tree")
	// ErrHostsIncomplete is returned when there is no point where
	// all the hosts are infected.
	ErrHostsIncomplete = errors.New("could not find any point where all hosts were infected")
	// ErrNoHosts is returned by host queries on a tree without
	// host assignment.
	ErrNoHosts = errors.New("hosts are not assigned")
)

// HostKey returns the host lookup key derived from a leaf name:
// the part before the first underscore ("D_3" -> "D").
func HostKey(name string) string {
	if i := strings.Index(name, "_"); i >= 0 {
		return name[:i]
	}
	return name
}

// SetHosts assigns leaf hosts from a map. The full leaf name is tried
// first, then the name prefix (see HostKey). Leaves which are not
// found get NoHost and a warning is logged.
func (t *Tree) SetHosts(hosts map[string]int) {
	for _, node := range t.Terminals() {
		if h, ok := hosts[node.Name]; ok {
			node.Host = h
			continue
		}
		if h, ok := hosts[HostKey(node.Name)]; ok {
			node.Host = h
			continue
		}
		log.Warningf("no host for leaf %q (key %q), using %d", node.Name, HostKey(node.Name), NoHost)
		node.Host = NoHost
	}
	t.propagateHosts()
}

// SetHostsFromClass uses newick class labels (name#host) as leaf
// hosts.
func (t *Tree) SetHostsFromClass() {
	for _, node := range t.Terminals() {
		node.Host = node.Class
	}
	t.propagateHosts()
}

// propagateHosts sets internal node hosts: the host shared by all the
// descendant leaves or MixedHost.
func (t *Tree) propagateHosts() {
	for _, id := range t.NodeOrder() {
		node := &t.nodes[id]
		host := t.nodes[node.Children[0]].Host
		for _, child := range node.Children[1:] {
			if t.nodes[child].Host != host {
				host = MixedHost
			}
		}
		node.Host = host
	}
	t.hostsSet = true
}

// HasHosts returns true if hosts were assigned.
func (t *Tree) HasHosts() bool {
	return t.hostsSet
}

// LeafHosts returns the leaf hosts in traversal (preorder) order.
func (t *Tree) LeafHosts() []int {
	hosts := make([]int, 0, t.nLeaves)
	for _, node := range t.Terminals() {
		hosts = append(hosts, node.Host)
	}
	return hosts
}

// HostSet returns the distinct leaf hosts, sorted.
func (t *Tree) HostSet() []int {
	seen := make(map[int]bool)
	var res []int
	for _, h := range t.LeafHosts() {
		if !seen[h] {
			seen[h] = true
			res = append(res, h)
		}
	}
	sort.Ints(res)
	return res
}

// AllHostsInfectedTime scans the leaves from the oldest to the most
// recent one and returns the time of the leaf which completes the
// host set.
func (t *Tree) AllHostsInfectedTime() (float64, error) {
	if !t.hostsSet {
		return 0, ErrNoHosts
	}
	leaves := t.Terminals()
	sort.SliceStable(leaves, func(i, j int) bool {
		return leaves[i].Time > leaves[j].Time
	})
	all := len(t.HostSet())
	soFar := make(map[int]bool, all)
	for _, leaf := range leaves {
		soFar[leaf.Host] = true
		if len(soFar) == all {
			return leaf.Time, nil
		}
	}
	return 0, ErrHostsIncomplete
}

// MixedNodes returns all nodes with descendant leaves from more than
// one host.
func (t *Tree) MixedNodes() []*Node {
	return t.Walk(func(n *Node) bool {
		return n.Host == MixedHost
	})
}

// MostRecentMixedNode returns the mixed node with the smallest time
// which is not more recent than AllHostsInfectedTime.
func (t *Tree) MostRecentMixedNode() (*Node, error) {
	latest, err := t.AllHostsInfectedTime()
	if err != nil {
		return nil, err
	}
	mixed := t.MixedNodes()
	if len(mixed) == 0 {
		return nil, ErrNoMixedNode
	}
	var recent *Node
	for _, node := range mixed {
		if node.Time < latest {
			continue
		}
		if recent == nil || node.Time < recent.Time {
			recent = node
		}
	}
	if recent == nil {
		// the root always covers every leaf
		return t.Root(), nil
	}
	return recent, nil
}

// TransmissionWindow returns the interval of transmission times
// compatible with the host labels: from the time all hosts are
// infected to the most recent mixed node.
func (t *Tree) TransmissionWindow() (low, high float64, err error) {
	low, err = t.AllHostsInfectedTime()
	if err != nil {
		return
	}
	node, err := t.MostRecentMixedNode()
	if err != nil {
		return
	}
	return low, node.Time, nil
}
