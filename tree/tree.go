// Package tree implements time-annotated phylogenetic trees.
//
// Nodes are stored in an arena and addressed by their index (ID),
// which is the preorder position of the node in the Newick string.
// Every node carries a derived absolute time: tips sampled at the
// present have time 0 and the root has the largest time.
package tree

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("tree")

type Mode int

const (
	NORMAL Mode = iota
	LENGTH
	CLASS
)

const (
	// NoHost is assigned to leaves whose host could not be
	// determined.
	NoHost = -1
	// MixedHost is assigned to internal nodes with descendant
	// leaves from more than one host.
	MixedHost = -2
)

// timeEpsilon absorbs floating point noise in summed branch lengths.
const timeEpsilon = 1e-9

// ParseError is returned for malformed tree text.
type ParseError struct {
	Token int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("newick parse error at token %d: %s", e.Token, e.Msg)
}

type Node struct {
	ID           int
	Name         string
	BranchLength float64
	// Parent is -1 for the root.
	Parent   int
	Children []int
	LeafID   int
	Class    int
	Host     int
	// Time is the distance from the node to the most distant tip
	// level; it grows towards the root.
	Time float64
	// Stub marks leaves created by SplitAtTime.
	Stub bool
}

func (node *Node) IsRoot() bool {
	return node.Parent < 0
}

func (node *Node) IsTerminal() bool {
	return len(node.Children) == 0
}

func (node *Node) LongString() (s string) {
	s = "<"
	if node.IsRoot() {
		s += "root, "
	}
	if node.Name != "" {
		s += "name=" + node.Name + ", "
	}
	s += fmt.Sprintf("ID=%v, BranchLength=%v, Time=%v", node.ID, node.BranchLength, node.Time)
	if node.IsTerminal() {
		s += fmt.Sprintf(", LeafID=%v", node.LeafID)
	}
	if node.Host != NoHost {
		s += fmt.Sprintf(", Host=%v", node.Host)
	}
	if node.Class != 0 {
		s += fmt.Sprintf(", Class=%v", node.Class)
	}
	s += ">"
	return
}

// Tree is a rooted tree stored as a node arena. The root is always
// node 0.
type Tree struct {
	nodes     []Node
	nodeOrder []int
	nLeaves   int
	hostsSet  bool
}

// newTree finalizes an arena: it fills leaf ids and node times.
func newTree(nodes []Node) *Tree {
	t := &Tree{nodes: nodes}
	leafID := 0
	for i := range t.nodes {
		if t.nodes[i].IsTerminal() {
			t.nodes[i].LeafID = leafID
			leafID++
		} else {
			t.nodes[i].LeafID = -1
		}
	}
	t.nLeaves = leafID
	t.populateTimes()
	return t
}

// populateTimes sets node time to the maximum root-to-tip distance
// minus the node root distance. The root branch length is not part
// of any root distance.
func (t *Tree) populateTimes() {
	dist := make([]float64, len(t.nodes))
	maxDist := 0.0
	// preorder: parents precede children
	for i := range t.nodes {
		node := &t.nodes[i]
		if !node.IsRoot() {
			dist[i] = dist[node.Parent] + node.BranchLength
		}
		if dist[i] > maxDist {
			maxDist = dist[i]
		}
	}
	for i := range t.nodes {
		tm := maxDist - dist[i]
		if math.Abs(tm) < timeEpsilon {
			tm = 0
		}
		t.nodes[i].Time = tm
	}
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return &t.nodes[0]
}

// Node returns the node with a given id.
func (t *Tree) Node(id int) *Node {
	return &t.nodes[id]
}

// Time is the time of the root.
func (t *Tree) Time() float64 {
	return t.nodes[0].Time
}

func (t *Tree) NNodes() int {
	return len(t.nodes)
}

func (t *Tree) NLeaves() int {
	return t.nLeaves
}

// Walk returns nodes in preorder, keeping only the ones accepted by
// the filter (all of them if filter is nil).
func (t *Tree) Walk(filter func(*Node) bool) []*Node {
	res := make([]*Node, 0, len(t.nodes))
	for i := range t.nodes {
		if filter == nil || filter(&t.nodes[i]) {
			res = append(res, &t.nodes[i])
		}
	}
	return res
}

func (t *Tree) Terminals() []*Node {
	return t.Walk(func(n *Node) bool {
		return n.IsTerminal()
	})
}

func (t *Tree) NonTerminals() []*Node {
	return t.Walk(func(n *Node) bool {
		return !n.IsTerminal()
	})
}

// NodeOrder returns internal node ids so that every node comes after
// all its descendants.
func (t *Tree) NodeOrder() []int {
	if t.nodeOrder == nil {
		t.nodeOrder = make([]int, 0, len(t.nodes)-t.nLeaves)
		// reverse preorder visits children before parents
		for i := len(t.nodes) - 1; i >= 0; i-- {
			if !t.nodes[i].IsTerminal() {
				t.nodeOrder = append(t.nodeOrder, i)
			}
		}
	}
	return t.nodeOrder
}

// Copy creates independent copy of the tree.
func (t *Tree) Copy() *Tree {
	nodes := make([]Node, len(t.nodes))
	copy(nodes, t.nodes)
	for i := range nodes {
		nodes[i].Children = append([]int(nil), t.nodes[i].Children...)
	}
	return &Tree{
		nodes:    nodes,
		nLeaves:  t.nLeaves,
		hostsSet: t.hostsSet,
	}
}

// TotalLength returns the sum of all branch lengths including the
// root branch.
func (t *Tree) TotalLength() (l float64) {
	for i := range t.nodes {
		l += t.nodes[i].BranchLength
	}
	return
}

// RootDistance returns the distance from the root to the node.
func (t *Tree) RootDistance(id int) (d float64) {
	for n := &t.nodes[id]; !n.IsRoot(); n = &t.nodes[n.Parent] {
		d += n.BranchLength
	}
	return
}

func (t *Tree) String() string {
	return t.subString(0, false) + ";"
}

// HostString returns newick with hosts as class labels.
func (t *Tree) HostString() string {
	return t.subString(0, true) + ";"
}

func (t *Tree) subString(id int, hosts bool) (s string) {
	node := &t.nodes[id]
	if !node.IsTerminal() {
		s += "("
		for i, child := range node.Children {
			s += t.subString(child, hosts)
			if i != len(node.Children)-1 {
				s += ","
			}
		}
		s += ")"
	}
	s += node.Name
	if hosts && node.IsTerminal() && node.Host >= 0 {
		s += fmt.Sprintf("#%d", node.Host)
	}
	s += fmt.Sprintf(":%0.6f", node.BranchLength)
	return s
}

func (t *Tree) FullString() string {
	return strings.TrimSpace(t.prefixString(0, ""))
}

func (t *Tree) prefixString(id int, prefix string) (s string) {
	s = prefix + t.nodes[id].LongString() + "\n"
	for _, child := range t.nodes[id].Children {
		s += t.prefixString(child, prefix+"    ")
	}
	return
}

func IsSpecial(c rune) bool {
	switch c {
	case '(', ')', ':', '#', ';', ',':
		return true
	}
	return false

}

func NewickSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	// Skip leading spaces; and return 1-char tokens.
	for width := 0; start < len(data); start += width {
		var r rune
		r, width = utf8.DecodeRune(data[start:])
		if IsSpecial(r) {
			return start + width, data[start : start+width], nil
		}
		if !unicode.IsSpace(r) {
			break
		}
	}
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// Scan until space or special character.
	for width, i := 0, start; i < len(data); i += width {
		var r rune
		r, width = utf8.DecodeRune(data[i:])
		if unicode.IsSpace(r) || IsSpecial(r) {
			return i, data[start:i], nil
		}
	}
	// If we're at EOF, we have a final, non-empty, non-terminated word. Return it.
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	// Request more data.
	return 0, nil, nil
}

// ParseNewick reads a single bifurcating tree with branch lengths.
// Host labels may be given with the class syntax (name#host); they
// are kept in Node.Class until SetHostsFromClass is called.
func ParseNewick(rd io.Reader) (*Tree, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Split(NewickSplit)

	nodes := []Node{{Parent: -1, Host: NoHost}}
	hasLength := []bool{false}
	node := 0

	addChild := func(parent int) int {
		id := len(nodes)
		nodes = append(nodes, Node{ID: id, Parent: parent, Host: NoHost})
		nodes[parent].Children = append(nodes[parent].Children, id)
		hasLength = append(hasLength, false)
		return id
	}

	mode := NORMAL
	tok := 0
	closed := false

	for scanner.Scan() {
		text := scanner.Text()
		tok++
		if mode != NORMAL && IsSpecial([]rune(text)[0]) {
			return nil, &ParseError{tok, fmt.Sprintf("expected value, got %q", text)}
		}
		switch text {
		case "(":
			node = addChild(node)
		case ",":
			if nodes[node].IsRoot() {
				return nil, &ParseError{tok, "top level comma mismatch"}
			}
			node = addChild(nodes[node].Parent)
		case ")":
			if nodes[node].IsRoot() {
				return nil, &ParseError{tok, "brackets mismatch"}
			}
			node = nodes[node].Parent
		case "#":
			mode = CLASS
		case ":":
			mode = LENGTH
		case ";":
			if !nodes[node].IsRoot() {
				return nil, &ParseError{tok, "brackets mismatch"}
			}
			closed = true
		default:
			switch mode {
			case LENGTH:
				l, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, &ParseError{tok, err.Error()}
				}
				if l < 0 || math.IsNaN(l) || math.IsInf(l, 0) {
					return nil, &ParseError{tok, fmt.Sprintf("invalid branch length %v", text)}
				}
				nodes[node].BranchLength = l
				hasLength[node] = true
				mode = NORMAL
			case CLASS:
				cl, err := strconv.ParseInt(text, 0, 0)
				if err != nil {
					return nil, &ParseError{tok, err.Error()}
				}
				nodes[node].Class = int(cl)
				mode = NORMAL
			default:
				nodes[node].Name = text
			}
		}
		if closed {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !closed {
		return nil, &ParseError{tok, "missing terminating ';'"}
	}

	// The arena was filled in preorder already, ids match positions.
	for i := range nodes {
		switch {
		case len(nodes[i].Children) == 1:
			return nil, &ParseError{tok, fmt.Sprintf("node %d has a single child", i)}
		case len(nodes[i].Children) > 2:
			return nil, &ParseError{tok, fmt.Sprintf("node %d is not bifurcating (%d children)", i, len(nodes[i].Children))}
		}
		if i != 0 && !hasLength[i] {
			return nil, &ParseError{tok, fmt.Sprintf("node %d has no branch length", i)}
		}
	}
	if len(nodes) == 1 {
		return nil, &ParseError{tok, "tree has no branches"}
	}

	return newTree(nodes), nil
}

// New parses a tree from a string and assigns hosts if a host map
// is given (see SetHosts).
func New(newick string, hosts map[string]int) (*Tree, error) {
	t, err := ParseNewick(strings.NewReader(newick))
	if err != nil {
		return nil, err
	}
	if hosts != nil {
		t.SetHosts(hosts)
	}
	return t, nil
}
