package tree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseSimulatorFile reads the simulator output format: a newick tree
// on the first line, optionally followed by "name host" lines. If host
// lines are present they are applied to the tree and returned.
func ParseSimulatorFile(rd io.Reader) (*Tree, map[string]int, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var newick string
	for scanner.Scan() {
		newick = strings.TrimSpace(scanner.Text())
		if newick != "" {
			break
		}
	}
	if newick == "" {
		if err := scanner.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, &ParseError{0, "empty input"}
	}

	t, err := ParseNewick(strings.NewReader(newick))
	if err != nil {
		return nil, nil, err
	}

	var hosts map[string]int
	line := 1
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("line %d: expected \"name host\", got %q", line, scanner.Text())
		}
		h, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %v", line, err)
		}
		if hosts == nil {
			hosts = make(map[string]int)
		}
		hosts[fields[0]] = h
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if hosts != nil {
		t.SetHosts(hosts)
	}
	return t, hosts, nil
}

// ReadTrees reads one newick tree per non-empty line.
func ReadTrees(rd io.Reader) ([]*Tree, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	var trees []*Tree
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			continue
		}
		t, err := ParseNewick(strings.NewReader(s))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		trees = append(trees, t)
	}
	return trees, scanner.Err()
}
