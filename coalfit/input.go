package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/estimate"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/likelihood"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/popmodel"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/segment"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/tree"
)

// treeInput is a tree file with the host assignment options.
type treeInput struct {
	file  *string
	hosts *map[string]string
	class *bool
}

func addTreeInput(cmd *kingpin.CmdClause) *treeInput {
	return &treeInput{
		hosts: cmd.Flag("host", "assign leaves with a name or a name prefix (before '_') to a host, "+
			"e.g. --host D=0 --host R=1").Short('H').StringMap(),
		class: cmd.Flag("class", "read hosts from #N leaf labels").Bool(),
		file:  cmd.Arg("tree", "tree file (newick, optionally followed by 'name host' lines)").Required().ExistingFile(),
	}
}

// read reads the tree and applies the host assignment.
func (in *treeInput) read() *tree.Tree {
	f, err := os.Open(*in.file)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	t, fileHosts, err := tree.ParseSimulatorFile(f)
	if err != nil {
		log.Fatal("Error reading tree:", err)
	}
	if fileHosts != nil {
		log.Infof("Read hosts for %d leaves", len(fileHosts))
	}
	if *in.class {
		t.SetHostsFromClass()
	}
	if len(*in.hosts) > 0 {
		hosts, err := parseHosts(*in.hosts)
		if err != nil {
			log.Fatal(err)
		}
		t.SetHosts(hosts)
	}
	log.Infof("Tree with %d leaves, root time %g", t.NLeaves(), t.Time())
	if t.HasHosts() {
		log.Debug(t.HostString())
	} else {
		log.Debug(t)
	}
	return t
}

// readTrees reads a file with one newick tree per line.
func readTrees(fn string) []*tree.Tree {
	f, err := os.Open(fn)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	trees, err := tree.ReadTrees(f)
	if err != nil {
		log.Fatal("Error reading trees:", err)
	}
	if len(trees) == 0 {
		log.Fatal("No trees in", fn)
	}
	log.Infof("Read %d trees", len(trees))
	return trees
}

func parseHosts(m map[string]string) (map[string]int, error) {
	hosts := make(map[string]int, len(m))
	for name, s := range m {
		h, err := strconv.Atoi(s)
		if err != nil || h < 0 {
			return nil, fmt.Errorf("bad host %q for %s", s, name)
		}
		hosts[name] = h
	}
	return hosts, nil
}

// parseParams converts name=value flags to parameters.
func parseParams(m map[string]string) (popmodel.Params, error) {
	p := make(popmodel.Params, len(m))
	for name, s := range m {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %v", name, err)
		}
		p[name] = v
	}
	return p, nil
}

// splitTransmissionParams separates donor.*, recipient.* and T
// values. T is NaN if not set.
func splitTransmissionParams(p popmodel.Params) (dp, rp popmodel.Params, T float64, err error) {
	dp = make(popmodel.Params)
	rp = make(popmodel.Params)
	T = math.NaN()
	for _, name := range p.Names() {
		h, pname, err := likelihood.SplitHostParameter(name)
		if err != nil {
			return nil, nil, 0, err
		}
		switch h {
		case -1:
			T = p[name]
		case segment.Donor:
			dp[pname] = p[name]
		case segment.Recipient:
			rp[pname] = p[name]
		}
	}
	return dp, rp, T, nil
}

// parseRange parses a ranged profile parameter: name=min:max:n for a
// linear grid, name=min:max:n:log for a logarithmic one and
// name=v1,v2,... for explicit values.
func parseRange(s string) (r estimate.Ranged, err error) {
	i := strings.Index(s, "=")
	if i <= 0 {
		return r, fmt.Errorf("range %q should be name=min:max:n[:log] or name=v1,v2,...", s)
	}
	r.Name = s[:i]
	grid := s[i+1:]
	if !strings.Contains(grid, ":") {
		for _, f := range strings.Split(grid, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return r, fmt.Errorf("range %s: %v", r.Name, err)
			}
			r.Values = append(r.Values, v)
		}
		return r, nil
	}
	fields := strings.Split(grid, ":")
	if len(fields) < 3 || len(fields) > 4 {
		return r, fmt.Errorf("range %q should be name=min:max:n[:log]", s)
	}
	if r.Min, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return r, fmt.Errorf("range %s: %v", r.Name, err)
	}
	if r.Max, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return r, fmt.Errorf("range %s: %v", r.Name, err)
	}
	if r.N, err = strconv.Atoi(fields[2]); err != nil {
		return r, fmt.Errorf("range %s: %v", r.Name, err)
	}
	if len(fields) == 4 {
		if fields[3] != "log" {
			return r, fmt.Errorf("range %s: unknown scale %q", r.Name, fields[3])
		}
		r.Log = true
	}
	return r, nil
}

// lookupFamily finds a model family or exits.
func lookupFamily(name string) *popmodel.Family {
	f, err := popmodel.LookupFamily(name)
	if err != nil {
		log.Fatal(err)
	}
	return f
}

// newTable creates a borderless table printed to stdout.
func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	return tbl
}

// paramRow formats parameters in a fixed name order.
func paramRow(p popmodel.Params, names []string) table.Row {
	row := make(table.Row, len(names))
	for i, name := range names {
		if v, ok := p[name]; ok {
			row[i] = fmt.Sprintf("%.6g", v)
		}
	}
	return row
}

func header(names ...string) table.Row {
	row := make(table.Row, len(names))
	for i, name := range names {
		row[i] = name
	}
	return row
}
