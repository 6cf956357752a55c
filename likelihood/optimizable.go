package likelihood

import (
	"fmt"
	"math"
	"strings"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/optimize"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/popmodel"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/segment"
)

// TransmissionParameter is the name of the transmission time
// parameter.
const TransmissionParameter = "T"

// newParameter creates an optimizer parameter for a model parameter.
// Positive parameters are optimized on the log scale.
func newParameter(v *float64, name string, f *popmodel.Family, pname string) optimize.FloatParameter {
	b := f.Bounds[pname]
	var par *optimize.BasicFloatParameter
	if f.Positive(pname) {
		par = optimize.NewLogFloatParameter(v, "log("+name+")")
		par.SetMin(math.Log(b.Min))
		par.SetMax(math.Log(b.Max))
	} else {
		par = optimize.NewBasicFloatParameter(v, name)
		par.SetMin(b.Min)
		par.SetMax(b.Max)
	}
	par.SetPriorFunc(optimize.UniformPrior(par.GetMin(), par.GetMax(), true, true))
	par.SetProposalFunc(optimize.NormalProposal(0.1))
	return par
}

// freeNames converts free parameter names to canonical ones.
func freeNames(f *popmodel.Family, free []string) ([]string, error) {
	seen := make(map[string]bool)
	res := make([]string, 0, len(free))
	for _, name := range free {
		c, err := f.Canonical(name)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			return nil, fmt.Errorf("parameter %s is free twice", c)
		}
		seen[c] = true
		res = append(res, c)
	}
	return res, nil
}

// SingleHost is the single-host likelihood of a model family as a
// function of some free parameters, the other parameters are fixed.
type SingleHost struct {
	engine *Engine
	family *popmodel.Family
	params popmodel.Params
	free   []string
	values []float64
	pars   optimize.FloatParameters
}

// NewSingleHost creates an optimizable likelihood. Starting values of
// the free parameters are taken from params (or defaults) and clamped
// to the family bounds.
func NewSingleHost(e *Engine, f *popmodel.Family, params popmodel.Params, free []string) (*SingleHost, error) {
	p, err := f.Resolve(params)
	if err != nil {
		return nil, err
	}
	names, err := freeNames(f, free)
	if err != nil {
		return nil, err
	}
	s := &SingleHost{
		engine: e,
		family: f,
		params: p,
		free:   names,
		values: make([]float64, len(names)),
	}
	for i, name := range names {
		s.values[i] = f.Clamp(name, p[name])
	}
	s.addParameters()
	return s, nil
}

func (s *SingleHost) addParameters() {
	s.pars = nil
	for i, name := range s.free {
		s.pars.Append(newParameter(&s.values[i], name, s.family, name))
	}
}

// GetFloatParameters returns the free parameters.
func (s *SingleHost) GetFloatParameters() optimize.FloatParameters {
	return s.pars
}

// Copy returns an independent copy.
func (s *SingleHost) Copy() optimize.Optimizable {
	c := &SingleHost{
		engine: s.engine,
		family: s.family,
		params: s.params,
		free:   s.free,
		values: append([]float64(nil), s.values...),
	}
	c.addParameters()
	return c
}

// Params returns all model parameters with the current free values.
func (s *SingleHost) Params() popmodel.Params {
	p := s.params.Clone()
	for i, name := range s.free {
		p[name] = s.values[i]
	}
	return p
}

// Free returns the canonical names of the free parameters.
func (s *SingleHost) Free() []string {
	return s.free
}

// Family returns the model family.
func (s *SingleHost) Family() *popmodel.Family {
	return s.family
}

// Likelihood returns the log-likelihood for the current values.
func (s *SingleHost) Likelihood() float64 {
	m, err := s.family.Model(s.Params())
	if err != nil {
		log.Error(err)
		return math.Inf(-1)
	}
	return s.engine.LogLikelihood(m)
}

// Transmission is the two-host likelihood as a function of some free
// parameters. Free parameters are named "T", "donor.<name>" and
// "recipient.<name>". If the recipient model has an infection time
// parameter I which is not given explicitly, it follows T.
type Transmission struct {
	engine   *Engine
	families [segment.NHosts]*popmodel.Family
	params   [segment.NHosts]popmodel.Params
	T        float64
	iFromT   bool
	free     []freeParameter
	values   []float64
	pars     optimize.FloatParameters
	low      float64
	high     float64
}

// freeParameter is a free parameter of a host, or T if host is -1.
type freeParameter struct {
	host int
	name string
}

func (p freeParameter) String() string {
	if p.host < 0 {
		return TransmissionParameter
	}
	return segment.HostName(p.host) + "." + p.name
}

// SplitHostParameter splits "donor.N" into the host and the parameter
// name. The host is -1 for T.
func SplitHostParameter(s string) (int, string, error) {
	if s == TransmissionParameter {
		return -1, s, nil
	}
	i := strings.Index(s, ".")
	if i < 0 {
		return 0, "", fmt.Errorf("parameter %q should be T, donor.<name> or recipient.<name>", s)
	}
	switch s[:i] {
	case "donor", "d":
		return segment.Donor, s[i+1:], nil
	case "recipient", "r":
		return segment.Recipient, s[i+1:], nil
	}
	return 0, "", fmt.Errorf("unknown host in parameter %q", s)
}

// NewTransmission creates an optimizable two-host likelihood.
// Transmission time bounds are the transmission window of the tree; if
// T is NaN the middle of the window is used.
func NewTransmission(e *Engine, donor, recipient *popmodel.Family, dp, rp popmodel.Params, T float64, free []string) (*Transmission, error) {
	low, high, err := e.Tree().TransmissionWindow()
	if err != nil {
		return nil, err
	}
	if math.IsNaN(T) {
		T = (low + high) / 2
	}
	t := &Transmission{
		engine:   e,
		families: [segment.NHosts]*popmodel.Family{donor, recipient},
		T:        T,
		low:      low,
		high:     high,
	}
	_, iSet := rp["I"]
	for h, p := range []popmodel.Params{dp, rp} {
		if t.params[h], err = t.families[h].Resolve(p); err != nil {
			return nil, fmt.Errorf("%s: %w", segment.HostName(h), err)
		}
	}
	if _, ok := t.params[segment.Recipient]["I"]; ok && !iSet {
		t.iFromT = true
	}

	seen := make(map[string]bool)
	for _, s := range free {
		h, name, err := SplitHostParameter(s)
		if err != nil {
			return nil, err
		}
		if h >= 0 {
			if name, err = t.families[h].Canonical(name); err != nil {
				return nil, fmt.Errorf("%s: %w", segment.HostName(h), err)
			}
		}
		fp := freeParameter{h, name}
		if seen[fp.String()] {
			return nil, fmt.Errorf("parameter %s is free twice", fp)
		}
		seen[fp.String()] = true
		if h == segment.Recipient && name == "I" {
			t.iFromT = false
		}
		t.free = append(t.free, fp)
		switch {
		case h < 0:
			t.values = append(t.values, math.Max(low, math.Min(high, T)))
		default:
			t.values = append(t.values, t.families[h].Clamp(name, t.params[h][name]))
		}
	}

	// structural problems are reported now rather than as -Inf later
	if _, err := t.engine.TransmissionLogLikelihood(t.current(), t.model(segment.Donor), t.model(segment.Recipient)); err != nil {
		return nil, err
	}
	t.addParameters()
	return t, nil
}

func (t *Transmission) addParameters() {
	t.pars = nil
	for i, fp := range t.free {
		if fp.host < 0 {
			par := optimize.NewBasicFloatParameter(&t.values[i], TransmissionParameter)
			par.SetMin(t.low)
			par.SetMax(t.high)
			if t.high > t.low {
				par.SetPriorFunc(optimize.UniformPrior(t.low, t.high, true, true))
			}
			par.SetProposalFunc(optimize.NormalProposal(math.Max((t.high-t.low)/20, 1e-6)))
			t.pars.Append(par)
			continue
		}
		t.pars.Append(newParameter(&t.values[i], fp.String(), t.families[fp.host], fp.name))
	}
}

// GetFloatParameters returns the free parameters.
func (t *Transmission) GetFloatParameters() optimize.FloatParameters {
	return t.pars
}

// Copy returns an independent copy.
func (t *Transmission) Copy() optimize.Optimizable {
	c := *t
	c.values = append([]float64(nil), t.values...)
	c.addParameters()
	return &c
}

// current returns the current transmission time.
func (t *Transmission) current() float64 {
	for i, fp := range t.free {
		if fp.host < 0 {
			return t.values[i]
		}
	}
	return t.T
}

// Params returns the parameters of a host with the current free values.
func (t *Transmission) Params(h int) popmodel.Params {
	p := t.params[h].Clone()
	for i, fp := range t.free {
		if fp.host == h {
			p[fp.name] = t.values[i]
		}
	}
	if h == segment.Recipient && t.iFromT {
		p["I"] = t.current()
	}
	return p
}

// TransmissionTime returns the current transmission time.
func (t *Transmission) TransmissionTime() float64 {
	return t.current()
}

// Window returns the admissible transmission time interval.
func (t *Transmission) Window() (low, high float64) {
	return t.low, t.high
}

// IFollowsT checks whether the recipient infection time is tied to
// the transmission time.
func (t *Transmission) IFollowsT() bool {
	return t.iFromT
}

// Free returns the free parameter names.
func (t *Transmission) Free() []string {
	res := make([]string, len(t.free))
	for i, fp := range t.free {
		res[i] = fp.String()
	}
	return res
}

func (t *Transmission) model(h int) popmodel.Model {
	m, err := t.families[h].Model(t.Params(h))
	if err != nil {
		// parameters were resolved at creation
		panic(err)
	}
	return m
}

// Likelihood returns the log-likelihood for the current values.
func (t *Transmission) Likelihood() float64 {
	l, err := t.engine.TransmissionLogLikelihood(t.current(), t.model(segment.Donor), t.model(segment.Recipient))
	if err != nil {
		log.Error(err)
		return math.Inf(-1)
	}
	return l
}
