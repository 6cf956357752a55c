package main

import (
	"fmt"
	"os"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/estimate"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/likelihood"
)

var (
	profileCmd     = app.Command("profile", "evaluate the log-likelihood on a grid of parameter values")
	profileModel   = profileCmd.Flag("model", "demographic model, overrides the surface file").Short('m').String()
	profileSurface = profileCmd.Flag("surface", "YAML surface description").ExistingFile()
	profilePar     = profileCmd.Flag("par", "fixed parameter value, e.g. --par N0=10").Short('p').StringMap()
	profileRange   = profileCmd.Flag("range", "ranged parameter, name=min:max:n, name=min:max:n:log or name=v1,v2,...").Short('r').Strings()
	profileBest    = profileCmd.Flag("best", "only print the best point").Bool()
	profileTree    = addTreeInput(profileCmd)
)

// ProfileSummary is the output of the profile command.
type ProfileSummary struct {
	Surface estimate.Surface `json:"surface"`
	Best    *estimate.Point  `json:"best,omitempty"`
	Points  []estimate.Point `json:"points"`
}

// surface combines the surface file with the command-line options.
func surface() estimate.Surface {
	var s estimate.Surface
	if *profileSurface != "" {
		f, err := os.Open(*profileSurface)
		if err != nil {
			log.Fatal(err)
		}
		sf, err := estimate.ReadSurface(f)
		f.Close()
		if err != nil {
			log.Fatal(err)
		}
		s = *sf
	}
	if *profileModel != "" {
		s.Model = *profileModel
	}
	if s.Model == "" {
		s.Model = "constant"
	}
	p, err := parseParams(*profilePar)
	if err != nil {
		log.Fatal(err)
	}
	for _, name := range p.Names() {
		s.Fixed = append(s.Fixed, estimate.Fixed{Name: name, Value: p[name]})
	}
	for _, rs := range *profileRange {
		r, err := parseRange(rs)
		if err != nil {
			log.Fatal(err)
		}
		s.Ranged = append(s.Ranged, r)
	}
	return s
}

func runProfile() interface{} {
	t := profileTree.read()
	s := surface()
	f := lookupFamily(s.Model)

	e := likelihood.NewEngine(t, *tolerance)
	points, err := estimate.Profile(e, f, s)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Evaluated %d points", len(points))
	summary := &ProfileSummary{Surface: s, Points: points}

	best, ok := estimate.Best(points)
	if ok {
		log.Noticef("Best point %v: lnL=%v", best.Params, best.LnL)
		summary.Best = &best
	} else {
		log.Warning("No point with a finite likelihood")
	}

	show := points
	if *profileBest {
		show = nil
		if ok {
			show = []estimate.Point{best}
		}
	}
	names := f.Params
	tbl := newTable()
	tbl.AppendHeader(append(header(names...), "lnL"))
	for _, p := range show {
		tbl.AppendRow(append(paramRow(p.Params, names), fmt.Sprintf("%.6f", p.LnL)))
	}
	tbl.Render()
	return summary
}
