package optimize

import (
	"fmt"
	"math"
)

const (
	TINY  = 1e-10
	SMALL = 1e-6
)

// DS is the downhill simplex (Nelder-Mead) maximizer. After
// convergence the simplex is rebuilt around the best point once more;
// the run stops when the restart does not improve the likelihood.
type DS struct {
	BaseOptimizer
	// Delta is the initial simplex size.
	Delta     float64
	ftol      float64
	repeat    bool
	oldL      float64
	points    []Optimizable
	psum      []float64
	pointPars []FloatParameters
	ls        []float64
	newOpt    Optimizable
	newPar    FloatParameters
}

func NewDS() (ds *DS) {
	ds = &DS{
		Delta: 1,
		ftol:  TINY,
	}
	ds.repPeriod = 10
	return
}

func (ds *DS) createSimplex(opt Optimizable, delta float64) {
	parameters := opt.GetFloatParameters()
	ds.points = make([]Optimizable, len(parameters)+1)
	ds.pointPars = make([]FloatParameters, len(ds.points))
	ds.ls = make([]float64, len(ds.points))
	ds.points[0] = opt
	ds.pointPars[0] = parameters
	for i := 1; i < len(ds.points); i++ {
		point := opt.Copy()
		ds.points[i] = point
		ds.pointPars[i] = point.GetFloatParameters()
	}
	for i := 0; i < len(parameters); i++ {
		parameter := ds.pointPars[i+1][i]
		v := parameter.Get() + delta
		if !parameter.ValueInRange(v) {
			v = parameter.Get() - delta
		}
		parameter.Set(v)
	}
	for i := range ds.points {
		ds.ls[i] = ds.eval(ds.points[i], ds.pointPars[i])
	}
}

// amotry extrapolates by factor fac throught the face of the simplex accros from
// the low point, tries it, and replaces the low point if the new point is better.
func (ds *DS) amotry(ilo int, fac float64) float64 {
	if ds.newOpt == nil {
		ds.newOpt = ds.points[0].Copy()
		ds.newPar = ds.newOpt.GetFloatParameters()
	}
	ds.calcPsum()
	ndim := len(ds.newPar)
	fac1 := (1 - fac) / float64(ndim)
	fac2 := fac1 - fac
	for j := 0; j < ndim; j++ {
		ds.newPar[j].Set(ds.psum[j]*fac1 - ds.pointPars[ilo][j].Get()*fac2)
	}
	l := ds.eval(ds.newOpt, ds.newPar)
	if l > ds.ls[ilo] {
		ds.points[ilo], ds.newOpt = ds.newOpt, ds.points[ilo]
		ds.pointPars[ilo], ds.newPar = ds.newPar, ds.pointPars[ilo]
		ds.ls[ilo] = l
	}
	return l
}

func (ds *DS) calcPsum() {
	ds.psum = make([]float64, len(ds.pointPars[0]))
	for i := range ds.psum {
		for _, parameters := range ds.pointPars {
			ds.psum[i] += parameters[i].Get()
		}
	}
}

func (ds *DS) Run(iterations int) {
	ds.start("downhill simplex")
	ds.repeat = false
	ds.newOpt = nil
	ds.createSimplex(ds.Optimizable, ds.Delta)

	// Lowest (worst), next-lowest and highest points
	var ilo, inlo, ihi int
	var llo, lnlo, lhi float64
	converged := false
	status := ""
Iter:
	for ds.i = 1; ds.i <= iterations; ds.i++ {
		if ds.ls[0] < ds.ls[1] {
			ilo, inlo, ihi = 0, 1, 1
		} else {
			ilo, inlo, ihi = 1, 0, 0
		}
		llo = ds.ls[ilo]
		lnlo = ds.ls[inlo]
		lhi = ds.ls[ihi]
		for i := 2; i < len(ds.points); i++ {
			if ds.ls[i] >= lhi {
				lhi = ds.ls[i]
				ihi = i
			}
			if ds.ls[i] < llo {
				lnlo = llo
				inlo = ilo
				llo = ds.ls[i]
				ilo = i
			} else if ds.ls[i] < lnlo {
				lnlo = ds.ls[i]
				inlo = i
			}
		}
		ds.l = lhi
		if ds.reportDue() {
			log.Debugf("%d: L=%f (%f)", ds.i, lhi, lhi-llo)
		}
		ds.PrintLine(ds.pointPars[ihi], lhi)

		rtol := 2 * math.Abs(lhi-llo) / (math.Abs(llo) + math.Abs(lhi) + TINY)
		if rtol < ds.ftol {
			if ds.repeat && math.Abs(ds.oldL-lhi) < SMALL {
				converged = true
				status = fmt.Sprintf("converged after %d iterations", ds.i)
				break Iter
			}
			ds.repeat = true
			ds.oldL = lhi
			log.Debug("converged, restarting the simplex")
			ds.createSimplex(ds.points[ihi], ds.Delta)
			continue
		}
		l := ds.amotry(ilo, -1)
		switch {
		case l >= lhi:
			ds.amotry(ilo, 2)
		case l <= lnlo:
			lsave := llo
			l := ds.amotry(ilo, 0.5)
			if l <= lsave {
				for i, point := range ds.points {
					if i != ihi {
						for j := range ds.pointPars[i] {
							ds.pointPars[i][j].Set(0.5 * (ds.pointPars[i][j].Get() + ds.pointPars[ihi][j].Get()))
						}
						ds.ls[i] = ds.eval(point, ds.pointPars[i])
					}
				}
			}
		}
		if ds.interrupted() {
			status = "interrupted"
			break Iter
		}
	}
	if !converged && status == "" {
		ds.i = iterations
		status = fmt.Sprintf("iterations exceeded (%d)", iterations)
	}
	ds.finish(converged, status)
}
