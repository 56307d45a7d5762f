package integrators

import (
	"math"

	"github.com/san-kum/gompertz/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// rk steps an explicit Runge-Kutta tableau. Stage buffers are reused between
// steps, so an rk must not be shared between goroutines.
type rk struct {
	tab   Tableau
	k     []dynamo.State
	stage dynamo.State
}

func (r *rk) ensureScratch(n int) {
	if len(r.stage) == n && len(r.k) == r.tab.Stages() {
		return
	}
	r.k = make([]dynamo.State, r.tab.Stages())
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
}

// stages evaluates every stage derivative into r.k.
func (r *rk) stages(dyn dynamo.System, x dynamo.State, t, dt float64) {
	r.ensureScratch(len(x))
	for i, row := range r.tab.A {
		copy(r.stage, x)
		for j, a := range row {
			if a != 0 {
				floats.AddScaled(r.stage, dt*a, r.k[j])
			}
		}
		copy(r.k[i], dyn.Derive(r.stage, t+r.tab.C[i]*dt))
	}
}

// combine returns x + dt·Σ w_i k_i.
func (r *rk) combine(x dynamo.State, dt float64, w []float64) dynamo.State {
	out := x.Clone()
	for i, wi := range w {
		if wi != 0 {
			floats.AddScaled(out, dt*wi, r.k[i])
		}
	}
	return out
}

func (r *rk) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	r.stages(dyn, x, t, dt)
	return r.combine(x, dt, r.tab.B)
}

type Euler struct{ rk }

func NewEuler() *Euler { return &Euler{rk{tab: EulerTableau}} }

type RK4 struct{ rk }

func NewRK4() *RK4 { return &RK4{rk{tab: RK4Tableau}} }

// RK45 is Dormand-Prince with step-size control.
type RK45 struct {
	rk
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		rk:       rk{tab: DormandPrince},
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// StepAdaptive attempts a step of size dt. When the embedded error estimate
// exceeds tol the step is rejected: the proposed state is still returned,
// together with a smaller retry step and dynamo.ErrStepRejected.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, error) {
	r.stages(dyn, x, t, dt)
	xNew := r.combine(x, dt, r.tab.B)

	errMax := 0.0
	for i := range x {
		est := 0.0
		for s := range r.k {
			est += (r.tab.B[s] - r.tab.BErr[s]) * r.k[s][i]
		}
		scale := math.Abs(x[i]) + math.Abs(dt*r.k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*est)/scale)
	}

	// a non-finite stage means the trial step left the domain of f
	if math.IsNaN(errMax) || math.IsInf(errMax, 0) || !xNew.IsValid() {
		return xNew, dt * r.minScale, dynamo.ErrStepRejected
	}

	ratio := errMax / tol
	switch {
	case ratio > 1:
		return xNew, dt * math.Max(r.minScale, r.safety*math.Pow(ratio, -0.25)), dynamo.ErrStepRejected
	case ratio > 0:
		return xNew, dt * math.Min(r.maxScale, r.safety*math.Pow(ratio, -0.2)), nil
	}
	return xNew, dt * r.maxScale, nil
}
