package stats

import (
	"fmt"
	"math"

	"github.com/san-kum/gompertz/internal/dynamo"
	"github.com/san-kum/gompertz/internal/growth"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SSE is the sum of squared residuals between paired observations and fitted
// values.
func SSE(observed, fitted []float64) (float64, error) {
	if len(observed) != len(fitted) {
		return 0, fmt.Errorf("sse: %d observations vs %d fitted values: %w",
			len(observed), len(fitted), dynamo.ErrDimensionMismatch)
	}
	resid := make([]float64, len(observed))
	floats.SubTo(resid, observed, fitted)
	return floats.Dot(resid, resid), nil
}

// RMSE is sqrt(sse/dof).
func RMSE(sse float64, dof int) (float64, error) {
	if dof < 1 {
		return 0, fmt.Errorf("rmse: %d degrees of freedom: %w", dof, dynamo.ErrDegenerateInput)
	}
	return math.Sqrt(sse / float64(dof)), nil
}

// RSquared is 1 - SSE/SST. A constant observation vector has no variance to
// explain and is rejected.
func RSquared(observed []float64, sse float64) (float64, error) {
	if len(observed) == 0 {
		return 0, fmt.Errorf("r squared: no observations: %w", dynamo.ErrDegenerateInput)
	}
	mean := stat.Mean(observed, nil)
	sst := 0.0
	for _, y := range observed {
		sst += (y - mean) * (y - mean)
	}
	if sst == 0 {
		return 0, fmt.Errorf("r squared: total sum of squares is zero: %w", dynamo.ErrDegenerateInput)
	}
	return 1 - sse/sst, nil
}

// AdjustedRSquared is 1 - (1-R²)(n-1)/(n-2).
func AdjustedRSquared(r2 float64, n int) (float64, error) {
	if n < 3 {
		return 0, fmt.Errorf("adjusted r squared: need at least 3 points, have %d: %w", n, dynamo.ErrDegenerateInput)
	}
	return 1 - (1-r2)*float64(n-1)/float64(n-2), nil
}

// AIC is n·ln(SSE/n) - n·ln(n) + 2k. A perfect fit gives -Inf.
func AIC(sse float64, n, k int) float64 {
	fn := float64(n)
	if sse == 0 {
		return math.Inf(-1)
	}
	return fn*math.Log(sse/fn) - fn*math.Log(fn) + 2*float64(k)
}

// CriticalValue returns the two-sided Student-t critical value for level
// 1-alpha with dof degrees of freedom.
func CriticalValue(alpha float64, dof int) (float64, error) {
	if dof < 1 {
		return 0, fmt.Errorf("critical value: %d degrees of freedom: %w", dof, dynamo.ErrDegenerateInput)
	}
	if !(alpha > 0 && alpha < 1) {
		return 0, fmt.Errorf("critical value: alpha %g outside (0, 1)", alpha)
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
	return t.Quantile(1 - alpha/2), nil
}

// Intervals builds est ± tcrit·sqrt(cov_ii) for every parameter.
func Intervals(p growth.ParameterVector, cov mat.Symmetric, tcrit, level float64) ([]growth.Interval, error) {
	if cov.SymmetricDim() != p.Len() {
		return nil, fmt.Errorf("intervals: covariance is %dx%d for %d parameters: %w",
			cov.SymmetricDim(), cov.SymmetricDim(), p.Len(), dynamo.ErrDimensionMismatch)
	}
	out := make([]growth.Interval, p.Len())
	for i, est := range p.Values {
		v := cov.At(i, i)
		if v < 0 || math.IsNaN(v) {
			return nil, fmt.Errorf("intervals: variance of %s is %g: %w", p.Names[i], v, dynamo.ErrSingularSystem)
		}
		half := tcrit * math.Sqrt(v)
		out[i] = growth.Interval{Name: p.Names[i], Lower: est - half, Upper: est + half, Level: level}
	}
	return out, nil
}

// Band is the delta-method confidence band around fitted values. grads[i]
// holds the sensitivity of fitted[i] to each parameter.
func Band(fitted []float64, grads [][]float64, cov mat.Symmetric, tcrit float64) (lower, upper []float64, err error) {
	if len(grads) != len(fitted) {
		return nil, nil, fmt.Errorf("band: %d gradients for %d points: %w", len(grads), len(fitted), dynamo.ErrDimensionMismatch)
	}
	lower = make([]float64, len(fitted))
	upper = make([]float64, len(fitted))
	for i, g := range grads {
		if len(g) != cov.SymmetricDim() {
			return nil, nil, fmt.Errorf("band: gradient %d has %d entries: %w", i, len(g), dynamo.ErrDimensionMismatch)
		}
		gv := mat.NewVecDense(len(g), g)
		v := mat.Inner(gv, cov, gv)
		half := tcrit * math.Sqrt(math.Max(v, 0))
		lower[i] = fitted[i] - half
		upper[i] = fitted[i] + half
	}
	return lower, upper, nil
}

// Summarize fills the goodness-of-fit statistics shared by every fitter.
// numParams sets the RMSE degrees of freedom; aicK is the AIC penalty count.
func Summarize(observed, fitted []float64, numParams, aicK int) (growth.Stats, error) {
	n := len(observed)
	sse, err := SSE(observed, fitted)
	if err != nil {
		return growth.Stats{}, err
	}
	rmse, err := RMSE(sse, n-numParams)
	if err != nil {
		return growth.Stats{}, err
	}
	r2, err := RSquared(observed, sse)
	if err != nil {
		return growth.Stats{}, err
	}
	adj, err := AdjustedRSquared(r2, n)
	if err != nil {
		return growth.Stats{}, err
	}
	return growth.Stats{
		N:        n,
		SSE:      sse,
		RMSE:     rmse,
		AIC:      AIC(sse, n, aicK),
		RSquared: r2,
		AdjRSq:   adj,
	}, nil
}
