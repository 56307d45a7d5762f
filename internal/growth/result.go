package growth

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParameterVector is an ordered set of named model parameters.
type ParameterVector struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

func NewParameterVector(names []string, values []float64) ParameterVector {
	v := make([]float64, len(values))
	copy(v, values)
	n := make([]string, len(names))
	copy(n, names)
	return ParameterVector{Names: n, Values: v}
}

func (p ParameterVector) Len() int { return len(p.Values) }

// Get returns the value of the named parameter.
func (p ParameterVector) Get(name string) (float64, bool) {
	for i, n := range p.Names {
		if n == name {
			return p.Values[i], true
		}
	}
	return 0, false
}

func (p ParameterVector) String() string {
	parts := make([]string, len(p.Values))
	for i, v := range p.Values {
		parts[i] = fmt.Sprintf("%s = %.6g", p.Names[i], v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Interval is a two-sided confidence interval for one parameter.
type Interval struct {
	Name  string  `json:"name"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Level float64 `json:"level"`
}

func (iv Interval) String() string {
	return fmt.Sprintf("%.0f%% CI for %s is (%.6g, %.6g)", iv.Level*100, iv.Name, iv.Lower, iv.Upper)
}

// Stats are the goodness-of-fit summaries attached to every fit.
type Stats struct {
	N         int        `json:"n"`
	SSE       float64    `json:"sse"`
	RMSE      float64    `json:"rmse"`
	AIC       float64    `json:"aic"`
	RSquared  float64    `json:"r_squared"`
	AdjRSq    float64    `json:"adj_r_squared"`
	Intervals []Interval `json:"intervals"`
}

// MarshalJSON writes a non-finite AIC (a perfect fit) as a string, since
// JSON numbers cannot hold it.
func (s Stats) MarshalJSON() ([]byte, error) {
	type plain Stats
	aux := struct {
		plain
		AIC any `json:"aic"`
	}{plain: plain(s), AIC: s.AIC}
	if math.IsInf(s.AIC, 0) || math.IsNaN(s.AIC) {
		aux.AIC = strconv.FormatFloat(s.AIC, 'g', -1, 64)
	}
	return json.Marshal(aux)
}

func (s *Stats) UnmarshalJSON(data []byte) error {
	type plain Stats
	aux := struct {
		*plain
		AIC json.RawMessage `json:"aic"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.AIC) == 0 {
		return nil
	}
	if err := json.Unmarshal(aux.AIC, &s.AIC); err == nil {
		return nil
	}
	var str string
	if err := json.Unmarshal(aux.AIC, &str); err != nil {
		return fmt.Errorf("aic: %w", err)
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return fmt.Errorf("aic: %w", err)
	}
	s.AIC = v
	return nil
}

// FitResult is the outcome of one fit run. It is not modified after the fit
// returns.
type FitResult struct {
	Model      string          `json:"model"`
	Params     ParameterVector `json:"params"`
	Covariance []float64       `json:"covariance,omitempty"`
	Iterations int             `json:"iterations"`
	Converged  bool            `json:"converged"`
	// GradNorms holds the 2-norm of the objective gradient at each iterate.
	GradNorms []float64 `json:"grad_norms,omitempty"`
	X         []float64 `json:"x"`
	Observed  []float64 `json:"observed"`
	Fitted    []float64 `json:"fitted"`
	// BandLower and BandUpper bound the confidence band around Fitted.
	BandLower []float64 `json:"band_lower,omitempty"`
	BandUpper []float64 `json:"band_upper,omitempty"`
	// CurveX and CurveY sample the fitted model densely over the data span.
	CurveX []float64 `json:"curve_x,omitempty"`
	CurveY []float64 `json:"curve_y,omitempty"`
	Stats  Stats     `json:"stats"`
}

// EquilibriumPoint is a size x* at which the growth rate vanishes.
type EquilibriumPoint struct {
	Case string  `json:"case"`
	X    float64 `json:"x"`
}
