package dynamo

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for integration and fitting.
var (
	// ErrMathDomain indicates a logarithm or power evaluated outside its domain.
	ErrMathDomain = errors.New("dynamo: math domain error (non-positive or non-finite argument)")

	// ErrSingularSystem indicates a Hessian or covariance matrix that cannot be inverted.
	ErrSingularSystem = errors.New("dynamo: singular linear system")

	// ErrConvergence indicates a least-squares routine found no minimizer within its budget.
	ErrConvergence = errors.New("dynamo: least-squares fit did not converge")

	// ErrDegenerateInput indicates data that cannot support the requested model.
	ErrDegenerateInput = errors.New("dynamo: degenerate input")

	// ErrUnstable indicates the integration became numerically unstable.
	ErrUnstable = errors.New("dynamo: integration unstable (NaN or Inf detected)")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepRejected is returned by adaptive steppers when the local error
	// estimate exceeds the tolerance. The returned dt is the retry step.
	ErrStepRejected = errors.New("dynamo: step rejected by error control")

	// ErrDimensionMismatch indicates mismatched vector lengths.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)

// SimulationError wraps an error with integration context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g, x=%v): %v", e.Step, e.Time, []float64(e.State), e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// FitError wraps an error raised while fitting, with the offending parameters.
type FitError struct {
	Op        string
	Iteration int
	Names     []string
	Params    []float64
	Wrapped   error
}

func (e *FitError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	fmt.Fprintf(&sb, " (iteration %d", e.Iteration)
	for i, v := range e.Params {
		name := fmt.Sprintf("p%d", i)
		if i < len(e.Names) {
			name = e.Names[i]
		}
		fmt.Fprintf(&sb, ", %s=%.6g", name, v)
	}
	sb.WriteString("): ")
	sb.WriteString(e.Wrapped.Error())
	return sb.String()
}

func (e *FitError) Unwrap() error {
	return e.Wrapped
}
