// Package dynamo provides core primitives for integrating and fitting
// growth-model ODEs.
//
// The package defines the shared vocabulary of the other packages:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Func]: adapter for scalar right-hand sides
//   - [Integrator]: numerical stepper interface
//   - [Config]: step control for trajectory integration
//
// # Errors
//
// Failures are classified with sentinel errors ([ErrMathDomain],
// [ErrSingularSystem], [ErrConvergence], [ErrDegenerateInput], [ErrUnstable])
// and carry context through [SimulationError] and [FitError]:
//
//	if errors.Is(err, dynamo.ErrMathDomain) {
//	    var fe *dynamo.FitError
//	    if errors.As(err, &fe) {
//	        fmt.Println(fe.Iteration, fe.Params)
//	    }
//	}
package dynamo
