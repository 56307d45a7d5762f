// Package equilibrium analyzes Gompertz growth under a size-dependent
// carrying capacity g(x). For each growth-limiting function family it locates
// the equilibria x = g(x), tabulates the ln(x) versus ln(g(x)) diagrams and
// integrates dx/dt = -a·x·ln(x/g(x)) for a set of decay rates.
package equilibrium
