// Package experiment wires configuration, fitters and integrators together
// and runs whole-specimen analyses, one at a time or as a concurrent batch.
package experiment
