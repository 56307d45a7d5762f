// Package render turns analyses and fits into figures. A Figure is drawn
// either to PNG with gonum/plot or to the terminal with asciigraph.
package render
