// Package odefit fits tumor growth curves under a variable carrying capacity.
//
// The implicit model dy/dt = -r·y·ln(y·e^(b·y)) is integrated numerically at
// every objective evaluation; the explicit model is the closed-form Gompertz
// curve with the carrying capacity fixed to the last observation. Both have
// log10 variants. Fits run Levenberg-Marquardt least squares and report
// Student-t intervals, AIC, R² and adjusted R².
package odefit
