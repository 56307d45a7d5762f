// Package stats computes goodness-of-fit summaries for fitted growth models:
// residual sums of squares, RMSE, R² and adjusted R², AIC, Student-t
// confidence intervals and delta-method confidence bands.
package stats
