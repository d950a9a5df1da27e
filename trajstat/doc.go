// Package trajstat analyzes one scalar time series from a molecular-dynamics
// trajectory: it detects the equilibration point, extracts a decorrelated
// subsequence, and estimates the mean, its standard error, and the
// autocorrelation time, together with the two advisory warnings that drive
// the convergence loop.
//
// Each analysis is pure and independent of any other property's analysis, so
// callers may analyze multiple properties concurrently.
package trajstat
