// Package tui is a terminal browser over stored fit runs.
package tui
