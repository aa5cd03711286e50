// Package preflight runs environment checks surfaced by `barcoded status`:
// socket directory access, font resolution, journal location and the status
// API port.
package preflight
