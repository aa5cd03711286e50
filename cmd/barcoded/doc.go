// Package main hosts the barcoded entrypoint and command graph.
//
// The same binary runs the daemon (the hidden `daemon` command) and the
// control commands that start, stop and inspect it. Control commands talk to
// the daemon over its Unix socket using the one-line command protocol and read
// the history journal directly; they never render images themselves.
package main
