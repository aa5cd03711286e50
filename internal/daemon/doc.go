// Package daemon runs the barcode socket server.
//
// A Daemon owns one Unix socket endpoint guarded by a flock lock file. The
// accept loop is single-flight: each connection is read once, parsed, and
// dispatched to the pipeline synchronously before the next accept. Teardown
// (listener close, socket unlink, lock release) runs exactly once on every
// exit path, whether the loop stops for a shutdown command, a cancelled
// context, or a recovered panic.
//
// The optional status API in api_server.go is the only other goroutine and
// reads daemon counters and the history journal; it never touches the socket.
package daemon
