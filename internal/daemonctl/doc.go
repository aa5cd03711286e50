// Package daemonctl holds client-side helpers used by the CLI to talk to a
// running daemon: sending commands over the socket, launching and stopping
// the process, and assembling status snapshots.
package daemonctl
