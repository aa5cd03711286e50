// Package daemonrun assembles the daemon process: logger, history journal,
// renderer, compositor and pipeline, then hands them to daemon.Serve under a
// signal-aware context.
package daemonrun
