// Package pipeline runs one render request end to end: render the symbol,
// composite it onto the canvas, write the artifact, and journal the outcome.
//
// Run never returns an error. Every failure, including a panic inside a
// collaborator, is logged with the stage and request fields and reported in
// the Result so the daemon loop can keep serving.
package pipeline
