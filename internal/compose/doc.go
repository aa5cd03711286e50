// Package compose places a rendered symbol on a fixed-size white canvas and
// writes the result as a JPEG artifact.
//
// The canvas is fresh for every call. Symbols larger than the canvas are
// clipped, not scaled. Target directories are never created; a missing
// directory is reported as KindPathNotFound so the caller can log it and move
// on to the next request.
package compose
