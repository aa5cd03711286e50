// Package protocol parses the one-line text commands accepted on the daemon
// socket.
//
// A connection carries a single command: the literal "kill process", or a
// render request of the form "{target_directory},{barcode_data},{output_name}".
// The line is split on at most two commas, so the output name keeps any
// further commas verbatim. Nothing is sent back to the caller; parse failures
// surface only as errors for the daemon to log.
package protocol
