package protocol

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	// ShutdownCommand asks the daemon to stop listening and exit.
	ShutdownCommand = "kill process"
	// MaxCommandBytes bounds the single receive performed per connection.
	MaxCommandBytes = 1024
	// DefaultName is used when a request leaves the output name empty.
	DefaultName = "noname_0"

	fieldSeparator = ","
	fieldCount     = 3
)

// ErrMalformedCommand indicates a line that is neither the shutdown command
// nor a three-field render request.
var ErrMalformedCommand = errors.New("malformed command")

// Kind identifies what a parsed line asks the daemon to do.
type Kind int

const (
	KindNone Kind = iota
	KindShutdown
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindShutdown:
		return "shutdown"
	case KindRender:
		return "render"
	default:
		return "none"
	}
}

// Request is a parsed render command.
type Request struct {
	TargetDir string
	Data      string
	Name      string
}

// Command is the result of parsing one inbound line.
type Command struct {
	Kind    Kind
	Request Request
}

// Decode converts the raw bytes of a single receive into a command line.
// Invalid UTF-8, including a multi-byte sequence cut by the read bound, is
// replaced with U+FFFD rather than rejected.
func Decode(raw []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		decoded = []byte(strings.ToValidUTF8(string(raw), "\uFFFD"))
	}
	return strings.TrimSpace(string(decoded))
}

// Parse interprets a decoded, whitespace-stripped line.
//
// An empty line yields KindNone with no error. Fields are not trimmed after
// the split.
func Parse(line string) (Command, error) {
	if line == "" {
		return Command{Kind: KindNone}, nil
	}
	if line == ShutdownCommand {
		return Command{Kind: KindShutdown}, nil
	}

	parts := strings.SplitN(line, fieldSeparator, fieldCount)
	if len(parts) < fieldCount {
		return Command{}, fmt.Errorf("%w: expected %d comma-separated fields, got %d", ErrMalformedCommand, fieldCount, len(parts))
	}

	name := parts[2]
	if name == "" {
		name = DefaultName
	}
	return Command{
		Kind: KindRender,
		Request: Request{
			TargetDir: parts[0],
			Data:      parts[1],
			Name:      name,
		},
	}, nil
}

// ErrUnencodable indicates a request whose directory or data contains the
// field separator and so cannot survive a round trip through Parse.
var ErrUnencodable = errors.New("request cannot be encoded")

// Format builds the wire form of a render request. Only the name may contain
// commas; Parse keeps everything after the second separator in it.
func Format(req Request) (string, error) {
	if strings.Contains(req.TargetDir, fieldSeparator) {
		return "", fmt.Errorf("%w: directory %q contains %q", ErrUnencodable, req.TargetDir, fieldSeparator)
	}
	if strings.Contains(req.Data, fieldSeparator) {
		return "", fmt.Errorf("%w: data %q contains %q", ErrUnencodable, req.Data, fieldSeparator)
	}
	return strings.Join([]string{req.TargetDir, req.Data, req.Name}, fieldSeparator), nil
}
