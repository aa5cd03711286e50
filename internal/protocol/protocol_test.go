package protocol

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Command
		wantErr error
	}{
		{
			name: "empty line is a no-op",
			line: "",
			want: Command{Kind: KindNone},
		},
		{
			name: "shutdown",
			line: "kill process",
			want: Command{Kind: KindShutdown},
		},
		{
			name: "render request",
			line: "/tmp/out,HELLO123,test_0",
			want: Command{Kind: KindRender, Request: Request{TargetDir: "/tmp/out", Data: "HELLO123", Name: "test_0"}},
		},
		{
			name: "name keeps extra commas",
			line: "/tmp/out,ABC,a,b,c",
			want: Command{Kind: KindRender, Request: Request{TargetDir: "/tmp/out", Data: "ABC", Name: "a,b,c"}},
		},
		{
			name: "fields are not trimmed",
			line: "/tmp/out, ABC ,name",
			want: Command{Kind: KindRender, Request: Request{TargetDir: "/tmp/out", Data: " ABC ", Name: "name"}},
		},
		{
			name: "empty data still parses",
			line: "/tmp/out,,test_0",
			want: Command{Kind: KindRender, Request: Request{TargetDir: "/tmp/out", Data: "", Name: "test_0"}},
		},
		{
			name: "empty name falls back to default",
			line: "/tmp/out,ABC,",
			want: Command{Kind: KindRender, Request: Request{TargetDir: "/tmp/out", Data: "ABC", Name: DefaultName}},
		},
		{
			name:    "one comma",
			line:    "/tmp/out,ABC",
			wantErr: ErrMalformedCommand,
		},
		{
			name:    "no comma",
			line:    "hello",
			wantErr: ErrMalformedCommand,
		},
		{
			name:    "shutdown must match exactly",
			line:    "kill process now",
			wantErr: ErrMalformedCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.line, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.line, err)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestDecodeStripsWhitespace(t *testing.T) {
	if got := Decode([]byte("  kill process\r\n")); got != "kill process" {
		t.Fatalf("Decode = %q", got)
	}
	if got := Decode(nil); got != "" {
		t.Fatalf("Decode(nil) = %q", got)
	}
}

func TestDecodeReplacesInvalidUTF8(t *testing.T) {
	raw := append([]byte("/tmp/out,AB,n"), 0xe2, 0x82) // truncated euro sign
	got := Decode(raw)
	if !strings.HasPrefix(got, "/tmp/out,AB,n") || !strings.Contains(got, "\uFFFD") {
		t.Fatalf("Decode = %q", got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("Decode returned invalid UTF-8: %q", got)
	}
}

func TestFormatRoundTripsThroughParse(t *testing.T) {
	req := Request{TargetDir: "/srv/labels", Data: "SKU-42", Name: "box,1"}
	line, err := Format(req)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	cmd, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Kind != KindRender || cmd.Request != req {
		t.Fatalf("round trip = %+v", cmd)
	}
}

func TestFormatRejectsSeparatorInDirOrData(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "data", req: Request{TargetDir: "/tmp/out", Data: "A,B", Name: "x"}},
		{name: "dir", req: Request{TargetDir: "/tmp/a,b", Data: "AB", Name: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := Format(tt.req)
			if !errors.Is(err, ErrUnencodable) {
				t.Fatalf("Format(%+v) = %q, %v; want ErrUnencodable", tt.req, line, err)
			}
		})
	}
}
