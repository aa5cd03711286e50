package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"barcoded/internal/compose"
	"barcoded/internal/history"
	"barcoded/internal/protocol"
	"barcoded/internal/render"
)

type stubRenderer struct {
	img   image.Image
	err   error
	panic bool
	calls int
}

func (s *stubRenderer) Render(string) (image.Image, error) {
	s.calls++
	if s.panic {
		panic("boom")
	}
	return s.img, s.err
}

type stubCompositor struct {
	err   error
	paths []string
}

func (s *stubCompositor) Composite(_ image.Image, path string) error {
	s.paths = append(s.paths, path)
	return s.err
}

type memoryJournal struct {
	records []history.Record
	err     error
}

func (m *memoryJournal) Record(_ context.Context, rec *history.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, *rec)
	return nil
}

func newSymbol() image.Image {
	return image.NewGray(image.Rect(0, 0, 4, 4))
}

func TestRunOutcomes(t *testing.T) {
	req := protocol.Request{TargetDir: "/srv/out", Data: "ABC", Name: "label"}
	tests := []struct {
		name         string
		renderer     *stubRenderer
		compositor   *stubCompositor
		outcome      history.Outcome
		stage        string
		composed     int
		errorKind    string
		recordedPath string
	}{
		{
			name:         "success",
			renderer:     &stubRenderer{img: newSymbol()},
			compositor:   &stubCompositor{},
			outcome:      history.OutcomeSuccess,
			stage:        StageCompose,
			composed:     1,
			recordedPath: "/srv/out/label.jpg",
		},
		{
			name:       "render failure skips composite",
			renderer:   &stubRenderer{err: render.ErrRender},
			compositor: &stubCompositor{},
			outcome:    history.OutcomeRenderFailed,
			stage:      StageRender,
			errorKind:  "render",
		},
		{
			name:       "missing directory",
			renderer:   &stubRenderer{img: newSymbol()},
			compositor: &stubCompositor{err: &compose.Error{Kind: compose.KindPathNotFound, Path: "/srv/out/label.jpg", Err: os.ErrNotExist}},
			outcome:    history.OutcomeComposeFailed,
			stage:      StageCompose,
			composed:   1,
			errorKind:  "path_not_found",
		},
		{
			name:       "panic is contained",
			renderer:   &stubRenderer{panic: true},
			compositor: &stubCompositor{},
			outcome:    history.OutcomeFault,
			stage:      StageRender,
			errorKind:  "panic",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			journal := &memoryJournal{}
			p := New(tc.renderer, tc.compositor, journal, nil)
			result := p.Run(context.Background(), req)

			if result.Outcome != tc.outcome {
				t.Fatalf("outcome = %s, want %s (err %v)", result.Outcome, tc.outcome, result.Err)
			}
			if result.Stage != tc.stage {
				t.Fatalf("stage = %s, want %s", result.Stage, tc.stage)
			}
			if (result.Err == nil) != (tc.outcome == history.OutcomeSuccess) {
				t.Fatalf("unexpected err %v for outcome %s", result.Err, result.Outcome)
			}
			if len(tc.compositor.paths) != tc.composed {
				t.Fatalf("composite calls = %d, want %d", len(tc.compositor.paths), tc.composed)
			}
			if result.RequestID == "" {
				t.Fatal("expected request id")
			}
			if len(journal.records) != 1 {
				t.Fatalf("journal records = %d, want 1", len(journal.records))
			}
			rec := journal.records[0]
			if rec.RequestID != result.RequestID || rec.Outcome != tc.outcome {
				t.Fatalf("record = %#v", rec)
			}
			if rec.ErrorKind != tc.errorKind {
				t.Fatalf("error kind = %q, want %q", rec.ErrorKind, tc.errorKind)
			}
			if rec.OutputPath != tc.recordedPath {
				t.Fatalf("recorded path = %q, want %q", rec.OutputPath, tc.recordedPath)
			}
		})
	}
}

func TestRunJournalFailureIsNotFatal(t *testing.T) {
	journal := &memoryJournal{err: errors.New("disk full")}
	p := New(&stubRenderer{img: newSymbol()}, &stubCompositor{}, journal, nil)
	result := p.Run(context.Background(), protocol.Request{TargetDir: "/x", Data: "1", Name: "n"})
	if !result.OK() {
		t.Fatalf("result = %#v, want success", result)
	}
}

func TestRunFailureLogCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := New(&stubRenderer{err: render.ErrRender}, &stubCompositor{}, nil, logger)

	result := p.Run(context.Background(), protocol.Request{TargetDir: "/x", Data: "", Name: "n"})
	out := buf.String()
	if !strings.Contains(out, "request_id="+result.RequestID) {
		t.Fatalf("expected request id %s in %q", result.RequestID, out)
	}
	if strings.Count(out, "request_id=") != 1 {
		t.Fatalf("expected a single request_id field, got %q", out)
	}
}

func TestRunWithoutJournal(t *testing.T) {
	p := New(&stubRenderer{img: newSymbol()}, &stubCompositor{}, nil, nil)
	if result := p.Run(context.Background(), protocol.Request{TargetDir: "/x", Data: "1", Name: "n"}); !result.OK() {
		t.Fatalf("result = %#v", result)
	}
}

func TestRunUniqueRequestIDs(t *testing.T) {
	p := New(&stubRenderer{img: newSymbol()}, &stubCompositor{}, nil, nil)
	req := protocol.Request{TargetDir: "/x", Data: "1", Name: "n"}
	first := p.Run(context.Background(), req)
	second := p.Run(context.Background(), req)
	if first.RequestID == second.RequestID {
		t.Fatalf("request ids collide: %s", first.RequestID)
	}
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		req  protocol.Request
		want string
	}{
		{req: protocol.Request{TargetDir: "/tmp/out", Name: "a"}, want: "/tmp/out/a.jpg"},
		{req: protocol.Request{TargetDir: "/tmp/out/", Name: "a"}, want: "/tmp/out/a.jpg"},
		{req: protocol.Request{TargetDir: "", Name: "label"}, want: "label.jpg"},
		{req: protocol.Request{TargetDir: "rel", Name: "noname_0"}, want: "rel/noname_0.jpg"},
	}
	for _, tc := range tests {
		if got := ArtifactPath(tc.req); got != tc.want {
			t.Errorf("ArtifactPath(%+v) = %q, want %q", tc.req, got, tc.want)
		}
	}
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	renderer := render.New(render.Options{}, nil)
	compositor := compose.New(compose.OptionsFromConfig(nil), nil)
	p := New(renderer, compositor, nil, nil)

	result := p.Run(context.Background(), protocol.Request{TargetDir: dir, Data: "HELLO", Name: "hello"})
	if !result.OK() {
		t.Fatalf("Run: %#v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "hello.jpg")); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}

	missing := p.Run(context.Background(), protocol.Request{TargetDir: filepath.Join(dir, "nope"), Data: "HELLO", Name: "x"})
	if missing.Outcome != history.OutcomeComposeFailed {
		t.Fatalf("outcome = %s, want compose_failed", missing.Outcome)
	}
	if kind, ok := compose.KindOf(missing.Err); !ok || kind != compose.KindPathNotFound {
		t.Fatalf("err = %v, want path not found", missing.Err)
	}

	bad := p.Run(context.Background(), protocol.Request{TargetDir: dir, Data: "", Name: "empty"})
	if bad.Outcome != history.OutcomeRenderFailed || !errors.Is(bad.Err, render.ErrRender) {
		t.Fatalf("empty data result = %#v", bad)
	}
	if _, err := os.Stat(filepath.Join(dir, "empty.jpg")); !os.IsNotExist(err) {
		t.Fatalf("render failure should not write an artifact, stat err = %v", err)
	}
}
