package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"barcoded/internal/compose"
	"barcoded/internal/history"
	"barcoded/internal/logging"
	"barcoded/internal/protocol"
	"barcoded/internal/render"
)

// Stage names reported in logs and results.
const (
	StageRender  = "render"
	StageCompose = "compose"
	StageJournal = "journal"
)

// Renderer produces a symbol bitmap for data.
type Renderer interface {
	Render(data string) (image.Image, error)
}

// Compositor writes a symbol to path.
type Compositor interface {
	Composite(symbol image.Image, path string) error
}

// Journal records request outcomes.
type Journal interface {
	Record(ctx context.Context, rec *history.Record) error
}

// Result describes how one request ended.
type Result struct {
	RequestID  string
	OutputPath string
	Outcome    history.Outcome
	Stage      string
	Err        error
	Duration   time.Duration
}

// OK reports whether the artifact was written.
func (r Result) OK() bool {
	return r.Outcome == history.OutcomeSuccess
}

// Pipeline wires a renderer and compositor together.
type Pipeline struct {
	renderer   Renderer
	compositor Compositor
	journal    Journal
	logger     *slog.Logger
	newID      func() string
	now        func() time.Time
}

// New constructs a Pipeline. journal may be nil when history is disabled.
func New(renderer Renderer, compositor Compositor, journal Journal, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		renderer:   renderer,
		compositor: compositor,
		journal:    journal,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// ArtifactPath returns the output location for req: {dir}/{name}.jpg. An
// empty dir leaves the file relative to the working directory, and a dir that
// already ends in a slash gets no second one. The path is not cleaned.
func ArtifactPath(req protocol.Request) string {
	file := req.Name + ".jpg"
	switch {
	case req.TargetDir == "":
		return file
	case strings.HasSuffix(req.TargetDir, "/"):
		return req.TargetDir + file
	default:
		return req.TargetDir + "/" + file
	}
}

// Run processes req synchronously.
func (p *Pipeline) Run(ctx context.Context, req protocol.Request) (result Result) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := p.now()
	result = Result{RequestID: p.newID(), OutputPath: ArtifactPath(req)}
	ctx = logging.WithRequestID(ctx, result.RequestID)
	logger := logging.WithContext(ctx, p.logger).With(
		logging.String("target_dir", req.TargetDir),
		logging.String("data", req.Data),
		logging.String("name", req.Name),
	)

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Outcome = history.OutcomeFault
			result.Err = fmt.Errorf("panic during %s: %v", result.Stage, recovered)
			logging.ErrorWithContext(logger, "request aborted by panic", "request_fault",
				logging.String(logging.FieldStage, result.Stage),
				logging.Error(result.Err),
				logging.String(logging.FieldErrorHint, "report this input; the daemon keeps serving"),
			)
		}
		result.Duration = p.now().Sub(started)
		p.record(ctx, logger, req, result)
	}()

	logger.Debug("request received")

	result.Stage = StageRender
	symbol, err := p.renderer.Render(req.Data)
	if err != nil {
		result.Outcome = history.OutcomeRenderFailed
		result.Err = err
		logging.WarnWithContext(logger, "render failed; request skipped", "render_failed",
			logging.String(logging.FieldStage, StageRender),
			logging.String(logging.FieldErrorKind, "render"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "data must be non-empty printable ASCII"),
			logging.String(logging.FieldImpact, "no artifact written"),
		)
		return result
	}

	result.Stage = StageCompose
	if err := p.compositor.Composite(symbol, result.OutputPath); err != nil {
		result.Outcome = history.OutcomeComposeFailed
		result.Err = err
		kind := "io_failure"
		if k, ok := compose.KindOf(err); ok {
			kind = k.String()
		}
		logging.WarnWithContext(logger, "composite failed; request skipped", "compose_failed",
			logging.String(logging.FieldStage, StageCompose),
			logging.String(logging.FieldErrorKind, kind),
			logging.String("output_path", result.OutputPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, composeHint(err)),
			logging.String(logging.FieldImpact, "no artifact written"),
		)
		return result
	}

	result.Outcome = history.OutcomeSuccess
	logger.Info("artifact written",
		logging.String("output_path", result.OutputPath),
		logging.Duration("elapsed", p.now().Sub(started)),
	)
	return result
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, req protocol.Request, result Result) {
	if p.journal == nil {
		return
	}
	rec := &history.Record{
		RequestID: result.RequestID,
		TargetDir: req.TargetDir,
		Data:      req.Data,
		Name:      req.Name,
		Outcome:   result.Outcome,
		Duration:  result.Duration,
	}
	if result.OK() {
		rec.OutputPath = result.OutputPath
	}
	if result.Err != nil {
		rec.ErrorKind = errorKind(result)
		rec.ErrorMessage = result.Err.Error()
	}
	if err := p.journal.Record(ctx, rec); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_write_failed",
			logging.String(logging.FieldStage, StageJournal),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions and disk space"),
			logging.String(logging.FieldImpact, "request missing from history"),
		)
	}
}

func errorKind(result Result) string {
	switch result.Outcome {
	case history.OutcomeRenderFailed:
		if errors.Is(result.Err, render.ErrRender) {
			return "render"
		}
		return "render_unknown"
	case history.OutcomeComposeFailed:
		if kind, ok := compose.KindOf(result.Err); ok {
			return kind.String()
		}
		return "io_failure"
	case history.OutcomeFault:
		return "panic"
	default:
		return ""
	}
}

func composeHint(err error) string {
	kind, _ := compose.KindOf(err)
	switch kind {
	case compose.KindPathNotFound:
		return "create the target directory before sending the request"
	case compose.KindInvalidBitmap:
		return "renderer produced an empty symbol"
	default:
		return "check target directory permissions and free space"
	}
}
