package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/servinagrero/monaco/internal/config"
	"github.com/servinagrero/monaco/internal/ctxlog"
	"github.com/servinagrero/monaco/internal/template"
)

var (
	stepEcho    = color.New(color.FgCyan)
	messageEcho = color.New(color.FgGreen)
)

// runIteration performs one pass of a job: message, artifact templates,
// then the steps, all against the iteration's data.
func (r *Runner) runIteration(ctx context.Context, job *config.Job, data *template.Data, spec *config.LogSpec) error {
	out, closeLog, err := r.logTarget(spec, data)
	if err != nil {
		return err
	}
	defer closeLog()

	if job.Message != "" {
		messageEcho.Fprintln(r.out, template.Interpolate(job.Message, data))
	}
	for _, pair := range job.Templates {
		if err := r.renderArtifact(ctx, pair, data); err != nil {
			return err
		}
	}
	return r.runSteps(ctx, job, data, out)
}

// runSteps executes the job's steps in order against the iteration's data.
// A failed step aborts the remaining ones unless the job ignores errors.
func (r *Runner) runSteps(ctx context.Context, job *config.Job, data *template.Data, out io.Writer) error {
	logger := ctxlog.FromContext(ctx).With("job", job.Name)

	for i, step := range job.Steps {
		// A step is atomic with respect to cancellation: checked here, never
		// killed once started.
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch step.Kind {
		case config.StepCommand:
			err = r.execCommand(ctx, step.Command, data, out)
		case config.StepJobRef:
			idx, ok := r.graph.Index(step.Job)
			if !ok {
				err = fmt.Errorf("unknown job '%s'", step.Job)
			} else {
				err = r.runNode(ctx, idx, step.Props, step.Env)
			}
		}
		if err != nil {
			if job.IgnoreErrors {
				logger.Warn("Step failed, continuing.", "step", i, "error", err)
				continue
			}
			return fmt.Errorf("step #%d: %w", i, err)
		}
	}
	return nil
}

// renderArtifact renders one "input:output" template pair through the
// directive mini-language. Both paths are interpolated first and resolved
// against the job's directory.
func (r *Runner) renderArtifact(ctx context.Context, pair string, data *template.Data) error {
	logger := ctxlog.FromContext(ctx).With("job", data.Job)

	in, out, err := config.ParseArtifact(pair)
	if err != nil {
		return err
	}
	inPath := resolvePath(template.Interpolate(in, data), data.Dir)
	outPath := resolvePath(template.Interpolate(out, data), data.Dir)

	logger.Info("📝 Rendering template", "input", inPath, "output", outPath)
	if r.dry {
		stepEcho.Fprintf(r.out, "render %s -> %s\n", inPath, outPath)
		return nil
	}

	src, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("failed to read template input: %w", err)
	}
	tpl, err := template.Parse(string(src))
	if err != nil {
		return fmt.Errorf("template %s: %w", inPath, err)
	}
	text, err := tpl.Render(data.Scope())
	if err != nil {
		return fmt.Errorf("template %s: %w", inPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write rendered template: %w", err)
	}
	return nil
}

// logTarget opens the step output destination for one iteration. File
// targets re-render their path every iteration and append. The returned
// closer is a no-op for the shared modes.
func (r *Runner) logTarget(spec *config.LogSpec, data *template.Data) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	if r.dry {
		return r.out, noop, nil
	}

	switch spec.Mode {
	case config.LogDiscard:
		return io.Discard, noop, nil
	case config.LogFile:
		path := resolvePath(template.Interpolate(spec.Path, data), data.Dir)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, f.Close, nil
	default:
		return r.out, noop, nil
	}
}
