package runner

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/servinagrero/monaco/internal/config"
	"github.com/servinagrero/monaco/internal/ctxlog"
	"github.com/servinagrero/monaco/internal/graph"
	"github.com/servinagrero/monaco/internal/iterate"
	"github.com/servinagrero/monaco/internal/template"
)

// Runner executes the jobs of one loaded configuration.
type Runner struct {
	cfg      *config.Config
	graph    *graph.Graph
	out      io.Writer
	dry      bool
	parallel bool
}

// Options adjust how a Runner executes.
type Options struct {
	// Out receives echoed commands, job messages and inherited step output.
	// Defaults to os.Stdout.
	Out io.Writer

	// DryRun renders and prints every step without spawning processes.
	DryRun bool

	// Parallel runs independent top-level jobs concurrently.
	Parallel bool
}

// New validates the configuration, builds the job graph and returns a
// runner ready to execute. Every configuration error surfaces here, before
// anything runs.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Runner, error) {
	if err := validate(ctx, cfg); err != nil {
		return nil, err
	}
	g, err := graph.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Runner{
		cfg:      cfg,
		graph:    g,
		out:      out,
		dry:      opts.DryRun,
		parallel: opts.Parallel,
	}, nil
}

// RunAll executes every job in declaration order. A failed job is reported
// but does not stop the jobs after it.
func (r *Runner) RunAll(ctx context.Context) error {
	if r.parallel {
		return r.runAllParallel(ctx)
	}

	logger := ctxlog.FromContext(ctx)
	var failed int
	for i := 0; i < r.graph.Len(); i++ {
		if err := r.runNode(ctx, i, nil, nil); err != nil {
			if ctx.Err() != nil {
				return err
			}
			logger.Error("Job failed.", "job", r.graph.Node(i).Job.Name, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d job(s) failed", failed)
	}
	return nil
}

// RunJob executes a single job by name, dependencies first.
func (r *Runner) RunJob(ctx context.Context, name string) error {
	idx, ok := r.graph.Index(name)
	if !ok {
		return fmt.Errorf("unknown job '%s', available jobs: %s", name, strings.Join(r.cfg.JobNames(), ", "))
	}
	return r.runNode(ctx, idx, nil, nil)
}

// runNode runs one job: dependencies, gate, then the iteration loop. The
// props and env arguments carry call-site overrides from a job reference
// step; they are nil for top-level invocations.
//
// The node's body lock is held for the whole invocation, so concurrent
// references to the same job serialize. Locks are only ever acquired along
// edges of the validated acyclic graph.
func (r *Runner) runNode(ctx context.Context, idx int, props map[string]any, env map[string]string) error {
	node := r.graph.Node(idx)
	job := node.Job
	logger := ctxlog.FromContext(ctx).With("job", job.Name)

	if err := ctx.Err(); err != nil {
		return err
	}

	node.Lock()
	defer node.Unlock()

	// Dependencies run before the body. A failed dependency is reported but
	// does not block this job.
	for _, dep := range node.Deps() {
		depName := r.graph.Node(dep).Job.Name
		logger.Debug("Running dependency.", "dependency", depName)
		if err := r.runNode(ctx, dep, nil, nil); err != nil {
			if ctx.Err() != nil {
				return err
			}
			logger.Warn("Dependency failed.", "dependency", depName, "error", err)
		}
	}

	data := r.baseData(job, props, env)
	logSpec := job.Log
	if logSpec == nil {
		logSpec = &r.cfg.Log
	}

	// A non-empty when list gates every invocation in place of the
	// completion flag.
	if len(job.When) > 0 {
		open, err := r.gateOpen(ctx, job, data, logSpec)
		if err != nil {
			return fmt.Errorf("job '%s': when gate: %w", job.Name, err)
		}
		if !open {
			logger.Info("Skipping job, when gate not satisfied.")
			return nil
		}
	} else if node.Completed() {
		logger.Debug("Skipping job, already completed in this run.")
		return nil
	}

	logger.Info("▶️ Starting job", "iters", job.Iters.Kind.String())

	gen := iterate.New(job.Iters)
	var failures int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ictx, ok := gen.Next()
		if !ok {
			break
		}

		iterData := data.Clone()
		iterData.Index = ictx.Index
		iterData.HasIndex = true
		if ictx.HasValue {
			iterData.Iter = ictx.Value
			iterData.HasIter = true
		}

		if err := r.runIteration(ctx, job, iterData, logSpec); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Iteration failed.", "index", ictx.Index, "error", err)
			failures++
		}
	}

	if len(job.When) == 0 {
		node.MarkCompleted()
	}
	if failures > 0 {
		return fmt.Errorf("job '%s': %d iteration(s) failed", job.Name, failures)
	}
	logger.Info("✅ Finished job")
	return nil
}

// baseData assembles the pre-iteration template data for one invocation.
// Resolution is layered: global beneath job beneath call-site overrides.
func (r *Runner) baseData(job *config.Job, props map[string]any, env map[string]string) *template.Data {
	data := &template.Data{
		Job:        job.Name,
		Dir:        r.cfg.Dir(),
		ConfigPath: r.cfg.Path,
		ConfigDir:  r.cfg.Dir(),
		Props:      layerMaps(r.cfg.Props, job.Props, props),
		Env:        layerMaps(r.cfg.Env, job.Env, env),
	}
	// The dir template itself renders against the defaults, so {{dir}}
	// inside it still means the config directory.
	if job.Dir != "" {
		data.Dir = resolvePath(template.Interpolate(job.Dir, data), r.cfg.Dir())
	}
	return data
}

// layerMaps overlays maps left to right; later entries win.
func layerMaps[V any](layers ...map[string]V) map[string]V {
	out := make(map[string]V)
	for _, layer := range layers {
		maps.Copy(out, layer)
	}
	return out
}

// resolvePath anchors a relative path at dir.
func resolvePath(path, dir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
