package runner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servinagrero/monaco/internal/config"
	"github.com/servinagrero/monaco/internal/ctxlog"
	"github.com/servinagrero/monaco/internal/testutil"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// testConfig places the config in a fresh temp directory, so steps that
// write relative paths land there.
func testConfig(t *testing.T, jobs ...*config.Job) *config.Config {
	t.Helper()
	return &config.Config{
		Path: filepath.Join(t.TempDir(), "monaco.yaml"),
		Jobs: jobs,
	}
}

func newRunner(t *testing.T, cfg *config.Config, opts Options) (*Runner, *testutil.SafeBuffer) {
	t.Helper()
	buf := &testutil.SafeBuffer{}
	if opts.Out == nil {
		opts.Out = buf
	}
	r, err := New(testContext(), cfg, opts)
	require.NoError(t, err)
	return r, buf
}

func commands(name string, lines ...string) *config.Job {
	job := &config.Job{Name: name}
	for _, line := range lines {
		job.Steps = append(job.Steps, config.Step{Kind: config.StepCommand, Command: line})
	}
	return job
}

func jobRef(target string) config.Step {
	return config.Step{Kind: config.StepJobRef, Job: target}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Fields(string(data))
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunAllDeclarationOrder(t *testing.T) {
	skipWithoutShell(t)

	cfg := testConfig(t,
		commands("one", "echo one >> order.txt"),
		commands("two", "echo two >> order.txt"),
		commands("three", "echo three >> order.txt"),
	)
	r, _ := newRunner(t, cfg, Options{})
	require.NoError(t, r.RunAll(testContext()))

	assert.Equal(t, []string{"one", "two", "three"}, readLines(t, filepath.Join(cfg.Dir(), "order.txt")))
}

func TestDependenciesRunFirstAndOnlyOnce(t *testing.T) {
	skipWithoutShell(t)

	lib := commands("lib", "echo lib >> order.txt")
	app := commands("app", "echo app >> order.txt")
	app.Depends = []string{"lib"}

	t.Run("single job pulls its dependency", func(t *testing.T) {
		cfg := testConfig(t, app, lib)
		r, _ := newRunner(t, cfg, Options{})
		require.NoError(t, r.RunJob(testContext(), "app"))

		assert.Equal(t, []string{"lib", "app"}, readLines(t, filepath.Join(cfg.Dir(), "order.txt")))
	})

	t.Run("completed dependency is not run again", func(t *testing.T) {
		cfg := testConfig(t, app, lib)
		r, _ := newRunner(t, cfg, Options{})
		require.NoError(t, r.RunAll(testContext()))

		// app runs lib through the dependency edge, then lib's own
		// top-level turn is skipped.
		assert.Equal(t, []string{"lib", "app"}, readLines(t, filepath.Join(cfg.Dir(), "order.txt")))
	})
}

func TestJobReferenceSteps(t *testing.T) {
	skipWithoutShell(t)

	t.Run("second reference is skipped", func(t *testing.T) {
		worker := commands("worker", "echo worker >> refs.txt")
		driver := &config.Job{Name: "driver", Steps: []config.Step{jobRef("worker"), jobRef("worker")}}

		cfg := testConfig(t, driver, worker)
		r, _ := newRunner(t, cfg, Options{})
		require.NoError(t, r.RunJob(testContext(), "driver"))

		assert.Equal(t, []string{"worker"}, readLines(t, filepath.Join(cfg.Dir(), "refs.txt")))
	})

	t.Run("call site overrides are scoped to the nested run", func(t *testing.T) {
		worker := commands("worker", `echo {{props.mode}} >> modes.txt`)
		worker.Props = map[string]any{"mode": "own"}
		driver := &config.Job{Name: "driver", Steps: []config.Step{{
			Kind:  config.StepJobRef,
			Job:   "worker",
			Props: map[string]any{"mode": "site"},
		}}}

		cfg := testConfig(t, driver, worker)
		r, _ := newRunner(t, cfg, Options{})
		require.NoError(t, r.RunJob(testContext(), "driver"))
		assert.Equal(t, []string{"site"}, readLines(t, filepath.Join(cfg.Dir(), "modes.txt")))
	})

	t.Run("without overrides the job uses its own props", func(t *testing.T) {
		worker := commands("worker", `echo {{props.mode}} >> modes.txt`)
		worker.Props = map[string]any{"mode": "own"}

		cfg := testConfig(t, worker)
		r, _ := newRunner(t, cfg, Options{})
		require.NoError(t, r.RunJob(testContext(), "worker"))
		assert.Equal(t, []string{"own"}, readLines(t, filepath.Join(cfg.Dir(), "modes.txt")))
	})

	t.Run("nested failure is the step's failure", func(t *testing.T) {
		worker := commands("worker", "false")
		driver := &config.Job{Name: "driver", Steps: []config.Step{jobRef("worker")}}

		cfg := testConfig(t, driver, worker)
		r, _ := newRunner(t, cfg, Options{})
		err := r.RunJob(testContext(), "driver")
		require.ErrorContains(t, err, "job 'driver'")
		assert.ErrorContains(t, err, "iteration(s) failed")
	})
}

func TestWhenGate(t *testing.T) {
	skipWithoutShell(t)

	t.Run("closed gate skips the job", func(t *testing.T) {
		job := commands("gated", "echo ran >> gate.txt")
		job.When = []string{"false"}

		cfg := testConfig(t, job)
		r, _ := newRunner(t, cfg, Options{})
		require.NoError(t, r.RunJob(testContext(), "gated"))

		assert.NoFileExists(t, filepath.Join(cfg.Dir(), "gate.txt"))
	})

	t.Run("open gate runs the job on every reference", func(t *testing.T) {
		worker := commands("worker", "echo ran >> gate.txt")
		worker.When = []string{"true"}
		driver := &config.Job{Name: "driver", Steps: []config.Step{jobRef("worker"), jobRef("worker")}}

		cfg := testConfig(t, driver, worker)
		r, _ := newRunner(t, cfg, Options{})
		require.NoError(t, r.RunJob(testContext(), "driver"))

		assert.Equal(t, []string{"ran", "ran"}, readLines(t, filepath.Join(cfg.Dir(), "gate.txt")))
	})

	t.Run("evaluation short circuits on the first failure", func(t *testing.T) {
		job := commands("gated", "echo ran >> gate.txt")
		job.When = []string{"false", "echo probed >> probe.txt"}

		cfg := testConfig(t, job)
		r, _ := newRunner(t, cfg, Options{})
		require.NoError(t, r.RunJob(testContext(), "gated"))

		assert.NoFileExists(t, filepath.Join(cfg.Dir(), "probe.txt"))
	})

	t.Run("gate commands see the job environment", func(t *testing.T) {
		job := commands("gated", "echo ran >> gate.txt")
		job.Env = map[string]string{"MODE": "on"}
		job.When = []string{`test "$MODE" = on`}

		cfg := testConfig(t, job)
		r, _ := newRunner(t, cfg, Options{})
		require.NoError(t, r.RunJob(testContext(), "gated"))

		assert.FileExists(t, filepath.Join(cfg.Dir(), "gate.txt"))
	})
}

func TestRunJobUnknownName(t *testing.T) {
	cfg := testConfig(t, commands("alpha", "true"), commands("beta", "true"))
	r, _ := newRunner(t, cfg, Options{})

	err := r.RunJob(testContext(), "gamma")
	require.ErrorContains(t, err, "unknown job 'gamma'")
	assert.ErrorContains(t, err, "alpha, beta")
}

func TestRunAllCollectsFailures(t *testing.T) {
	skipWithoutShell(t)

	cfg := testConfig(t,
		commands("ok", "echo ok >> runs.txt"),
		commands("bad", "false"),
		commands("also_ok", "echo also_ok >> runs.txt"),
	)
	r, _ := newRunner(t, cfg, Options{})

	err := r.RunAll(testContext())
	require.ErrorContains(t, err, "1 job(s) failed")

	// The failing job does not stop the ones declared after it.
	assert.Equal(t, []string{"ok", "also_ok"}, readLines(t, filepath.Join(cfg.Dir(), "runs.txt")))
}

func TestParallel(t *testing.T) {
	skipWithoutShell(t)

	t.Run("independent jobs all run", func(t *testing.T) {
		cfg := testConfig(t,
			commands("a", "echo a >> a.txt"),
			commands("b", "echo b >> b.txt"),
			commands("c", "echo c >> c.txt"),
		)
		r, _ := newRunner(t, cfg, Options{Parallel: true})
		require.NoError(t, r.RunAll(testContext()))

		for _, name := range []string{"a", "b", "c"} {
			assert.Equal(t, []string{name}, readLines(t, filepath.Join(cfg.Dir(), name+".txt")))
		}
	})

	t.Run("shared dependency still runs once", func(t *testing.T) {
		shared := commands("shared", "echo shared >> shared.txt")
		left := commands("left", "true")
		left.Depends = []string{"shared"}
		right := commands("right", "true")
		right.Depends = []string{"shared"}

		cfg := testConfig(t, left, right, shared)
		r, _ := newRunner(t, cfg, Options{Parallel: true})
		require.NoError(t, r.RunAll(testContext()))

		assert.Equal(t, []string{"shared"}, readLines(t, filepath.Join(cfg.Dir(), "shared.txt")))
	})

	t.Run("failures are collected like the sequential mode", func(t *testing.T) {
		cfg := testConfig(t,
			commands("ok", "echo ok >> ok.txt"),
			commands("bad", "false"),
		)
		r, _ := newRunner(t, cfg, Options{Parallel: true})

		err := r.RunAll(testContext())
		require.ErrorContains(t, err, "1 job(s) failed")
		assert.FileExists(t, filepath.Join(cfg.Dir(), "ok.txt"))
	})
}
