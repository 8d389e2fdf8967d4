package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Config is the unified, format-agnostic representation of a configuration
// file: global settings plus the ordered list of jobs.
type Config struct {
	// Path is the canonical absolute path of the loaded file.
	Path string

	// Env holds global environment variables applied to every job.
	Env map[string]string

	// Props holds global template properties applied to every job.
	Props map[string]any

	// PropsFile optionally names a file whose map contents are merged into
	// Props at load time.
	PropsFile string

	// Dotenv merges <config dir>/.env into Env at load time.
	Dotenv bool

	// Log is the default log target for jobs that define none.
	Log LogSpec

	// Jobs in declaration order.
	Jobs []*Job
}

// Dir returns the directory containing the configuration file.
func (c *Config) Dir() string {
	return filepath.Dir(c.Path)
}

// JobNames returns the names of all jobs in declaration order.
func (c *Config) JobNames() []string {
	names := make([]string, len(c.Jobs))
	for i, job := range c.Jobs {
		names[i] = job.Name
	}
	return names
}

// Job is one named unit of work.
type Job struct {
	// Name must be unique within the configuration.
	Name string

	// Dir is the working directory template for the job's steps. When empty
	// the configuration directory is used.
	Dir string

	// Message is an interpolated line printed at the start of every iteration.
	Message string

	Env   map[string]string
	Props map[string]any

	// PropsFile optionally names a file merged into Props at load time.
	PropsFile string

	// Depends lists jobs that must have run before this one.
	Depends []string

	// Steps in execution order.
	Steps []Step

	// Iters controls how many times the steps run and with what context.
	Iters IterationSpec

	// Templates lists "input:output" artifact pairs rendered once per
	// iteration before the steps run.
	Templates []string

	// When lists gate commands. A non-empty list replaces the completion
	// flag: the job runs whenever every command exits zero.
	When []string

	// Log overrides the global log target when non-nil.
	Log *LogSpec

	// IgnoreErrors keeps an iteration going after a failed step.
	IgnoreErrors bool
}

// StepKind discriminates the step variants.
type StepKind int

const (
	// StepCommand runs a command line through the platform shell.
	StepCommand StepKind = iota

	// StepJobRef runs another job in place of a command.
	StepJobRef
)

// Step is one executable unit inside a job: a shell command or a reference
// to another job with optional call-site overrides.
type Step struct {
	Kind StepKind

	// Command is the command line template for StepCommand.
	Command string

	// Job names the target job for StepJobRef.
	Job string

	// Props and Env overlay the target job's own layers for the duration of
	// the nested invocation only.
	Props map[string]any
	Env   map[string]string
}

// IterationKind discriminates the iteration spec variants.
type IterationKind int

const (
	// IterOnce runs the steps exactly once.
	IterOnce IterationKind = iota

	// IterInfinite runs the steps until the run is interrupted.
	IterInfinite

	// IterList runs the steps once per listed value.
	IterList

	// IterRange runs the steps over a half-open integer range.
	IterRange

	// IterFile runs the steps once per element of a JSON array file.
	IterFile
)

func (k IterationKind) String() string {
	switch k {
	case IterOnce:
		return "once"
	case IterInfinite:
		return "infinite"
	case IterList:
		return "list"
	case IterRange:
		return "range"
	case IterFile:
		return "file"
	default:
		return fmt.Sprintf("IterationKind(%d)", int(k))
	}
}

// IterationSpec describes how often a job's steps run. The zero value is
// IterOnce.
type IterationSpec struct {
	Kind IterationKind

	// Values holds the elements for IterList, and for IterFile once the
	// referenced file has been loaded during validation.
	Values []any

	// From, To and By describe the half-open range [From, To) walked in
	// increments of By. Only meaningful for IterRange.
	From int
	To   int
	By   int

	// File is the JSON array path for IterFile, absolute or relative to the
	// configuration directory.
	File string
}

// LogMode discriminates the log target variants.
type LogMode int

const (
	// LogInherit writes step output to the runner's own output.
	LogInherit LogMode = iota

	// LogDiscard drops step output.
	LogDiscard

	// LogFile appends step output to a rendered file path.
	LogFile
)

// LogSpec describes where step output goes. The zero value inherits the
// runner's output.
type LogSpec struct {
	Mode LogMode

	// Path is the file path template for LogFile, re-rendered every
	// iteration.
	Path string
}

// ParseArtifact splits an "input:output" template pair. Exactly one
// separator is allowed and both halves must be non-empty.
func ParseArtifact(pair string) (in, out string, err error) {
	parts := strings.Split(pair, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed template pair %q: want \"input:output\"", pair)
	}
	return parts[0], parts[1], nil
}
