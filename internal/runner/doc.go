// Package runner schedules and executes jobs. It owns the whole job
// lifecycle: pre-run validation, dependency ordering, the when gate and
// completion flag, the per-iteration flow of message, artifact templates
// and steps, and the spawning of shell commands with layered environments
// and log redirection.
package runner
