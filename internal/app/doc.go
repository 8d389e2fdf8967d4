// Package app wires the configuration loader, the job runner and the
// optional healthcheck listener into a single run of the tool. Each App
// owns an isolated logger so concurrent instances (as in tests) never
// share state.
package app
