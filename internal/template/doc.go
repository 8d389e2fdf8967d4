// Package template implements the two substitution layers used by jobs.
//
// The first layer is a small directive language for rendering artifact
// files (netlists, generated configs). Directives are embedded in otherwise
// literal text as `..name::` markers:
//
//	..define:: vdd 5
//	..for:: 0 3
//	Vsrc n..it:: 0 DC ..vdd::
//	..end::
//
// The second layer is plain `{{name}}` interpolation used for job-level
// strings (dir, log, env values, command text, messages).
//
// Both layers share one policy: a reference to an unknown name is left
// verbatim in the output, never raised as an error.
package template
