// Package iterate expands an iteration specification into a lazy sequence
// of per-pass contexts.
package iterate

import "github.com/servinagrero/monaco/internal/config"

// Context is the binding for exactly one pass over a job's steps.
type Context struct {
	// Index is the zero-based ordinal of the pass.
	Index int

	// Value is the optional iteration value. HasValue distinguishes an
	// explicit nil element from no value at all.
	Value    any
	HasValue bool
}

// Generator lazily produces the contexts described by one IterationSpec.
// A generator is created fresh each time a job qualifies to run and cannot
// be resumed mid-stream.
type Generator struct {
	spec config.IterationSpec
	next int
}

// New returns a generator positioned before the first context. A file spec
// must have been resolved into its values during validation.
func New(spec config.IterationSpec) *Generator {
	return &Generator{spec: spec}
}

// Next returns the next context. The second result turns false once a
// finite source is exhausted; this is an expected signal, distinct from any
// error. An infinite source never reports false, termination is the
// caller's responsibility.
func (g *Generator) Next() (*Context, bool) {
	i := g.next
	switch g.spec.Kind {
	case config.IterOnce:
		if i > 0 {
			return nil, false
		}
		g.next++
		return &Context{Index: 0}, true

	case config.IterInfinite:
		g.next++
		return &Context{Index: i, Value: i, HasValue: true}, true

	case config.IterList, config.IterFile:
		if i >= len(g.spec.Values) {
			return nil, false
		}
		g.next++
		return &Context{Index: i, Value: g.spec.Values[i], HasValue: true}, true

	case config.IterRange:
		v := g.spec.From + i*g.spec.By
		if v >= g.spec.To {
			return nil, false
		}
		g.next++
		return &Context{Index: i, Value: v, HasValue: true}, true

	default:
		return nil, false
	}
}
