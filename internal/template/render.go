package template

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Render evaluates the template against the given scope. Defines and undefs
// mutate the scope for the remainder of the pass; unknown references render
// verbatim. A RenderError aborts the whole pass.
func (t *Template) Render(scope *Scope) (string, error) {
	e := &evaluator{scope: scope}
	var b strings.Builder
	if err := e.renderNodes(t.nodes, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// evaluator carries the per-pass interpreter state: the shared scope and
// the stack of enclosing loop indices.
type evaluator struct {
	scope *Scope
	loops []int
}

func (e *evaluator) loopIndex() (int, bool) {
	if len(e.loops) == 0 {
		return 0, false
	}
	return e.loops[len(e.loops)-1], true
}

func (e *evaluator) renderNodes(nodes []node, b *strings.Builder) error {
	for _, n := range nodes {
		switch t := n.(type) {
		case textNode:
			b.WriteString(string(t))

		case *defineNode:
			e.scope.Define(t.name, t.value)

		case *undefNode:
			e.scope.Undef(t.name)

		case *refNode:
			if err := e.renderRef(t, b); err != nil {
				return err
			}

		case *ifNode:
			branch := t.then
			if e.evalCond(t.cond) == t.negate {
				branch = t.els
			}
			if err := e.renderNodes(branch, b); err != nil {
				return err
			}

		case *forNode:
			if err := e.renderFor(t, b); err != nil {
				return err
			}

		default:
			panic(fmt.Sprintf("template: unknown node type %T", n))
		}
	}
	return nil
}

func (e *evaluator) renderRef(ref *refNode, b *strings.Builder) error {
	var value any
	if ref.loopVar {
		it, ok := e.loopIndex()
		if !ok {
			b.WriteString(ref.raw)
			return nil
		}
		value = it
	} else {
		v, ok := e.scope.Lookup(ref.name)
		if !ok {
			b.WriteString(ref.raw)
			return nil
		}
		value = v
	}

	if ref.index == nil {
		b.WriteString(formatValue(value))
		return nil
	}

	idx := ref.index.lit
	if ref.index.loopVar {
		it, ok := e.loopIndex()
		if !ok {
			b.WriteString(ref.raw)
			return nil
		}
		idx = it
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return &RenderError{Raw: ref.raw, Msg: fmt.Sprintf("cannot index %q: not a list", ref.name)}
	}
	if idx < 0 || idx >= rv.Len() {
		return &RenderError{Raw: ref.raw, Msg: fmt.Sprintf("index %d out of range for %q (len %d)", idx, ref.name, rv.Len())}
	}
	b.WriteString(formatValue(rv.Index(idx).Interface()))
	return nil
}

// evalCond resolves a condition: the literals true and false, otherwise the
// truthiness of the named binding. Unbound names are false.
func (e *evaluator) evalCond(cond string) bool {
	if strings.EqualFold(cond, "true") {
		return true
	}
	if strings.EqualFold(cond, "false") {
		return false
	}
	v, ok := e.scope.Lookup(cond)
	return ok && truthy(v)
}

func (e *evaluator) renderFor(loop *forNode, b *strings.Builder) error {
	start, err := e.resolveBound(loop, loop.start)
	if err != nil {
		return err
	}
	end, err := e.resolveBound(loop, loop.end)
	if err != nil {
		return err
	}

	e.loops = append(e.loops, 0)
	defer func() { e.loops = e.loops[:len(e.loops)-1] }()

	for i := start; i < end; i++ {
		e.loops[len(e.loops)-1] = i
		if err := e.renderNodes(loop.body, b); err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluator) resolveBound(loop *forNode, bd bound) (int, error) {
	if bd.name == "" {
		return bd.lit, nil
	}
	v, ok := e.scope.Lookup(bd.name)
	if !ok {
		return 0, &RenderError{Raw: loop.raw, Msg: fmt.Sprintf("loop bound %q is not defined", bd.name)}
	}
	n, ok := toInt(v)
	if !ok {
		return 0, &RenderError{Raw: loop.raw, Msg: fmt.Sprintf("loop bound %q is not an integer (got %s)", bd.name, strconv.Quote(formatValue(v)))}
	}
	return n, nil
}
