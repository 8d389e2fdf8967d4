package template

// Scope is the single mutable name to value mapping shared by one render
// pass. It is created fresh for each pass and discarded afterwards.
type Scope struct {
	vars map[string]any
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]any)}
}

// Define binds name to value, overwriting any previous binding.
func (s *Scope) Define(name string, value any) {
	s.vars[name] = value
}

// Undef removes the binding for name. Removing an unbound name is a no-op.
func (s *Scope) Undef(name string) {
	delete(s.vars, name)
}

// Lookup returns the value bound to name.
func (s *Scope) Lookup(name string) (any, bool) {
	v, ok := s.vars[name]
	return v, ok
}
