package template

import "maps"

// Data carries the built-in names exposed to both template layers for one
// job invocation: interpolation resolves them as dotted paths, and Scope()
// seeds a render pass with them.
type Data struct {
	// Job is the name of the running job.
	Job string

	// Dir is the resolved working directory of the current iteration.
	Dir string

	// ConfigPath and ConfigDir locate the loaded configuration file.
	ConfigPath string
	ConfigDir  string

	// Index and Iter describe the current iteration context. HasIndex and
	// HasIter track whether they are bound at all; outside an iteration a
	// reference to them renders verbatim.
	Index    int
	HasIndex bool
	Iter     any
	HasIter  bool

	// Props are the layered job properties, Env the layered environment.
	Props map[string]any
	Env   map[string]string
}

// Clone returns a copy whose maps can be overlaid without touching the
// parent, used for call-site overrides on nested job invocations.
func (d *Data) Clone() *Data {
	c := *d
	c.Props = maps.Clone(d.Props)
	c.Env = maps.Clone(d.Env)
	if c.Props == nil {
		c.Props = make(map[string]any)
	}
	if c.Env == nil {
		c.Env = make(map[string]string)
	}
	return &c
}

// Scope seeds a fresh render-pass scope: flat properties first, then the
// named fields of a structured iteration value, then the built-ins. Later
// entries win on collision.
func (d *Data) Scope() *Scope {
	s := NewScope()
	for k, v := range d.Props {
		s.Define(k, v)
	}
	if fields, ok := d.Iter.(map[string]any); ok {
		for k, v := range fields {
			s.Define(k, v)
		}
	}
	if d.HasIter {
		s.Define("iter", d.Iter)
	}
	if d.HasIndex {
		s.Define("index", d.Index)
	}
	s.Define("job", d.Job)
	s.Define("dir", d.Dir)
	s.Define("config_path", d.ConfigPath)
	s.Define("config_dir", d.ConfigDir)
	return s
}
