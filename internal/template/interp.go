package template

import "strings"

// Interpolate substitutes `{{name}}` references in a job-level string.
// Names resolve as dotted paths against the built-ins in Data; an unknown
// name is left verbatim, so interpolation never fails.
func Interpolate(s string, d *Data) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	var b strings.Builder
	for {
		open := strings.Index(s, "{{")
		if open < 0 {
			b.WriteString(s)
			break
		}
		rest := s[open+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:open])
		raw := s[open : open+2+end+2]
		if v, ok := d.resolve(strings.TrimSpace(rest[:end])); ok {
			b.WriteString(formatValue(v))
		} else {
			b.WriteString(raw)
		}
		s = s[open+2+end+2:]
	}
	return b.String()
}

// resolve looks up one dotted interpolation path.
func (d *Data) resolve(path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	switch parts[0] {
	case "job":
		return scalarPath(d.Job, parts)
	case "dir":
		return scalarPath(d.Dir, parts)
	case "config_path":
		return scalarPath(d.ConfigPath, parts)
	case "config_dir":
		return scalarPath(d.ConfigDir, parts)
	case "index":
		if !d.HasIndex {
			return nil, false
		}
		return scalarPath(d.Index, parts)
	case "iter":
		if !d.HasIter {
			return nil, false
		}
		return walkFields(d.Iter, parts[1:])
	case "props":
		return walkFields(d.Props, parts[1:])
	case "env":
		if len(parts) == 1 {
			return nil, false
		}
		v, ok := d.Env[strings.Join(parts[1:], ".")]
		return v, ok
	default:
		return nil, false
	}
}

// scalarPath rejects field access on scalar built-ins.
func scalarPath(v any, parts []string) (any, bool) {
	if len(parts) > 1 {
		return nil, false
	}
	return v, true
}

// walkFields descends a dotted path through nested string-keyed maps.
func walkFields(v any, fields []string) (any, bool) {
	for _, f := range fields {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok = m[f]
		if !ok {
			return nil, false
		}
	}
	return v, true
}
