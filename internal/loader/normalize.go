package loader

import (
	"fmt"
	"math"

	"github.com/servinagrero/monaco/internal/config"
)

// normalize converts an untyped document into the typed config model,
// applying the wire encodings for the iters, log and step variants. Unknown
// keys are ignored.
func normalize(doc map[string]any) (*config.Config, error) {
	cfg := &config.Config{}
	var err error

	for key, value := range doc {
		switch key {
		case "env":
			cfg.Env, err = asStringMap(value, key)
		case "props":
			cfg.Props, err = asMap(value, key)
		case "props_file":
			cfg.PropsFile, err = asString(value, key)
		case "dotenv":
			cfg.Dotenv, err = asBool(value, key)
		case "log":
			var spec *config.LogSpec
			if spec, err = decodeLog(value); err == nil {
				cfg.Log = *spec
			}
		}
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	rawJobs, ok := doc["jobs"]
	if !ok {
		return nil, fmt.Errorf("config has no 'jobs' key")
	}
	list, ok := rawJobs.([]any)
	if !ok {
		return nil, fmt.Errorf("config: field 'jobs' must be a list, got %T", rawJobs)
	}
	for i, rawJob := range list {
		job, err := normalizeJob(rawJob, i)
		if err != nil {
			return nil, err
		}
		cfg.Jobs = append(cfg.Jobs, job)
	}
	return cfg, nil
}

func normalizeJob(raw any, index int) (*config.Job, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("job #%d must be an object, got %T", index, raw)
	}
	name, _ := obj["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("job #%d has no name", index)
	}

	job := &config.Job{Name: name}
	var err error
	for key, value := range obj {
		switch key {
		case "name":
			// Already read.
		case "dir":
			job.Dir, err = asString(value, key)
		case "message":
			job.Message, err = asString(value, key)
		case "props_file":
			job.PropsFile, err = asString(value, key)
		case "env":
			job.Env, err = asStringMap(value, key)
		case "props":
			job.Props, err = asMap(value, key)
		case "depends":
			job.Depends, err = asStringList(value, key)
		case "when":
			job.When, err = asStringList(value, key)
		case "templates":
			job.Templates, err = asStringList(value, key)
		case "steps":
			job.Steps, err = decodeSteps(value)
		case "iters":
			job.Iters, err = decodeIters(value)
		case "log":
			job.Log, err = decodeLog(value)
		case "ignore_errors":
			job.IgnoreErrors, err = asBool(value, key)
		}
		if err != nil {
			return nil, fmt.Errorf("job '%s': %w", name, err)
		}
	}
	return job, nil
}

func decodeSteps(raw any) ([]config.Step, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("'steps' must be a list, got %T", raw)
	}
	steps := make([]config.Step, 0, len(list))
	for i, elem := range list {
		step, err := decodeStep(elem)
		if err != nil {
			return nil, fmt.Errorf("step #%d: %w", i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func decodeStep(raw any) (config.Step, error) {
	switch v := raw.(type) {
	case string:
		return config.Step{Kind: config.StepCommand, Command: v}, nil
	case map[string]any:
		step := config.Step{Kind: config.StepJobRef}
		rawJob, ok := v["job"]
		if !ok {
			return step, fmt.Errorf("a step object must name a 'job'")
		}
		var err error
		if step.Job, err = asString(rawJob, "job"); err != nil {
			return step, err
		}
		if rawProps, ok := v["props"]; ok {
			if step.Props, err = asMap(rawProps, "props"); err != nil {
				return step, err
			}
		}
		if rawEnv, ok := v["env"]; ok {
			if step.Env, err = asStringMap(rawEnv, "env"); err != nil {
				return step, err
			}
		}
		return step, nil
	default:
		return config.Step{}, fmt.Errorf("a step must be a command string or a job reference object, got %T", raw)
	}
}

func decodeIters(raw any) (config.IterationSpec, error) {
	switch v := raw.(type) {
	case nil:
		return config.IterationSpec{}, nil
	case bool:
		if v {
			return config.IterationSpec{Kind: config.IterInfinite}, nil
		}
		return config.IterationSpec{}, nil
	case string:
		return config.IterationSpec{Kind: config.IterFile, File: v}, nil
	case []any:
		return config.IterationSpec{Kind: config.IterList, Values: v}, nil
	case map[string]any:
		spec := config.IterationSpec{Kind: config.IterRange, By: 1}
		rawTo, ok := v["to"]
		if !ok {
			return spec, fmt.Errorf("'iters' range needs a 'to' bound")
		}
		var err error
		if spec.To, err = asInt(rawTo, "to"); err != nil {
			return spec, err
		}
		if rawFrom, ok := v["from"]; ok {
			if spec.From, err = asInt(rawFrom, "from"); err != nil {
				return spec, err
			}
		}
		if rawBy, ok := v["by"]; ok {
			if spec.By, err = asInt(rawBy, "by"); err != nil {
				return spec, err
			}
		}
		return spec, nil
	default:
		return config.IterationSpec{}, fmt.Errorf("'iters' must be a boolean, list, range object or file path, got %T", raw)
	}
}

func decodeLog(raw any) (*config.LogSpec, error) {
	switch v := raw.(type) {
	case bool:
		if v {
			return &config.LogSpec{Mode: config.LogInherit}, nil
		}
		return &config.LogSpec{Mode: config.LogDiscard}, nil
	case string:
		return &config.LogSpec{Mode: config.LogFile, Path: v}, nil
	default:
		return nil, fmt.Errorf("'log' must be a boolean or a file path, got %T", raw)
	}
}

func asString(v any, field string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field '%s' must be a string, got %T", field, v)
	}
	return s, nil
}

func asBool(v any, field string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field '%s' must be a boolean, got %T", field, v)
	}
	return b, nil
}

// asInt accepts the integer representations the different parsers produce:
// int, int64, and float64 with no fractional part.
func asInt(v any, field string) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("field '%s' must be an integer, got %v", field, v)
}

func asMap(v any, field string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field '%s' must be a map, got %T", field, v)
	}
	return m, nil
}

func asStringMap(v any, field string) (map[string]string, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field '%s' must be a map, got %T", field, v)
	}
	out := make(map[string]string, len(obj))
	for key, value := range obj {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("field '%s': value of '%s' must be a string, got %T", field, key, value)
		}
		out[key] = s
	}
	return out, nil
}

func asStringList(v any, field string) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("field '%s' must be a list, got %T", field, v)
	}
	out := make([]string, len(list))
	for i, elem := range list {
		s, ok := elem.(string)
		if !ok {
			return nil, fmt.Errorf("field '%s' element #%d must be a string, got %T", field, i, elem)
		}
		out[i] = s
	}
	return out, nil
}
