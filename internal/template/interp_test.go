package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testData() *Data {
	return &Data{
		Job:        "sweep",
		Dir:        "/work/run0",
		ConfigPath: "/work/monaco.yaml",
		ConfigDir:  "/work",
		Index:      3,
		HasIndex:   true,
		Iter:       map[string]any{"vdd": 1.2, "corner": map[string]any{"name": "ff"}},
		HasIter:    true,
		Props:      map[string]any{"runs": 10, "tag": "night"},
		Env:        map[string]string{"SIMULATOR": "ngspice"},
	}
}

func TestInterpolate(t *testing.T) {
	d := testData()

	t.Run("built-ins", func(t *testing.T) {
		cases := map[string]string{
			"{{job}}":         "sweep",
			"{{dir}}":         "/work/run0",
			"{{config_path}}": "/work/monaco.yaml",
			"{{config_dir}}":  "/work",
			"{{index}}":       "3",
		}
		for in, want := range cases {
			assert.Equal(t, want, Interpolate(in, d), in)
		}
	})

	t.Run("dotted paths", func(t *testing.T) {
		assert.Equal(t, "1.2", Interpolate("{{iter.vdd}}", d))
		assert.Equal(t, "ff", Interpolate("{{iter.corner.name}}", d))
		assert.Equal(t, "10", Interpolate("{{props.runs}}", d))
		assert.Equal(t, "ngspice", Interpolate("{{env.SIMULATOR}}", d))
	})

	t.Run("whole structured value renders as JSON", func(t *testing.T) {
		d := testData()
		d.Iter = map[string]any{"a": 1}
		assert.Equal(t, `{"a":1}`, Interpolate("{{iter}}", d))
	})

	t.Run("mixed text", func(t *testing.T) {
		out := Interpolate("run {{index}} of {{props.runs}} in {{dir}}", d)
		assert.Equal(t, "run 3 of 10 in /work/run0", out)
	})

	t.Run("spaces inside the braces are tolerated", func(t *testing.T) {
		assert.Equal(t, "sweep", Interpolate("{{ job }}", d))
	})
}

func TestInterpolateUnknownNames(t *testing.T) {
	d := testData()

	t.Run("unknown names stay verbatim", func(t *testing.T) {
		assert.Equal(t, "{{missing}}", Interpolate("{{missing}}", d))
		assert.Equal(t, "{{props.absent}}", Interpolate("{{props.absent}}", d))
		assert.Equal(t, "{{env.ABSENT}}", Interpolate("{{env.ABSENT}}", d))
		assert.Equal(t, "{{iter.vdd.deeper}}", Interpolate("{{iter.vdd.deeper}}", d))
	})

	t.Run("iteration names are unbound outside an iteration", func(t *testing.T) {
		d := testData()
		d.HasIndex = false
		d.HasIter = false
		assert.Equal(t, "{{index}}/{{iter}}", Interpolate("{{index}}/{{iter}}", d))
	})

	t.Run("empty and unterminated references are literal", func(t *testing.T) {
		assert.Equal(t, "{{}}", Interpolate("{{}}", d))
		assert.Equal(t, "tail {{job", Interpolate("tail {{job", d))
	})

	t.Run("field access on a scalar is unknown", func(t *testing.T) {
		assert.Equal(t, "{{job.name}}", Interpolate("{{job.name}}", d))
	})
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{true, "true"},
		{42, "42"},
		{int64(7), "7"},
		{1.0, "1"},
		{2.5, "2.5"},
		{[]any{1, "a"}, `[1,"a"]`},
		{map[string]any{"k": 1}, `{"k":1}`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatValue(tc.in), "%#v", tc.in)
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(false))
	assert.False(t, truthy(""))
	assert.False(t, truthy(0))
	assert.False(t, truthy(0.0))
	assert.False(t, truthy([]any{}))
	assert.True(t, truthy(true))
	assert.True(t, truthy("x"))
	assert.True(t, truthy(3))
	assert.True(t, truthy([]any{1}))
	assert.True(t, truthy(map[string]any{"k": 1}))
}
