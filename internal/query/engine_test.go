package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Query(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	tests := []struct {
		name  string
		data  string
		expr  string
		opts  Options
		want  []any
		count int
	}{
		{"field", `{"name": "John", "age": 30}`, ".name", Options{}, []any{"John"}, 1},
		{"array", `{"items": [{"name": "a"}, {"name": "b"}]}`, ".items[].name", Options{}, []any{"a", "b"}, 2},
		{"dedupe", `{"items": ["a", "a", "b"]}`, ".items[]", Options{Deduplicate: true}, []any{"a", "b"}, 3},
		{"max results", `{"items": [1, 2, 3, 4, 5]}`, ".items[]", Options{MaxResults: 3}, []any{float64(1), float64(2), float64(3)}, 3},
		{"select", `{"items": [{"s": "on", "n": "a"}, {"s": "off", "n": "b"}]}`, `.items[] | select(.s == "on") | .n`, Options{}, []any{"a"}, 1},
		{"nulls skipped", `{"a": null}`, ".a", Options{}, []any{}, 0},
		{"dedupe objects", `[{"a":1},{"a":1}]`, ".[]", Options{Deduplicate: true}, []any{map[string]any{"a": float64(1)}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Query(ctx, []byte(tt.data), tt.expr, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Values)
			assert.Equal(t, tt.count, res.RawCount)
		})
	}
}

func TestEngine_Query_RuntimeErrorsCollected(t *testing.T) {
	res, err := NewEngine().Query(context.Background(), []byte(`{"items": null}`), ".items[]", Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Values)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "the path may not exist")
}

func TestEngine_Query_Halt(t *testing.T) {
	res, err := NewEngine().Query(context.Background(), []byte(`{}`), `"stop" | halt_error`, Options{})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "query halted")
}

func TestEngine_Query_Failures(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Query(context.Background(), []byte(`{}`), ".name[", Options{})
	assert.ErrorContains(t, err, "invalid jq expression")

	_, err = engine.Query(context.Background(), []byte(`not json`), ".", Options{})
	assert.ErrorContains(t, err, "invalid JSON")

	_, err = engine.Query(context.Background(), []byte(`{}`), "undefined_fn(1)", Options{})
	assert.ErrorContains(t, err, "compiling jq expression")
}

func TestEngine_Query_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine().Query(ctx, []byte(`{}`), "range(1e9)", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_CompileCached(t *testing.T) {
	engine := NewEngine()
	a, err := engine.Compile(".a")
	require.NoError(t, err)
	b, err := engine.Compile(".a")
	require.NoError(t, err)
	assert.Same(t, a, b)

	assert.NoError(t, engine.Validate(".a | length"))
	assert.Error(t, engine.Validate("{"))
}
