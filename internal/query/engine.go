// Package query runs jq expressions over decoded JSON bodies.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/itchyny/gojq"
)

const compiledCacheSize = 128

// Engine executes jq queries. Compiled expressions are cached, so repeated
// queries with the same expression skip parsing.
type Engine struct {
	compiled *lru.Cache[string, *gojq.Code]
}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	c, _ := lru.New[string, *gojq.Code](compiledCacheSize)
	return &Engine{compiled: c}
}

// Options controls result collection.
type Options struct {
	Deduplicate bool
	// MaxResults caps Values; zero means unlimited.
	MaxResults int
	// Preview, when set, shrinks each value after deduplication.
	Preview *Preview
}

// Result contains the values a query produced.
type Result struct {
	Values   []any    `json:"values"`
	Errors   []string `json:"errors,omitempty"`
	RawCount int      `json:"raw_count"`
}

// Compile parses and compiles an expression.
func (e *Engine) Compile(expression string) (*gojq.Code, error) {
	if code, ok := e.compiled.Get(expression); ok {
		return code, nil
	}

	q, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compiling jq expression: %w", err)
	}

	e.compiled.Add(expression, code)
	return code, nil
}

// Validate reports whether an expression compiles.
func (e *Engine) Validate(expression string) error {
	_, err := e.Compile(expression)
	return err
}

// Query runs expression against JSON data. Runtime errors are collected in
// Result.Errors rather than returned; only an invalid expression, invalid
// JSON or cancellation fail the call.
func (e *Engine) Query(ctx context.Context, data []byte, expression string, opts Options) (*Result, error) {
	code, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}

	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid JSON data: %w", err)
	}

	result := &Result{Values: make([]any, 0)}
	seen := make(map[string]bool)

	iter := code.RunWithContext(ctx, input)
	for {
		if opts.MaxResults > 0 && len(result.Values) >= opts.MaxResults {
			break
		}
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			result.Errors = append(result.Errors, formatJQError(err))
			continue
		}
		if v == nil {
			continue
		}

		result.RawCount++
		if opts.Deduplicate {
			key := valueKey(v)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		if opts.Preview != nil {
			v = opts.Preview.Shrink(v)
		}
		result.Values = append(result.Values, v)
	}
	return result, nil
}

// formatJQError adds hints for common runtime errors. gojq reports these as
// plain errors, so the hints are matched on the message text.
func formatJQError(err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return "query halted"
		}
		return fmt.Sprintf("query halted with: %v", haltErr.Value())
	}

	msg := err.Error()
	var hint string
	switch {
	case strings.Contains(msg, "cannot iterate over: null"):
		hint = " (the path may not exist in this body)"
	case strings.Contains(msg, "cannot index") && strings.Contains(msg, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(msg, "object") && strings.Contains(msg, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	case strings.Contains(msg, "array") && strings.Contains(msg, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]')"
	}
	return msg + hint
}

func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}
