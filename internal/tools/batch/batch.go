package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many items ProcessBatch runs at once
const DefaultConcurrency = 4

// Result represents the result of a single operation in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success" or "error"
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult represents the aggregated results of a batch operation
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses a parameter that can be a single string, an
// array of strings, or an array encoded as a JSON string (some clients
// send arrays that way).
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		if strings.HasPrefix(strings.TrimSpace(v), "[") {
			var items []any
			if err := json.Unmarshal([]byte(v), &items); err == nil {
				return parseArray(items, paramName)
			}
		}
		return []string{v}, nil
	case []any:
		return parseArray(v, paramName)
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return parseArray(items, paramName)
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}
}

func parseArray(items []any, paramName string) ([]string, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	result := make([]string, 0, len(items))
	for i, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
		}
		if str == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		result = append(result, str)
	}
	return result, nil
}

// FormatResults creates a formatted JSON string from batch results
func FormatResults(results []Result) string {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}

	for _, r := range results {
		if r.Status == "success" {
			br.Successful++
		} else {
			br.Failed++
		}
	}

	jsonBytes, _ := json.MarshalIndent(br, "", "  ")
	return string(jsonBytes)
}

// ProcessBatch runs fn for every id with at most limit calls in flight
// (DefaultConcurrency when limit <= 0). One failing item does not stop the
// others; results keep the order of ids.
func ProcessBatch(ctx context.Context, ids []string, limit int, fn func(ctx context.Context, id string) (string, error)) []Result {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]Result, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = NewErrorResult(id, err)
				return nil
			}
			res, err := fn(gctx, id)
			if err != nil {
				results[i] = NewErrorResult(id, err)
				return nil
			}
			results[i] = NewSuccessResult(id, res)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: "success",
		Result: message,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: "error",
		Error:  err.Error(),
	}
}
