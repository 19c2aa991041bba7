// Package parser extracts JSON objects from free-form model output.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON is wrapped by ParseError when the text holds no JSON object at all.
var ErrNoJSON = errors.New("no JSON object found")

// Strategy names a recovery step tried by the parser.
type Strategy string

const (
	StrategyDirect  Strategy = "direct"
	StrategyExtract Strategy = "extract"
	StrategyRepair  Strategy = "repair"
)

// ParseError reports that every strategy failed.
type ParseError struct {
	// Tried lists the strategies attempted, in order.
	Tried []Strategy
	// Snippet is the start of the input, for logs.
	Snippet string
	// Err is the error from the last strategy.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse JSON (tried %v) from %q: %v", e.Tried, e.Snippet, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const snippetLen = 80

// Parse decodes the first JSON object found in text.
func Parse(text string) (map[string]any, error) {
	return ParseInto[map[string]any](text)
}

// ParseInto decodes the JSON object found in text into T.
//
// Strategies run in order: direct decode of the fence-stripped text, decode of the
// span between the first '{' and the last '}', then a repair pass over that span
// to recover truncated or slightly malformed output.
func ParseInto[T any](text string) (T, error) {
	var zero T
	perr := &ParseError{Snippet: snippet(text)}

	body := StripFences(text)
	if body == "" {
		perr.Err = ErrNoJSON
		return zero, perr
	}

	perr.Tried = append(perr.Tried, StrategyDirect)
	out, err := decode[T](body)
	if err == nil {
		return out, nil
	}
	perr.Err = err

	candidate := body
	if start := strings.Index(body, "{"); start >= 0 {
		if end := strings.LastIndex(body, "}"); end > start {
			candidate = body[start : end+1]
			if candidate != body {
				perr.Tried = append(perr.Tried, StrategyExtract)
				out, err = decode[T](candidate)
				if err == nil {
					return out, nil
				}
				perr.Err = err
			}
		} else {
			candidate = body[start:]
		}
	} else {
		perr.Err = fmt.Errorf("%w: %v", ErrNoJSON, err)
		return zero, perr
	}

	perr.Tried = append(perr.Tried, StrategyRepair)
	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		perr.Err = err
		return zero, perr
	}
	out, err = decode[T](repaired)
	if err != nil {
		perr.Err = err
		return zero, perr
	}
	return out, nil
}

// StripFences removes a leading ```lang line and a trailing ``` from text.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Normalize re-encodes a parsed document compactly with sorted keys.
func Normalize(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("normalize JSON: %w", err)
	}
	return string(data), nil
}

// decode requires a JSON object at the top level.
func decode[T any](s string) (T, error) {
	var out T
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") {
		return out, ErrNoJSON
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	if dec.More() {
		return out, errors.New("trailing data after JSON object")
	}
	return out, nil
}

func snippet(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > snippetLen {
		return string(r[:snippetLen]) + "..."
	}
	return string(r)
}
