// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package jsonptr implements a small subset of RFC 6901 JSON Pointer
// get/set operations over decoded JSON values (map[string]any,
// []any, and scalars), as needed by save-from-answer and
// add-to-body body-path rules.
package jsonptr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Split breaks a pointer like "/a/b/0" into its unescaped tokens.
// The root pointer "" or "/" yields no tokens.
func Split(path string) []string {
	if path == "" || path == "/" {
		return nil
	}
	path = strings.TrimPrefix(path, "/")
	raw := strings.Split(path, "/")
	tokens := make([]string, len(raw))
	for i, t := range raw {
		t = strings.ReplaceAll(t, "~1", "/")
		t = strings.ReplaceAll(t, "~0", "~")
		tokens[i] = t
	}
	return tokens
}

// Get resolves path against doc and returns the raw value found there.
// It returns an error if any segment of the path does not exist.
func Get(doc any, path string) (any, error) {
	cur := doc
	for _, tok := range Split(path) {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[tok]
			if !ok {
				return nil, fmt.Errorf("jsonptr: %q not found in %q", tok, path)
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("jsonptr: invalid index %q in %q", tok, path)
			}
			cur = v[idx]
		default:
			return nil, fmt.Errorf("jsonptr: %q is not a container in %q", tok, path)
		}
	}
	return cur, nil
}

// GetString resolves path and requires the result to be a JSON string.
func GetString(doc any, path string) (string, error) {
	v, err := Get(doc, path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("jsonptr: value at %q is not a string", path)
	}
	return s, nil
}

// GetInt resolves path and requires the result to be a JSON number
// representing an integer.
func GetInt(doc any, path string) (int, error) {
	v, err := Get(doc, path)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("jsonptr: value at %q is not a number", path)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("jsonptr: value at %q is not an integer", path)
	}
	return int(f), nil
}

// GetObject resolves path and requires the result to be a JSON object.
func GetObject(doc any, path string) (map[string]any, error) {
	v, err := Get(doc, path)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("jsonptr: value at %q is not an object", path)
	}
	return m, nil
}

// Set writes value at path within doc, creating intermediate objects
// as needed. doc must be addressable as a map[string]any at the root.
func Set(doc map[string]any, path string, value any) error {
	tokens := Split(path)
	if len(tokens) == 0 {
		return fmt.Errorf("jsonptr: cannot set root")
	}
	cur := doc
	for _, tok := range tokens[:len(tokens)-1] {
		next, ok := cur[tok]
		if !ok {
			m := map[string]any{}
			cur[tok] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("jsonptr: %q is not an object in %q", tok, path)
		}
		cur = m
	}
	cur[tokens[len(tokens)-1]] = value
	return nil
}
