// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package jsonptr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGet(t *testing.T) {
	doc := map[string]any{
		"id":   float64(7),
		"name": "example",
		"nested": map[string]any{
			"list": []any{"a", "b"},
		},
	}

	tests := []struct {
		path string
		want any
	}{
		{"/id", float64(7)},
		{"/name", "example"},
		{"/nested/list/1", "b"},
	}
	for _, tt := range tests {
		got, err := Get(doc, tt.path)
		if err != nil {
			t.Fatalf("Get(%q) error: %v", tt.path, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Get(%q) mismatch (-want +got):\n%s", tt.path, diff)
		}
	}
}

func TestGetMissing(t *testing.T) {
	doc := map[string]any{"a": float64(1)}
	if _, err := Get(doc, "/b"); err == nil {
		t.Fatal("Get(/b) should fail on missing key")
	}
}

func TestGetTypedMismatch(t *testing.T) {
	doc := map[string]any{"a": "not-an-int"}
	if _, err := GetInt(doc, "/a"); err == nil {
		t.Fatal("GetInt should fail on a string value")
	}
}

func TestSetCreatesIntermediatePath(t *testing.T) {
	doc := map[string]any{}
	if err := Set(doc, "/a/b", float64(7)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := GetInt(doc, "/a/b")
	if err != nil {
		t.Fatalf("GetInt after Set: %v", err)
	}
	if got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestSetOverwritesExisting(t *testing.T) {
	doc := map[string]any{"ref": float64(1)}
	if err := Set(doc, "/ref", float64(7)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ := GetInt(doc, "/ref")
	if got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}
