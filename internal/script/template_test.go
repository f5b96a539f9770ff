// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package script

import "testing"

func TestNewInstanceAppliesVariables(t *testing.T) {
	tpl := &Template{
		Flow: []string{"m1"},
		Messages: map[string]Message{
			"m1": {
				ID:      "m1",
				URL:     "/v1/<env>/things",
				Headers: map[string]string{"X-Env": "<env>"},
				Method:  "GET",
			},
		},
		Variables: map[string]string{"env": "staging"},
	}
	in := tpl.NewInstance(nil)
	if got, want := in.NextURL(), "/v1/staging/things"; got != want {
		t.Errorf("NextURL() = %q, want %q", got, want)
	}
	if got, want := in.NextHeaders()["X-Env"], "staging"; got != want {
		t.Errorf("header X-Env = %q, want %q", got, want)
	}
}

func TestNewInstanceDoesNotMutateTemplate(t *testing.T) {
	tpl := &Template{
		Flow:     []string{"m1"},
		Messages: map[string]Message{"m1": {ID: "m1", URL: "/items/<r>"}},
		Ranges:   map[string]Range{"r": {Min: 1, Max: 2}},
	}
	_ = tpl.NewInstance(map[string]int64{"r": 1})
	if got := tpl.Messages["m1"].URL; got != "/items/<r>" {
		t.Errorf("template mutated: URL = %q", got)
	}
}
