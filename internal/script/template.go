// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package script

import (
	"strconv"
	"strings"
)

// Range is a named integer cursor, inclusive on both ends.
type Range struct {
	Min, Max int64
}

// ServerInfo is the destination the engine drives traffic against.
type ServerInfo struct {
	DNS    string
	Port   string
	Secure bool
}

// Reserved is the identifier that must never appear as a message name,
// in flow or in the message dictionary, under any condition (spec §9
// resolves the ambiguity in the original toward the stricter reading).
const Reserved = "Total"

// Template is the immutable parsed form of one traffic script. A single
// Template is shared by every Instance the queue dispatches from it.
type Template struct {
	Server    ServerInfo
	TimeoutMS int
	Flow      []string
	Messages  map[string]Message
	Ranges    map[string]Range
	Variables map[string]string
}

// NewInstance builds a fresh traversal of the flow, applying the given
// range cursor bindings and the template's variables by whole-token
// text substitution of "<name>" in url, body, and header names/values.
func (t *Template) NewInstance(rangeValues map[string]int64) *Instance {
	messages := make([]Message, len(t.Flow))
	for i, id := range t.Flow {
		m := t.Messages[id].clone()
		for name, v := range rangeValues {
			substituteMessage(&m, name, strconv.FormatInt(v, 10))
		}
		for name, v := range t.Variables {
			substituteMessage(&m, name, v)
		}
		messages[i] = m
	}
	return &Instance{
		messages:  messages,
		savedStrs: map[string]string{},
		savedInts: map[string]int{},
		savedJSON: map[string]map[string]any{},
	}
}

func substituteMessage(m *Message, name, value string) {
	token := "<" + name + ">"
	m.URL = strings.ReplaceAll(m.URL, token, value)
	m.Body = strings.ReplaceAll(m.Body, token, value)
	if len(m.Headers) == 0 {
		return
	}
	replaced := make(map[string]string, len(m.Headers))
	for k, v := range m.Headers {
		replaced[strings.ReplaceAll(k, token, value)] = strings.ReplaceAll(v, token, value)
	}
	m.Headers = replaced
}
