// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package script models one message flow: the immutable template parsed
// from a traffic script document, and the mutable per-traversal
// instance dispatched against it.
package script

import "fmt"

// ValueType is the declared type of a captured or injected field.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeInt    ValueType = "int"
	TypeObject ValueType = "object"
)

// FieldRule extracts a value from an answer body at Path, as Type.
type FieldRule struct {
	Path string
	Type ValueType
}

// SaveFromAnswer is the set of extraction rules run against a response
// before the flow advances past the message that owns it.
type SaveFromAnswer struct {
	// Headers maps a capture identifier to a response header name.
	Headers map[string]string
	// Fields maps a capture identifier to a body extraction rule.
	Fields map[string]FieldRule
}

// AddToBody is the set of injection rules applied to a message's body
// before it is sent, using values captured by a prior SaveFromAnswer.
type AddToBody map[string]FieldRule

// Message is one request/expected-response pair in a flow.
type Message struct {
	ID      string
	URL     string
	Method  string
	Body    string // raw JSON text, possibly empty
	Headers map[string]string
	// PassCode is the response status that counts as success for this message.
	PassCode int
	SFA      *SaveFromAnswer
	ATB      AddToBody
}

func (m Message) clone() Message {
	headers := make(map[string]string, len(m.Headers))
	for k, v := range m.Headers {
		headers[k] = v
	}
	c := m
	c.Headers = headers
	return c
}

// Answer is the (status, body, headers) triple returned by the server
// for one request.
type Answer struct {
	Status  int
	Body    []byte
	Headers map[string]string
}

func (m Message) String() string {
	return fmt.Sprintf("%s %s %s", m.Method, m.URL, m.ID)
}
