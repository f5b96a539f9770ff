// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package config loads and validates a traffic script document into an
// internal/script.Template, and holds the runtime parameters that
// govern one run of the engine.
package config

import "github.com/google/jsonschema-go/jsonschema"

var stringSchema = &jsonschema.Schema{Type: "string"}

// fieldRuleSchema is shared by save_from_answer.fields and
// add_from_saved_to_body entries: both extract-or-inject a single
// typed value at a JSON pointer path.
var fieldRuleSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"path":       {Type: "string"},
		"value_type": {Type: "string", Enum: []any{"string", "int", "object"}},
	},
	Required: []string{"path", "value_type"},
}

var saveFromAnswerSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"headers": {Type: "object", AdditionalProperties: stringSchema},
		"fields":  {Type: "object", AdditionalProperties: fieldRuleSchema},
	},
}

// responseSchema carries the expected status code a message's answer
// must match; see script.Instance.ValidateAnswer.
var responseSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"code": {Type: "integer"},
	},
	Required: []string{"code"},
}

var messageSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"url":                    {Type: "string"},
		"method":                 {Type: "string", Enum: []any{"GET", "POST", "PUT", "DELETE", "PATCH"}},
		"body":                   {Type: "object"},
		"headers":                {Type: "object", AdditionalProperties: stringSchema},
		"response":               responseSchema,
		"save_from_answer":       saveFromAnswerSchema,
		"add_from_saved_to_body": {Type: "object", AdditionalProperties: fieldRuleSchema},
	},
	Required: []string{"url", "method", "response"},
}

var rangeSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"min": {Type: "integer"},
		"max": {Type: "integer"},
	},
	Required: []string{"min", "max"},
}

// scriptSchema describes the top-level traffic script document: which
// server to drive traffic against, the flow of message identifiers to
// traverse, the message dictionary itself, and the range/variable
// bindings substituted into each instance. dns, port, and timeout are
// flat top-level properties, not nested under a server object.
//
// It deliberately stops at structural validation (types, required
// keys, enumerations); the identifier-uniqueness and reserved-name
// rules in load.go cannot be expressed in JSON Schema and are checked
// afterward in Go.
var scriptSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"dns":       {Type: "string"},
		"port":      {Type: "string"},
		"secure":    {Type: "boolean"},
		"timeout":   {Type: "integer"},
		"flow":      {Type: "array", Items: stringSchema},
		"messages":  {Type: "object", AdditionalProperties: messageSchema},
		"ranges":    {Type: "object", AdditionalProperties: rangeSchema},
		"variables": {Type: "object", AdditionalProperties: stringSchema},
	},
	Required: []string{"dns", "port", "timeout", "flow", "messages"},
}
