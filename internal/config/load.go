// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/segmentio/encoding/json"

	"github.com/jgomezselles/hermes-go/internal/script"
)

// rangeDoc, fieldRuleDoc, sfaDoc and messageDoc mirror scriptSchema's
// shape with json tags; they exist only to be unmarshalled and then
// translated into the script package's untagged domain types.
type rangeDoc struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type fieldRuleDoc struct {
	Path      string `json:"path"`
	ValueType string `json:"value_type"`
}

type sfaDoc struct {
	Headers map[string]string       `json:"headers"`
	Fields  map[string]fieldRuleDoc `json:"fields"`
}

type responseDoc struct {
	Code int `json:"code"`
}

type messageDoc struct {
	URL      string                  `json:"url"`
	Method   string                  `json:"method"`
	Body     json.RawMessage         `json:"body"`
	Headers  map[string]string       `json:"headers"`
	Response responseDoc             `json:"response"`
	SFA      *sfaDoc                 `json:"save_from_answer"`
	ATB      map[string]fieldRuleDoc `json:"add_from_saved_to_body"`
}

type scriptDoc struct {
	DNS       string                `json:"dns"`
	Port      string                `json:"port"`
	Secure    bool                  `json:"secure"`
	Timeout   int                   `json:"timeout"`
	Flow      []string              `json:"flow"`
	Messages  map[string]messageDoc `json:"messages"`
	Ranges    map[string]rangeDoc   `json:"ranges"`
	Variables map[string]string    `json:"variables"`
}

// forbiddenHeaders are set by the engine itself from the message body
// and must not be overridden by a script: a script-supplied
// content-type or content-length would silently disagree with what is
// actually written to the wire.
var forbiddenHeaders = map[string]bool{
	"content-type":   true,
	"content-length": true,
}

// Load reads, schema-validates, and semantically validates the script
// document at path, returning a ready-to-dispatch Template.
func Load(path string) (*script.Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := validateStructure(raw); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	var doc scriptDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	tpl, err := toTemplate(doc)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return tpl, nil
}

func validateStructure(raw []byte) error {
	resolved, err := scriptSchema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return fmt.Errorf("resolving schema: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("decoding for validation: %w", err)
	}
	if err := resolved.Validate(&generic); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

func toTemplate(doc scriptDoc) (*script.Template, error) {
	if err := checkReservedAndDuplicateNames(doc); err != nil {
		return nil, err
	}

	messages := make(map[string]script.Message, len(doc.Messages))
	for id, md := range doc.Messages {
		m, err := toMessage(id, md)
		if err != nil {
			return nil, err
		}
		messages[id] = m
	}

	ranges := make(map[string]script.Range, len(doc.Ranges))
	for name, rd := range doc.Ranges {
		if rd.Min > rd.Max {
			return nil, fmt.Errorf("range %q: min (%d) > max (%d)", name, rd.Min, rd.Max)
		}
		ranges[name] = script.Range{Min: rd.Min, Max: rd.Max}
	}

	return &script.Template{
		Server: script.ServerInfo{
			DNS:    doc.DNS,
			Port:   doc.Port,
			Secure: doc.Secure,
		},
		TimeoutMS: doc.Timeout,
		Flow:      doc.Flow,
		Messages:  messages,
		Ranges:    ranges,
		Variables: doc.Variables,
	}, nil
}

func toMessage(id string, md messageDoc) (script.Message, error) {
	for h := range md.Headers {
		if forbiddenHeaders[strings.ToLower(h)] {
			return script.Message{}, fmt.Errorf("message %q: header %q is set by the engine and must not appear in a script", id, h)
		}
	}

	m := script.Message{
		ID:       id,
		URL:      md.URL,
		Method:   md.Method,
		Body:     string(md.Body),
		Headers:  md.Headers,
		PassCode: md.Response.Code,
	}

	if md.SFA != nil {
		fields := make(map[string]script.FieldRule, len(md.SFA.Fields))
		for name, fr := range md.SFA.Fields {
			vt, err := toValueType(fr.ValueType)
			if err != nil {
				return script.Message{}, fmt.Errorf("message %q save_from_answer.fields.%s: %w", id, name, err)
			}
			fields[name] = script.FieldRule{Path: fr.Path, Type: vt}
		}
		m.SFA = &script.SaveFromAnswer{Headers: md.SFA.Headers, Fields: fields}
	}

	if len(md.ATB) > 0 {
		atb := make(script.AddToBody, len(md.ATB))
		for name, fr := range md.ATB {
			vt, err := toValueType(fr.ValueType)
			if err != nil {
				return script.Message{}, fmt.Errorf("message %q add_from_saved_to_body.%s: %w", id, name, err)
			}
			atb[name] = script.FieldRule{Path: fr.Path, Type: vt}
		}
		m.ATB = atb
	}

	return m, nil
}

func toValueType(s string) (script.ValueType, error) {
	switch script.ValueType(s) {
	case script.TypeString, script.TypeInt, script.TypeObject:
		return script.ValueType(s), nil
	default:
		return "", fmt.Errorf("unknown type %q", s)
	}
}

// checkReservedAndDuplicateNames enforces the rules the JSON Schema
// pass cannot express: Reserved never names a message, range, or
// variable, flow only references declared messages, and range and
// variable names never collide (both are substituted by the same
// whole-token "<name>" replacement, so a collision would be ambiguous).
func checkReservedAndDuplicateNames(doc scriptDoc) error {
	if _, ok := doc.Messages[script.Reserved]; ok {
		return fmt.Errorf("%q is reserved and cannot name a message", script.Reserved)
	}
	if _, ok := doc.Ranges[script.Reserved]; ok {
		return fmt.Errorf("%q is reserved and cannot name a range", script.Reserved)
	}
	if _, ok := doc.Variables[script.Reserved]; ok {
		return fmt.Errorf("%q is reserved and cannot name a variable", script.Reserved)
	}
	for _, id := range doc.Flow {
		if id == script.Reserved {
			return fmt.Errorf("%q is reserved and cannot appear in flow", script.Reserved)
		}
		if _, ok := doc.Messages[id]; !ok {
			return fmt.Errorf("flow references undeclared message %q", id)
		}
	}
	for name := range doc.Ranges {
		if _, ok := doc.Variables[name]; ok {
			return fmt.Errorf("%q is declared as both a range and a variable", name)
		}
	}
	return nil
}
