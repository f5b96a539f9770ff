// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package script

import (
	"github.com/jgomezselles/hermes-go/internal/jsonptr"
	"github.com/segmentio/encoding/json"
)

// Instance is one runtime traversal of a Template's flow. It owns its
// own clone of the remaining messages and the values captured so far;
// it is discarded once its message queue is exhausted or it fails
// validation.
type Instance struct {
	messages  []Message
	savedStrs map[string]string
	savedInts map[string]int
	savedJSON map[string]map[string]any
}

// Front returns the current (head-of-queue) message.
func (in *Instance) Front() Message {
	return in.messages[0]
}

func (in *Instance) NextURL() string     { return in.messages[0].URL }
func (in *Instance) NextMethod() string  { return in.messages[0].Method }
func (in *Instance) NextBody() string    { return in.messages[0].Body }
func (in *Instance) NextID() string      { return in.messages[0].ID }
func (in *Instance) NextHeaders() map[string]string {
	return in.messages[0].Headers
}

// IsLast reports whether the front message is the last in the flow.
func (in *Instance) IsLast() bool {
	return len(in.messages) == 1
}

// ValidateAnswer reports whether answer.Status matches the front
// message's declared pass code.
func (in *Instance) ValidateAnswer(answer Answer) bool {
	return answer.Status == in.messages[0].PassCode
}

// PostProcess applies the front message's save-from-answer rules
// against answer, advances the flow, and applies the new front
// message's add-to-body rules. It returns false (and leaves the
// instance unchanged enough to be discarded by the caller) if the
// front message was the last in the flow, or if any extraction or
// injection rule fails.
func (in *Instance) PostProcess(answer Answer) bool {
	front := in.messages[0]
	if front.SFA != nil {
		if !in.saveFromAnswer(answer, front.SFA) {
			return false
		}
	}

	if in.IsLast() {
		return false
	}

	next := in.messages[1]
	if len(next.ATB) > 0 {
		body, ok := in.addToBody(next.Body, next.ATB)
		if !ok {
			return false
		}
		next.Body = body
	}

	in.messages[1] = next
	in.messages = in.messages[1:]
	return true
}

func (in *Instance) saveFromAnswer(answer Answer, sfa *SaveFromAnswer) bool {
	strs := map[string]string{}
	ints := map[string]int{}
	objs := map[string]map[string]any{}

	for id, header := range sfa.Headers {
		v, ok := answer.Headers[header]
		if !ok {
			return false
		}
		strs[id] = v
	}

	var body any
	if len(sfa.Fields) > 0 {
		if err := json.Unmarshal(answer.Body, &body); err != nil {
			return false
		}
	}
	for id, rule := range sfa.Fields {
		switch rule.Type {
		case TypeString:
			v, err := jsonptr.GetString(body, rule.Path)
			if err != nil {
				return false
			}
			strs[id] = v
		case TypeInt:
			v, err := jsonptr.GetInt(body, rule.Path)
			if err != nil {
				return false
			}
			ints[id] = v
		case TypeObject:
			v, err := jsonptr.GetObject(body, rule.Path)
			if err != nil {
				return false
			}
			objs[id] = v
		default:
			return false
		}
	}

	// Commit atomically: nothing above mutated the instance's saved
	// maps, so a failure anywhere leaves them untouched.
	for id, v := range strs {
		in.savedStrs[id] = v
	}
	for id, v := range ints {
		in.savedInts[id] = v
	}
	for id, v := range objs {
		in.savedJSON[id] = v
	}
	return true
}

func (in *Instance) addToBody(body string, atb AddToBody) (string, bool) {
	var doc map[string]any
	if body == "" {
		doc = map[string]any{}
	} else if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return "", false
	}

	for id, rule := range atb {
		var value any
		switch rule.Type {
		case TypeString:
			v, ok := in.savedStrs[id]
			if !ok {
				return "", false
			}
			value = v
		case TypeInt:
			v, ok := in.savedInts[id]
			if !ok {
				return "", false
			}
			value = v
		case TypeObject:
			v, ok := in.savedJSON[id]
			if !ok {
				return "", false
			}
			value = v
		default:
			return "", false
		}
		if err := jsonptr.Set(doc, rule.Path, value); err != nil {
			return "", false
		}
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return "", false
	}
	return string(out), true
}
