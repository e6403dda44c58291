// Package chat turns conversational text into control replies: a spoken
// response plus zero or more structured directive records. An OpenAI-backed
// client handles full natural language; a keyword fallback keeps the rover
// controllable offline and in tests.
package chat

import "github.com/teslashibe/go-walle/pkg/directive"

// ControlReply is the control-mode response shape: what to say and what to do.
type ControlReply struct {
	Speech  string             `json:"speech"`
	Actions []directive.Record `json:"actions"`
}

// Controller generates a control reply for one user utterance.
type Controller interface {
	GenerateControlReply(userText string) (ControlReply, error)
}
