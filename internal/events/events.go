// Package events fans pipeline progress out to live subscribers such as the
// /events SSE stream.
package events

import (
	"encoding/json"
	"time"
)

const (
	TypeProgress = "progress"
	TypeRunDone  = "run_done"
	TypePing     = "ping"
)

type Event struct {
	Type     string          `json:"type"`
	Version  int             `json:"v"`
	At       time.Time       `json:"at"`
	Scope    string          `json:"scope,omitempty"`
	Message  string          `json:"message,omitempty"`
	Fraction float64         `json:"fraction"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// MakeEvent encodes an event envelope. data may be nil.
func MakeEvent(typ, scope, message string, fraction float64, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:     typ,
		Version:  1,
		At:       time.Now().UTC(),
		Scope:    scope,
		Message:  message,
		Fraction: fraction,
		Data:     raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
