package events

import (
	"encoding/json"
	"time"
)

// Event types published over the SSE stream.
const (
	TypeRunStarted    = "run_started"
	TypeRunFinished   = "run_finished"
	TypeDealsInserted = "deals_inserted"
)

type Event struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

func Make(typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type: typ,
		At:   time.Now().UTC(),
		Data: raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
