package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	defaultSubmitEvent = "submit"
	defaultCancelEvent = "cancel"
	defaultResultEvent = "result"
)

// submitMessage is the payload of the submit event.
type submitMessage struct {
	TaskID string `json:"task_id"`
	Node   string `json:"node"`
	Op     string `json:"op"`
	Args   []any  `json:"args"`
}

// cancelMessage is the payload of the cancel event.
type cancelMessage struct {
	TaskID string `json:"task_id"`
}

// resultMessage is the payload of the result event.
type resultMessage struct {
	TaskID string `json:"task_id"`
	Value  any    `json:"value"`
	Error  string `json:"error,omitempty"`
}

// decodeResult accepts whatever the socket.io client handed to the event
// handler (a decoded JSON object, raw bytes or a string) and returns the
// result message with numbers normalized to int64 or float64.
func decodeResult(data any) (*resultMessage, error) {
	var raw []byte
	switch v := data.(type) {
	case nil:
		return nil, fmt.Errorf("empty result payload")
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode result payload: %w", err)
		}
		raw = b
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var msg resultMessage
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("failed to decode result payload: %w", err)
	}
	if msg.TaskID == "" {
		return nil, fmt.Errorf("result payload has no task_id")
	}
	msg.Value = normalize(msg.Value)
	return &msg, nil
}

// normalize replaces json.Number values with int64 or float64.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalize(t[k])
		}
		return t
	default:
		return v
	}
}
