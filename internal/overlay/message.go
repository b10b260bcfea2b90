package overlay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Actions understood by the overlay.
const (
	ActionLoad         = "load"
	ActionSetType      = "setType"
	ActionSetColor     = "setColor"
	ActionSetIcon      = "setIcon"
	ActionSetImage     = "setImage"
	ActionSetLabel     = "setLabel"
	ActionSetDistance  = "setDistance"
	ActionShowDistance = "showDistance"
	ActionHide         = "hide"
	ActionShow         = "show"
	ActionReset        = "reset"
)

// Message is one command posted by the host. Only the fields relevant to
// Action are read.
type Message struct {
	Action    string   `json:"action"`
	ID        any      `json:"id,omitempty"`
	Type      string   `json:"type,omitempty"`
	Color     string   `json:"color,omitempty"`
	Icon      string   `json:"icon,omitempty"`
	IconColor string   `json:"iconColor,omitempty"`
	URL       string   `json:"url,omitempty"`
	Text      string   `json:"text,omitempty"`
	Value     Value    `json:"value"`
	Duration  *float64 `json:"duration,omitempty"`
	Show      bool     `json:"show,omitempty"`
}

const (
	defaultDistanceDuration = 110
	distanceDurationOffset  = 10
	// Runs at or below this length are written directly.
	minAnimatedDuration = 50
)

// distanceDuration returns the animation length requested by a setDistance
// message in milliseconds.
func (m Message) distanceDuration() float64 {
	d := float64(defaultDistanceDuration)
	if m.Duration != nil {
		d = *m.Duration
	}
	return d - distanceDurationOffset
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// Value is a readout that the host may send as a JSON string or number.
type Value struct {
	Text string
	Set  bool
}

// UnmarshalJSON accepts strings, numbers and null. Other JSON types leave the
// value unset rather than failing the whole message. Numbers are written in
// their shortest decimal form, so 1e2 and 100.0 both read "100".
func (v *Value) UnmarshalJSON(b []byte) error {
	*v = Value{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		// The host's page treats any falsy readout as "0", not only a missing
		// one, so an empty string is unset rather than a blank distance.
		v.Text, v.Set = s, s != ""
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		v.Text, v.Set = n.String(), true
		// Out of range numbers keep their text and are written as is.
		if f, err := strconv.ParseFloat(v.Text, 64); err == nil {
			v.Text = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return nil
}

// MarshalJSON writes the value back as a string, or null when unset.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Text)
}

// Or returns the value's text, or fallback when it is unset.
func (v Value) Or(fallback string) string {
	if !v.Set {
		return fallback
	}
	return v.Text
}

// Number parses a readout as a finite number. Infinities and NaN are not
// animatable and report false.
func Number(text string) (float64, bool) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ErrEmptyBody is returned by DecodeMessages for an empty request.
var ErrEmptyBody = errors.New("empty message body")

// DecodeMessages decodes a single message object or an array of them. Inside
// an array, entries that fail to decode are skipped so one bad command does not
// drop the rest of the batch.
func DecodeMessages(body []byte) ([]Message, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	if body[0] != '[' {
		var m Message
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, fmt.Errorf("decoding message: %w", err)
		}
		return []Message{m}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding message batch: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
