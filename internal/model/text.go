// Package model defines the extraction payloads and persisted records of medextract.
package model

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/kart-io/medextract/pkg/utils/json"
)

// Text is a nullable leaf value of a model extraction. Whitespace-only means
// absent. Numbers and booleans are kept as their literal text; nested objects
// or arrays are kept as their raw JSON.
type Text string

// IsEmpty reports whether t carries no value.
func (t Text) IsEmpty() bool {
	return strings.TrimSpace(string(t)) == ""
}

// String returns the trimmed value.
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// Or returns t, or def when t is empty.
func (t Text) Or(def string) string {
	if t.IsEmpty() {
		return def
	}
	return t.String()
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	default:
		*t = Text(b)
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Empty values encode as null.
func (t Text) MarshalJSON() ([]byte, error) {
	if t.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// TextList is a list of Text. A single scalar is read as a one-element list.
type TextList []Text

// UnmarshalJSON implements json.Unmarshaler.
func (l *TextList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var items []Text
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var t Text
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	if t.IsEmpty() {
		*l = nil
	} else {
		*l = TextList{t}
	}
	return nil
}

// MarshalJSON implements json.Marshaler. A nil list encodes as [].
func (l TextList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Text(l))
}

// Strings returns the non-empty values.
func (l TextList) Strings() []string {
	out := make([]string, 0, len(l))
	for _, t := range l {
		if !t.IsEmpty() {
			out = append(out, t.String())
		}
	}
	return out
}

// Score is an optional number reported by the model. Numeric strings such as
// "85" or "85%" are accepted; anything else is treated as absent.
type Score struct {
	Value float64
	Valid bool
}

// ScoreOf returns a present score.
func ScoreOf(v float64) Score {
	return Score{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Score) UnmarshalJSON(b []byte) error {
	*s = Score{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil
		}
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		*s = ScoreOf(v)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(s.Value, 'f', -1, 64)), nil
}
