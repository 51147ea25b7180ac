package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result is the analysis payload returned by the remote service. Every field
// is optional; absent and zero values are treated alike by the renderer.
type Result struct {
	Name               string   `json:"name,omitempty"`
	Email              string   `json:"email,omitempty"`
	JobTitle           string   `json:"jobTitle,omitempty"`
	ATSScore           Score    `json:"atsScore,omitempty"`
	Skills             TextList `json:"skills,omitempty"`
	Achievements       TextList `json:"achievements,omitempty"`
	SkillsToLearn      TextList `json:"skillsToLearn,omitempty"`
	RecommendedCourses []Course `json:"recommendedCourses,omitempty"`

	// Raw is the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}

// Decode parses a response body, keeping the original bytes in Raw.
func Decode(body []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	r.Raw = append(json.RawMessage(nil), body...)
	return &r, nil
}

// Score is the ATS score as display text. Numbers and numeric strings are
// normalized ("85.0" becomes "85"); any other value keeps its text, so "N/A"
// stays "N/A". Zero, "", false and null all decode to the empty score.
type Score string

// UnmarshalJSON accepts any JSON value.
func (s *Score) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("false")) {
		*s = ""
		return nil
	}
	*s = normalizeScore(pairText(trimmed))
	return nil
}

// MarshalJSON writes numeric scores as numbers and anything else as a string.
func (s Score) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	if v, ok := s.Float(); ok {
		return json.Marshal(v)
	}
	return json.Marshal(string(s))
}

// Float reports the numeric value of s, if it has one.
func (s Score) Float() (float64, bool) {
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// String returns the display text.
func (s Score) String() string { return string(s) }

func normalizeScore(raw string) Score {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		if v == 0 {
			return ""
		}
		return Score(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return Score(raw)
}

// TextList is a list of display strings. Non-string elements keep their JSON
// text, null elements are dropped, and a lone string becomes a one-item list.
type TextList []string

// UnmarshalJSON accepts an array of any values, a single string, or null.
func (l *TextList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if trimmed[0] != '[' {
		if text := pairText(trimmed); text != "" {
			*l = TextList{text}
		} else {
			*l = nil
		}
		return nil
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(trimmed, &parts); err != nil {
		return err
	}
	out := make(TextList, 0, len(parts))
	for _, part := range parts {
		if bytes.Equal(bytes.TrimSpace(part), []byte("null")) {
			continue
		}
		out = append(out, pairText(part))
	}
	*l = out
	return nil
}

// Course is a recommended course. On the wire it is a [label, url] pair.
type Course struct {
	Label string
	URL   string
}

// UnmarshalJSON reads a JSON array; index 0 is the label and index 1 the URL.
// Missing entries stay empty and non-string entries keep their JSON text.
func (c *Course) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("recommendedCourses entry must be an array: %w", err)
	}
	*c = Course{}
	if len(parts) > 0 {
		c.Label = pairText(parts[0])
	}
	if len(parts) > 1 {
		c.URL = pairText(parts[1])
	}
	return nil
}

// MarshalJSON writes the pair form back.
func (c Course) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Label, c.URL})
}

func pairText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}
