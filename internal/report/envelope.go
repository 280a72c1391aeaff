// Package report integrates the external narrative generator and
// guarantees that whatever it returns is stored as valid JSON.
package report

import (
	"encoding/json"
	"regexp"
	"strings"
)

// FailedEnvelope is the fixed literal stored when even the fallback
// envelope cannot be serialized.
var FailedEnvelope = json.RawMessage(`{"content":"Report generation failed"}`)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// NormalizeEnvelope turns arbitrary generator output into valid JSON.
// Strategies, first success wins:
//  1. the text already parses as JSON;
//  2. the text is a JSON object whose "content" string carries a fenced
//     JSON block;
//  3. the raw text carries a fenced JSON block;
//  4. wrap the raw text verbatim as {"content": text}.
//
// The return value always parses as valid JSON; callers never need a
// second validation pass.
func NormalizeEnvelope(raw string) json.RawMessage {
	trimmed := strings.TrimSpace(raw)

	if trimmed != "" && json.Valid([]byte(trimmed)) {
		if inner, ok := innerFencedContent(trimmed); ok {
			return inner
		}
		return json.RawMessage(trimmed)
	}

	if inner, ok := extractFencedBlock(trimmed); ok {
		return inner
	}

	wrapped, err := json.Marshal(map[string]string{"content": raw})
	if err != nil {
		return FailedEnvelope
	}
	return wrapped
}

// innerFencedContent handles valid JSON objects whose "content" string
// itself hides a fenced JSON block.
func innerFencedContent(text string) (json.RawMessage, bool) {
	var envelope struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil || envelope.Content == "" {
		return nil, false
	}
	return extractFencedBlock(envelope.Content)
}

// extractFencedBlock scans text for a ```json fenced block and returns
// its contents if they independently parse.
func extractFencedBlock(text string) (json.RawMessage, bool) {
	match := fencedBlockRe.FindStringSubmatch(text)
	if match == nil {
		return nil, false
	}
	inner := strings.TrimSpace(match[1])
	if inner == "" || !json.Valid([]byte(inner)) {
		return nil, false
	}
	return json.RawMessage(inner), true
}
