package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEnvelope(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "already valid json",
			raw:  `{"summary":"strong quarter","score":7}`,
			want: `{"summary":"strong quarter","score":7}`,
		},
		{
			name: "valid json with surrounding whitespace",
			raw:  "\n  {\"a\":1}  \n",
			want: `{"a":1}`,
		},
		{
			name: "fenced block inside content field",
			raw:  `{"content":"Here you go:\n` + "```json\\n{\\\"verdict\\\":\\\"ok\\\"}\\n```" + `"}`,
			want: `{"verdict":"ok"}`,
		},
		{
			name: "fenced block in raw text",
			raw:  "Sure! Here is the report:\n```json\n{\"verdict\":\"ok\"}\n```\nLet me know.",
			want: `{"verdict":"ok"}`,
		},
		{
			name: "fenced block without language tag",
			raw:  "```\n{\"plain\":true}\n```",
			want: `{"plain":true}`,
		},
		{
			name: "plain prose wrapped",
			raw:  "The portfolio performed well.",
			want: `{"content":"The portfolio performed well."}`,
		},
		{
			name: "empty input wrapped",
			raw:  "",
			want: `{"content":""}`,
		},
		{
			name: "fenced block with invalid json falls through to wrap",
			raw:  "```json\nnot json at all{{\n```",
			want: `{"content":"` + "```json\\nnot json at all{{\\n```" + `"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeEnvelope(tt.raw)
			require.True(t, json.Valid(got), "output must always be valid JSON")
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestNormalizeEnvelopeAlwaysValid(t *testing.T) {
	inputs := []string{
		"", " ", "{broken", "```json\n```", "null", "[1,2,3]",
		"line one\nline two\twith \"quotes\"",
	}
	for _, raw := range inputs {
		assert.True(t, json.Valid(NormalizeEnvelope(raw)), "input %q", raw)
	}
}

func TestFailedEnvelopeLiteral(t *testing.T) {
	require.True(t, json.Valid(FailedEnvelope))

	var envelope struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(FailedEnvelope, &envelope))
	assert.Equal(t, "Report generation failed", envelope.Content)
}
