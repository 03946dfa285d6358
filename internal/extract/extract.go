// Package extract pulls the JSON payload out of a raw model reply.
package extract

import (
	"encoding/json"
	"strings"

	"fjacquet/voice-ledger/internal/ledgererror"
)

// JSON strips Markdown fences and surrounding prose from a model reply and
// returns the outermost JSON object or array. It fails with an
// EmptyResponseError for blank replies and a MalformedOutputError when no
// valid JSON can be recovered.
func JSON(provider, raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, &ledgererror.EmptyResponseError{Provider: provider}
	}

	s = stripFences(s)

	if json.Valid([]byte(s)) {
		return []byte(s), nil
	}

	if candidate, ok := outermost(s); ok && json.Valid([]byte(candidate)) {
		return []byte(candidate), nil
	}

	return nil, &ledgererror.MalformedOutputError{Raw: raw}
}

// stripFences removes ```json / ``` wrappers wherever they appear.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// outermost keeps the text between the first opening bracket and its last
// matching closer. Objects win over arrays when the object starts first.
func outermost(s string) (string, bool) {
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")

	open, closer := byte('{'), "}"
	start := objStart
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		open, closer, start = '[', "]", arrStart
	}
	if start == -1 {
		return "", false
	}

	end := strings.LastIndex(s, closer)
	if end <= start || s[start] != open {
		return "", false
	}
	return strings.TrimSpace(s[start : end+1]), true
}
