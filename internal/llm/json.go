package llm

import (
	"encoding/json"
	"log"
	"strings"
)

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	if endIdx <= 1 {
		return ""
	}
	return strings.Join(lines[1:endIdx], "\n")
}

// ExtractJSONObject returns the span from the first '{' to the last '}' of
// text, tolerating prose or code fences around it.
func ExtractJSONObject(text string) (string, bool) {
	text = StripCodeFence(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// ParseJSONResponse decodes the JSON object embedded in an LLM response
// into out. It reports whether decoding succeeded.
func ParseJSONResponse(text string, out any) bool {
	obj, ok := ExtractJSONObject(text)
	if !ok {
		log.Println("No JSON object in LLM response")
		return false
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		log.Printf("Failed to parse LLM response as JSON: %v", err)
		return false
	}
	return true
}
