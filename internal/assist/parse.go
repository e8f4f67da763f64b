package assist

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes a wrapping markdown code fence (``` or ```json) from a
// model reply. Models often fence JSON even when asked not to, so every
// decode path runs through this first.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line (which may carry a language label).
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeModelJSON strips fences and unmarshals the reply into v.
func decodeModelJSON(raw string, v any) error {
	cleaned := stripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("assist: decoding model reply: %w", err)
	}
	return nil
}
