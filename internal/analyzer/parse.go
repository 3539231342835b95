package analyzer

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// firstLine returns the first non-empty line of a reply, trimmed. Lookup
// replies are expected to be a single line, but models occasionally pad
// them with blank lines.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

// stripFences removes a surrounding markdown code fence (```json ... ```)
// if present. Models add one despite being told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeExtraction parses an analysis reply into an Extraction. Any decode
// failure is reported as ErrParse.
func decodeExtraction(text string) (*Extraction, error) {
	var ex Extraction
	if err := json.Unmarshal([]byte(stripFences(text)), &ex); err != nil {
		return nil, eris.Wrapf(ErrParse, "%v", err)
	}
	if ex.Bibliographic.Title == "" {
		return nil, eris.Wrap(ErrParse, "missing bibliographic title")
	}
	return &ex, nil
}
