package ai

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSON pulls the JSON payload out of model output that may wrap it in
// prose ("Here is a JSON array: [...]") or markdown fences. The embedded
// region runs from the first '{' or '[' through the matching last '}' or ']'.
// When nothing parses, a jsonrepair pass is the last resort and the input is
// returned unchanged if even that fails.
func ExtractJSON(input string) string {
	s := strings.TrimSpace(input)

	if json.Valid([]byte(s)) {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if start, end := jsonRegion(s); start >= 0 && end > start {
		sub := s[start : end+1]
		if json.Valid([]byte(sub)) {
			return sub
		}
		s = sub
	}

	if json.Valid([]byte(s)) {
		return s
	}

	out, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return s
	}
	return out
}

// jsonRegion locates the outermost JSON object or array within s, whichever
// opens first. Returns (-1, -1) when there is none.
func jsonRegion(s string) (int, int) {
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')

	start := objStart
	closer := byte('}')
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start = arrStart
		closer = ']'
	}
	if start < 0 {
		return -1, -1
	}
	end := strings.LastIndexByte(s, closer)
	return start, end
}
